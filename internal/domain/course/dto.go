package course

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type CreateRequest struct {
	Title           string `json:"title" validate:"required,min=3,max=200"`
	Description     string `json:"description" validate:"max=5000"`
	Price           int64  `json:"price" validate:"gte=0"`
	CommissionType  string `json:"commission_type,omitempty" validate:"omitempty,commission_type"`
	CommissionValue int64  `json:"commission_value,omitempty" validate:"gte=0"`
	IsActive        *bool  `json:"is_active,omitempty"`
}

type CourseResponse struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Price           int64     `json:"price"`
	CommissionType  string    `json:"commission_type,omitempty"`
	CommissionValue int64     `json:"commission_value,omitempty"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
}

func ResponseFromEntity(c *Course) *CourseResponse {
	return &CourseResponse{
		ID:              c.ID,
		Title:           c.Title,
		Description:     c.Description,
		Price:           c.Price,
		CommissionType:  c.CommissionType.String,
		CommissionValue: c.CommissionValue.Int64,
		IsActive:        c.IsActive,
		CreatedAt:       c.CreatedAt,
	}
}

func (req *CreateRequest) toEntity() *Course {
	c := &Course{
		ID:          uuid.New(),
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		IsActive:    true,
	}
	if req.IsActive != nil {
		c.IsActive = *req.IsActive
	}
	if req.CommissionType != "" {
		c.CommissionType = sql.NullString{String: req.CommissionType, Valid: true}
		c.CommissionValue = sql.NullInt64{Int64: req.CommissionValue, Valid: true}
	}
	return c
}
