package course

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, c *Course) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO courses (id, title, description, price, commission_type, commission_value, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
	`, c.ID, c.Title, c.Description, c.Price, c.CommissionType, c.CommissionValue, c.IsActive)
	return err
}

func (r *Repository) Update(ctx context.Context, c *Course) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE courses
		SET title = $1, description = $2, price = $3, commission_type = $4,
		    commission_value = $5, is_active = $6, updated_at = now()
		WHERE id = $7
	`, c.Title, c.Description, c.Price, c.CommissionType, c.CommissionValue, c.IsActive, c.ID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Course, error) {
	var c Course
	err := r.db.GetContext(ctx, &c, `
		SELECT id, title, description, price, commission_type, commission_value, is_active, created_at, updated_at
		FROM courses WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repository) ListActive(ctx context.Context, limit, offset int) ([]Course, error) {
	rows := []Course{}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, title, description, price, commission_type, commission_value, is_active, created_at, updated_at
		FROM courses
		WHERE is_active = true
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	return rows, err
}
