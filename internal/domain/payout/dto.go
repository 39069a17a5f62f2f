package payout

import "time"

type createMethodRequest struct {
	Type    string `json:"type" validate:"required,payout_method_type"`
	Label   string `json:"label" validate:"required,max=100"`
	Details string `json:"details" validate:"required,max=500"`
}

type createRequestRequest struct {
	Amount   int64  `json:"amount" validate:"required,gt=0"`
	MethodID string `json:"method_id" validate:"required,uuid4"`
}

type resolveRequest struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
	Notes  string `json:"notes,omitempty" validate:"max=1000"`
}

// RequestResponse flattens nullable columns for JSON.
type RequestResponse struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	MethodID    string     `json:"method_id"`
	Amount      int64      `json:"amount"`
	Status      string     `json:"status"`
	Notes       string     `json:"notes,omitempty"`
	RequestedAt time.Time  `json:"requested_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

func requestResponseFromEntity(r *Request) *RequestResponse {
	resp := &RequestResponse{
		ID:          r.ID.String(),
		UserID:      r.UserID.String(),
		MethodID:    r.MethodID.String(),
		Amount:      r.Amount,
		Status:      string(r.Status),
		RequestedAt: r.RequestedAt,
	}
	if r.Notes.Valid {
		resp.Notes = r.Notes.String
	}
	if r.ProcessedAt.Valid {
		t := r.ProcessedAt.Time
		resp.ProcessedAt = &t
	}
	return resp
}

func requestResponsesFromEntities(rows []Request) []*RequestResponse {
	out := make([]*RequestResponse, len(rows))
	for i := range rows {
		out[i] = requestResponseFromEntity(&rows[i])
	}
	return out
}
