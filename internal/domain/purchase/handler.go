package purchase

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/coursely/coursely-api/internal/domain/course"
	"github.com/coursely/coursely-api/internal/middleware"
	"github.com/coursely/coursely-api/internal/pkg/gateway"
	"github.com/coursely/coursely-api/internal/pkg/response"
	"github.com/coursely/coursely-api/internal/pkg/validator"
)

type Handler struct {
	svc           *Service
	validator     *validator.Validator
	gatewaySecret string
}

func NewHandler(svc *Service, v *validator.Validator, gatewaySecret string) *Handler {
	return &Handler{svc: svc, validator: v, gatewaySecret: gatewaySecret}
}

type beginRequest struct {
	CourseID     string `json:"course_id" validate:"required,uuid4"`
	ReferralCode string `json:"referral_code,omitempty" validate:"omitempty,max=32"`
}

// Begin handles POST /purchases
func (h *Handler) Begin(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req beginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	if details := h.validator.Validate(&req); details != nil {
		response.ValidationError(w, details)
		return
	}

	courseID, err := uuid.Parse(req.CourseID)
	if err != nil {
		response.BadRequest(w, "invalid course id")
		return
	}

	p, err := h.svc.Begin(r.Context(), userID, courseID, req.ReferralCode)
	if err != nil {
		switch {
		case errors.Is(err, course.ErrNotFound):
			response.NotFound(w, "course not found")
		case errors.Is(err, course.ErrInactive):
			response.Conflict(w, "course is not available for purchase")
		default:
			response.InternalError(w)
		}
		return
	}

	response.Created(w, p)
}

// Confirm handles POST /purchases/{id}/confirm. Called by the payment gateway,
// authenticated by the payload signature rather than a user token.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	conf, err := gateway.ParseConfirmation(r.Body)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	if conf.PurchaseID != chi.URLParam(r, "id") {
		response.BadRequest(w, "purchase id mismatch")
		return
	}

	if !conf.VerifySignature(h.gatewaySecret) {
		log.Warn().Str("purchase_id", conf.PurchaseID).Msg("gateway confirmation signature rejected")
		response.Unauthorized(w, "invalid signature")
		return
	}

	p, err := h.svc.Confirm(r.Context(), conf)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			response.NotFound(w, "purchase not found")
		case errors.Is(err, ErrAmountMismatch):
			response.Conflict(w, "confirmation amount does not match purchase")
		case errors.Is(err, ErrAlreadyFailed):
			response.Conflict(w, "purchase already marked failed")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, p)
}

// ListMy handles GET /purchases
func (h *Handler) ListMy(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	purchases, err := h.svc.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, purchases)
}

// Routes returns purchase router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	// Gateway callback, signature-authenticated
	r.Post("/{id}/confirm", h.Confirm)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/", h.Begin)
		r.Get("/", h.ListMy)
	})

	return r
}
