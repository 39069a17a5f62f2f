package payout

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/coursely/coursely-api/internal/domain/wallet"
	"github.com/coursely/coursely-api/internal/middleware"
	"github.com/coursely/coursely-api/internal/pkg/response"
	"github.com/coursely/coursely-api/internal/pkg/validator"
)

type Handler struct {
	svc       *Service
	validator *validator.Validator
}

func NewHandler(svc *Service, v *validator.Validator) *Handler {
	return &Handler{svc: svc, validator: v}
}

// CreateRequest handles POST /wallet/payout-requests
func (h *Handler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req createRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	if details := h.validator.Validate(&req); details != nil {
		response.ValidationError(w, details)
		return
	}

	methodID, err := uuid.Parse(req.MethodID)
	if err != nil {
		response.BadRequest(w, "invalid method id")
		return
	}

	created, err := h.svc.Request(r.Context(), userID, req.Amount, methodID)
	if err != nil {
		switch {
		case errors.Is(err, ErrBelowMinimum):
			response.BadRequest(w, "amount is below the minimum payout threshold")
		case errors.Is(err, ErrMethodNotFound):
			response.NotFound(w, "payout method not found")
		case errors.Is(err, ErrRequestAlreadyPending):
			response.Conflict(w, "a pending payout request already exists")
		case errors.Is(err, wallet.ErrInsufficientBalance):
			response.Conflict(w, "insufficient wallet balance")
		default:
			response.InternalError(w)
		}
		return
	}

	response.Created(w, requestResponseFromEntity(created))
}

// ListMyRequests handles GET /wallet/payout-requests
func (h *Handler) ListMyRequests(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	rows, err := h.svc.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, requestResponsesFromEntities(rows))
}

// CreateMethod handles POST /wallet/payout-methods
func (h *Handler) CreateMethod(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req createMethodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	if details := h.validator.Validate(&req); details != nil {
		response.ValidationError(w, details)
		return
	}

	m, err := h.svc.CreateMethod(r.Context(), userID, req.Type, req.Label, req.Details)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.Created(w, m)
}

// ListMethods handles GET /wallet/payout-methods
func (h *Handler) ListMethods(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	methods, err := h.svc.ListMethods(r.Context(), userID)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, methods)
}

// Resolve handles PUT /admin/payout-requests/{id}
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid request id")
		return
	}

	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	if details := h.validator.Validate(&req); details != nil {
		response.ValidationError(w, details)
		return
	}

	var resolved *Request
	if req.Status == "approved" {
		resolved, err = h.svc.Approve(r.Context(), id, req.Notes)
	} else {
		resolved, err = h.svc.Reject(r.Context(), id, req.Notes)
	}
	if err != nil {
		switch {
		case errors.Is(err, ErrRequestNotFound):
			response.NotFound(w, "payout request not found")
		case errors.Is(err, ErrNotPending):
			response.Conflict(w, "payout request is not pending")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, requestResponseFromEntity(resolved))
}

// ListAll handles GET /admin/payout-requests
func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	status := r.URL.Query().Get("status")

	rows, err := h.svc.ListAll(r.Context(), status, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, requestResponsesFromEntities(rows))
}

// AdminRoutes returns admin payout routes. The member-facing endpoints are
// registered under /wallet in main, next to the wallet read endpoints.
func (h *Handler) AdminRoutes(authMiddleware, adminMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Use(adminMiddleware)
	r.Get("/", h.ListAll)
	r.Put("/{id}", h.Resolve)
	return r
}
