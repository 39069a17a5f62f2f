package course

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/coursely/coursely-api/internal/pkg/response"
	"github.com/coursely/coursely-api/internal/pkg/validator"
)

type Handler struct {
	repo      *Repository
	validator *validator.Validator
}

func NewHandler(repo *Repository, v *validator.Validator) *Handler {
	return &Handler{repo: repo, validator: v}
}

// List handles GET /courses
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	courses, err := h.repo.ListActive(r.Context(), limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	items := make([]*CourseResponse, len(courses))
	for i := range courses {
		items[i] = ResponseFromEntity(&courses[i])
	}
	response.OK(w, items)
}

// GetByID handles GET /courses/{id}
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid course id")
		return
	}

	c, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(w, "course not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, ResponseFromEntity(c))
}

// Create handles POST /admin/courses
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	if details := h.validator.Validate(&req); details != nil {
		response.ValidationError(w, details)
		return
	}

	c := req.toEntity()
	if err := h.repo.Create(r.Context(), c); err != nil {
		response.InternalError(w)
		return
	}

	log.Info().Str("course_id", c.ID.String()).Int64("price", c.Price).Msg("course created")
	response.Created(w, ResponseFromEntity(c))
}

// Update handles PUT /admin/courses/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid course id")
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	if details := h.validator.Validate(&req); details != nil {
		response.ValidationError(w, details)
		return
	}

	c := req.toEntity()
	c.ID = id
	if err := h.repo.Update(r.Context(), c); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(w, "course not found")
			return
		}
		response.InternalError(w)
		return
	}

	log.Info().Str("course_id", c.ID.String()).Int64("price", c.Price).Msg("course updated")
	response.OK(w, ResponseFromEntity(c))
}

// Routes returns public course routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/{id}", h.GetByID)
	return r
}

// AdminRoutes returns admin course routes
func (h *Handler) AdminRoutes(authMiddleware, adminMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Use(adminMiddleware)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	return r
}
