package referral

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/coursely/coursely-api/internal/domain/course"
	"github.com/coursely/coursely-api/internal/domain/user"
	"github.com/coursely/coursely-api/internal/middleware"
	"github.com/coursely/coursely-api/internal/pkg/response"
	"github.com/coursely/coursely-api/internal/pkg/validator"
)

type Handler struct {
	codes     *CodeRepository
	referrals *Repository
	users     user.Repository
	courses   CourseSource
	validator *validator.Validator
}

func NewHandler(codes *CodeRepository, referrals *Repository, users user.Repository, courses CourseSource, v *validator.Validator) *Handler {
	return &Handler{codes: codes, referrals: referrals, users: users, courses: courses, validator: v}
}

type generateCourseCodeRequest struct {
	CourseID string `json:"course_id" validate:"required,uuid4"`
}

type myCodesResponse struct {
	GeneralCode string       `json:"general_code"`
	CourseCodes []CourseCode `json:"course_codes"`
}

// MyCodes handles GET /referrals/my-codes
func (h *Handler) MyCodes(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	u, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			response.NotFound(w, "user not found")
			return
		}
		response.InternalError(w)
		return
	}

	courseCodes, err := h.codes.ListByUser(r.Context(), userID)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, myCodesResponse{
		GeneralCode: u.ReferralCode,
		CourseCodes: courseCodes,
	})
}

// GenerateCourseCode handles POST /referrals/generate-course-code
func (h *Handler) GenerateCourseCode(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req generateCourseCodeRequest
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

	if _, err := h.courses.GetByID(r.Context(), courseID); err != nil {
		if errors.Is(err, course.ErrNotFound) {
			response.NotFound(w, "course not found")
			return
		}
		response.InternalError(w)
		return
	}

	code, err := h.codes.EnsureCourseCode(r.Context(), userID, courseID)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.Created(w, code)
}

// MyReferrals handles GET /referrals
func (h *Handler) MyReferrals(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	referrals, err := h.referrals.ListByReferrer(r.Context(), userID, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, referrals)
}

// Routes returns referral router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/", h.MyReferrals)
	r.Get("/my-codes", h.MyCodes)
	r.Post("/generate-course-code", h.GenerateCourseCode)
	return r
}
