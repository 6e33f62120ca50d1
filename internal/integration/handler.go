// AngelaMos | 2026
// handler.go

package integration

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/terminar/core-service/internal/company"
	"github.com/terminar/core-service/internal/core"
	"github.com/terminar/core-service/internal/middleware"
)

const serviceName = "core-service"

// Guards are the gate middlewares the integration routes run behind.
type Guards struct {
	Flexible  func(http.Handler) http.Handler
	APIKey    func(http.Handler) http.Handler
	RateLimit func(http.Handler) http.Handler
}

type Handler struct {
	service   *Service
	validator *validator.Validate
	version   string
}

func NewHandler(service *Service, version string) *Handler {
	return &Handler{
		service:   service,
		validator: core.NewValidator(),
		version:   version,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router, guards Guards) {
	limit := guards.RateLimit
	if limit == nil {
		limit = func(next http.Handler) http.Handler { return next }
	}

	r.Route("/integration", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Group(func(r chi.Router) {
			r.Use(guards.Flexible)
			r.Use(limit)

			r.Post("/validate-user", h.ValidateUser)
			r.Get("/company/slug/{slug}", h.CompanyBySlug)
			r.Get("/company/{companyID}", h.Company)
			r.With(middleware.RequireAPIPermission("users:read")).
				Get("/company/{companyID}/users", h.CompanyUsers)
		})

		r.Group(func(r chi.Router) {
			r.Use(guards.APIKey)
			r.Use(limit)

			r.Post("/log", h.RecordActivity)
			r.Get("/logs", h.Logs)
		})
	})
}

func (h *Handler) ValidateUser(w http.ResponseWriter, r *http.Request) {
	var req ValidateUserRequest
	if !core.DecodeAndValidate(w, r, h.validator, &req) {
		return
	}

	result, err := h.service.ValidateUser(
		r.Context(),
		middleware.GetIdentity(r.Context()),
		req.UserID,
		req.CompanyID,
	)
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.OK(w, toValidationResponse(result))
}

func (h *Handler) Company(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.Company(
		r.Context(),
		middleware.GetIdentity(r.Context()),
		chi.URLParam(r, "companyID"),
	)
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.OK(w, map[string]any{"company": company.ToCompanyResponse(c)})
}

func (h *Handler) CompanyBySlug(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.CompanyBySlug(
		r.Context(),
		middleware.GetIdentity(r.Context()),
		chi.URLParam(r, "slug"),
	)
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.OK(w, map[string]any{"company": company.ToCompanyResponse(c)})
}

func (h *Handler) CompanyUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.CompanyUsers(
		r.Context(),
		middleware.GetIdentity(r.Context()),
		chi.URLParam(r, "companyID"),
		r.URL.Query().Get("role"),
		core.QueryBool(r, "isActive"),
		core.QueryInt(r, "limit", defaultUserLimit),
	)
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.OK(w, map[string]any{"users": company.ToCompanyUserList(users)})
}

func (h *Handler) RecordActivity(w http.ResponseWriter, r *http.Request) {
	var req LogRequest
	if !core.DecodeAndValidate(w, r, h.validator, &req) {
		return
	}

	entry, err := h.service.RecordActivity(
		r.Context(),
		middleware.GetCompanyID(r.Context()),
		req,
	)
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.OKMessage(w, "Integration activity logged", map[string]any{"id": entry.ID})
}

func (h *Handler) Logs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := LogFilter{
		CompanyID: middleware.GetCompanyID(r.Context()),
		Service:   q.Get("service"),
		Action:    q.Get("action"),
		Status:    q.Get("status"),
		Limit:     core.QueryInt(r, "limit", defaultLogLimit),
		Offset:    core.QueryInt(r, "offset", 0),
	}
	filter.Normalize()

	logs, total, err := h.service.Logs(r.Context(), filter)
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.OK(w, LogPage{
		Logs: logs,
		Pagination: LogPagination{
			Limit:  filter.Limit,
			Offset: filter.Offset,
			Total:  total,
		},
	})
}

// Health is public and answers outside the response envelope.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	core.JSON(w, http.StatusOK, HealthResponse{
		Success:   true,
		Service:   serviceName,
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   h.version,
	})
}

func (h *Handler) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUserUnavailable), errors.Is(err, ErrCompanyUnavailable):
		core.JSONError(w, core.NewAppError(err, err.Error(), http.StatusNotFound, "NOT_FOUND"))
	case errors.Is(err, ErrUserCompanyMismatch), errors.Is(err, ErrCompanyAccess):
		core.Forbidden(w, err.Error())
	default:
		core.HandleError(w, err)
	}
}
