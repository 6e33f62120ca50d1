// AngelaMos | 2026
// handler.go

package user

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/terminar/core-service/internal/auth"
	"github.com/terminar/core-service/internal/core"
	"github.com/terminar/core-service/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: core.NewValidator(),
	}
}

// RegisterRoutes mounts /users behind authentication and the tenant gate.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	requireAuth, requireCompany func(http.Handler) http.Handler,
) {
	adminOnly := middleware.RequireRole(middleware.RoleAdmin)

	r.Route("/users", func(r chi.Router) {
		r.Use(requireAuth)
		r.Use(requireCompany)

		r.Get("/", h.ListUsers)
		r.With(middleware.RequireRole(middleware.RoleAdmin, middleware.RoleManager)).
			Get("/stats", h.GetStats)
		r.Get("/{userID}", h.GetUser)
		r.Put("/{userID}", h.UpdateUser)

		r.With(adminOnly).Post("/", h.CreateUser)
		r.With(adminOnly).Put("/{userID}/role", h.UpdateUserRole)
		r.With(adminOnly).Put("/{userID}/activate", h.ActivateUser)
		r.With(adminOnly).Put("/{userID}/deactivate", h.DeactivateUser)
		r.With(adminOnly).Delete("/{userID}", h.DeleteUser)
	})
}

// ListUsers returns a paginated list of the caller's company users.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	params := ListUsersParams{
		CompanyID: middleware.GetCompanyID(r.Context()),
		Page:      core.QueryInt(r, "page", 1),
		PageSize:  core.QueryInt(r, "limit", 20),
		Search:    r.URL.Query().Get("search"),
		Role:      r.URL.Query().Get("role"),
		IsActive:  core.QueryBool(r, "isActive"),
	}
	params.Normalize()

	users, total, err := h.service.List(r.Context(), params)
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.Paginated(
		w,
		ToUserResponseList(users),
		params.Page,
		params.PageSize,
		total,
	)
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context(), middleware.GetCompanyID(r.Context()))
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.OK(w, map[string]any{"stats": stats})
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.Get(
		r.Context(),
		middleware.GetIdentity(r.Context()),
		chi.URLParam(r, "userID"),
	)
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.OK(w, map[string]any{"user": ToUserResponse(u)})
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !core.DecodeAndValidate(w, r, h.validator, &req) {
		return
	}

	u, err := h.service.Create(r.Context(), middleware.GetIdentity(r.Context()), req)
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.JSON(w, http.StatusCreated, core.Response{
		Success: true,
		Message: "user created successfully",
		Data:    map[string]any{"user": ToUserResponse(u)},
	})
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRequest
	if !core.DecodeAndValidate(w, r, h.validator, &req) {
		return
	}

	u, err := h.service.Update(
		r.Context(),
		middleware.GetIdentity(r.Context()),
		chi.URLParam(r, "userID"),
		req,
	)
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.OKMessage(w, "user updated successfully", map[string]any{
		"user": ToUserResponse(u),
	})
}

func (h *Handler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	var req UpdateRoleRequest
	if !core.DecodeAndValidate(w, r, h.validator, &req) {
		return
	}

	u, err := h.service.UpdateRole(
		r.Context(),
		middleware.GetIdentity(r.Context()),
		chi.URLParam(r, "userID"),
		req,
	)
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.OKMessage(w, "user role updated successfully", map[string]any{
		"user": ToUserResponse(u),
	})
}

func (h *Handler) ActivateUser(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true, "user activated successfully")
}

func (h *Handler) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false, "user deactivated successfully")
}

func (h *Handler) setActive(
	w http.ResponseWriter,
	r *http.Request,
	active bool,
	message string,
) {
	u, err := h.service.SetActive(
		r.Context(),
		middleware.GetIdentity(r.Context()),
		chi.URLParam(r, "userID"),
		active,
	)
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.OKMessage(w, message, map[string]any{"user": ToUserResponse(u)})
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(
		r.Context(),
		middleware.GetIdentity(r.Context()),
		chi.URLParam(r, "userID"),
	)
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.OKMessage(w, "user deleted successfully", nil)
}

func (h *Handler) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrAccessDenied),
		errors.Is(err, ErrOwnRole),
		errors.Is(err, ErrOwnDeactivation),
		errors.Is(err, ErrOwnDeletion),
		errors.Is(err, ErrLastAdminDemote),
		errors.Is(err, ErrLastAdminDeactivate),
		errors.Is(err, ErrLastAdminDelete),
		errors.Is(err, ErrVerifyAdminOnly):
		core.Forbidden(w, err.Error())
	case errors.Is(err, auth.ErrEmailTaken):
		core.BadRequest(w, err.Error())
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "user")
	default:
		core.HandleError(w, err)
	}
}
