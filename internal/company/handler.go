// AngelaMos | 2026
// handler.go

package company

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

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

func (h *Handler) RegisterRoutes(
	r chi.Router,
	requireAuth, requireCompany func(http.Handler) http.Handler,
) {
	r.Route("/companies", func(r chi.Router) {
		r.Get("/public/{slug}", h.GetPublicProfile)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Use(middleware.RequireSystemAdmin)

			r.Get("/all", h.ListAll)
			r.Get("/stats/global", h.GlobalStats)
			r.Post("/", h.Create)
			r.Get("/{companyID}", h.GetByID)
			r.Put("/{companyID}", h.AdminUpdate)
			r.Delete("/{companyID}", h.Delete)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Use(requireCompany)

			r.Get("/", h.GetMine)
			r.Get("/settings", h.GetSettings)
			r.Get("/users", h.ListUsers)
			r.Get("/stats", h.Stats)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(middleware.RoleAdmin, middleware.RoleManager))
				r.Put("/", h.UpdateMine)
				r.Put("/settings", h.UpdateSettings)
				r.Delete("/logo", h.RemoveLogo)
			})
		})
	})
}

func (h *Handler) GetPublicProfile(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.GetPublicProfile(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.OK(w, ToPublicProfile(c))
}

func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	params := ListCompaniesParams{
		Page:     core.QueryInt(r, "page", 1),
		PageSize: core.QueryInt(r, "pageSize", 20),
		Status:   r.URL.Query().Get("status"),
		Plan:     r.URL.Query().Get("plan"),
		Search:   r.URL.Query().Get("search"),
	}
	params.Normalize()

	companies, total, err := h.service.List(r.Context(), params)
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.Paginated(
		w,
		ToCompanyResponseList(companies),
		params.Page,
		params.PageSize,
		total,
	)
}

func (h *Handler) GlobalStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GlobalStats(r.Context())
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.OK(w, stats)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCompanyRequest
	if !core.DecodeAndValidate(w, r, h.validator, &req) {
		return
	}

	c, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.JSON(w, http.StatusCreated, core.Response{
		Success: true,
		Message: "company created successfully",
		Data:    ToCompanyResponse(c),
	})
}

func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.Get(r.Context(), chi.URLParam(r, "companyID"))
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.OK(w, ToCompanyResponse(c))
}

func (h *Handler) AdminUpdate(w http.ResponseWriter, r *http.Request) {
	var req AdminUpdateCompanyRequest
	if !core.DecodeAndValidate(w, r, h.validator, &req) {
		return
	}

	c, err := h.service.AdminUpdate(r.Context(), chi.URLParam(r, "companyID"), req)
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.OKMessage(w, "company updated successfully", ToCompanyResponse(c))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "companyID")); err != nil {
		h.handleError(w, err)
		return
	}

	core.OKMessage(w, "company deleted successfully", nil)
}

func (h *Handler) GetMine(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.Get(r.Context(), middleware.GetCompanyID(r.Context()))
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.OK(w, ToCompanyResponse(c))
}

func (h *Handler) UpdateMine(w http.ResponseWriter, r *http.Request) {
	var req UpdateCompanyRequest
	if !core.DecodeAndValidate(w, r, h.validator, &req) {
		return
	}

	c, err := h.service.Update(r.Context(), middleware.GetCompanyID(r.Context()), req)
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.OKMessage(w, "company updated successfully", ToCompanyResponse(c))
}

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.Get(r.Context(), middleware.GetCompanyID(r.Context()))
	if err != nil {
		h.handleError(w, err)
		return
	}

	settings := map[string]any(c.Settings)
	if settings == nil {
		settings = map[string]any{}
	}

	core.OK(w, map[string]any{"settings": settings})
}

func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req UpdateSettingsRequest
	if !core.DecodeAndValidate(w, r, h.validator, &req) {
		return
	}

	settings, err := h.service.UpdateSettings(
		r.Context(),
		middleware.GetCompanyID(r.Context()),
		req.Settings,
	)
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.OKMessage(w, "settings updated successfully", map[string]any{
		"settings": settings,
	})
}

func (h *Handler) RemoveLogo(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RemoveLogo(r.Context(), middleware.GetCompanyID(r.Context())); err != nil {
		h.handleError(w, err)
		return
	}

	core.OKMessage(w, "logo removed successfully", nil)
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	params := ListUsersParams{
		CompanyID: middleware.GetCompanyID(r.Context()),
		Page:      core.QueryInt(r, "page", 1),
		PageSize:  core.QueryInt(r, "pageSize", 20),
		Role:      r.URL.Query().Get("role"),
		IsActive:  core.QueryBool(r, "isActive"),
	}
	params.Normalize()

	users, total, err := h.service.ListUsers(r.Context(), params)
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.Paginated(w, ToCompanyUserList(users), params.Page, params.PageSize, total)
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context(), middleware.GetCompanyID(r.Context()))
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.OK(w, stats)
}

func (h *Handler) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSlugTaken),
		errors.Is(err, ErrEmailTaken),
		errors.Is(err, ErrHasUsers),
		errors.Is(err, ErrNoLogo),
		errors.Is(err, ErrEmptySettings):
		core.BadRequest(w, err.Error())
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "company")
	default:
		core.HandleError(w, err)
	}
}
