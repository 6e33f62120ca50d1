// AngelaMos | 2026
// handler.go

package apikey

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
	r.Route("/api-keys", func(r chi.Router) {
		r.Use(requireAuth)
		r.Use(requireCompany)
		r.Use(middleware.RequireRole(middleware.RoleAdmin, middleware.RoleManager))

		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{keyID}", h.Get)
		r.Put("/{keyID}", h.Update)
		r.Put("/{keyID}/activate", h.Activate)
		r.Put("/{keyID}/deactivate", h.Deactivate)
		r.Post("/{keyID}/regenerate", h.Regenerate)
		r.Delete("/{keyID}", h.Delete)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	keys, err := h.service.List(
		r.Context(),
		middleware.GetCompanyID(r.Context()),
		core.QueryBool(r, "isActive"),
	)
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.OK(w, map[string]any{"apiKeys": ToKeyResponseList(keys)})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	key, err := h.service.Get(
		r.Context(),
		middleware.GetCompanyID(r.Context()),
		chi.URLParam(r, "keyID"),
	)
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.OK(w, map[string]any{"apiKey": ToKeyResponse(key)})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if !core.DecodeAndValidate(w, r, h.validator, &req) {
		return
	}

	key, raw, err := h.service.Create(
		r.Context(),
		middleware.GetCompanyID(r.Context()),
		middleware.GetUserID(r.Context()),
		req,
	)
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.JSON(w, http.StatusCreated, core.Response{
		Success: true,
		Message: "API key created successfully",
		Data:    map[string]any{"apiKey": toSecretResponse(key, raw)},
	})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateRequest
	if !core.DecodeAndValidate(w, r, h.validator, &req) {
		return
	}

	key, err := h.service.Update(
		r.Context(),
		middleware.GetCompanyID(r.Context()),
		chi.URLParam(r, "keyID"),
		req,
	)
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.OKMessage(w, "API key updated successfully", map[string]any{
		"apiKey": ToKeyResponse(key),
	})
}

func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true, "API key activated successfully")
}

func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false, "API key deactivated successfully")
}

func (h *Handler) setActive(
	w http.ResponseWriter,
	r *http.Request,
	active bool,
	message string,
) {
	key, err := h.service.SetActive(
		r.Context(),
		middleware.GetCompanyID(r.Context()),
		chi.URLParam(r, "keyID"),
		active,
	)
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.OKMessage(w, message, map[string]any{"apiKey": ToKeyResponse(key)})
}

func (h *Handler) Regenerate(w http.ResponseWriter, r *http.Request) {
	key, raw, err := h.service.Regenerate(
		r.Context(),
		middleware.GetCompanyID(r.Context()),
		chi.URLParam(r, "keyID"),
	)
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.OKMessage(w, "API key regenerated successfully", map[string]any{
		"apiKey": toSecretResponse(key, raw),
	})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(
		r.Context(),
		middleware.GetCompanyID(r.Context()),
		chi.URLParam(r, "keyID"),
	)
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.OKMessage(w, "API key deleted successfully", nil)
}

func (h *Handler) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNoFields), errors.Is(err, ErrExpiryInPast):
		core.BadRequest(w, err.Error())
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "API key")
	default:
		core.HandleError(w, err)
	}
}
