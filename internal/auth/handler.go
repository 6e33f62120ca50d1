// AngelaMos | 2026
// handler.go

package auth

import (
	"errors"
	"net/http"
	"strconv"

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

// RegisterRoutes mounts /auth. limiter guards the credential endpoints.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	requireAuth func(http.Handler) http.Handler,
	credentialLimiter func(http.Handler) http.Handler,
	accountLimiter func(http.Handler) http.Handler,
) {
	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(credentialLimiter)
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
			r.Post("/refresh", h.Refresh)
			r.Post("/forgot-password", h.ForgotPassword)
			r.Post("/reset-password", h.ResetPassword)
		})

		r.Post("/logout", h.Logout)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth, accountLimiter)
			r.Post("/logout-all", h.LogoutAll)
			r.Get("/profile", h.GetProfile)
			r.Put("/profile", h.UpdateProfile)
			r.Put("/change-password", h.ChangePassword)
			r.Get("/sessions", h.GetSessions)
			r.Delete("/sessions/{sessionID}", h.RevokeSession)
		})
	})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !core.DecodeAndValidate(w, r, h.validator, &req) {
		return
	}

	resp, err := h.service.Register(r.Context(), req, clientInfo(r))
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.JSON(w, http.StatusCreated, core.Response{
		Success: true,
		Message: "registration successful",
		Data:    resp,
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !core.DecodeAndValidate(w, r, h.validator, &req) {
		return
	}

	resp, err := h.service.Login(r.Context(), req, clientInfo(r))
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.OKMessage(w, "login successful", resp)
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !core.DecodeAndValidate(w, r, h.validator, &req) {
		return
	}

	resp, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.OKMessage(w, "token refreshed successfully", resp)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req LogoutRequest
	if !core.DecodeAndValidate(w, r, h.validator, &req) {
		return
	}

	if err := h.service.Logout(r.Context(), req.RefreshToken); err != nil {
		h.handleError(w, err)
		return
	}

	core.OKMessage(w, "logged out successfully", nil)
}

func (h *Handler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	if err := h.service.LogoutAll(r.Context(), middleware.GetUserID(r.Context())); err != nil {
		h.handleError(w, err)
		return
	}

	core.OKMessage(w, "logged out from all devices successfully", nil)
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.GetProfile(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if !core.DecodeAndValidate(w, r, h.validator, &req) {
		return
	}

	user, err := h.service.UpdateProfile(
		r.Context(),
		middleware.GetUserID(r.Context()),
		req,
	)
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.OKMessage(w, "profile updated successfully", map[string]any{
		"user": user,
	})
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if !core.DecodeAndValidate(w, r, h.validator, &req) {
		return
	}

	if err := h.service.ChangePassword(
		r.Context(),
		middleware.GetUserID(r.Context()),
		req,
	); err != nil {
		h.handleError(w, err)
		return
	}

	core.OKMessage(
		w,
		"password changed successfully, please login again on all devices",
		nil,
	)
}

const forgotPasswordMessage = "if an account with that email exists, " +
	"we have sent a password reset link"

func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if !core.DecodeAndValidate(w, r, h.validator, &req) {
		return
	}

	token := h.service.ForgotPassword(r.Context(), req.Email)

	var data any
	if token != "" {
		data = ForgotPasswordResponse{ResetToken: token}
	}

	core.OKMessage(w, forgotPasswordMessage, data)
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if !core.DecodeAndValidate(w, r, h.validator, &req) {
		return
	}

	if err := h.service.ResetPassword(r.Context(), req); err != nil {
		h.handleError(w, err)
		return
	}

	core.OKMessage(w, "password has been reset, please login", nil)
}

func (h *Handler) GetSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.service.ListSessions(
		r.Context(),
		middleware.GetUserID(r.Context()),
	)
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.OK(w, SessionsResponse{Sessions: sessions})
}

func (h *Handler) RevokeSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	err := h.service.RevokeSession(
		r.Context(),
		middleware.GetUserID(r.Context()),
		sessionID,
	)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "session")
			return
		}
		if errors.Is(err, core.ErrForbidden) {
			core.Forbidden(w, "cannot revoke another user's session")
			return
		}
		h.handleError(w, err)
		return
	}

	core.OKMessage(w, "session revoked", nil)
}

func (h *Handler) handleError(w http.ResponseWriter, err error) {
	var lockout *LockoutError

	switch {
	case errors.As(err, &lockout):
		seconds := int(lockout.RetryAfter.Seconds())
		if seconds < 1 {
			seconds = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
		core.JSONError(w, core.RateLimitedError(ErrLoginLocked.Error()))
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrAccountDisabled),
		errors.Is(err, ErrCompanyInactive),
		errors.Is(err, middleware.ErrUserInactive):
		core.JSONError(w, core.UnauthorizedError(err.Error()))
	case errors.Is(err, ErrEmailTaken),
		errors.Is(err, ErrSlugTaken),
		errors.Is(err, ErrWrongPassword),
		errors.Is(err, ErrInvalidResetToken):
		core.BadRequest(w, err.Error())
	case errors.Is(err, core.ErrTokenExpired):
		core.JSONError(w, core.TokenExpiredError())
	case errors.Is(err, core.ErrTokenRevoked):
		core.JSONError(w, core.TokenRevokedError())
	case errors.Is(err, core.ErrTokenInvalid):
		core.JSONError(w, core.TokenInvalidError())
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "user")
	default:
		core.HandleError(w, err)
	}
}

func clientInfo(r *http.Request) ClientInfo {
	return ClientInfo{
		UserAgent: r.UserAgent(),
		IPAddress: middleware.ClientIP(r),
	}
}
