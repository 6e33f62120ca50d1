// AngelaMos | 2026
// dto.go

package auth

import (
	"time"
)

type RegisterRequest struct {
	Email       string `json:"email"       validate:"required,email,max=255"`
	Password    string `json:"password"    validate:"required,min=6,max=128"`
	FirstName   string `json:"firstName"   validate:"required,min=2,max=100"`
	LastName    string `json:"lastName"    validate:"required,min=2,max=100"`
	Phone       string `json:"phone"       validate:"omitempty,phone,max=50"`
	CompanyName string `json:"companyName" validate:"omitempty,min=2,max=255"`
	CompanySlug string `json:"companySlug" validate:"required_with=CompanyName,omitempty,min=2,max=100,slug"`
}

type LoginRequest struct {
	Email       string `json:"email"       validate:"required,email,max=255"`
	Password    string `json:"password"    validate:"required,max=128"`
	CompanySlug string `json:"companySlug" validate:"required,max=100"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type UpdateProfileRequest struct {
	FirstName             *string        `json:"firstName"             validate:"omitempty,min=2,max=100"`
	LastName              *string        `json:"lastName"              validate:"omitempty,min=2,max=100"`
	Phone                 *string        `json:"phone"                 validate:"omitempty,phone,max=50"`
	Bio                   *string        `json:"bio"                   validate:"omitempty,max=1000"`
	Position              *string        `json:"position"              validate:"omitempty,max=100"`
	Department            *string        `json:"department"            validate:"omitempty,max=100"`
	Preferences           map[string]any `json:"preferences"`
	NotificationsSettings map[string]any `json:"notificationsSettings"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword"     validate:"required,min=6,max=128"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token"       validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6,max=128"`
}

type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

type RefreshResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   string `json:"expiresIn"`
}

type ProfileResponseBody struct {
	Bio                   string         `json:"bio,omitempty"`
	Position              string         `json:"position,omitempty"`
	Department            string         `json:"department,omitempty"`
	Preferences           map[string]any `json:"preferences,omitempty"`
	NotificationsSettings map[string]any `json:"notificationsSettings,omitempty"`
}

type UserResponse struct {
	ID          string               `json:"id"`
	Email       string               `json:"email"`
	FirstName   string               `json:"firstName"`
	LastName    string               `json:"lastName"`
	Phone       string               `json:"phone,omitempty"`
	Role        string               `json:"role"`
	Permissions []string             `json:"permissions"`
	CompanyID   *string              `json:"companyId"`
	CompanySlug string               `json:"companySlug,omitempty"`
	CompanyName string               `json:"companyName,omitempty"`
	IsActive    bool                 `json:"isActive"`
	IsVerified  bool                 `json:"isVerified"`
	LastLogin   *time.Time           `json:"lastLogin"`
	CreatedAt   time.Time            `json:"createdAt"`
	Profile     *ProfileResponseBody `json:"profile,omitempty"`
}

type CompanyResponse struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Slug             string    `json:"slug"`
	Email            string    `json:"email,omitempty"`
	Status           string    `json:"status"`
	SubscriptionPlan string    `json:"subscriptionPlan"`
	CreatedAt        time.Time `json:"createdAt"`
}

type AuthResponse struct {
	User    UserResponse     `json:"user"`
	Company *CompanyResponse `json:"company"`
	Tokens  TokenResponse    `json:"tokens"`
}

type ProfileResponse struct {
	User    UserResponse     `json:"user"`
	Company *CompanyResponse `json:"company"`
}

type ForgotPasswordResponse struct {
	ResetToken string `json:"resetToken,omitempty"`
}

type SessionInfo struct {
	ID        string    `json:"id"`
	UserAgent string    `json:"userAgent"`
	IPAddress string    `json:"ipAddress"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type SessionsResponse struct {
	Sessions []SessionInfo `json:"sessions"`
}

func ToUserResponse(u *UserInfo) UserResponse {
	resp := UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Phone:       u.Phone,
		Role:        u.Role,
		Permissions: u.Permissions,
		CompanySlug: u.CompanySlug,
		CompanyName: u.CompanyName,
		IsActive:    u.IsActive,
		IsVerified:  u.IsVerified,
		LastLogin:   u.LastLogin,
		CreatedAt:   u.CreatedAt,
	}

	if resp.Permissions == nil {
		resp.Permissions = []string{}
	}
	if u.CompanyID != "" {
		companyID := u.CompanyID
		resp.CompanyID = &companyID
	}
	if p := u.Profile; p != nil {
		resp.Profile = &ProfileResponseBody{
			Bio:                   p.Bio,
			Position:              p.Position,
			Department:            p.Department,
			Preferences:           p.Preferences,
			NotificationsSettings: p.NotificationsSettings,
		}
	}

	return resp
}

func toCompanyResponse(c *CompanyInfo) *CompanyResponse {
	if c == nil {
		return nil
	}

	return &CompanyResponse{
		ID:               c.ID,
		Name:             c.Name,
		Slug:             c.Slug,
		Email:            c.Email,
		Status:           c.Status,
		SubscriptionPlan: c.SubscriptionPlan,
		CreatedAt:        c.CreatedAt,
	}
}
