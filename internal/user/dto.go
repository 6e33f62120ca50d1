// AngelaMos | 2026
// dto.go

package user

import (
	"time"
)

type CreateUserRequest struct {
	Email       string   `json:"email"       validate:"required,email,max=255"`
	Password    string   `json:"password"    validate:"required,min=6,max=128"`
	FirstName   string   `json:"firstName"   validate:"required,min=2,max=100"`
	LastName    string   `json:"lastName"    validate:"required,min=2,max=100"`
	Phone       string   `json:"phone"       validate:"omitempty,phone,max=50"`
	Role        string   `json:"role"        validate:"omitempty,oneof=admin manager user"`
	Permissions []string `json:"permissions" validate:"omitempty,dive,min=1,max=100"`
}

type UpdateUserRequest struct {
	FirstName  *string `json:"firstName"  validate:"omitempty,min=2,max=100"`
	LastName   *string `json:"lastName"   validate:"omitempty,min=2,max=100"`
	Phone      *string `json:"phone"      validate:"omitempty,phone,max=50"`
	IsVerified *bool   `json:"isVerified"`
}

type UpdateRoleRequest struct {
	Role        string   `json:"role"        validate:"required,oneof=admin manager user"`
	Permissions []string `json:"permissions" validate:"omitempty,dive,min=1,max=100"`
}

type ListUsersParams struct {
	CompanyID string
	Page      int
	PageSize  int
	Search    string
	Role      string
	IsActive  *bool
}

func (p *ListUsersParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListUsersParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

type UserResponse struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	Phone       string     `json:"phone,omitempty"`
	CompanyID   *string    `json:"companyId"`
	Role        string     `json:"role"`
	Permissions []string   `json:"permissions"`
	IsActive    bool       `json:"isActive"`
	IsVerified  bool       `json:"isVerified"`
	LastLogin   *time.Time `json:"lastLogin"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func ToUserResponse(u *User) UserResponse {
	perms := []string(u.Permissions)
	if perms == nil {
		perms = []string{}
	}

	return UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Phone:       deref(u.Phone),
		CompanyID:   u.CompanyID,
		Role:        u.Role,
		Permissions: perms,
		IsActive:    u.IsActive,
		IsVerified:  u.IsVerified,
		LastLogin:   u.LastLogin,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func ToUserResponseList(users []User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, ToUserResponse(&users[i]))
	}
	return responses
}
