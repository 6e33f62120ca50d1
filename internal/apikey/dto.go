// AngelaMos | 2026
// dto.go

package apikey

import (
	"time"
)

type CreateRequest struct {
	Name        string     `json:"name"        validate:"required,min=2,max=255"`
	Permissions []string   `json:"permissions" validate:"omitempty,dive,min=1,max=100"`
	ExpiresAt   *time.Time `json:"expiresAt"`
}

// UpdateRequest is a partial update. A nil Permissions slice leaves the
// stored set untouched.
type UpdateRequest struct {
	Name        *string    `json:"name"        validate:"omitempty,min=2,max=255"`
	Permissions []string   `json:"permissions" validate:"omitempty,dive,min=1,max=100"`
	ExpiresAt   *time.Time `json:"expiresAt"`
	IsActive    *bool      `json:"isActive"`
}

func (r UpdateRequest) empty() bool {
	return r.Name == nil && r.Permissions == nil && r.ExpiresAt == nil && r.IsActive == nil
}

type KeyResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	MaskedKey   string     `json:"maskedKey"`
	Permissions []string   `json:"permissions"`
	IsActive    bool       `json:"isActive"`
	ExpiresAt   *time.Time `json:"expiresAt"`
	LastUsedAt  *time.Time `json:"lastUsedAt"`
	CreatedBy   *string    `json:"createdBy"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// SecretResponse is returned once, when a key is created or rotated.
type SecretResponse struct {
	KeyResponse
	Key     string `json:"key"`
	Warning string `json:"warning"`
}

const secretWarning = "store this key securely, it will not be shown again"

func ToKeyResponse(k *APIKey) KeyResponse {
	perms := []string(k.Permissions)
	if perms == nil {
		perms = []string{}
	}

	return KeyResponse{
		ID:          k.ID,
		Name:        k.Name,
		MaskedKey:   k.MaskedKey(),
		Permissions: perms,
		IsActive:    k.IsActive,
		ExpiresAt:   k.ExpiresAt,
		LastUsedAt:  k.LastUsedAt,
		CreatedBy:   k.CreatedBy,
		CreatedAt:   k.CreatedAt,
		UpdatedAt:   k.UpdatedAt,
	}
}

func ToKeyResponseList(keys []APIKey) []KeyResponse {
	out := make([]KeyResponse, 0, len(keys))
	for i := range keys {
		out = append(out, ToKeyResponse(&keys[i]))
	}
	return out
}

func toSecretResponse(k *APIKey, raw string) SecretResponse {
	return SecretResponse{
		KeyResponse: ToKeyResponse(k),
		Key:         raw,
		Warning:     secretWarning,
	}
}
