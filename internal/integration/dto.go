// AngelaMos | 2026
// dto.go

package integration

import (
	"time"

	"github.com/terminar/core-service/internal/auth"
	"github.com/terminar/core-service/internal/company"
)

type ValidateUserRequest struct {
	UserID    string `json:"userId"    validate:"required"`
	CompanyID string `json:"companyId"`
}

type LogRequest struct {
	Service      string         `json:"service"      validate:"required,max=100"`
	Action       string         `json:"action"       validate:"required,max=100"`
	Status       string         `json:"status"       validate:"required,max=50"`
	RequestData  map[string]any `json:"requestData"`
	ResponseData map[string]any `json:"responseData"`
	ErrorMessage *string        `json:"errorMessage" validate:"omitempty,max=2000"`
	DurationMs   *int           `json:"durationMs"   validate:"omitempty,min=0"`
}

type ValidationResponse struct {
	User        auth.UserResponse        `json:"user"`
	Company     *company.CompanyResponse `json:"company"`
	Permissions []string                 `json:"permissions"`
	IsValid     bool                     `json:"isValid"`
}

type LogPage struct {
	Logs       []ActivityLog `json:"logs"`
	Pagination LogPagination `json:"pagination"`
}

type LogPagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

type HealthResponse struct {
	Success   bool      `json:"success"`
	Service   string    `json:"service"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

func toValidationResponse(v *Validation) ValidationResponse {
	user := auth.ToUserResponse(v.User)

	resp := ValidationResponse{
		User:        user,
		Permissions: user.Permissions,
		IsValid:     true,
	}
	if v.Company != nil {
		c := company.ToCompanyResponse(v.Company)
		resp.Company = &c
	}

	return resp
}
