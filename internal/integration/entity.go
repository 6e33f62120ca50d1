// AngelaMos | 2026
// entity.go

package integration

import (
	"time"

	"github.com/terminar/core-service/internal/core"
)

const (
	defaultLogLimit  = 50
	maxLogLimit      = 100
	defaultUserLimit = 100
	maxUserLimit     = 100
)

// ActivityLog is one call an external service reported against a company.
type ActivityLog struct {
	ID           string        `db:"id"            json:"id"`
	CompanyID    string        `db:"company_id"    json:"companyId"`
	Service      string        `db:"service"       json:"service"`
	Action       string        `db:"action"        json:"action"`
	RequestData  *core.JSONMap `db:"request_data"  json:"requestData"`
	ResponseData *core.JSONMap `db:"response_data" json:"responseData"`
	Status       string        `db:"status"        json:"status"`
	ErrorMessage *string       `db:"error_message" json:"errorMessage"`
	DurationMs   *int          `db:"duration_ms"   json:"durationMs"`
	CreatedAt    time.Time     `db:"created_at"    json:"createdAt"`
}

type LogFilter struct {
	CompanyID string
	Service   string
	Action    string
	Status    string
	Limit     int
	Offset    int
}

func (f *LogFilter) Normalize() {
	if f.Limit < 1 {
		f.Limit = defaultLogLimit
	}
	if f.Limit > maxLogLimit {
		f.Limit = maxLogLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}
