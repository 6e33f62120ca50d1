// AngelaMos | 2026
// repository.go

package integration

import (
	"context"
	"fmt"
	"strings"

	"github.com/terminar/core-service/internal/core"
)

type Repository interface {
	CreateLog(ctx context.Context, entry *ActivityLog) error
	ListLogs(ctx context.Context, filter LogFilter) ([]ActivityLog, int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) CreateLog(ctx context.Context, entry *ActivityLog) error {
	query := `
		INSERT INTO integration_logs (
			id, company_id, service, action, request_data, response_data,
			status, error_message, duration_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`

	err := r.db.QueryRowxContext(ctx, query,
		entry.ID,
		entry.CompanyID,
		entry.Service,
		entry.Action,
		entry.RequestData,
		entry.ResponseData,
		entry.Status,
		entry.ErrorMessage,
		entry.DurationMs,
	).Scan(&entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("create integration log: %w", err)
	}

	return nil
}

func (r *repository) ListLogs(
	ctx context.Context,
	filter LogFilter,
) ([]ActivityLog, int, error) {
	filter.Normalize()

	conditions := []string{"company_id = $1"}
	args := []any{filter.CompanyID}
	argIdx := 2

	for _, f := range []struct {
		column string
		value  string
	}{
		{"service", filter.Service},
		{"action", filter.Action},
		{"status", filter.Status},
	} {
		if f.value == "" {
			continue
		}
		conditions = append(conditions, fmt.Sprintf("%s = $%d", f.column, argIdx))
		args = append(args, f.value)
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM integration_logs WHERE " + whereClause
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count integration logs: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, company_id, service, action, request_data, response_data,
		       status, error_message, duration_ms, created_at
		FROM integration_logs
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		whereClause, argIdx, argIdx+1)

	args = append(args, filter.Limit, filter.Offset)

	logs := []ActivityLog{}
	if err := r.db.SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list integration logs: %w", err)
	}

	return logs, total, nil
}
