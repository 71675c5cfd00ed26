package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/servicebay/pkg/db/pagination"
)

// Entry describes one state change. JobID links customer facing work
// (parts, invoices) back to the service job it belongs to.
type Entry struct {
	Action     string
	TargetType string
	TargetID   snowflake.ID
	JobID      snowflake.ID
	Metadata   map[string]any
}

type ListAuditLogRequest struct {
	pagination.Pagination
	Action     string
	TargetType string
	TargetID   string
	ActorType  string
	ActorID    string
	JobID      snowflake.ID
	StartAt    *time.Time
	EndAt      *time.Time
}

type ListAuditLogResponse struct {
	pagination.PageInfo
	AuditLogs []AuditLog `json:"audit_logs"`
}

// Service records state changes and serves the shop's audit trail.
type Service interface {
	Record(ctx context.Context, entry Entry) error
	List(ctx context.Context, req ListAuditLogRequest) (ListAuditLogResponse, error)
	// JobHistory returns every entry linked to a job, oldest first.
	JobHistory(ctx context.Context, jobID snowflake.ID) ([]AuditLog, error)
}

var (
	ErrInvalidPageToken = errors.New("invalid_page_token")
	ErrInvalidTimeRange = errors.New("invalid_time_range")
	ErrInvalidAction    = errors.New("invalid_action")
	ErrInvalidJobID     = errors.New("invalid_job_id")
)
