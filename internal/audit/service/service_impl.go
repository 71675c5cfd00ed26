package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/servicebay/internal/audit/domain"
	"github.com/smallbiznis/servicebay/internal/audit/masking"
	auditcontext "github.com/smallbiznis/servicebay/internal/auditcontext"
	"github.com/smallbiznis/servicebay/internal/clock"
	"github.com/smallbiznis/servicebay/pkg/db/pagination"
	"github.com/smallbiznis/servicebay/pkg/telemetry/correlation"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  auditdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  auditdomain.Repository
}

func NewService(p Params) auditdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

// Record stores entry with the operator and request details found on ctx.
// Requests without an operator are attributed to the system actor.
func (s *Service) Record(ctx context.Context, entry auditdomain.Entry) error {
	action := strings.TrimSpace(entry.Action)
	if action == "" {
		return auditdomain.ErrInvalidAction
	}
	targetType := strings.TrimSpace(entry.TargetType)
	if targetType == "" {
		targetType = "unknown"
	}

	row := auditdomain.AuditLog{
		ID:         s.genID.Generate(),
		ActorType:  string(auditdomain.ActorTypeSystem),
		Action:     action,
		TargetType: targetType,
		Metadata:   datatypes.JSONMap(requestMetadata(ctx, entry.Metadata)),
		CreatedAt:  s.clock.Now().UTC(),
	}
	if actorType, actorID := auditcontext.ActorFromContext(ctx); actorType != "" {
		row.ActorType = actorType
		row.ActorID = optional(actorID)
	}
	if entry.TargetID > 0 {
		row.TargetID = optional(entry.TargetID.String())
	}
	if entry.JobID > 0 {
		jobID := entry.JobID
		row.JobID = &jobID
	}
	row.IPAddress = optional(auditcontext.IPAddressFromContext(ctx))
	row.UserAgent = optional(auditcontext.UserAgentFromContext(ctx))

	if err := s.repo.Insert(ctx, s.db, &row); err != nil {
		s.log.Warn("failed to write audit log", zap.String("action", action), zap.Error(err))
		return err
	}
	return nil
}

func (s *Service) List(ctx context.Context, req auditdomain.ListAuditLogRequest) (auditdomain.ListAuditLogResponse, error) {
	if req.StartAt != nil && req.EndAt != nil && req.StartAt.After(*req.EndAt) {
		return auditdomain.ListAuditLogResponse{}, auditdomain.ErrInvalidTimeRange
	}
	cursor, err := decodeCursor(req.PageToken)
	if err != nil {
		return auditdomain.ListAuditLogResponse{}, err
	}

	page := req.Pagination.Normalize()
	items, err := s.repo.List(ctx, s.db, auditdomain.ListFilter{
		Action:     req.Action,
		TargetType: req.TargetType,
		TargetID:   req.TargetID,
		ActorType:  req.ActorType,
		ActorID:    req.ActorID,
		JobID:      req.JobID,
		StartAt:    req.StartAt,
		EndAt:      req.EndAt,
		Cursor:     cursor,
		Limit:      page.PageSize,
	})
	if err != nil {
		return auditdomain.ListAuditLogResponse{}, err
	}

	items, pageInfo := pagination.BuildCursorPageInfo(items, page.PageSize, func(item *auditdomain.AuditLog) pagination.Cursor {
		return pagination.NewCursor(item.ID.String(), item.CreatedAt)
	})

	logs := make([]auditdomain.AuditLog, 0, len(items))
	for _, item := range items {
		if item != nil {
			logs = append(logs, *item)
		}
	}
	return auditdomain.ListAuditLogResponse{PageInfo: pageInfo, AuditLogs: logs}, nil
}

func (s *Service) JobHistory(ctx context.Context, jobID snowflake.ID) ([]auditdomain.AuditLog, error) {
	if jobID <= 0 {
		return nil, auditdomain.ErrInvalidJobID
	}
	logs, err := s.repo.ListForJob(ctx, s.db, jobID)
	if err != nil {
		return nil, err
	}
	if logs == nil {
		logs = []auditdomain.AuditLog{}
	}
	return logs, nil
}

func decodeCursor(token string) (*auditdomain.AuditCursor, error) {
	if strings.TrimSpace(token) == "" {
		return nil, nil
	}
	decoded, err := pagination.DecodeCursor(token)
	if err != nil {
		return nil, auditdomain.ErrInvalidPageToken
	}
	createdAt, err := time.Parse(time.RFC3339Nano, decoded.CreatedAt)
	if err != nil {
		return nil, auditdomain.ErrInvalidPageToken
	}
	id, err := snowflake.ParseString(strings.TrimSpace(decoded.ID))
	if err != nil || id == 0 {
		return nil, auditdomain.ErrInvalidPageToken
	}
	return &auditdomain.AuditCursor{ID: id, CreatedAt: createdAt}, nil
}

// requestMetadata masks customer contact fields and stamps the request and
// correlation ids so an entry can be matched to its request log line.
func requestMetadata(ctx context.Context, metadata map[string]any) map[string]any {
	payload := masking.MaskContact(metadata)
	if payload == nil {
		payload = map[string]any{}
	}
	if requestID := auditcontext.RequestIDFromContext(ctx); requestID != "" {
		payload["request_id"] = requestID
	}
	if cid := correlation.FromContext(ctx); cid != "" {
		payload["correlation_id"] = cid
	}
	return payload
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
