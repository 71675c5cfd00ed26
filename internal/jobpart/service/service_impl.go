package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/servicebay/internal/audit/domain"
	"github.com/smallbiznis/servicebay/internal/clock"
	"github.com/smallbiznis/servicebay/internal/jobpart/domain"
	obsmetrics "github.com/smallbiznis/servicebay/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	AuditSvc auditdomain.Service `optional:"true"`
	Metrics  *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	auditSvc auditdomain.Service
	metrics  *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("jobpart.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		auditSvc: p.AuditSvc,
		metrics:  p.Metrics,
	}
}

func (s *Service) ListForJob(ctx context.Context, jobID snowflake.ID) ([]domain.JobPartView, error) {
	if jobID <= 0 {
		return nil, domain.ErrInvalidJobID
	}
	items, err := s.repo.ListForJob(ctx, s.db, jobID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.JobPartView{}
	}
	return items, nil
}

// Attach consumes quantity units of a part for a job. The stock decrement is a
// single conditional update, so concurrent attaches can never overdraw.
func (s *Service) Attach(ctx context.Context, req domain.AttachRequest) (domain.JobPart, error) {
	if req.JobID <= 0 {
		return domain.JobPart{}, domain.ErrInvalidJobID
	}
	if req.PartID <= 0 {
		return domain.JobPart{}, domain.ErrInvalidPartID
	}
	if req.Quantity <= 0 {
		return domain.JobPart{}, domain.ErrInvalidQuantity
	}

	jobPart := domain.JobPart{
		ID:           s.genID.Generate(),
		JobID:        req.JobID,
		PartID:       req.PartID,
		QuantityUsed: req.Quantity,
		CreatedAt:    s.clock.Now().UTC(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.repo.JobExists(ctx, tx, req.JobID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrJobNotFound
		}

		taken, err := s.repo.TakeStock(ctx, tx, req.PartID, req.Quantity)
		if err != nil {
			return err
		}
		if !taken {
			return domain.ErrInsufficientStock
		}

		return s.repo.Insert(ctx, tx, &jobPart)
	})
	if err != nil {
		return domain.JobPart{}, err
	}

	s.metrics.RecordStockMovement(ctx, "out", jobPart.QuantityUsed)
	s.emitAudit(ctx, "job_part.attached", jobPart)
	return jobPart, nil
}

// Detach removes a job part and returns its quantity to stock.
func (s *Service) Detach(ctx context.Context, jobPartID snowflake.ID) (domain.JobPart, error) {
	if jobPartID <= 0 {
		return domain.JobPart{}, domain.ErrInvalidJobPartID
	}

	var removed domain.JobPart
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		jobPart, err := s.repo.FindForUpdate(ctx, tx, jobPartID)
		if err != nil {
			return err
		}
		if jobPart == nil {
			return domain.ErrJobPartNotFound
		}

		if err := s.repo.Delete(ctx, tx, jobPart.ID); err != nil {
			return err
		}
		if err := s.repo.ReturnStock(ctx, tx, jobPart.PartID, jobPart.QuantityUsed); err != nil {
			return err
		}
		removed = *jobPart
		return nil
	})
	if err != nil {
		return domain.JobPart{}, err
	}

	s.metrics.RecordStockMovement(ctx, "in", removed.QuantityUsed)
	s.emitAudit(ctx, "job_part.detached", removed)
	return removed, nil
}

func (s *Service) emitAudit(ctx context.Context, action string, jobPart domain.JobPart) {
	if s.auditSvc == nil {
		return
	}
	err := s.auditSvc.Record(ctx, auditdomain.Entry{
		Action:     action,
		TargetType: "job_part",
		TargetID:   jobPart.ID,
		JobID:      jobPart.JobID,
		Metadata: map[string]any{
			"part_id":  jobPart.PartID.String(),
			"quantity": jobPart.QuantityUsed,
		},
	})
	if err != nil {
		s.log.Warn("audit write failed", zap.String("action", action), zap.Error(err))
	}
}
