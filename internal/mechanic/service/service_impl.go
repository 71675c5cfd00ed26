package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/servicebay/internal/audit/domain"
	"github.com/smallbiznis/servicebay/internal/clock"
	"github.com/smallbiznis/servicebay/internal/mechanic/domain"
	"github.com/smallbiznis/servicebay/pkg/db/option"
	"github.com/smallbiznis/servicebay/pkg/repository"
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
	Repo     repository.Repository[domain.Mechanic]
	AuditSvc auditdomain.Service `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     repository.Repository[domain.Mechanic]
	auditSvc auditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("mechanic.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		auditSvc: p.AuditSvc,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateMechanicRequest) (domain.Mechanic, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Mechanic{}, domain.ErrInvalidName
	}

	mechanic := domain.Mechanic{
		ID:        s.genID.Generate(),
		Name:      name,
		CreatedAt: s.clock.Now().UTC(),
	}
	if phone := strings.TrimSpace(req.Phone); phone != "" {
		mechanic.Phone = &phone
	}

	if err := s.repo.Create(ctx, &mechanic); err != nil {
		return domain.Mechanic{}, err
	}

	s.audit(ctx, "mechanic.created", mechanic.ID)
	return mechanic, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Mechanic, error) {
	items, err := s.repo.Find(ctx, &domain.Mechanic{}, option.WithOrder("name asc"))
	if err != nil {
		return nil, err
	}

	out := make([]domain.Mechanic, 0, len(items))
	for _, item := range items {
		if item != nil {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (domain.Mechanic, error) {
	item, err := s.repo.FindOne(ctx, &domain.Mechanic{ID: id})
	if err != nil {
		return domain.Mechanic{}, err
	}
	if item == nil {
		return domain.Mechanic{}, domain.ErrNotFound
	}
	return *item, nil
}

// Delete keeps mechanics referenced by a job so job history stays intact.
func (s *Service) Delete(ctx context.Context, rawID string) error {
	id, err := snowflake.ParseString(strings.TrimSpace(rawID))
	if err != nil || id <= 0 {
		return domain.ErrInvalidID
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var jobs int64
		if err := tx.Table("service_jobs").Where("mechanic_id = ?", id).Count(&jobs).Error; err != nil {
			return err
		}
		if jobs > 0 {
			return domain.ErrHasJobs
		}

		affected, err := s.repo.WithTrx(tx).Delete(ctx, id)
		if err != nil {
			return err
		}
		if affected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.audit(ctx, "mechanic.deleted", id)
	return nil
}

func (s *Service) audit(ctx context.Context, action string, id snowflake.ID) {
	if s.auditSvc == nil {
		return
	}
	if err := s.auditSvc.Record(ctx, auditdomain.Entry{Action: action, TargetType: "mechanic", TargetID: id}); err != nil {
		s.log.Warn("audit write failed", zap.String("action", action), zap.Error(err))
	}
}
