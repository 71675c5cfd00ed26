package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/servicebay/internal/audit/domain"
	"github.com/smallbiznis/servicebay/internal/clock"
	"github.com/smallbiznis/servicebay/internal/sparepart/domain"
	"github.com/smallbiznis/servicebay/pkg/db/option"
	"github.com/smallbiznis/servicebay/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     repository.Repository[domain.SparePart]
	AuditSvc auditdomain.Service `optional:"true"`
}

type Service struct {
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     repository.Repository[domain.SparePart]
	auditSvc auditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		log:      p.Log.Named("sparepart.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		auditSvc: p.AuditSvc,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateSparePartRequest) (domain.SparePart, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.SparePart{}, domain.ErrInvalidName
	}
	if req.Stock < 0 {
		return domain.SparePart{}, domain.ErrInvalidStock
	}
	if req.Price.IsNegative() {
		return domain.SparePart{}, domain.ErrInvalidPrice
	}

	now := s.clock.Now().UTC()
	part := domain.SparePart{
		ID:        s.genID.Generate(),
		Name:      name,
		Stock:     req.Stock,
		Price:     req.Price.Round(2),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, &part); err != nil {
		return domain.SparePart{}, err
	}

	if s.auditSvc != nil {
		if err := s.auditSvc.Record(ctx, auditdomain.Entry{
			Action:     "spare_part.created",
			TargetType: "spare_part",
			TargetID:   part.ID,
			Metadata: map[string]any{
				"name":  part.Name,
				"stock": part.Stock,
				"price": part.Price.StringFixed(2),
			},
		}); err != nil {
			s.log.Warn("audit write failed", zap.Error(err))
		}
	}
	return part, nil
}

func (s *Service) List(ctx context.Context) ([]domain.SparePart, error) {
	items, err := s.repo.Find(ctx, &domain.SparePart{}, option.WithOrder("name asc"))
	if err != nil {
		return nil, err
	}

	out := make([]domain.SparePart, 0, len(items))
	for _, item := range items {
		if item != nil {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (s *Service) ListLowStock(ctx context.Context, threshold int64) ([]domain.SparePart, error) {
	if threshold < 0 {
		return nil, domain.ErrInvalidThreshold
	}
	items, err := s.repo.Find(ctx, &domain.SparePart{},
		option.WithCondition("stock <= ?", threshold),
		option.WithOrder("stock asc, name asc"),
	)
	if err != nil {
		return nil, err
	}

	out := make([]domain.SparePart, 0, len(items))
	for _, item := range items {
		if item != nil {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (domain.SparePart, error) {
	item, err := s.repo.FindOne(ctx, &domain.SparePart{ID: id})
	if err != nil {
		return domain.SparePart{}, err
	}
	if item == nil {
		return domain.SparePart{}, domain.ErrNotFound
	}
	return *item, nil
}
