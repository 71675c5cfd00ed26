// Package stockalert periodically reports spare parts that are running out.
package stockalert

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/smallbiznis/servicebay/internal/config"
	obsmetrics "github.com/smallbiznis/servicebay/internal/observability/metrics"
	sparepartdomain "github.com/smallbiznis/servicebay/internal/sparepart/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("stockalert",
	fx.Provide(New),
	fx.Invoke(func(lc fx.Lifecycle, s *Sweeper) {
		lc.Append(fx.Hook{OnStart: s.Start, OnStop: s.Stop})
	}),
)

type Params struct {
	fx.In

	Config  config.Config
	Log     *zap.Logger
	Parts   sparepartdomain.Service
	Metrics *obsmetrics.Metrics `optional:"true"`
}

// Sweeper runs a low-stock check on a cron schedule.
type Sweeper struct {
	schedule  string
	threshold int64
	enabled   bool
	log       *zap.Logger
	parts     sparepartdomain.Service
	metrics   *obsmetrics.Metrics
	cron      *cron.Cron
}

func New(p Params) *Sweeper {
	cfg := p.Config.StockAlert
	return &Sweeper{
		schedule:  cfg.Schedule,
		threshold: cfg.Threshold,
		enabled:   cfg.Enabled(),
		log:       p.Log.Named("stockalert"),
		parts:     p.Parts,
		metrics:   p.Metrics,
		cron:      cron.New(),
	}
}

func (s *Sweeper) Start(context.Context) error {
	if !s.enabled {
		s.log.Info("low stock sweep disabled")
		return nil
	}
	if _, err := s.cron.AddFunc(s.schedule, func() { _, _ = s.Sweep(context.Background()) }); err != nil {
		return fmt.Errorf("schedule low stock sweep %q: %w", s.schedule, err)
	}
	s.cron.Start()
	s.log.Info("low stock sweep scheduled",
		zap.String("schedule", s.schedule),
		zap.Int64("threshold", s.threshold),
	)
	return nil
}

// Stop waits for a running sweep to finish or ctx to expire.
func (s *Sweeper) Stop(ctx context.Context) error {
	if !s.enabled {
		return nil
	}
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Sweep logs every part at or below the threshold and returns them.
func (s *Sweeper) Sweep(ctx context.Context) ([]sparepartdomain.SparePart, error) {
	low, err := s.parts.ListLowStock(ctx, s.threshold)
	if err != nil {
		s.log.Error("low stock sweep failed", zap.Error(err))
		return nil, err
	}

	s.metrics.RecordLowStock(ctx, int64(len(low)))
	for _, part := range low {
		s.log.Warn("spare part low on stock",
			zap.String("part_id", part.ID.String()),
			zap.String("name", part.Name),
			zap.Int64("stock", part.Stock),
		)
	}
	if len(low) == 0 {
		s.log.Debug("no parts below threshold", zap.Int64("threshold", s.threshold))
	}
	return low, nil
}

// Threshold is the stock level at or below which a part is reported.
func (s *Sweeper) Threshold() int64 {
	return s.threshold
}
