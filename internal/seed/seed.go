// Package seed fills an empty workshop with a starter catalog so a fresh
// install can take jobs straight away.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/servicebay/internal/clock"
	"github.com/smallbiznis/servicebay/internal/config"
	mechanicdomain "github.com/smallbiznis/servicebay/internal/mechanic/domain"
	sparepartdomain "github.com/smallbiznis/servicebay/internal/sparepart/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type demoPart struct {
	name  string
	stock int64
	price string
}

var demoMechanics = []string{"Workshop Lead", "Trainee Technician"}

var demoParts = []demoPart{
	{name: "Engine oil 1L", stock: 40, price: "450.00"},
	{name: "Oil filter", stock: 25, price: "250.00"},
	{name: "Air filter", stock: 20, price: "380.00"},
	{name: "Brake pad set", stock: 12, price: "1200.00"},
	{name: "Spark plug", stock: 30, price: "180.00"},
	{name: "Wiper blade", stock: 16, price: "320.00"},
}

var Module = fx.Module("seed",
	fx.Invoke(func(lc fx.Lifecycle, cfg config.Config, conn *gorm.DB, node *snowflake.Node, clk clock.Clock, log *zap.Logger) {
		if !cfg.SeedDemoData {
			return
		}
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				created, err := EnsureDemoCatalog(ctx, conn, node, clk)
				if err != nil {
					return err
				}
				log.Info("demo catalog ready", zap.Int("created", created))
				return nil
			},
		})
	}),
)

// EnsureDemoCatalog inserts starter mechanics and spare parts into empty
// tables. Tables that already hold rows are left alone. It returns the
// number of rows created.
func EnsureDemoCatalog(ctx context.Context, db *gorm.DB, node *snowflake.Node, clk clock.Clock) (int, error) {
	if db == nil {
		return 0, errors.New("seed database handle is required")
	}
	if node == nil {
		return 0, errors.New("seed id generator is required")
	}
	if clk == nil {
		clk = clock.SystemClock{}
	}

	created := 0
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := clk.Now().UTC()

		n, err := ensureMechanicsTx(ctx, tx, node, now)
		if err != nil {
			return err
		}
		created += n

		n, err = ensurePartsTx(ctx, tx, node, now)
		if err != nil {
			return err
		}
		created += n
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

func ensureMechanicsTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, now time.Time) (int, error) {
	var count int64
	if err := tx.WithContext(ctx).Model(&mechanicdomain.Mechanic{}).Count(&count).Error; err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	rows := make([]mechanicdomain.Mechanic, 0, len(demoMechanics))
	for _, name := range demoMechanics {
		rows = append(rows, mechanicdomain.Mechanic{
			ID:        node.Generate(),
			Name:      name,
			CreatedAt: now,
		})
	}
	if err := tx.WithContext(ctx).Create(&rows).Error; err != nil {
		return 0, err
	}
	return len(rows), nil
}

func ensurePartsTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, now time.Time) (int, error) {
	var count int64
	if err := tx.WithContext(ctx).Model(&sparepartdomain.SparePart{}).Count(&count).Error; err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	rows := make([]sparepartdomain.SparePart, 0, len(demoParts))
	for _, p := range demoParts {
		rows = append(rows, sparepartdomain.SparePart{
			ID:        node.Generate(),
			Name:      p.name,
			Stock:     p.stock,
			Price:     decimal.RequireFromString(p.price),
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	if err := tx.WithContext(ctx).Create(&rows).Error; err != nil {
		return 0, err
	}
	return len(rows), nil
}
