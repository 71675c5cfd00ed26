package main

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/servicebay/internal/clock"
	"github.com/smallbiznis/servicebay/internal/config"
	"github.com/smallbiznis/servicebay/internal/migration"
	"github.com/smallbiznis/servicebay/internal/observability"
	"github.com/smallbiznis/servicebay/internal/seed"
	"github.com/smallbiznis/servicebay/internal/server"
	"github.com/smallbiznis/servicebay/internal/stockalert"
	"github.com/smallbiznis/servicebay/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	app := fx.New(
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),

		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		seed.Module,

		server.Module,
		stockalert.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	node, err := snowflake.NewNode(cfg.SnowflakeNode)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", cfg.SnowflakeNode, err)
	}
	return node, nil
}
