package stockalert

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/servicebay/internal/clock"
	"github.com/smallbiznis/servicebay/internal/config"
	sparepartdomain "github.com/smallbiznis/servicebay/internal/sparepart/domain"
	sparepartservice "github.com/smallbiznis/servicebay/internal/sparepart/service"
	"github.com/smallbiznis/servicebay/pkg/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

func newParts(t *testing.T) sparepartdomain.Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&sparepartdomain.SparePart{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return sparepartservice.New(sparepartservice.Params{
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)),
		Repo:  repository.ProvideStore[sparepartdomain.SparePart](db),
	})
}

func newSweeper(t *testing.T, alert config.StockAlertConfig) (*Sweeper, sparepartdomain.Service, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	parts := newParts(t)
	s := New(Params{
		Config: config.Config{StockAlert: alert},
		Log:    zap.New(core),
		Parts:  parts,
	})
	return s, parts, logs
}

func TestSweepReportsLowParts(t *testing.T) {
	s, parts, logs := newSweeper(t, config.StockAlertConfig{Schedule: "off", Threshold: 2})
	ctx := context.Background()

	_, err := parts.Create(ctx, sparepartdomain.CreateSparePartRequest{Name: "Oil filter", Stock: 1, Price: decimal.NewFromInt(250)})
	require.NoError(t, err)
	_, err = parts.Create(ctx, sparepartdomain.CreateSparePartRequest{Name: "Spark plug", Stock: 30, Price: decimal.NewFromInt(180)})
	require.NoError(t, err)

	low, err := s.Sweep(ctx)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "Oil filter", low[0].Name)

	warned := logs.FilterMessage("spare part low on stock").All()
	require.Len(t, warned, 1)
	assert.Equal(t, "Oil filter", warned[0].ContextMap()["name"])
	assert.EqualValues(t, 2, s.Threshold())
}

func TestStartStopLifecycle(t *testing.T) {
	s, _, logs := newSweeper(t, config.StockAlertConfig{Schedule: "0 7 * * *", Threshold: 5})
	ctx := context.Background()

	require.NoError(t, s.Start(ctx))
	assert.Equal(t, 1, logs.FilterMessage("low stock sweep scheduled").Len())
	require.NoError(t, s.Stop(ctx))
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s, _, _ := newSweeper(t, config.StockAlertConfig{Schedule: "every morning", Threshold: 5})
	assert.Error(t, s.Start(context.Background()))
}

func TestDisabledSweeperIsInert(t *testing.T) {
	s, _, logs := newSweeper(t, config.StockAlertConfig{Schedule: "off"})
	ctx := context.Background()

	require.NoError(t, s.Start(ctx))
	require.NoError(t, s.Stop(ctx))
	assert.Equal(t, 1, logs.FilterMessage("low stock sweep disabled").Len())
}
