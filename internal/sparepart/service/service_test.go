package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/servicebay/internal/clock"
	"github.com/smallbiznis/servicebay/internal/sparepart/domain"
	"github.com/smallbiznis/servicebay/pkg/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) domain.Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&domain.SparePart{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return New(Params{
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)),
		Repo:  repository.ProvideStore[domain.SparePart](db),
	})
}

func TestCreateSparePart(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateSparePartRequest{
		Name:  "Brake pad",
		Stock: 12,
		Price: decimal.RequireFromString("499.999"),
	})
	require.NoError(t, err)
	assert.Equal(t, "500.00", created.Price.StringFixed(2))

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(12), got.Stock)
	assert.True(t, got.Price.Equal(decimal.NewFromInt(500)))

	_, err = svc.Get(ctx, snowflake.ID(1))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateSparePartValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateSparePartRequest{Stock: 1, Price: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = svc.Create(ctx, domain.CreateSparePartRequest{Name: "Filter", Stock: -1, Price: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, domain.ErrInvalidStock)

	_, err = svc.Create(ctx, domain.CreateSparePartRequest{Name: "Filter", Stock: 1, Price: decimal.NewFromInt(-5)})
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)
}

func TestListSparePartsByName(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, name := range []string{"Spark plug", "Air filter", "Oil filter"} {
		_, err := svc.Create(ctx, domain.CreateSparePartRequest{Name: name, Stock: 5, Price: decimal.NewFromInt(100)})
		require.NoError(t, err)
	}

	items, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "Air filter", items[0].Name)
	assert.Equal(t, "Spark plug", items[2].Name)
}

func TestListLowStockOrdersScarcestFirst(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, p := range []struct {
		name  string
		stock int64
	}{
		{"Wiper blade", 4},
		{"Oil filter", 0},
		{"Spark plug", 30},
		{"Air filter", 4},
	} {
		_, err := svc.Create(ctx, domain.CreateSparePartRequest{Name: p.name, Stock: p.stock, Price: decimal.NewFromInt(100)})
		require.NoError(t, err)
	}

	low, err := svc.ListLowStock(ctx, 4)
	require.NoError(t, err)
	names := make([]string, 0, len(low))
	for _, p := range low {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"Oil filter", "Air filter", "Wiper blade"}, names)

	_, err = svc.ListLowStock(ctx, -1)
	assert.ErrorIs(t, err, domain.ErrInvalidThreshold)
}
