package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/servicebay/internal/clock"
	"github.com/smallbiznis/servicebay/internal/customer/domain"
	"github.com/smallbiznis/servicebay/internal/customer/repository"
	vehicledomain "github.com/smallbiznis/servicebay/internal/vehicle/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (domain.Service, *gorm.DB, *clock.FakeClock) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&domain.Customer{}, &vehicledomain.Vehicle{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC))

	svc := New(Params{
		DB:    db,
		Log:   zaptest.NewLogger(t),
		GenID: node,
		Clock: fake,
		Repo:  repository.Provide(),
	})
	return svc, db, fake
}

func TestCreateCustomer(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateCustomerRequest{
		FullName: "  Asha Rao ",
		Email:    "asha@example.com",
		Phone:    "9876543210",
	})
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", created.FullName)
	require.NotNil(t, created.Phone)
	assert.Nil(t, created.Address)

	got, err := svc.GetByID(ctx, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, created.Email, got.Email)
	assert.Equal(t, "9876543210", *got.Phone)
}

func TestCreateCustomerValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateCustomerRequest{Email: "a@b.c"})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = svc.Create(ctx, domain.CreateCustomerRequest{FullName: "Ravi", Email: "ravi.example.com"})
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)
}

func TestUpdateAndDeleteCustomer(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateCustomerRequest{FullName: "Meera", Email: "meera@example.com"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, domain.UpdateCustomerRequest{
		ID:       created.ID.String(),
		FullName: "Meera Iyer",
		Email:    "meera.iyer@example.com",
		Address:  "12 MG Road",
	})
	require.NoError(t, err)
	assert.Equal(t, "Meera Iyer", updated.FullName)
	require.NotNil(t, updated.Address)

	_, err = svc.Update(ctx, domain.UpdateCustomerRequest{ID: "999", FullName: "X", Email: "x@y.z"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, db.Create(&vehicledomain.Vehicle{
		ID:             snowflake.ID(77),
		RegistrationNo: "KA01AB1234",
		Make:           "Maruti",
		Model:          "Swift",
		CustomerID:     created.ID,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}).Error)

	err = svc.Delete(ctx, created.ID.String())
	assert.ErrorIs(t, err, domain.ErrHasVehicles)

	require.NoError(t, db.Exec("DELETE FROM vehicles").Error)
	require.NoError(t, svc.Delete(ctx, created.ID.String()))

	_, err = svc.GetByID(ctx, created.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, created.ID.String()), domain.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, "abc"), domain.ErrInvalidID)
}

func TestListCustomersPaginates(t *testing.T) {
	svc, _, fake := newTestService(t)
	ctx := context.Background()

	for _, name := range []string{"Anil", "Bina", "Chetan"} {
		_, err := svc.Create(ctx, domain.CreateCustomerRequest{FullName: name, Email: name + "@example.com"})
		require.NoError(t, err)
		fake.Advance(time.Second)
	}

	page, err := svc.List(ctx, domain.ListCustomerRequest{PageSize: 2})
	require.NoError(t, err)
	require.Len(t, page.Customers, 2)
	assert.Equal(t, "Chetan", page.Customers[0].FullName)
	assert.True(t, page.HasMore)

	rest, err := svc.List(ctx, domain.ListCustomerRequest{PageSize: 2, PageToken: page.NextPageToken})
	require.NoError(t, err)
	require.Len(t, rest.Customers, 1)
	assert.Equal(t, "Anil", rest.Customers[0].FullName)
	assert.False(t, rest.HasMore)

	filtered, err := svc.List(ctx, domain.ListCustomerRequest{Name: "bin"})
	require.NoError(t, err)
	require.Len(t, filtered.Customers, 1)
	assert.Equal(t, "Bina", filtered.Customers[0].FullName)
}

func TestListCustomersByPhoneSuffix(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateCustomerRequest{FullName: "Deepa", Email: "deepa@example.com", Phone: "9876543210"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, domain.CreateCustomerRequest{FullName: "Esha", Email: "esha@example.com", Phone: "9123400000"})
	require.NoError(t, err)

	found, err := svc.List(ctx, domain.ListCustomerRequest{Phone: "3210"})
	require.NoError(t, err)
	require.Len(t, found.Customers, 1)
	assert.Equal(t, "Deepa", found.Customers[0].FullName)
}
