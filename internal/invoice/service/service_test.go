package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/servicebay/internal/clock"
	"github.com/smallbiznis/servicebay/internal/config"
	customerdomain "github.com/smallbiznis/servicebay/internal/customer/domain"
	"github.com/smallbiznis/servicebay/internal/invoice/domain"
	"github.com/smallbiznis/servicebay/internal/invoice/repository"
	jobpartdomain "github.com/smallbiznis/servicebay/internal/jobpart/domain"
	"github.com/smallbiznis/servicebay/internal/migration"
	"github.com/smallbiznis/servicebay/internal/providers/pdf"
	"github.com/smallbiznis/servicebay/internal/providers/spreadsheet"
	servicejobdomain "github.com/smallbiznis/servicebay/internal/servicejob/domain"
	sparepartdomain "github.com/smallbiznis/servicebay/internal/sparepart/domain"
	vehicledomain "github.com/smallbiznis/servicebay/internal/vehicle/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	invoiceID = snowflake.ID(900)
	jobID     = snowflake.ID(500)
)

type mockPDF struct {
	mock.Mock
}

func (m *mockPDF) GenerateInvoice(ctx context.Context, data pdf.InvoiceData) (io.Reader, error) {
	args := m.Called(ctx, data)
	content, _ := args.Get(0).(io.Reader)
	return content, args.Error(1)
}

func newTestService(t *testing.T, shop config.ShopConfig) (domain.Service, *gorm.DB) {
	return newTestServiceWithPDF(t, shop, pdf.New())
}

func newTestServiceWithPDF(t *testing.T, shop config.ShopConfig, renderer pdf.Provider) (domain.Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, migration.AutoMigrate(db))

	now := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	address := "12 MG Road"
	require.NoError(t, db.Create(&customerdomain.Customer{ID: 1, FullName: "Asha Rao", Email: "asha@example.com", Address: &address, CreatedAt: now, UpdatedAt: now}).Error)
	require.NoError(t, db.Create(&vehicledomain.Vehicle{ID: 2, RegistrationNo: "KA01AB1234", Make: "Maruti", Model: "Swift", CustomerID: 1, CreatedAt: now, UpdatedAt: now}).Error)
	require.NoError(t, db.Create(&servicejobdomain.ServiceJob{
		ID:           jobID,
		VehicleID:    2,
		Date:         time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		Status:       servicejobdomain.StatusInvoiced,
		LaborCharges: decimal.NewNullDecimal(decimal.RequireFromString("1500.00")),
		CreatedAt:    now,
		UpdatedAt:    now,
	}).Error)
	require.NoError(t, db.Create(&sparepartdomain.SparePart{ID: 9, Name: "Brake pad", Stock: 10, Price: decimal.RequireFromString("500.00"), CreatedAt: now, UpdatedAt: now}).Error)
	require.NoError(t, db.Create(&jobpartdomain.JobPart{ID: 30, JobID: jobID, PartID: 9, QuantityUsed: 3, CreatedAt: now}).Error)

	issued := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.Create(&domain.Invoice{ID: invoiceID, JobID: jobID, Amount: decimal.RequireFromString("3000.00"), DateIssued: issued, Status: domain.InvoiceStatusUnpaid, CreatedAt: now, UpdatedAt: now}).Error)

	svc := New(Params{
		DB:     db,
		Log:    zap.NewNop(),
		Clock:  clock.NewFakeClock(time.Date(2024, 6, 4, 10, 0, 0, 0, time.UTC)),
		Shop:   config.NewStaticShopConfigHolder(shop),
		Repo:   repository.Provide(),
		PDF:    renderer,
		Sheets: spreadsheet.New(),
	})
	return svc, db
}

func TestListJoinsCustomer(t *testing.T) {
	svc, _ := newTestService(t, config.DefaultShopConfig())

	items, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Asha Rao", items[0].CustomerName)
	assert.True(t, decimal.RequireFromString("3000").Equal(items[0].Amount))
	assert.Equal(t, domain.InvoiceStatusUnpaid, items[0].Status)
}

func TestGet(t *testing.T) {
	svc, _ := newTestService(t, config.DefaultShopConfig())

	invoice, err := svc.Get(context.Background(), invoiceID)
	require.NoError(t, err)
	assert.Equal(t, jobID, invoice.JobID)

	_, err = svc.Get(context.Background(), 12345)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Get(context.Background(), 0)
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestUpdateStatus(t *testing.T) {
	svc, db := newTestService(t, config.DefaultShopConfig())
	ctx := context.Background()

	updated, err := svc.UpdateStatus(ctx, domain.UpdateStatusRequest{InvoiceID: invoiceID, Status: "Paid"})
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusPaid, updated.Status)

	var stored domain.Invoice
	require.NoError(t, db.Take(&stored, "id = ?", invoiceID).Error)
	assert.Equal(t, domain.InvoiceStatusPaid, stored.Status)
	assert.True(t, decimal.RequireFromString("3000").Equal(stored.Amount))

	again, err := svc.UpdateStatus(ctx, domain.UpdateStatusRequest{InvoiceID: invoiceID, Status: "Paid"})
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusPaid, again.Status)

	back, err := svc.UpdateStatus(ctx, domain.UpdateStatusRequest{InvoiceID: invoiceID, Status: "Unpaid"})
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusUnpaid, back.Status)
}

func TestUpdateStatusRejectsBadInput(t *testing.T) {
	svc, _ := newTestService(t, config.DefaultShopConfig())
	ctx := context.Background()

	_, err := svc.UpdateStatus(ctx, domain.UpdateStatusRequest{InvoiceID: invoiceID, Status: "Refunded"})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	_, err = svc.UpdateStatus(ctx, domain.UpdateStatusRequest{InvoiceID: invoiceID, Status: "paid"})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	_, err = svc.UpdateStatus(ctx, domain.UpdateStatusRequest{InvoiceID: 777, Status: "Paid"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRenderPDF(t *testing.T) {
	shop := config.DefaultShopConfig()
	shop.Name = "Garage 9"
	shop.CurrencySymbol = "Rs."

	var data pdf.InvoiceData
	renderer := &mockPDF{}
	renderer.On("GenerateInvoice", mock.Anything, mock.AnythingOfType("pdf.InvoiceData")).
		Run(func(args mock.Arguments) { data = args.Get(1).(pdf.InvoiceData) }).
		Return(strings.NewReader("%PDF-1.4 stub"), nil).
		Once()
	svc, _ := newTestServiceWithPDF(t, shop, renderer)

	doc, err := svc.RenderPDF(context.Background(), invoiceID)
	require.NoError(t, err)
	renderer.AssertExpectations(t)
	assert.Equal(t, "INV-20240603-0001", doc.Number)
	assert.Equal(t, "asha-rao-inv-20240603-0001.pdf", doc.FileName)
	assert.Equal(t, "INV-20240603-0001", data.InvoiceNumber)

	assert.Equal(t, "Garage 9", data.ShopName)
	assert.Equal(t, "12 MG Road", data.BillToAddress)
	assert.False(t, data.Paid)
	require.Len(t, data.Items, 1)
	assert.Equal(t, "Brake pad", data.Items[0].Description)
	assert.Equal(t, "Rs.1500.00", data.Items[0].Amount)
	assert.Equal(t, "Rs.1500.00", data.PartsSubtotal)
	assert.Equal(t, "Rs.1500.00", data.Labor)
	assert.Equal(t, "Rs.3000.00", data.Total)
}

func TestRenderPDFProducesDocument(t *testing.T) {
	svc, _ := newTestService(t, config.DefaultShopConfig())

	doc, err := svc.RenderPDF(context.Background(), invoiceID)
	require.NoError(t, err)

	body, err := io.ReadAll(doc.Content)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(body[:4]))
}

func TestRenderPDFPropagatesRendererFailure(t *testing.T) {
	renderer := &mockPDF{}
	renderer.On("GenerateInvoice", mock.Anything, mock.Anything).Return(nil, errors.New("font missing"))
	svc, _ := newTestServiceWithPDF(t, config.DefaultShopConfig(), renderer)

	_, err := svc.RenderPDF(context.Background(), invoiceID)
	assert.EqualError(t, err, "font missing")
}

func TestRenderPDFCustomTemplate(t *testing.T) {
	shop := config.DefaultShopConfig()
	shop.InvoiceNumberTemplate = "SB/{YY}{MM}/{SEQ}"
	svc, _ := newTestService(t, shop)

	doc, err := svc.RenderPDF(context.Background(), invoiceID)
	require.NoError(t, err)
	assert.Equal(t, "SB/2406/1", doc.Number)

	shop.InvoiceNumberTemplate = "{BOGUS}"
	svc, _ = newTestService(t, shop)
	doc, err = svc.RenderPDF(context.Background(), invoiceID)
	require.NoError(t, err)
	assert.Equal(t, "INV-900", doc.Number)
}

func TestRenderPDFNotFound(t *testing.T) {
	svc, _ := newTestService(t, config.DefaultShopConfig())

	_, err := svc.RenderPDF(context.Background(), 4242)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestExportRegister(t *testing.T) {
	shop := config.DefaultShopConfig()
	shop.Name = "Garage 9"
	svc, db := newTestService(t, shop)

	now := time.Date(2024, 6, 4, 9, 0, 0, 0, time.UTC)
	require.NoError(t, db.Create(&servicejobdomain.ServiceJob{ID: 501, VehicleID: 2, Date: now, Status: servicejobdomain.StatusInvoiced, CreatedAt: now, UpdatedAt: now}).Error)
	require.NoError(t, db.Create(&domain.Invoice{ID: 901, JobID: 501, Amount: decimal.RequireFromString("1250.50"), DateIssued: now, Status: domain.InvoiceStatusPaid, CreatedAt: now, UpdatedAt: now}).Error)

	out, err := svc.ExportRegister(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "garage-9-invoices-2024-06-04.xlsx", out.FileName)

	f, err := excelize.OpenReader(out.Content)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(spreadsheet.RegisterSheet, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, rows, 7)
	assert.Equal(t, "901", rows[1][0])
	assert.Equal(t, "Paid", rows[1][4])
	assert.Equal(t, "1250.5", rows[4][5])
	assert.Equal(t, "3000", rows[5][5])
	assert.Equal(t, "4250.5", rows[6][5])
}
