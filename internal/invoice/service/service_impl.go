package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/servicebay/internal/audit/domain"
	"github.com/smallbiznis/servicebay/internal/clock"
	"github.com/smallbiznis/servicebay/internal/config"
	"github.com/smallbiznis/servicebay/internal/invoice/domain"
	"github.com/smallbiznis/servicebay/internal/invoice/format"
	obsmetrics "github.com/smallbiznis/servicebay/internal/observability/metrics"
	"github.com/smallbiznis/servicebay/internal/providers/pdf"
	"github.com/smallbiznis/servicebay/internal/providers/spreadsheet"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const documentDateLayout = "02 Jan 2006"

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Clock    clock.Clock
	Shop     *config.ShopConfigHolder
	Repo     domain.Repository
	PDF      pdf.Provider
	Sheets   spreadsheet.Provider
	AuditSvc auditdomain.Service `optional:"true"`
	Metrics  *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	clock    clock.Clock
	shop     *config.ShopConfigHolder
	repo     domain.Repository
	pdf      pdf.Provider
	sheets   spreadsheet.Provider
	auditSvc auditdomain.Service
	metrics  *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("invoice.service"),
		clock:    p.Clock,
		shop:     p.Shop,
		repo:     p.Repo,
		pdf:      p.PDF,
		sheets:   p.Sheets,
		auditSvc: p.AuditSvc,
		metrics:  p.Metrics,
	}
}

func (s *Service) List(ctx context.Context) ([]domain.InvoiceView, error) {
	items, err := s.repo.List(ctx, s.db)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.InvoiceView{}
	}
	return items, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (domain.Invoice, error) {
	if id <= 0 {
		return domain.Invoice{}, domain.ErrInvalidID
	}
	invoice, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Invoice{}, err
	}
	if invoice == nil {
		return domain.Invoice{}, domain.ErrNotFound
	}
	return *invoice, nil
}

// UpdateStatus moves an invoice between Unpaid and Paid. The amount is
// never touched.
func (s *Service) UpdateStatus(ctx context.Context, req domain.UpdateStatusRequest) (domain.Invoice, error) {
	if req.InvoiceID <= 0 {
		return domain.Invoice{}, domain.ErrInvalidID
	}
	status, ok := domain.ParseStatus(strings.TrimSpace(req.Status))
	if !ok {
		return domain.Invoice{}, domain.ErrInvalidStatus
	}

	var (
		updated  domain.Invoice
		previous domain.InvoiceStatus
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.repo.FindByID(ctx, tx, req.InvoiceID)
		if err != nil {
			return err
		}
		if invoice == nil {
			return domain.ErrNotFound
		}
		previous = invoice.Status
		if invoice.Status == status {
			updated = *invoice
			return nil
		}

		now := s.clock.Now().UTC()
		affected, err := s.repo.UpdateStatus(ctx, tx, invoice.ID, status, now)
		if err != nil {
			return err
		}
		if affected == 0 {
			return domain.ErrNotFound
		}
		invoice.Status = status
		invoice.UpdatedAt = now
		updated = *invoice
		return nil
	})
	if err != nil {
		return domain.Invoice{}, err
	}

	if previous != status {
		s.metrics.RecordInvoiceStatus(ctx, string(status))
		s.emitAudit(ctx, "invoice.status_changed", updated, map[string]any{
			"from": string(previous),
			"to":   string(status),
		})
	}
	return updated, nil
}

// RenderPDF builds the printable invoice, or a receipt once paid.
func (s *Service) RenderPDF(ctx context.Context, id snowflake.ID) (domain.RenderedInvoice, error) {
	if id <= 0 {
		return domain.RenderedInvoice{}, domain.ErrInvalidID
	}
	if s.pdf == nil {
		return domain.RenderedInvoice{}, fmt.Errorf("pdf provider is not configured")
	}

	header, err := s.repo.FindDocumentHeader(ctx, s.db, id)
	if err != nil {
		return domain.RenderedInvoice{}, err
	}
	if header == nil {
		return domain.RenderedInvoice{}, domain.ErrNotFound
	}
	lines, err := s.repo.ListDocumentLines(ctx, s.db, header.JobID)
	if err != nil {
		return domain.RenderedInvoice{}, err
	}

	shop := s.shop.Get()
	number := s.invoiceNumber(ctx, shop, header)
	data := buildInvoiceData(shop, number, header, lines)

	content, err := s.pdf.GenerateInvoice(ctx, data)
	if err != nil {
		return domain.RenderedInvoice{}, err
	}

	return domain.RenderedInvoice{
		FileName: slug.Make(header.CustomerName+"-"+number) + ".pdf",
		Number:   number,
		Content:  content,
	}, nil
}

// ExportRegister renders every invoice, newest first, with paid and
// outstanding totals.
func (s *Service) ExportRegister(ctx context.Context) (domain.ExportedRegister, error) {
	items, err := s.List(ctx)
	if err != nil {
		return domain.ExportedRegister{}, err
	}

	rows := make([]spreadsheet.RegisterRow, 0, len(items))
	paid, outstanding := decimal.Zero, decimal.Zero
	for _, item := range items {
		rows = append(rows, spreadsheet.RegisterRow{
			InvoiceID:  item.ID.String(),
			JobID:      item.JobID.String(),
			DateIssued: item.DateIssued,
			Customer:   item.CustomerName,
			Status:     string(item.Status),
			Amount:     item.Amount.InexactFloat64(),
		})
		if item.Status == domain.InvoiceStatusPaid {
			paid = paid.Add(item.Amount)
		} else {
			outstanding = outstanding.Add(item.Amount)
		}
	}

	content, err := s.sheets.InvoiceRegister(ctx, rows, spreadsheet.RegisterTotals{
		Paid:        paid.InexactFloat64(),
		Outstanding: outstanding.InexactFloat64(),
	})
	if err != nil {
		return domain.ExportedRegister{}, err
	}

	shop := s.shop.Get()
	stamp := clock.Today(s.clock).Format("2006-01-02")
	return domain.ExportedRegister{
		FileName: slug.Make(shop.Name+"-invoices-"+stamp) + ".xlsx",
		Content:  content,
	}, nil
}

func (s *Service) invoiceNumber(ctx context.Context, shop config.ShopConfig, header *domain.DocumentHeader) string {
	seq, err := s.repo.DaySequence(ctx, s.db, header.InvoiceID, header.DateIssued)
	if err != nil {
		s.log.Warn("invoice day sequence lookup failed", zap.String("invoice_id", header.InvoiceID.String()), zap.Error(err))
		return format.FallbackNumber(header.InvoiceID)
	}
	number, err := format.InvoiceNumber(shop.InvoiceNumberTemplate, header.DateIssued, seq)
	if err != nil {
		s.log.Warn("invoice number template rejected", zap.String("template", shop.InvoiceNumberTemplate), zap.Error(err))
		return format.FallbackNumber(header.InvoiceID)
	}
	return number
}

func buildInvoiceData(shop config.ShopConfig, number string, header *domain.DocumentHeader, lines []domain.DocumentLine) pdf.InvoiceData {
	money := func(d decimal.Decimal) string {
		return shop.CurrencySymbol + d.StringFixed(2)
	}

	items := make([]pdf.InvoiceItem, 0, len(lines))
	subtotal := decimal.Zero
	for _, line := range lines {
		amount := line.Price.Mul(decimal.NewFromInt(line.QuantityUsed))
		subtotal = subtotal.Add(amount)
		items = append(items, pdf.InvoiceItem{
			Description: line.PartName,
			Qty:         line.QuantityUsed,
			UnitPrice:   money(line.Price),
			Amount:      money(amount),
		})
	}

	labor := decimal.Zero
	if header.LaborCharges.Valid {
		labor = header.LaborCharges.Decimal
	}

	data := pdf.InvoiceData{
		ShopName:      shop.Name,
		ShopAddress:   shop.Address,
		ShopEmail:     shop.Email,
		InvoiceNumber: number,
		IssueDate:     header.DateIssued.Format(documentDateLayout),
		Status:        string(header.Status),
		Paid:          header.Status == domain.InvoiceStatusPaid,
		BillToName:    header.CustomerName,
		BillToEmail:   header.CustomerEmail,
		Vehicle:       strings.TrimSpace(fmt.Sprintf("%s %s %s", header.RegistrationNo, header.Make, header.Model)),
		JobDate:       header.JobDate.Format(documentDateLayout),
		Items:         items,
		PartsSubtotal: money(subtotal),
		Labor:         money(labor),
		Total:         money(header.Amount),
	}
	if header.CustomerAddress != nil {
		data.BillToAddress = *header.CustomerAddress
	}
	return data
}

func (s *Service) emitAudit(ctx context.Context, action string, invoice domain.Invoice, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	entry := auditdomain.Entry{Action: action, TargetType: "invoice", TargetID: invoice.ID, JobID: invoice.JobID, Metadata: metadata}
	if err := s.auditSvc.Record(ctx, entry); err != nil {
		s.log.Warn("audit write failed", zap.String("action", action), zap.Error(err))
	}
}
