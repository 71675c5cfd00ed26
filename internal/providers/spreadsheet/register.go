// Package spreadsheet renders shop ledgers as xlsx workbooks.
package spreadsheet

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/fx"
)

const (
	RegisterSheet = "Invoices"
	ContentType   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	moneyFormat = 4 // #,##0.00
	dateLayout  = "2006-01-02"
)

var registerHeaders = []interface{}{"Invoice", "Job", "Issued", "Customer", "Status", "Amount"}

// RegisterRow is one invoice line in the register.
type RegisterRow struct {
	InvoiceID  string
	JobID      string
	DateIssued time.Time
	Customer   string
	Status     string
	Amount     float64
}

// RegisterTotals closes the register.
type RegisterTotals struct {
	Paid        float64
	Outstanding float64
}

// Provider renders workbooks.
type Provider interface {
	InvoiceRegister(ctx context.Context, rows []RegisterRow, totals RegisterTotals) (io.Reader, error)
}

var Module = fx.Module("spreadsheet.provider",
	fx.Provide(New),
)

type excelProvider struct{}

func New() Provider {
	return &excelProvider{}
}

func (p *excelProvider) InvoiceRegister(_ context.Context, rows []RegisterRow, totals RegisterTotals) (io.Reader, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), RegisterSheet); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}
	if err := f.SetSheetRow(RegisterSheet, "A1", &registerHeaders); err != nil {
		return nil, err
	}
	if bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetRowStyle(RegisterSheet, 1, 1, bold)
	}

	row := 2
	for _, r := range rows {
		values := []interface{}{r.InvoiceID, r.JobID, r.DateIssued.Format(dateLayout), r.Customer, r.Status, r.Amount}
		if err := setRow(f, row, values); err != nil {
			return nil, err
		}
		row++
	}

	lastDataRow := row - 1
	row++
	for _, total := range []struct {
		label string
		value float64
	}{
		{"Paid", totals.Paid},
		{"Outstanding", totals.Outstanding},
		{"Total", totals.Paid + totals.Outstanding},
	} {
		if err := setRow(f, row, []interface{}{nil, nil, nil, nil, total.label, total.value}); err != nil {
			return nil, err
		}
		lastDataRow = row
		row++
	}

	if money, err := f.NewStyle(&excelize.Style{NumFmt: moneyFormat}); err == nil {
		_ = f.SetCellStyle(RegisterSheet, "F2", fmt.Sprintf("F%d", lastDataRow), money)
	}
	_ = f.SetColWidth(RegisterSheet, "A", "B", 22)
	_ = f.SetColWidth(RegisterSheet, "C", "F", 16)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf, nil
}

func setRow(f *excelize.File, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(RegisterSheet, cell, &values)
}
