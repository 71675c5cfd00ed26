package domain

import (
	"context"
	"errors"
	"io"

	"github.com/bwmarrin/snowflake"
)

type UpdateStatusRequest struct {
	InvoiceID snowflake.ID
	Status    string
}

// RenderedInvoice is a generated PDF and its download name.
type RenderedInvoice struct {
	FileName string
	Number   string
	Content  io.Reader
}

// ExportedRegister is the invoice register workbook and its download name.
type ExportedRegister struct {
	FileName string
	Content  io.Reader
}

type Service interface {
	List(ctx context.Context) ([]InvoiceView, error)
	Get(ctx context.Context, id snowflake.ID) (Invoice, error)
	UpdateStatus(ctx context.Context, req UpdateStatusRequest) (Invoice, error)
	RenderPDF(ctx context.Context, id snowflake.ID) (RenderedInvoice, error)
	ExportRegister(ctx context.Context) (ExportedRegister, error)
}

var (
	ErrInvalidID     = errors.New("invalid_invoice_id")
	ErrInvalidStatus = errors.New("invalid_invoice_status")
	ErrNotFound      = errors.New("invoice_not_found")
)
