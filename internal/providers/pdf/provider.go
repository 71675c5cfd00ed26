package pdf

import (
	"context"
	"io"

	"go.uber.org/fx"
)

// Provider renders printable shop documents.
type Provider interface {
	GenerateInvoice(ctx context.Context, data InvoiceData) (io.Reader, error)
}

var Module = fx.Module("pdf.provider",
	fx.Provide(New),
)
