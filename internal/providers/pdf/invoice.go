package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// InvoiceData is a fully formatted invoice; amounts are already rendered
// with the shop's currency symbol.
type InvoiceData struct {
	ShopName    string
	ShopAddress string
	ShopEmail   string

	InvoiceNumber string
	IssueDate     string
	Status        string
	Paid          bool

	BillToName    string
	BillToAddress string
	BillToEmail   string

	Vehicle string
	JobDate string

	Items []InvoiceItem

	PartsSubtotal string
	Labor         string
	Total         string
}

type InvoiceItem struct {
	Description string
	Qty         int64
	UnitPrice   string
	Amount      string
}

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) GenerateInvoice(ctx context.Context, invoice InvoiceData) (io.Reader, error) {
	if invoice.InvoiceNumber == "" {
		return nil, errors.New("invoice number is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	title := "Invoice"
	if invoice.Paid {
		title = "Receipt"
	}
	m.AddRow(14,
		text.NewCol(8, invoice.ShopName, props.Text{
			Size:  16,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
		text.NewCol(4, title, props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Right,
		}),
	)

	m.AddRow(20,
		col.New(6).Add(
			text.New(invoice.ShopAddress, props.Text{Top: 0, Size: 9}),
			text.New(invoice.ShopEmail, props.Text{Top: 5, Size: 9}),
		),
		col.New(6).Add(
			text.New("Invoice number: "+invoice.InvoiceNumber, props.Text{Top: 0, Align: align.Right}),
			text.New("Date of issue: "+invoice.IssueDate, props.Text{Top: 5, Align: align.Right}),
			text.New("Status: "+invoice.Status, props.Text{Top: 10, Align: align.Right}),
		),
	)

	m.AddRow(30,
		col.New(6).Add(
			text.New("Bill to", props.Text{Style: fontstyle.Bold}),
			text.New(invoice.BillToName, props.Text{Top: 5}),
			text.New(invoice.BillToAddress, props.Text{Top: 10}),
			text.New(invoice.BillToEmail, props.Text{Top: 15}),
		),
		col.New(6).Add(
			text.New("Vehicle", props.Text{Style: fontstyle.Bold}),
			text.New(invoice.Vehicle, props.Text{Top: 5}),
			text.New("Service date: "+invoice.JobDate, props.Text{Top: 10}),
		),
	)

	m.AddRow(10,
		text.NewCol(6, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Qty", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Unit price", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, item := range invoice.Items {
		m.AddRow(8,
			text.NewCol(6, item.Description, props.Text{Size: 9}),
			text.NewCol(2, fmt.Sprintf("%d", item.Qty), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.UnitPrice, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.Amount, props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Parts", props.Text{Size: 9, Top: 3}),
		text.NewCol(2, invoice.PartsSubtotal, props.Text{Size: 9, Top: 3, Align: align.Right}),
	)
	m.AddRow(8,
		col.New(8),
		text.NewCol(2, "Labor", props.Text{Size: 9}),
		text.NewCol(2, invoice.Labor, props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Total", props.Text{Style: fontstyle.Bold, Size: 10}),
		text.NewCol(2, invoice.Total, props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}
