package spreadsheet

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestInvoiceRegisterLayout(t *testing.T) {
	content, err := New().InvoiceRegister(context.Background(), []RegisterRow{
		{InvoiceID: "900", JobID: "500", DateIssued: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), Customer: "Asha Rao", Status: "Unpaid", Amount: 3000},
		{InvoiceID: "901", JobID: "501", DateIssued: time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC), Customer: "Ravi K", Status: "Paid", Amount: 1250.5},
	}, RegisterTotals{Paid: 1250.5, Outstanding: 3000})
	require.NoError(t, err)

	f, err := excelize.OpenReader(content)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(RegisterSheet, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, rows, 7)

	assert.Equal(t, []string{"Invoice", "Job", "Issued", "Customer", "Status", "Amount"}, rows[0])
	assert.Equal(t, []string{"900", "500", "2024-06-03", "Asha Rao", "Unpaid", "3000"}, rows[1])
	assert.Equal(t, "1250.5", rows[2][5])
	assert.Empty(t, rows[3])
	assert.Equal(t, "Outstanding", rows[5][4])
	assert.Equal(t, "4250.5", rows[6][5])
}

func TestInvoiceRegisterEmpty(t *testing.T) {
	content, err := New().InvoiceRegister(context.Background(), nil, RegisterTotals{})
	require.NoError(t, err)

	f, err := excelize.OpenReader(content)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(RegisterSheet, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, "Total", rows[4][4])
	assert.Equal(t, "0", rows[4][5])
}
