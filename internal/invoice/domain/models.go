// Package domain contains persistence models for shop invoices.
package domain

import (
	"encoding/json"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// InvoiceStatus is the payment state of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusUnpaid InvoiceStatus = "Unpaid"
	InvoiceStatusPaid   InvoiceStatus = "Paid"
)

// ParseStatus accepts only the two payment states.
func ParseStatus(value string) (InvoiceStatus, bool) {
	switch InvoiceStatus(value) {
	case InvoiceStatusUnpaid, InvoiceStatusPaid:
		return InvoiceStatus(value), true
	}
	return "", false
}

// Invoice is issued once per service job when it completes. Amount is fixed
// at issue time and never recomputed.
type Invoice struct {
	ID         snowflake.ID    `gorm:"primaryKey" json:"id"`
	JobID      snowflake.ID    `gorm:"not null;uniqueIndex:ux_invoices_job_id" json:"job_id"`
	Amount     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	DateIssued time.Time       `gorm:"not null;index" json:"date_issued"`
	Status     InvoiceStatus   `gorm:"type:text;not null;default:'Unpaid'" json:"status"`
	CreatedAt  time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// MarshalJSON prints the amount with two decimal places.
func (i Invoice) MarshalJSON() ([]byte, error) {
	type invoice Invoice
	return json.Marshal(struct {
		invoice
		Amount string `json:"amount"`
	}{invoice(i), i.Amount.StringFixed(2)})
}

// InvoiceView is a list row joined with its job's customer.
type InvoiceView struct {
	ID           snowflake.ID    `json:"id"`
	JobID        snowflake.ID    `json:"job_id"`
	DateIssued   time.Time       `json:"date_issued"`
	Amount       decimal.Decimal `json:"amount"`
	Status       InvoiceStatus   `json:"status"`
	CustomerName string          `json:"customer_name"`
}

func (v InvoiceView) MarshalJSON() ([]byte, error) {
	type view InvoiceView
	return json.Marshal(struct {
		view
		Amount string `json:"amount"`
	}{view(v), v.Amount.StringFixed(2)})
}

// DocumentHeader carries everything printed above the line items.
type DocumentHeader struct {
	InvoiceID       snowflake.ID
	JobID           snowflake.ID
	Amount          decimal.Decimal
	DateIssued      time.Time
	Status          InvoiceStatus
	LaborCharges    decimal.NullDecimal
	JobDate         time.Time
	RegistrationNo  string
	Make            string
	Model           string
	CustomerName    string
	CustomerEmail   string
	CustomerAddress *string
}

// DocumentLine is one consumed part on the invoice.
type DocumentLine struct {
	PartName     string
	QuantityUsed int64
	Price        decimal.Decimal
}
