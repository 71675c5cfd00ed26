package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Invoice, error)
	FindByJobID(ctx context.Context, db *gorm.DB, jobID snowflake.ID) (*Invoice, error)
	List(ctx context.Context, db *gorm.DB) ([]InvoiceView, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status InvoiceStatus, updatedAt time.Time) (int64, error)
	FindDocumentHeader(ctx context.Context, db *gorm.DB, id snowflake.ID) (*DocumentHeader, error)
	ListDocumentLines(ctx context.Context, db *gorm.DB, jobID snowflake.ID) ([]DocumentLine, error)
	DaySequence(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID, dateIssued time.Time) (int64, error)
}
