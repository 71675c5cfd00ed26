package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/servicebay/internal/invoice/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO invoices (id, job_id, amount, date_issued, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		invoice.ID,
		invoice.JobID,
		invoice.Amount,
		invoice.DateIssued,
		invoice.Status,
		invoice.CreatedAt,
		invoice.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Invoice, error) {
	return r.findOne(ctx, db, "id = ?", id)
}

func (r *repo) FindByJobID(ctx context.Context, db *gorm.DB, jobID snowflake.ID) (*domain.Invoice, error) {
	return r.findOne(ctx, db, "job_id = ?", jobID)
}

func (r *repo) findOne(ctx context.Context, db *gorm.DB, query string, args ...any) (*domain.Invoice, error) {
	var invoice domain.Invoice
	err := db.WithContext(ctx).Where(query, args...).Take(&invoice).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]domain.InvoiceView, error) {
	var items []domain.InvoiceView
	err := db.WithContext(ctx).Raw(
		`SELECT i.id, i.job_id, i.date_issued, i.amount, i.status, c.full_name AS customer_name
		 FROM invoices i
		 JOIN service_jobs sj ON sj.id = i.job_id
		 JOIN vehicles v ON v.id = sj.vehicle_id
		 JOIN customers c ON c.id = v.customer_id
		 ORDER BY i.date_issued DESC, i.id DESC`,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status domain.InvoiceStatus, updatedAt time.Time) (int64, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE invoices SET status = ?, updated_at = ? WHERE id = ?`,
		status,
		updatedAt,
		id,
	)
	return res.RowsAffected, res.Error
}

func (r *repo) FindDocumentHeader(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.DocumentHeader, error) {
	var header domain.DocumentHeader
	err := db.WithContext(ctx).Raw(
		`SELECT i.id AS invoice_id, i.job_id, i.amount, i.date_issued, i.status,
		        sj.labor_charges, sj.date AS job_date,
		        v.registration_no, v.make, v.model,
		        c.full_name AS customer_name, c.email AS customer_email, c.address AS customer_address
		 FROM invoices i
		 JOIN service_jobs sj ON sj.id = i.job_id
		 JOIN vehicles v ON v.id = sj.vehicle_id
		 JOIN customers c ON c.id = v.customer_id
		 WHERE i.id = ?`,
		id,
	).Scan(&header).Error
	if err != nil {
		return nil, err
	}
	if header.InvoiceID == 0 {
		return nil, nil
	}
	return &header, nil
}

func (r *repo) ListDocumentLines(ctx context.Context, db *gorm.DB, jobID snowflake.ID) ([]domain.DocumentLine, error) {
	var lines []domain.DocumentLine
	err := db.WithContext(ctx).Raw(
		`SELECT sp.name AS part_name, jp.quantity_used, sp.price
		 FROM job_parts jp
		 JOIN spare_parts sp ON sp.id = jp.part_id
		 WHERE jp.job_id = ?
		 ORDER BY jp.created_at ASC, jp.id ASC`,
		jobID,
	).Scan(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// DaySequence is the 1-based position of the invoice among those issued the same day.
func (r *repo) DaySequence(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID, dateIssued time.Time) (int64, error) {
	var seq int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(*) FROM invoices WHERE date_issued = ? AND id <= ?`,
		dateIssued,
		invoiceID,
	).Scan(&seq).Error
	if err != nil {
		return 0, err
	}
	return seq, nil
}
