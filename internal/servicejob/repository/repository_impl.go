package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/servicebay/internal/servicejob/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, job *domain.ServiceJob) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO service_jobs (id, vehicle_id, mechanic_id, date, status, notes, labor_charges, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID,
		job.VehicleID,
		job.MechanicID,
		job.Date,
		job.Status,
		job.Notes,
		job.LaborCharges,
		job.CreatedAt,
		job.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.ServiceJob, error) {
	return take(db.WithContext(ctx), id)
}

// FindByIDForUpdate uses the locking clause so dialects without row locks
// (sqlite) drop it instead of failing.
func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.ServiceJob, error) {
	return take(db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func take(db *gorm.DB, id snowflake.ID) (*domain.ServiceJob, error) {
	var job domain.ServiceJob
	if err := db.Where("id = ?", id).Take(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]domain.JobView, error) {
	var items []domain.JobView
	err := db.WithContext(ctx).Raw(
		`SELECT sj.id, sj.date, sj.status, v.registration_no,
		        c.full_name AS customer_name, m.name AS mechanic_name
		 FROM service_jobs sj
		 JOIN vehicles v ON v.id = sj.vehicle_id
		 JOIN customers c ON c.id = v.customer_id
		 LEFT JOIN mechanics m ON m.id = sj.mechanic_id
		 ORDER BY sj.date DESC, sj.id DESC`,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status domain.JobStatus, updatedAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE service_jobs SET status = ?, updated_at = ? WHERE id = ?`,
		status,
		updatedAt,
		id,
	).Error
}

func (r *repo) UpdateMechanic(ctx context.Context, db *gorm.DB, id snowflake.ID, mechanicID snowflake.ID, status domain.JobStatus, updatedAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE service_jobs SET mechanic_id = ?, status = ?, updated_at = ? WHERE id = ?`,
		mechanicID,
		status,
		updatedAt,
		id,
	).Error
}

func (r *repo) UpdateLaborCharges(ctx context.Context, db *gorm.DB, id snowflake.ID, labor decimal.Decimal, updatedAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE service_jobs SET labor_charges = ?, updated_at = ? WHERE id = ?`,
		labor,
		updatedAt,
		id,
	).Error
}

func (r *repo) SumPartsCost(ctx context.Context, db *gorm.DB, id snowflake.ID) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(sp.price * jp.quantity_used), 0)
		 FROM job_parts jp
		 JOIN spare_parts sp ON sp.id = jp.part_id
		 WHERE jp.job_id = ?`,
		id,
	).Row().Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

func (r *repo) VehicleExists(ctx context.Context, db *gorm.DB, vehicleID snowflake.ID) (bool, error) {
	return exists(ctx, db, "vehicles", vehicleID)
}

func (r *repo) MechanicExists(ctx context.Context, db *gorm.DB, mechanicID snowflake.ID) (bool, error) {
	return exists(ctx, db, "mechanics", mechanicID)
}

func exists(ctx context.Context, db *gorm.DB, table string, id snowflake.ID) (bool, error) {
	var count int64
	if err := db.WithContext(ctx).Table(table).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
