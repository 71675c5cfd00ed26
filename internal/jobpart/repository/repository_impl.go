package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/servicebay/internal/jobpart/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) ListForJob(ctx context.Context, db *gorm.DB, jobID snowflake.ID) ([]domain.JobPartView, error) {
	var items []domain.JobPartView
	err := db.WithContext(ctx).Raw(
		`SELECT jp.id, jp.part_id, sp.name, sp.price, jp.quantity_used
		 FROM job_parts jp
		 JOIN spare_parts sp ON sp.id = jp.part_id
		 WHERE jp.job_id = ?
		 ORDER BY jp.created_at ASC, jp.id ASC`,
		jobID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) JobExists(ctx context.Context, db *gorm.DB, jobID snowflake.ID) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Table("service_jobs").Where("id = ?", jobID).Count(&count).Error
	return count > 0, err
}

func (r *repo) TakeStock(ctx context.Context, db *gorm.DB, partID snowflake.ID, quantity int64) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE spare_parts SET stock = stock - ? WHERE id = ? AND stock >= ?`,
		quantity,
		partID,
		quantity,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repo) ReturnStock(ctx context.Context, db *gorm.DB, partID snowflake.ID, quantity int64) error {
	return db.WithContext(ctx).Exec(
		`UPDATE spare_parts SET stock = stock + ? WHERE id = ?`,
		quantity,
		partID,
	).Error
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, jobPart *domain.JobPart) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO job_parts (id, job_id, part_id, quantity_used, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		jobPart.ID,
		jobPart.JobID,
		jobPart.PartID,
		jobPart.QuantityUsed,
		jobPart.CreatedAt,
	).Error
}

func (r *repo) FindForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.JobPart, error) {
	var jobPart domain.JobPart
	err := db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Take(&jobPart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &jobPart, nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM job_parts WHERE id = ?`, id).Error
}
