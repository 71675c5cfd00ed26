package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	ListForJob(ctx context.Context, db *gorm.DB, jobID snowflake.ID) ([]JobPartView, error)
	JobExists(ctx context.Context, db *gorm.DB, jobID snowflake.ID) (bool, error)
	// TakeStock decrements stock only when enough is on hand and reports
	// whether the row changed.
	TakeStock(ctx context.Context, db *gorm.DB, partID snowflake.ID, quantity int64) (bool, error)
	ReturnStock(ctx context.Context, db *gorm.DB, partID snowflake.ID, quantity int64) error
	Insert(ctx context.Context, db *gorm.DB, jobPart *JobPart) error
	FindForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*JobPart, error)
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}
