package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"

	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *AuditLog) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*AuditLog, error)
	ListForJob(ctx context.Context, db *gorm.DB, jobID snowflake.ID) ([]AuditLog, error)
}
