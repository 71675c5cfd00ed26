package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, vehicle *Vehicle) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Vehicle, error)
	List(ctx context.Context, db *gorm.DB) ([]VehicleView, error)
	Update(ctx context.Context, db *gorm.DB, vehicle *Vehicle) (int64, error)
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error)
	CustomerExists(ctx context.Context, db *gorm.DB, customerID snowflake.ID) (bool, error)
	CountJobs(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error)
}
