package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, job *ServiceJob) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*ServiceJob, error)
	// FindByIDForUpdate row-locks the job for the rest of the transaction.
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*ServiceJob, error)
	List(ctx context.Context, db *gorm.DB) ([]JobView, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status JobStatus, updatedAt time.Time) error
	UpdateMechanic(ctx context.Context, db *gorm.DB, id snowflake.ID, mechanicID snowflake.ID, status JobStatus, updatedAt time.Time) error
	UpdateLaborCharges(ctx context.Context, db *gorm.DB, id snowflake.ID, labor decimal.Decimal, updatedAt time.Time) error
	SumPartsCost(ctx context.Context, db *gorm.DB, id snowflake.ID) (decimal.Decimal, error)
	VehicleExists(ctx context.Context, db *gorm.DB, vehicleID snowflake.ID) (bool, error)
	MechanicExists(ctx context.Context, db *gorm.DB, mechanicID snowflake.ID) (bool, error)
}
