package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/smallbiznis/servicebay/internal/vehicle/domain"
	"github.com/smallbiznis/servicebay/pkg/db/sqlbuilder"
	"gorm.io/gorm"
)

const table = "vehicles"

var columns = []interface{}{"id", "registration_no", "make", "model", "customer_id", "created_at", "updated_at"}

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, vehicle *domain.Vehicle) error {
	_, err := sqlbuilder.Exec(ctx, db, sqlbuilder.For(db).Insert(table).Rows(goqu.Record{
		"id":              vehicle.ID,
		"registration_no": vehicle.RegistrationNo,
		"make":            vehicle.Make,
		"model":           vehicle.Model,
		"customer_id":     vehicle.CustomerID,
		"created_at":      vehicle.CreatedAt,
		"updated_at":      vehicle.UpdatedAt,
	}).Prepared(true))
	return err
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Vehicle, error) {
	var vehicle domain.Vehicle
	stmt := sqlbuilder.For(db).From(table).Select(columns...).Where(goqu.C("id").Eq(id)).Prepared(true)
	if err := sqlbuilder.Scan(ctx, db, stmt, &vehicle); err != nil {
		return nil, err
	}
	if vehicle.ID == 0 {
		return nil, nil
	}
	return &vehicle, nil
}

// List joins each vehicle to its owner, ordered by registration number.
func (r *repo) List(ctx context.Context, db *gorm.DB) ([]domain.VehicleView, error) {
	stmt := sqlbuilder.For(db).From(goqu.T(table).As("v")).
		Join(goqu.T("customers").As("c"), goqu.On(goqu.I("c.id").Eq(goqu.I("v.customer_id")))).
		Select(
			goqu.I("v.id"),
			goqu.I("v.registration_no"),
			goqu.I("v.make"),
			goqu.I("v.model"),
			goqu.I("v.customer_id"),
			goqu.I("v.created_at"),
			goqu.I("v.updated_at"),
			goqu.I("c.full_name").As("customer_name"),
		).
		Order(goqu.I("v.registration_no").Asc()).
		Prepared(true)

	var items []domain.VehicleView
	if err := sqlbuilder.Scan(ctx, db, stmt, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, vehicle *domain.Vehicle) (int64, error) {
	return sqlbuilder.Exec(ctx, db, sqlbuilder.For(db).Update(table).Set(goqu.Record{
		"registration_no": vehicle.RegistrationNo,
		"make":            vehicle.Make,
		"model":           vehicle.Model,
		"customer_id":     vehicle.CustomerID,
		"updated_at":      vehicle.UpdatedAt,
	}).Where(goqu.C("id").Eq(vehicle.ID)).Prepared(true))
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error) {
	return sqlbuilder.Exec(ctx, db, sqlbuilder.For(db).Delete(table).Where(goqu.C("id").Eq(id)).Prepared(true))
}

func (r *repo) CustomerExists(ctx context.Context, db *gorm.DB, customerID snowflake.ID) (bool, error) {
	count, err := countWhere(ctx, db, "customers", goqu.C("id").Eq(customerID))
	return count > 0, err
}

func (r *repo) CountJobs(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error) {
	return countWhere(ctx, db, "service_jobs", goqu.C("vehicle_id").Eq(id))
}

func countWhere(ctx context.Context, db *gorm.DB, from string, cond exp.Expression) (int64, error) {
	var count int64
	stmt := sqlbuilder.For(db).From(from).Select(goqu.COUNT("*")).Where(cond).Prepared(true)
	err := sqlbuilder.Scan(ctx, db, stmt, &count)
	return count, err
}
