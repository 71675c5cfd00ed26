package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/doug-martin/goqu/v9"
	"github.com/smallbiznis/servicebay/internal/customer/domain"
	"github.com/smallbiznis/servicebay/pkg/db/option"
	"github.com/smallbiznis/servicebay/pkg/db/pagination"
	"github.com/smallbiznis/servicebay/pkg/db/sqlbuilder"
	"gorm.io/gorm"
)

const table = "customers"

var columns = []interface{}{"id", "full_name", "email", "phone", "address", "created_at", "updated_at"}

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, customer *domain.Customer) error {
	_, err := sqlbuilder.Exec(ctx, db, sqlbuilder.For(db).Insert(table).Rows(goqu.Record{
		"id":         customer.ID,
		"full_name":  customer.FullName,
		"email":      customer.Email,
		"phone":      customer.Phone,
		"address":    customer.Address,
		"created_at": customer.CreatedAt,
		"updated_at": customer.UpdatedAt,
	}).Prepared(true))
	return err
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Customer, error) {
	var customer domain.Customer
	stmt := sqlbuilder.For(db).From(table).Select(columns...).Where(goqu.C("id").Eq(id)).Prepared(true)
	if err := sqlbuilder.Scan(ctx, db, stmt, &customer); err != nil {
		return nil, err
	}
	if customer.ID == 0 {
		return nil, nil
	}
	return &customer, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListCustomerFilter, page pagination.Pagination) ([]*domain.Customer, error) {
	var customers []*domain.Customer
	stmt := db.WithContext(ctx).Model(&domain.Customer{})
	if filter.Name != "" {
		stmt = stmt.Where("LOWER(full_name) LIKE LOWER(?)", "%"+filter.Name+"%")
	}
	if filter.Email != "" {
		stmt = stmt.Where("email = ?", filter.Email)
	}
	if filter.Phone != "" {
		stmt = stmt.Where("phone LIKE ?", "%"+filter.Phone)
	}
	if filter.CreatedFrom != nil {
		stmt = stmt.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		stmt = stmt.Where("created_at <= ?", *filter.CreatedTo)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&customers).Error
	if err != nil {
		return nil, err
	}
	return customers, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, customer *domain.Customer) (int64, error) {
	return sqlbuilder.Exec(ctx, db, sqlbuilder.For(db).Update(table).Set(goqu.Record{
		"full_name":  customer.FullName,
		"email":      customer.Email,
		"phone":      customer.Phone,
		"address":    customer.Address,
		"updated_at": customer.UpdatedAt,
	}).Where(goqu.C("id").Eq(customer.ID)).Prepared(true))
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error) {
	return sqlbuilder.Exec(ctx, db, sqlbuilder.For(db).Delete(table).Where(goqu.C("id").Eq(id)).Prepared(true))
}

func (r *repo) CountVehicles(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error) {
	var count int64
	stmt := sqlbuilder.For(db).From("vehicles").Select(goqu.COUNT("*")).Where(goqu.C("customer_id").Eq(id)).Prepared(true)
	err := sqlbuilder.Scan(ctx, db, stmt, &count)
	return count, err
}
