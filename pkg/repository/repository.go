package repository

import (
	"context"

	"github.com/smallbiznis/servicebay/pkg/db/option"
	"gorm.io/gorm"
)

// Repository is a generic gorm store for the single-table catalogs
// (mechanics, spare parts). Query structs match on their non-zero fields.
type Repository[T any] interface {
	WithTrx(tx *gorm.DB) Repository[T]
	Find(ctx context.Context, query *T, opts ...option.QueryOption) ([]*T, error)
	FindOne(ctx context.Context, query *T, opts ...option.QueryOption) (*T, error)
	Create(ctx context.Context, resource *T) error
	Delete(ctx context.Context, resourceID any) (int64, error)
}
