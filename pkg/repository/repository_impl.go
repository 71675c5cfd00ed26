package repository

import (
	"context"
	"errors"

	"github.com/smallbiznis/servicebay/pkg/db/option"
	"gorm.io/gorm"
)

type store[T any] struct {
	db *gorm.DB
}

func ProvideStore[T any](db *gorm.DB) Repository[T] {
	return &store[T]{db: db}
}

// WithTrx binds the store to tx so writes join the caller's transaction.
func (r *store[T]) WithTrx(tx *gorm.DB) Repository[T] {
	return &store[T]{db: tx}
}

func (r *store[T]) Find(ctx context.Context, query *T, opts ...option.QueryOption) ([]*T, error) {
	var rows []*T
	if err := r.scoped(ctx, query, opts).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindOne returns (nil, nil) when nothing matches.
func (r *store[T]) FindOne(ctx context.Context, query *T, opts ...option.QueryOption) (*T, error) {
	row := new(T)
	err := r.scoped(ctx, query, opts).Take(row).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	case err != nil:
		return nil, err
	}
	return row, nil
}

func (r *store[T]) Create(ctx context.Context, resource *T) error {
	return r.db.WithContext(ctx).Create(resource).Error
}

// Delete reports how many rows went away so callers can map zero to not found.
func (r *store[T]) Delete(ctx context.Context, resourceID any) (int64, error) {
	res := r.db.WithContext(ctx).Delete(new(T), "id = ?", resourceID)
	return res.RowsAffected, res.Error
}

func (r *store[T]) scoped(ctx context.Context, query *T, opts []option.QueryOption) *gorm.DB {
	tx := r.db.WithContext(ctx).Model(new(T))
	if query != nil {
		tx = tx.Where(query)
	}
	for _, opt := range opts {
		tx = opt.Apply(tx)
	}
	return tx
}
