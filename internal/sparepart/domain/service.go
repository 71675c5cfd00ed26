package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type CreateSparePartRequest struct {
	Name  string
	Stock int64
	Price decimal.Decimal
}

type Service interface {
	Create(context.Context, CreateSparePartRequest) (SparePart, error)
	List(context.Context) ([]SparePart, error)
	Get(context.Context, snowflake.ID) (SparePart, error)
	// ListLowStock returns parts with stock at or below threshold, scarcest first.
	ListLowStock(ctx context.Context, threshold int64) ([]SparePart, error)
}

var (
	ErrInvalidName      = errors.New("invalid_part_name")
	ErrInvalidStock     = errors.New("invalid_stock")
	ErrInvalidPrice     = errors.New("invalid_price")
	ErrInvalidThreshold = errors.New("invalid_threshold")
	ErrNotFound         = errors.New("spare_part_not_found")
)
