package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/servicebay/pkg/db/pagination"
)

type ListCustomerRequest struct {
	PageToken   string
	PageSize    int32
	Name        string
	Email       string
	Phone       string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// ListCustomerFilter narrows the front-desk lookup. Phone matches on the
// trailing digits a caller reads out.
type ListCustomerFilter struct {
	Name        string
	Email       string
	Phone       string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

type ListCustomerResponse struct {
	pagination.PageInfo
	Customers []Customer `json:"customers"`
}

type CreateCustomerRequest struct {
	FullName string
	Email    string
	Phone    string
	Address  string
}

type UpdateCustomerRequest struct {
	ID       string
	FullName string
	Email    string
	Phone    string
	Address  string
}

type Service interface {
	Create(context.Context, CreateCustomerRequest) (Customer, error)
	List(context.Context, ListCustomerRequest) (ListCustomerResponse, error)
	GetByID(context.Context, string) (Customer, error)
	Update(context.Context, UpdateCustomerRequest) (Customer, error)
	Delete(context.Context, string) error
}

var (
	ErrInvalidName  = errors.New("invalid_full_name")
	ErrInvalidEmail = errors.New("invalid_email")
	ErrInvalidID    = errors.New("invalid_customer_id")
	ErrNotFound     = errors.New("customer_not_found")
	ErrHasVehicles  = errors.New("customer_has_vehicles")
)
