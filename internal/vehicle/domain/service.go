package domain

import (
	"context"
	"errors"
)

type CreateVehicleRequest struct {
	RegistrationNo string
	Make           string
	Model          string
	CustomerID     string
}

type UpdateVehicleRequest struct {
	ID             string
	RegistrationNo string
	Make           string
	Model          string
	CustomerID     string
}

type Service interface {
	Create(context.Context, CreateVehicleRequest) (Vehicle, error)
	List(context.Context) ([]VehicleView, error)
	GetByID(context.Context, string) (Vehicle, error)
	Update(context.Context, UpdateVehicleRequest) (Vehicle, error)
	Delete(context.Context, string) error
}

var (
	ErrInvalidID             = errors.New("invalid_vehicle_id")
	ErrInvalidRegistration   = errors.New("invalid_registration_no")
	ErrInvalidMake           = errors.New("invalid_make")
	ErrInvalidModel          = errors.New("invalid_model")
	ErrInvalidCustomer       = errors.New("invalid_customer_id")
	ErrCustomerNotFound      = errors.New("customer_not_found")
	ErrNotFound              = errors.New("vehicle_not_found")
	ErrDuplicateRegistration = errors.New("duplicate_registration_no")
	ErrHasJobs               = errors.New("vehicle_has_jobs")
)
