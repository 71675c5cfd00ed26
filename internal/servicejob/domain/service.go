package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	invoicedomain "github.com/smallbiznis/servicebay/internal/invoice/domain"
)

type CreateJobRequest struct {
	VehicleID  snowflake.ID
	MechanicID *snowflake.ID
	Date       time.Time
	Notes      string
}

type UpdateStatusRequest struct {
	JobID        snowflake.ID
	Status       string
	LaborCharges *decimal.Decimal
}

// UpdateStatusResult carries the invoice when the update completed the job.
type UpdateStatusResult struct {
	Job     ServiceJob
	Invoice *invoicedomain.Invoice
}

type Service interface {
	Create(ctx context.Context, req CreateJobRequest) (ServiceJob, error)
	List(ctx context.Context) ([]JobView, error)
	Get(ctx context.Context, id snowflake.ID) (ServiceJob, error)
	AssignMechanic(ctx context.Context, jobID, mechanicID snowflake.ID) (ServiceJob, error)
	SetStatus(ctx context.Context, jobID snowflake.ID, status JobStatus) (ServiceJob, error)
	CompleteAndInvoice(ctx context.Context, jobID snowflake.ID, laborCharges decimal.Decimal) (invoicedomain.Invoice, error)
	UpdateStatus(ctx context.Context, req UpdateStatusRequest) (UpdateStatusResult, error)
}

var (
	ErrInvalidID            = errors.New("invalid_job_id")
	ErrInvalidVehicle       = errors.New("invalid_vehicle_id")
	ErrInvalidMechanic      = errors.New("invalid_mechanic_id")
	ErrInvalidDate          = errors.New("invalid_date")
	ErrInvalidStatus        = errors.New("invalid_status")
	ErrInvalidLaborCharges  = errors.New("invalid_labor_charges")
	ErrLaborChargesRequired = errors.New("labor_charges_required")
	ErrNotFound             = errors.New("service_job_not_found")
	ErrVehicleNotFound      = errors.New("vehicle_not_found")
	ErrMechanicNotFound     = errors.New("mechanic_not_found")
	ErrIllegalTransition    = errors.New("invalid_transition")
	ErrMechanicRequired     = errors.New("mechanic_required")
	ErrAlreadyInvoiced      = errors.New("job_already_invoiced")
)
