package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type AttachRequest struct {
	JobID    snowflake.ID
	PartID   snowflake.ID
	Quantity int64
}

type Service interface {
	ListForJob(ctx context.Context, jobID snowflake.ID) ([]JobPartView, error)
	Attach(ctx context.Context, req AttachRequest) (JobPart, error)
	Detach(ctx context.Context, jobPartID snowflake.ID) (JobPart, error)
}

var (
	ErrInvalidJobID      = errors.New("invalid_job_id")
	ErrInvalidPartID     = errors.New("invalid_part_id")
	ErrInvalidJobPartID  = errors.New("invalid_job_part_id")
	ErrInvalidQuantity   = errors.New("invalid_quantity")
	ErrJobNotFound       = errors.New("service_job_not_found")
	ErrJobPartNotFound   = errors.New("job_part_not_found")
	ErrInsufficientStock = errors.New("insufficient_stock")
)
