package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type CreateMechanicRequest struct {
	Name  string
	Phone string
}

type Service interface {
	Create(context.Context, CreateMechanicRequest) (Mechanic, error)
	List(context.Context) ([]Mechanic, error)
	Get(context.Context, snowflake.ID) (Mechanic, error)
	Delete(context.Context, string) error
}

var (
	ErrInvalidID   = errors.New("invalid_mechanic_id")
	ErrInvalidName = errors.New("invalid_mechanic_name")
	ErrNotFound    = errors.New("mechanic_not_found")
	ErrHasJobs     = errors.New("mechanic_has_jobs")
)
