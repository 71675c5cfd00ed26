// Package domain holds service job models and the job state machine.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// JobStatus is a stage of a service job. Invoiced is terminal.
type JobStatus string

const (
	StatusScheduled  JobStatus = "Scheduled"
	StatusAssigned   JobStatus = "Assigned"
	StatusInProgress JobStatus = "In Progress"
	StatusCompleted  JobStatus = "Completed"
	StatusInvoiced   JobStatus = "Invoiced"
)

var statusRank = map[JobStatus]int{
	StatusScheduled:  0,
	StatusAssigned:   1,
	StatusInProgress: 2,
	StatusCompleted:  3,
	StatusInvoiced:   4,
}

// ParseStatus matches the exact status labels.
func ParseStatus(value string) (JobStatus, bool) {
	status := JobStatus(value)
	if _, ok := statusRank[status]; !ok {
		return "", false
	}
	return status, true
}

// Rank orders statuses along the lifecycle; unknown statuses rank -1.
func (s JobStatus) Rank() int {
	rank, ok := statusRank[s]
	if !ok {
		return -1
	}
	return rank
}

func (s JobStatus) Terminal() bool {
	return s == StatusInvoiced
}

type ServiceJob struct {
	ID           snowflake.ID        `gorm:"primaryKey" json:"id"`
	VehicleID    snowflake.ID        `gorm:"not null;index" json:"vehicle_id"`
	MechanicID   *snowflake.ID       `gorm:"index" json:"mechanic_id,omitempty"`
	Date         time.Time           `gorm:"not null;index" json:"date"`
	Status       JobStatus           `gorm:"type:text;not null" json:"status"`
	Notes        *string             `json:"notes,omitempty"`
	LaborCharges decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"labor_charges"`
	CreatedAt    time.Time           `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time           `gorm:"not null" json:"updated_at"`
}

func (ServiceJob) TableName() string { return "service_jobs" }

// JobView is a job row joined with its vehicle, owner and mechanic.
type JobView struct {
	ID             snowflake.ID `json:"id"`
	Date           time.Time    `json:"date"`
	Status         JobStatus    `json:"status"`
	RegistrationNo string       `json:"registration_no"`
	CustomerName   string       `json:"customer_name"`
	MechanicName   *string      `json:"mechanic_name"`
}
