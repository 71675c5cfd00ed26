package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Vehicle struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	RegistrationNo string       `gorm:"not null;uniqueIndex" json:"registration_no"`
	Make           string       `gorm:"not null" json:"make"`
	Model          string       `gorm:"not null" json:"model"`
	CustomerID     snowflake.ID `gorm:"not null;index" json:"customer_id"`
	CreatedAt      time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time    `gorm:"not null" json:"updated_at"`
}

// VehicleView is a vehicle row with its owner's name.
type VehicleView struct {
	Vehicle
	CustomerName string `json:"customer_name"`
}
