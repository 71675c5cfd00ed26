package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Customer struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	FullName  string       `gorm:"not null" json:"full_name"`
	Email     string       `gorm:"not null;index" json:"email"`
	Phone     *string      `json:"phone,omitempty"`
	Address   *string      `json:"address,omitempty"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null" json:"updated_at"`
}
