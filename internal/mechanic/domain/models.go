package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Mechanic struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"not null" json:"name"`
	Phone     *string      `json:"phone,omitempty"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
}
