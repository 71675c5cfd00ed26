package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// JobPart records a quantity of a spare part consumed by a job. Its existence
// is always mirrored by an equal decrement of the part's stock.
type JobPart struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	JobID        snowflake.ID `gorm:"not null;index" json:"job_id"`
	PartID       snowflake.ID `gorm:"not null;index" json:"part_id"`
	QuantityUsed int64        `gorm:"not null;check:chk_job_parts_quantity,quantity_used > 0" json:"quantity_used"`
	CreatedAt    time.Time    `gorm:"not null" json:"created_at"`
}

func (JobPart) TableName() string { return "job_parts" }

type JobPartView struct {
	ID           snowflake.ID    `json:"id"`
	PartID       snowflake.ID    `json:"part_id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	QuantityUsed int64           `json:"quantity_used"`
}
