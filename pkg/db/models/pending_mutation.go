package models

import (
	"time"

	"github.com/angelmondragon/solecart/pkg/enums"
)

// PendingMutation is one cart mutation accepted while the cart service was
// unreachable. Rows for an owner replay in Seq order.
type PendingMutation struct {
	ID           string               `gorm:"column:id;primaryKey"`
	Owner        string               `gorm:"column:owner;not null"`
	Seq          int64                `gorm:"column:seq;not null"`
	Kind         enums.MutationKind   `gorm:"column:kind;not null"`
	LineID       *string              `gorm:"column:line_id"`
	Payload      string               `gorm:"column:payload;not null"`
	Status       enums.MutationStatus `gorm:"column:status;not null;default:pending"`
	AttemptCount int                  `gorm:"column:attempt_count;not null;default:0"`
	LastError    *string              `gorm:"column:last_error"`
	CreatedAt    time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time            `gorm:"column:updated_at;autoUpdateTime"`
	AppliedAt    *time.Time           `gorm:"column:applied_at"`
}

func (PendingMutation) TableName() string {
	return "pending_mutations"
}
