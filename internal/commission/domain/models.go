package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusOverdue   Status = "overdue"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusOverdue:
		return true
	default:
		return false
	}
}

// Collection is the ledger entry for the commission a provider owes on a
// cash-collected booking. There is at most one per booking.
type Collection struct {
	ID               snowflake.ID `gorm:"primaryKey" json:"id"`
	BookingID        snowflake.ID `gorm:"not null;uniqueIndex" json:"booking_id"`
	ProviderID       string       `gorm:"not null;index" json:"provider_id"`
	CommissionAmount int64        `gorm:"not null" json:"commission_amount"`
	CollectionMethod string       `gorm:"not null" json:"collection_method"`
	Status           Status       `gorm:"not null" json:"status"`
	DueDate          time.Time    `gorm:"not null" json:"due_date"`
	CollectedAt      *time.Time   `json:"collected_at"`
	Reference        string       `json:"reference,omitempty"`
	CreatedAt        time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Collection) TableName() string { return "commission_collections" }
