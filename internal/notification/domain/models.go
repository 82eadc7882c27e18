package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Audience string

const (
	AudienceCustomer Audience = "customer"
	AudienceProvider Audience = "provider"
)

const (
	TypeBooking = "booking"

	CategoryBookingStatus = "booking_status"
	CategoryGeneral       = "general"
)

type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// ParsePriority accepts an empty value as normal.
func ParsePriority(raw string) (Priority, error) {
	switch p := Priority(strings.ToLower(strings.TrimSpace(raw))); p {
	case "":
		return PriorityNormal, nil
	case PriorityNormal, PriorityHigh:
		return p, nil
	default:
		return "", ErrInvalidPriority
	}
}

// Notification is one entry in a user's in-app feed.
type Notification struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id"`
	UserID    string            `gorm:"not null;index" json:"user_id"`
	BookingID snowflake.ID      `gorm:"not null" json:"booking_id"`
	Audience  Audience          `gorm:"not null" json:"audience"`
	Type      string            `gorm:"not null;default:'booking'" json:"type"`
	Category  string            `gorm:"not null;default:'general'" json:"category"`
	Priority  Priority          `gorm:"not null;default:'normal'" json:"priority"`
	Title     string            `gorm:"not null" json:"title"`
	Message   string            `gorm:"not null" json:"message"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}
