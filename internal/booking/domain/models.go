package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type PartQuality string

const (
	PartQualityOriginal    PartQuality = "original"
	PartQualityHighQuality PartQuality = "high_quality"
	PartQualityStandard    PartQuality = "standard"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// PaymentMethod is the explicit method chosen at checkout. Empty means the
// booking predates the field and completion falls back to payment_status.
type PaymentMethod string

const (
	PaymentMethodOnline PaymentMethod = "online"
	PaymentMethodCOD    PaymentMethod = "cod"
)

type LocationType string

const (
	LocationTypeDoorstep         LocationType = "doorstep"
	LocationTypeProviderLocation LocationType = "provider_location"
)

type ServiceMode string

const (
	ServiceModeDoorstep   ServiceMode = "doorstep"
	ServiceModePickupDrop ServiceMode = "pickup_drop"
	ServiceModeWalkIn     ServiceMode = "walk_in"
)

type SelectedIssue struct {
	Name string `json:"name"`
}

type Booking struct {
	ID                 snowflake.ID                       `gorm:"primaryKey" json:"id"`
	CustomerID         string                             `gorm:"not null;index" json:"customer_id"`
	ProviderID         string                             `gorm:"not null;index" json:"provider_id"`
	DeviceID           string                             `gorm:"not null" json:"device_id"`
	ServiceID          string                             `gorm:"not null" json:"service_id"`
	IssueDescription   string                             `json:"issue_description"`
	SelectedIssues     datatypes.JSONSlice[SelectedIssue] `gorm:"type:jsonb;not null;default:'[]'" json:"selected_issues"`
	PartQuality        PartQuality                        `json:"part_quality,omitempty"`
	TotalAmount        int64                              `gorm:"not null" json:"total_amount"`
	PaymentStatus      PaymentStatus                      `gorm:"not null" json:"payment_status"`
	PaymentMethod      PaymentMethod                      `json:"payment_method,omitempty"`
	Status             Status                             `gorm:"not null;index" json:"status"`
	AppointmentTime    time.Time                          `gorm:"not null" json:"appointment_time"`
	LocationType       LocationType                       `json:"location_type,omitempty"`
	ServiceMode        ServiceMode                        `json:"service_mode,omitempty"`
	CustomerAddress    string                             `json:"customer_address,omitempty"`
	CustomerEmail      string                             `json:"customer_email,omitempty"`
	ProviderEmail      string                             `json:"provider_email,omitempty"`
	Rating             *float64                           `json:"rating"`
	Review             string                             `json:"review"`
	CancellationReason string                             `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time                          `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt          time.Time                          `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// Summary is the list projection of a booking.
type Summary struct {
	ID            snowflake.ID  `json:"id"`
	TotalAmount   int64         `json:"total_amount"`
	Status        Status        `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
}

func (b Booking) Summary() Summary {
	return Summary{
		ID:            b.ID,
		TotalAmount:   b.TotalAmount,
		Status:        b.Status,
		PaymentStatus: b.PaymentStatus,
	}
}
