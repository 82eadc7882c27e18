package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Payment is the record the gateway collaborator leaves for a booking.
type Payment struct {
	ID                  snowflake.ID `gorm:"primaryKey" json:"id"`
	BookingID           snowflake.ID `gorm:"not null;uniqueIndex" json:"booking_id"`
	PaymentMethod       string       `gorm:"not null" json:"payment_method"`
	CommissionAmount    int64        `gorm:"not null" json:"commission_amount"`
	IsCommissionSettled bool         `gorm:"not null" json:"is_commission_settled"`
	GatewayReference    string       `json:"gateway_reference,omitempty"`
	CreatedAt           time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt           time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// IsCashOnDelivery reports whether the recorded method means cash was
// collected by the provider.
func IsCashOnDelivery(method string) bool {
	switch strings.ToLower(strings.TrimSpace(method)) {
	case "cod", "cash":
		return true
	default:
		return false
	}
}

func (p Payment) IsCashOnDelivery() bool {
	return IsCashOnDelivery(p.PaymentMethod)
}
