package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListBookingFilter struct {
	CustomerID string
	ProviderID string
	Status     Status
	// BeforeID restricts results to bookings older than the cursor.
	BeforeID snowflake.ID
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, booking *Booking) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Booking, error)
	List(ctx context.Context, db *gorm.DB, filter ListBookingFilter, limit int) ([]*Booking, error)
	// UpdateIfStatus writes the mutable fields of booking only while the
	// stored status still equals expected. It reports whether a row changed.
	UpdateIfStatus(ctx context.Context, db *gorm.DB, booking *Booking, expected Status) (bool, error)
}
