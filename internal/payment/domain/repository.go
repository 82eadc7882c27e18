package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Upsert(ctx context.Context, db *gorm.DB, payment *Payment) error
	FindByBookingID(ctx context.Context, db *gorm.DB, bookingID snowflake.ID) (*Payment, error)
	SetCommissionSettled(ctx context.Context, db *gorm.DB, bookingID snowflake.ID, settled bool, updatedAt time.Time) (bool, error)
}
