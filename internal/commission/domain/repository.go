package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListCollectionFilter struct {
	ProviderID string
	Status     Status
	BeforeID   snowflake.ID
}

type Repository interface {
	// InsertIfAbsent reports false when the booking already has an entry.
	InsertIfAbsent(ctx context.Context, db *gorm.DB, entry *Collection) (bool, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Collection, error)
	FindByBookingID(ctx context.Context, db *gorm.DB, bookingID snowflake.ID) (*Collection, error)
	List(ctx context.Context, db *gorm.DB, filter ListCollectionFilter, limit int) ([]*Collection, error)
	MarkCompleted(ctx context.Context, db *gorm.DB, id snowflake.ID, reference string, collectedAt time.Time) (bool, error)
	MarkOverdue(ctx context.Context, db *gorm.DB, now time.Time, limit int) (int64, error)
}
