package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// ListFilter selects a page of one user's feed. Empty classification fields match everything.
type ListFilter struct {
	UserID   string
	Type     string
	Category string
	Priority Priority
	BeforeID snowflake.ID
	Limit    int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, notification *Notification) error
	ListByUser(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*Notification, error)
}
