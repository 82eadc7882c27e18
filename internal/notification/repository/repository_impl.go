package repository

import (
	"context"

	"github.com/smallbiznis/fixdesk/internal/notification/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, n *domain.Notification) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO notifications (id, user_id, booking_id, audience, type, category, priority, title, message, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID,
		n.UserID,
		n.BookingID,
		n.Audience,
		n.Type,
		n.Category,
		n.Priority,
		n.Title,
		n.Message,
		n.Metadata,
		n.CreatedAt,
	).Error
}

func (r *repo) ListByUser(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.Notification, error) {
	query := `SELECT id, user_id, booking_id, audience, type, category, priority, title, message, metadata, created_at
		FROM notifications WHERE user_id = ?`
	args := []any{filter.UserID}
	if filter.Type != "" {
		query += " AND type = ?"
		args = append(args, filter.Type)
	}
	if filter.Category != "" {
		query += " AND category = ?"
		args = append(args, filter.Category)
	}
	if filter.Priority != "" {
		query += " AND priority = ?"
		args = append(args, filter.Priority)
	}
	if filter.BeforeID != 0 {
		query += " AND id < ?"
		args = append(args, filter.BeforeID)
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, filter.Limit)

	var items []*domain.Notification
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
