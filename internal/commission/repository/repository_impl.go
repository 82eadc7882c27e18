package repository

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/fixdesk/internal/commission/domain"
	"gorm.io/gorm"
)

const collectionColumns = `id, booking_id, provider_id, commission_amount, collection_method,
	status, due_date, collected_at, reference, created_at, updated_at`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertIfAbsent(ctx context.Context, db *gorm.DB, entry *domain.Collection) (bool, error) {
	query := `INSERT INTO commission_collections (` + collectionColumns + `)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (booking_id) DO NOTHING`
	// mysql has no ON CONFLICT; the unique booking_id index makes IGNORE equivalent.
	if db.Dialector != nil && db.Dialector.Name() == "mysql" {
		query = `INSERT IGNORE INTO commission_collections (` + collectionColumns + `)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	}
	res := db.WithContext(ctx).Exec(query,
		entry.ID,
		entry.BookingID,
		entry.ProviderID,
		entry.CommissionAmount,
		entry.CollectionMethod,
		entry.Status,
		entry.DueDate,
		entry.CollectedAt,
		entry.Reference,
		entry.CreatedAt,
		entry.UpdatedAt,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Collection, error) {
	return r.findOne(ctx, db, "id = ?", id)
}

func (r *repo) FindByBookingID(ctx context.Context, db *gorm.DB, bookingID snowflake.ID) (*domain.Collection, error) {
	return r.findOne(ctx, db, "booking_id = ?", bookingID)
}

func (r *repo) findOne(ctx context.Context, db *gorm.DB, where string, arg any) (*domain.Collection, error) {
	var item domain.Collection
	err := db.WithContext(ctx).Raw(
		`SELECT `+collectionColumns+` FROM commission_collections WHERE `+where+` LIMIT 1`,
		arg,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListCollectionFilter, limit int) ([]*domain.Collection, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.ProviderID != "" {
		clauses = append(clauses, "provider_id = ?")
		args = append(args, filter.ProviderID)
	}
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.BeforeID != 0 {
		clauses = append(clauses, "id < ?")
		args = append(args, filter.BeforeID)
	}

	query := `SELECT ` + collectionColumns + ` FROM commission_collections`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	var items []*domain.Collection
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// MarkCompleted settles a pending or overdue entry. It reports false when
// the entry was already completed or does not exist.
func (r *repo) MarkCompleted(ctx context.Context, db *gorm.DB, id snowflake.ID, reference string, collectedAt time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE commission_collections
		 SET status = ?, collected_at = ?, reference = ?, updated_at = ?
		 WHERE id = ? AND status IN (?, ?)`,
		domain.StatusCompleted,
		collectedAt,
		reference,
		collectedAt,
		id,
		domain.StatusPending,
		domain.StatusOverdue,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) MarkOverdue(ctx context.Context, db *gorm.DB, now time.Time, limit int) (int64, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE commission_collections
		 SET status = ?, updated_at = ?
		 WHERE id IN (
			SELECT id FROM commission_collections
			WHERE status = ? AND due_date < ?
			ORDER BY due_date ASC
			LIMIT ?
		 )`,
		domain.StatusOverdue,
		now,
		domain.StatusPending,
		now,
		limit,
	)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
