package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/fixdesk/internal/booking/domain"
	"gorm.io/gorm"
)

const bookingColumns = `id, customer_id, provider_id, device_id, service_id,
	issue_description, selected_issues, part_quality, total_amount,
	payment_status, payment_method, status, appointment_time, location_type,
	service_mode, customer_address, customer_email, provider_email, rating,
	review, cancellation_reason, created_at, updated_at`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, booking *domain.Booking) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO bookings (`+bookingColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		booking.ID,
		booking.CustomerID,
		booking.ProviderID,
		booking.DeviceID,
		booking.ServiceID,
		booking.IssueDescription,
		booking.SelectedIssues,
		booking.PartQuality,
		booking.TotalAmount,
		booking.PaymentStatus,
		booking.PaymentMethod,
		booking.Status,
		booking.AppointmentTime,
		booking.LocationType,
		booking.ServiceMode,
		booking.CustomerAddress,
		booking.CustomerEmail,
		booking.ProviderEmail,
		booking.Rating,
		booking.Review,
		booking.CancellationReason,
		booking.CreatedAt,
		booking.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Booking, error) {
	var booking domain.Booking
	err := db.WithContext(ctx).Raw(
		`SELECT `+bookingColumns+` FROM bookings WHERE id = ?`,
		id,
	).Scan(&booking).Error
	if err != nil {
		return nil, err
	}
	if booking.ID == 0 {
		return nil, nil
	}
	return &booking, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListBookingFilter, limit int) ([]*domain.Booking, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.CustomerID != "" {
		clauses = append(clauses, "customer_id = ?")
		args = append(args, filter.CustomerID)
	}
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

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	var bookings []*domain.Booking
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *repo) UpdateIfStatus(ctx context.Context, db *gorm.DB, booking *domain.Booking, expected domain.Status) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE bookings
		 SET status = ?, payment_status = ?, payment_method = ?, rating = ?,
			review = ?, cancellation_reason = ?, appointment_time = ?,
			customer_address = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		booking.Status,
		booking.PaymentStatus,
		booking.PaymentMethod,
		booking.Rating,
		booking.Review,
		booking.CancellationReason,
		booking.AppointmentTime,
		booking.CustomerAddress,
		booking.UpdatedAt,
		booking.ID,
		expected,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
