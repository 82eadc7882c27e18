package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/fixdesk/internal/payment/domain"
	pkgdb "github.com/smallbiznis/fixdesk/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

// Upsert keeps one record per booking. A re-delivered gateway result
// refreshes method, reference and commission but leaves the settlement
// flag to commission settlement.
func (r *repo) Upsert(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	err := db.WithContext(ctx).Exec(
		`INSERT INTO payments (
			id, booking_id, payment_method, commission_amount,
			is_commission_settled, gateway_reference, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		payment.ID,
		payment.BookingID,
		payment.PaymentMethod,
		payment.CommissionAmount,
		payment.IsCommissionSettled,
		payment.GatewayReference,
		payment.CreatedAt,
		payment.UpdatedAt,
	).Error
	if err == nil || !pkgdb.IsDuplicateKeyErr(err) {
		return err
	}

	return db.WithContext(ctx).Exec(
		`UPDATE payments
		 SET payment_method = ?, commission_amount = ?, gateway_reference = ?, updated_at = ?
		 WHERE booking_id = ?`,
		payment.PaymentMethod,
		payment.CommissionAmount,
		payment.GatewayReference,
		payment.UpdatedAt,
		payment.BookingID,
	).Error
}

func (r *repo) FindByBookingID(ctx context.Context, db *gorm.DB, bookingID snowflake.ID) (*domain.Payment, error) {
	var item domain.Payment
	err := db.WithContext(ctx).Raw(
		`SELECT id, booking_id, payment_method, commission_amount,
			is_commission_settled, gateway_reference, created_at, updated_at
		 FROM payments
		 WHERE booking_id = ?
		 LIMIT 1`,
		bookingID,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) SetCommissionSettled(ctx context.Context, db *gorm.DB, bookingID snowflake.ID, settled bool, updatedAt time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE payments
		 SET is_commission_settled = ?, updated_at = ?
		 WHERE booking_id = ?`,
		settled,
		updatedAt,
		bookingID,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
