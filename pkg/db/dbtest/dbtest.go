// Package dbtest opens isolated in-memory SQLite databases carrying the
// service schema, for repository and service tests.
package dbtest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var schema = []string{
	`CREATE TABLE bookings (
		id BIGINT PRIMARY KEY,
		customer_id TEXT NOT NULL,
		provider_id TEXT NOT NULL,
		device_id TEXT NOT NULL,
		service_id TEXT NOT NULL,
		issue_description TEXT NOT NULL DEFAULT '',
		selected_issues TEXT NOT NULL DEFAULT '[]',
		part_quality TEXT NOT NULL DEFAULT '',
		total_amount BIGINT NOT NULL CHECK (total_amount > 0),
		payment_status TEXT NOT NULL DEFAULT 'pending',
		payment_method TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending',
		appointment_time DATETIME NOT NULL,
		location_type TEXT NOT NULL DEFAULT '',
		service_mode TEXT NOT NULL DEFAULT '',
		customer_address TEXT NOT NULL DEFAULT '',
		customer_email TEXT NOT NULL DEFAULT '',
		provider_email TEXT NOT NULL DEFAULT '',
		rating REAL NULL,
		review TEXT NOT NULL DEFAULT '',
		cancellation_reason TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE payments (
		id BIGINT PRIMARY KEY,
		booking_id BIGINT NOT NULL UNIQUE,
		payment_method TEXT NOT NULL,
		commission_amount BIGINT NOT NULL DEFAULT 0,
		is_commission_settled BOOLEAN NOT NULL DEFAULT 0,
		gateway_reference TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE commission_collections (
		id BIGINT PRIMARY KEY,
		booking_id BIGINT NOT NULL UNIQUE,
		provider_id TEXT NOT NULL,
		commission_amount BIGINT NOT NULL,
		collection_method TEXT NOT NULL DEFAULT 'upi',
		status TEXT NOT NULL DEFAULT 'pending',
		due_date DATETIME NOT NULL,
		collected_at DATETIME NULL,
		reference TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE notifications (
		id BIGINT PRIMARY KEY,
		user_id TEXT NOT NULL,
		booking_id BIGINT NOT NULL,
		audience TEXT NOT NULL,
		type TEXT NOT NULL DEFAULT 'booking',
		category TEXT NOT NULL DEFAULT 'general',
		priority TEXT NOT NULL DEFAULT 'normal',
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		metadata TEXT NOT NULL DEFAULT '{}',
		created_at DATETIME NOT NULL
	)`,
}

// Open returns a fresh database named after the running test.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return conn
}
