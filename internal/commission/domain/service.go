package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/fixdesk/pkg/db/pagination"
)

type OpenRequest struct {
	BookingID  snowflake.ID
	ProviderID string
	Amount     int64
	// CollectionMethod and DueDate fall back to the commission policy when empty.
	CollectionMethod string
	DueDate          time.Time
}

type OpenResult struct {
	Collection Collection
	Created    bool
}

type SettleRequest struct {
	ID        string
	Reference string
}

type ListCollectionRequest struct {
	ProviderID string
	Status     string
	PageToken  string
	PageSize   int
}

type ListCollectionResponse struct {
	pagination.PageInfo
	Collections []Collection `json:"collections"`
}

type Service interface {
	Open(ctx context.Context, req OpenRequest) (OpenResult, error)
	Settle(ctx context.Context, req SettleRequest) (Collection, error)
	// MarkOverdue ages pending entries whose due date passed before now.
	MarkOverdue(ctx context.Context, now time.Time, limit int) (int64, error)
	Get(ctx context.Context, id string) (Collection, error)
	List(ctx context.Context, req ListCollectionRequest) (ListCollectionResponse, error)
}

var (
	ErrInvalidID         = errors.New("invalid_id")
	ErrInvalidBookingID  = errors.New("invalid_booking_id")
	ErrInvalidProviderID = errors.New("invalid_provider_id")
	ErrInvalidAmount     = errors.New("invalid_commission_amount")
	ErrInvalidStatus     = errors.New("invalid_status")
	ErrNotFound          = errors.New("commission_not_found")
)
