package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/fixdesk/pkg/db/pagination"
)

type NotifyRequest struct {
	UserID    string
	BookingID snowflake.ID
	Audience  Audience
	Type      string
	Category  string
	Priority  Priority
	Title     string
	Message   string
	Metadata  map[string]any
}

// Dispatcher delivers an in-app notification.
type Dispatcher interface {
	Notify(ctx context.Context, req NotifyRequest) (Notification, error)
}

type EmailMessage struct {
	To       string
	Template string
	Data     map[string]any
}

// EmailDispatcher delivers a templated email.
type EmailDispatcher interface {
	SendEmail(ctx context.Context, msg EmailMessage) error
}

type ListNotificationRequest struct {
	UserID    string
	Type      string
	Category  string
	Priority  string
	PageToken string
	PageSize  int
}

type ListNotificationResponse struct {
	pagination.PageInfo
	Notifications []Notification `json:"notifications"`
}

type Service interface {
	Dispatcher
	List(ctx context.Context, req ListNotificationRequest) (ListNotificationResponse, error)
}

var (
	ErrInvalidUserID    = errors.New("invalid_user_id")
	ErrInvalidMessage   = errors.New("invalid_message")
	ErrInvalidRecipient = errors.New("invalid_recipient")
	ErrInvalidPriority  = errors.New("invalid_priority")
)
