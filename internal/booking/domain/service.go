package domain

import (
	"context"
	"time"

	"github.com/smallbiznis/fixdesk/pkg/db/pagination"
)

// CreateBookingRequest carries optional fields as pointers so that an
// absent value can be told apart from a supplied one.
type CreateBookingRequest struct {
	CustomerID       string
	ProviderID       string
	DeviceID         string
	ServiceID        string
	AppointmentTime  *time.Time
	TotalAmount      *int64
	IssueDescription string
	SelectedIssues   []SelectedIssue
	PartQuality      *string
	Status           *string
	PaymentStatus    *string
	PaymentMethod    *string
	LocationType     *string
	ServiceMode      *string
	CustomerAddress  string
	CustomerEmail    string
	ProviderEmail    string
}

type UpdateBookingRequest struct {
	ID                 string
	Status             *string
	PaymentStatus      *string
	PaymentMethod      *string
	Rating             *float64
	Review             *string
	CancellationReason *string
	CustomerAddress    *string
	AppointmentTime    *time.Time
}

type GetBookingRequest struct {
	ID string
}

type ListBookingRequest struct {
	CustomerID string
	ProviderID string
	Status     string
	PageToken  string
	PageSize   int
}

type ListBookingResponse struct {
	pagination.PageInfo
	Bookings []Summary `json:"bookings"`
}

type Service interface {
	Create(context.Context, CreateBookingRequest) (Booking, error)
	Get(context.Context, GetBookingRequest) (Booking, error)
	List(context.Context, ListBookingRequest) (ListBookingResponse, error)
	Update(context.Context, UpdateBookingRequest) (Booking, error)
}
