package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	bookingdomain "github.com/smallbiznis/fixdesk/internal/booking/domain"
	"github.com/smallbiznis/fixdesk/pkg/db/pagination"
)

type createBookingRequest struct {
	CustomerID       string                        `json:"customer_id"`
	ProviderID       string                        `json:"provider_id"`
	DeviceID         string                        `json:"device_id"`
	ServiceID        string                        `json:"service_id"`
	AppointmentTime  *string                       `json:"appointment_time"`
	TotalAmount      json.RawMessage               `json:"total_amount"`
	IssueDescription string                        `json:"issue_description"`
	SelectedIssues   []bookingdomain.SelectedIssue `json:"selected_issues"`
	PartQuality      *string                       `json:"part_quality"`
	Status           *string                       `json:"status"`
	PaymentStatus    *string                       `json:"payment_status"`
	PaymentMethod    *string                       `json:"payment_method"`
	LocationType     *string                       `json:"location_type"`
	ServiceMode      *string                       `json:"service_mode"`
	// ServiceModeAlt accepts the camel-cased key older clients send.
	ServiceModeAlt  *string `json:"serviceMode"`
	CustomerAddress string  `json:"customer_address"`
	CustomerEmail   string  `json:"customer_email" validate:"omitempty,email"`
	ProviderEmail   string  `json:"provider_email" validate:"omitempty,email"`
}

type updateBookingRequest struct {
	Status             *string         `json:"status"`
	PaymentStatus      *string         `json:"payment_status"`
	PaymentMethod      *string         `json:"payment_method"`
	Rating             json.RawMessage `json:"rating"`
	Review             *string         `json:"review"`
	CancellationReason *string         `json:"cancellation_reason"`
	CustomerAddress    *string         `json:"customer_address"`
	AppointmentTime    *string         `json:"appointment_time"`
}

func (s *Server) CreateBooking(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if err := s.validateStruct(req); err != nil {
		AbortWithError(c, err)
		return
	}

	totalAmount, err := parseOptionalAmount(req.TotalAmount)
	if err != nil {
		AbortWithError(c, bookingdomain.NewValidationError("total_amount", "invalid_value", "total_amount must be a whole number in minor currency units"))
		return
	}
	appointment, err := parseOptionalTimePtr(req.AppointmentTime)
	if err != nil {
		AbortWithError(c, newValidationError("appointment_time", "invalid_value", "appointment_time must be an RFC3339 timestamp"))
		return
	}

	serviceMode := req.ServiceMode
	if serviceMode == nil {
		serviceMode = req.ServiceModeAlt
	}

	customerID := strings.TrimSpace(req.CustomerID)
	if actor, ok := actorFromContext(c); ok && !isPrivileged(actor) {
		if customerID != "" && customerID != actor.ID {
			AbortWithError(c, ErrForbidden)
			return
		}
		customerID = actor.ID
	}

	resp, err := s.bookingSvc.Create(c.Request.Context(), bookingdomain.CreateBookingRequest{
		CustomerID:       customerID,
		ProviderID:       strings.TrimSpace(req.ProviderID),
		DeviceID:         strings.TrimSpace(req.DeviceID),
		ServiceID:        strings.TrimSpace(req.ServiceID),
		AppointmentTime:  appointment,
		TotalAmount:      totalAmount,
		IssueDescription: strings.TrimSpace(req.IssueDescription),
		SelectedIssues:   req.SelectedIssues,
		PartQuality:      trimmedPtr(req.PartQuality),
		Status:           trimmedPtr(req.Status),
		PaymentStatus:    trimmedPtr(req.PaymentStatus),
		PaymentMethod:    trimmedPtr(req.PaymentMethod),
		LocationType:     trimmedPtr(req.LocationType),
		ServiceMode:      trimmedPtr(serviceMode),
		CustomerAddress:  strings.TrimSpace(req.CustomerAddress),
		CustomerEmail:    strings.TrimSpace(req.CustomerEmail),
		ProviderEmail:    strings.TrimSpace(req.ProviderEmail),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListBookings(c *gin.Context) {
	var query struct {
		pagination.Pagination
		CustomerID string `form:"customer_id"`
		ProviderID string `form:"provider_id"`
		Status     string `form:"status"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	actor, ok := actorFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	customerID, providerID := scopeBookingFilter(actor, query.CustomerID, query.ProviderID)

	resp, err := s.bookingSvc.List(c.Request.Context(), bookingdomain.ListBookingRequest{
		CustomerID: customerID,
		ProviderID: providerID,
		Status:     strings.TrimSpace(query.Status),
		PageToken:  query.PageToken,
		PageSize:   query.PageSize,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetBooking(c *gin.Context) {
	item, ok := s.loadAccessibleBooking(c, c.Param("id"))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) UpdateBooking(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		id = strings.TrimSpace(c.Query("id"))
	}
	if id == "" {
		AbortWithError(c, newValidationError("id", "required", "booking id is required"))
		return
	}

	var req updateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	rating, err := parseOptionalNumber(req.Rating)
	if err != nil {
		AbortWithError(c, bookingdomain.NewValidationError("rating", "invalid_value", "rating must be a number between 0 and 5"))
		return
	}
	appointment, err := parseOptionalTimePtr(req.AppointmentTime)
	if err != nil {
		AbortWithError(c, newValidationError("appointment_time", "invalid_value", "appointment_time must be an RFC3339 timestamp"))
		return
	}

	if _, ok := s.loadAccessibleBooking(c, id); !ok {
		return
	}

	resp, err := s.bookingSvc.Update(c.Request.Context(), bookingdomain.UpdateBookingRequest{
		ID:                 id,
		Status:             trimmedPtr(req.Status),
		PaymentStatus:      trimmedPtr(req.PaymentStatus),
		PaymentMethod:      trimmedPtr(req.PaymentMethod),
		Rating:             rating,
		Review:             req.Review,
		CancellationReason: req.CancellationReason,
		CustomerAddress:    trimmedPtr(req.CustomerAddress),
		AppointmentTime:    appointment,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// loadAccessibleBooking fetches the booking and aborts the request when it
// is missing or the actor is not a party to it.
func (s *Server) loadAccessibleBooking(c *gin.Context, id string) (bookingdomain.Booking, bool) {
	actor, ok := actorFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return bookingdomain.Booking{}, false
	}

	item, err := s.bookingSvc.Get(c.Request.Context(), bookingdomain.GetBookingRequest{ID: strings.TrimSpace(id)})
	if err != nil {
		AbortWithError(c, err)
		return bookingdomain.Booking{}, false
	}
	if !canAccessBooking(actor, item) {
		AbortWithError(c, ErrForbidden)
		return bookingdomain.Booking{}, false
	}
	return item, true
}
