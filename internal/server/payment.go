package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	paymentdomain "github.com/smallbiznis/fixdesk/internal/payment/domain"
)

type recordPaymentRequest struct {
	BookingID        string `json:"booking_id"`
	PaymentMethod    string `json:"payment_method"`
	GatewayReference string `json:"gateway_reference"`
}

func (s *Server) RecordPayment(c *gin.Context) {
	var req recordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	bookingID := strings.TrimSpace(req.BookingID)
	if bookingID == "" {
		AbortWithError(c, newValidationError("booking_id", "required", "booking_id is required"))
		return
	}
	if _, ok := s.loadAccessibleBooking(c, bookingID); !ok {
		return
	}

	resp, err := s.paymentSvc.Record(c.Request.Context(), paymentdomain.RecordPaymentRequest{
		BookingID:        bookingID,
		PaymentMethod:    strings.TrimSpace(req.PaymentMethod),
		GatewayReference: strings.TrimSpace(req.GatewayReference),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPayment(c *gin.Context) {
	raw := strings.TrimSpace(c.Param("booking_id"))
	bookingID, err := snowflake.ParseString(raw)
	if err != nil || bookingID == 0 {
		AbortWithError(c, paymentdomain.ErrInvalidBookingID)
		return
	}
	if _, ok := s.loadAccessibleBooking(c, raw); !ok {
		return
	}

	resp, err := s.paymentSvc.GetByBookingID(c.Request.Context(), bookingID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
