package tracing

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestBookingIDFromRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name   string
		route  string
		target string
		params gin.Params
		want   string
	}{
		{"path param", "/api/v1/bookings/:id", "/api/v1/bookings/42", gin.Params{{Key: "id", Value: "42"}}, "42"},
		{"query param", "/api/v1/bookings", "/api/v1/bookings?id=43", nil, "43"},
		{"payment lookup", "/api/v1/payments/:booking_id", "/api/v1/payments/44", gin.Params{{Key: "booking_id", Value: "44"}}, "44"},
		{"other route", "/api/v1/commissions/:id", "/api/v1/commissions/7", gin.Params{{Key: "id", Value: "7"}}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, tc.target, nil)
			c.Params = tc.params
			assert.Equal(t, tc.want, bookingIDFromRoute(c, tc.route))
		})
	}
}
