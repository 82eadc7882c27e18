package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/fixdesk/internal/authorization"
	"github.com/smallbiznis/fixdesk/internal/booking"
	bookingdomain "github.com/smallbiznis/fixdesk/internal/booking/domain"
	"github.com/smallbiznis/fixdesk/internal/commission"
	commissiondomain "github.com/smallbiznis/fixdesk/internal/commission/domain"
	"github.com/smallbiznis/fixdesk/internal/config"
	"github.com/smallbiznis/fixdesk/internal/events"
	"github.com/smallbiznis/fixdesk/internal/lock"
	"github.com/smallbiznis/fixdesk/internal/notification"
	notificationdomain "github.com/smallbiznis/fixdesk/internal/notification/domain"
	"github.com/smallbiznis/fixdesk/internal/observability"
	obsmiddleware "github.com/smallbiznis/fixdesk/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/fixdesk/internal/observability/metrics"
	obstracing "github.com/smallbiznis/fixdesk/internal/observability/tracing"
	"github.com/smallbiznis/fixdesk/internal/payment"
	paymentdomain "github.com/smallbiznis/fixdesk/internal/payment/domain"
	"github.com/smallbiznis/fixdesk/internal/providers/pdf"
	"github.com/smallbiznis/fixdesk/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	authorization.Module,
	events.Module,
	lock.Module,
	ratelimit.Module,
	notification.Module,
	payment.Module,
	commission.Module,
	booking.Module,
	pdf.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	addr := strings.TrimSpace(cfg.HTTPAddr)
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", addr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	log           *zap.Logger
	validate      *validator.Validate
	authzSvc      authorization.Service
	bookingSvc    bookingdomain.Service
	paymentSvc    paymentdomain.Service
	commissionSvc commissiondomain.Service
	notifySvc     notificationdomain.Service
	pdfProvider   pdf.Provider
	obsMetrics    *obsmetrics.Metrics
	createLimiter *ratelimit.BookingCreateLimiter
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	Log           *zap.Logger
	AuthzSvc      authorization.Service
	BookingSvc    bookingdomain.Service
	PaymentSvc    paymentdomain.Service
	CommissionSvc commissiondomain.Service
	NotifySvc     notificationdomain.Service
	PDF           pdf.Provider                    `optional:"true"`
	ObsMetrics    *obsmetrics.Metrics             `optional:"true"`
	CreateLimiter *ratelimit.BookingCreateLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		log:           p.Log.Named("http.server"),
		validate:      newValidator(),
		authzSvc:      p.AuthzSvc,
		bookingSvc:    p.BookingSvc,
		paymentSvc:    p.PaymentSvc,
		commissionSvc: p.CommissionSvc,
		notifySvc:     p.NotifySvc,
		pdfProvider:   p.PDF,
		obsMetrics:    p.ObsMetrics,
		createLimiter: p.CreateLimiter,
	}

	svc.registerAPIRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api/v1")
	api.Use(s.ActorContext())

	// -------- Bookings --------
	api.POST("/bookings", s.RequirePermission(authorization.ObjectBooking, authorization.ActionBookingCreate), s.BookingCreateRateLimit(), s.CreateBooking)
	api.GET("/bookings", s.RequirePermission(authorization.ObjectBooking, authorization.ActionBookingView), s.ListBookings)
	api.GET("/bookings/:id", s.RequirePermission(authorization.ObjectBooking, authorization.ActionBookingView), s.GetBooking)
	api.PUT("/bookings", s.RequirePermission(authorization.ObjectBooking, authorization.ActionBookingUpdate), s.UpdateBooking)
	api.PATCH("/bookings", s.RequirePermission(authorization.ObjectBooking, authorization.ActionBookingUpdate), s.UpdateBooking)
	api.PUT("/bookings/:id", s.RequirePermission(authorization.ObjectBooking, authorization.ActionBookingUpdate), s.UpdateBooking)
	api.PATCH("/bookings/:id", s.RequirePermission(authorization.ObjectBooking, authorization.ActionBookingUpdate), s.UpdateBooking)

	// -------- Payments --------
	api.POST("/payments", s.RequirePermission(authorization.ObjectPayment, authorization.ActionPaymentRecord), s.RecordPayment)
	api.GET("/payments/:booking_id", s.RequirePermission(authorization.ObjectPayment, authorization.ActionPaymentView), s.GetPayment)

	// -------- Commissions --------
	api.GET("/commissions", s.RequirePermission(authorization.ObjectCommission, authorization.ActionCommissionView), s.ListCommissions)
	api.GET("/commissions/:id", s.RequirePermission(authorization.ObjectCommission, authorization.ActionCommissionView), s.GetCommission)
	api.POST("/commissions/:id/settle", s.RequirePermission(authorization.ObjectCommission, authorization.ActionCommissionSettle), s.SettleCommission)
	api.GET("/commissions/:id/statement", s.RequirePermission(authorization.ObjectCommission, authorization.ActionCommissionView), s.CommissionStatement)

	// -------- Notifications --------
	api.GET("/notifications", s.RequirePermission(authorization.ObjectNotification, authorization.ActionNotificationView), s.ListNotifications)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
