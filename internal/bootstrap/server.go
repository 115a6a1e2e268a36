package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ardiwinata/futsal-booking/api"
	"github.com/ardiwinata/futsal-booking/config"
	"github.com/ardiwinata/futsal-booking/internal/domain"
	"github.com/ardiwinata/futsal-booking/internal/service/booking"
	"github.com/ardiwinata/futsal-booking/internal/service/fields"
	"github.com/ardiwinata/futsal-booking/internal/service/payment"
	"github.com/ardiwinata/futsal-booking/internal/service/tracking"
	"github.com/gin-gonic/gin"
)

type Services struct {
	Bookings  booking.BookingUseCase
	Payments  payment.PaymentUseCase
	Tracking  tracking.TrackingUseCase
	Fields    fields.FieldUseCase
	Hierarchy *domain.RoleHierarchy
}

// Run starts the HTTP server and blocks until the context is canceled or the
// server fails.
func Run(ctx context.Context, cfg *config.Config, svcs Services) error {
	router := gin.New()
	router.Use(gin.Recovery())

	v1 := router.Group("/api/v1")
	api.NewBookingHandler(svcs.Bookings).Register(v1.Group("/bookings"))
	api.NewPaymentHandler(svcs.Payments).Register(v1.Group("/payments"))
	api.NewTrackingHandler(svcs.Tracking).Register(v1.Group("/tracking"))
	api.NewFieldHandler(svcs.Fields).Register(v1.Group("/fields"))
	api.NewRoleHandler(svcs.Hierarchy).Register(v1.Group("/roles"))

	httpSrv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}
