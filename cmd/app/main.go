package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardiwinata/futsal-booking/config"
	"github.com/ardiwinata/futsal-booking/internal/bootstrap"
	"github.com/ardiwinata/futsal-booking/internal/cache"
	"github.com/ardiwinata/futsal-booking/internal/domain"
	"github.com/ardiwinata/futsal-booking/internal/kafka"
	"github.com/ardiwinata/futsal-booking/internal/repository"
	"github.com/ardiwinata/futsal-booking/internal/service/authz"
	"github.com/ardiwinata/futsal-booking/internal/service/booking"
	"github.com/ardiwinata/futsal-booking/internal/service/fields"
	"github.com/ardiwinata/futsal-booking/internal/service/payment"
	"github.com/ardiwinata/futsal-booking/internal/service/tracking"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		logrus.WithError(err).Fatal("connect postgres")
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.FieldsCacheTTL)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	hierarchy := domain.NewRoleHierarchy(domain.DefaultRoles())
	gate := authz.NewGate(hierarchy)

	uow := repository.NewUnitOfWork(pool)
	fieldRepo := repository.NewFieldRepository(pool)

	fieldService := fields.NewFieldService(fieldRepo, redisCache, time.Duration(cfg.Booking.FieldsCacheTTL)*time.Second)
	bookingService := booking.NewBookingService(
		uow,
		fieldRepo,
		gate,
		redisCache,
		producer,
		cfg.Kafka.BookingTopic,
		time.Duration(cfg.Booking.SlotLockTTLMinutes)*time.Minute,
		time.Duration(cfg.Booking.PaymentHoldMinutes)*time.Minute,
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
	)
	paymentService := payment.NewPaymentService(uow, gate, producer, cfg.Kafka.PaymentTopic)
	trackingService := tracking.NewTrackingService(uow, gate)

	if err := bootstrap.Run(ctx, cfg, bootstrap.Services{
		Bookings:  bookingService,
		Payments:  paymentService,
		Tracking:  trackingService,
		Fields:    fieldService,
		Hierarchy: hierarchy,
	}); err != nil {
		logrus.WithError(err).Fatal("server error")
	}
}
