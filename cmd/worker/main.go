package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardiwinata/futsal-booking/config"
	"github.com/ardiwinata/futsal-booking/internal/cache"
	"github.com/ardiwinata/futsal-booking/internal/domain"
	"github.com/ardiwinata/futsal-booking/internal/kafka"
	"github.com/ardiwinata/futsal-booking/internal/notify"
	"github.com/ardiwinata/futsal-booking/internal/repository"
	"github.com/ardiwinata/futsal-booking/internal/service/authz"
	"github.com/ardiwinata/futsal-booking/internal/service/booking"
	"github.com/jackc/pgx/v5/pgxpool"
	kafkaGo "github.com/segmentio/kafka-go"
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		logrus.WithError(err).Fatal("connect postgres")
	}
	defer pool.Close()

	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()
	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.FieldsCacheTTL)*time.Second)

	hierarchy := domain.NewRoleHierarchy(domain.DefaultRoles())
	gate := authz.NewGate(hierarchy)

	uow := repository.NewUnitOfWork(pool)
	fieldRepo := repository.NewFieldRepository(pool)
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

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
	defer consumer.Close()

	sender := notify.NewSender()

	go func() {
		if err := consumer.Consume(ctx, func(ctx context.Context, msg kafkaGo.Message) error {
			var event kafka.BookingEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				logrus.WithError(err).Warn("decode notification event")
				return nil
			}
			return sender.Send(ctx, event)
		}); err != nil {
			logrus.WithError(err).Info("consumer stopped")
		}
	}()

	expireTicker := time.NewTicker(time.Duration(cfg.Worker.ExpirationSweepMinutes) * time.Minute)
	defer expireTicker.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-expireTicker.C:
			expired, err := bookingService.ExpireUnpaidBookings(ctx)
			if err != nil {
				logrus.WithError(err).Error("expire bookings")
				continue
			}
			if len(expired) > 0 {
				logrus.WithField("count", len(expired)).Info("expired unpaid bookings")
			}
		case s := <-sig:
			logrus.WithField("signal", s.String()).Info("shutting down")
			return
		}
	}
}
