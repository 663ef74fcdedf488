package main

import (
	"context"
	"log"
	"time"

	"ticket-reservation/config"
	"ticket-reservation/internal/cache"
	"ticket-reservation/internal/database"
	"ticket-reservation/internal/handler"
	"ticket-reservation/internal/notification"
	"ticket-reservation/internal/payment"
	"ticket-reservation/internal/repository"
	"ticket-reservation/internal/service"
	"ticket-reservation/internal/worker"
	"ticket-reservation/pkg/logger"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.LoadConfig()

	defer logger.L.Sync()

	pool, err := database.InitDatabase(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer pool.Close()

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to initialize redis: %v", err)
	}
	defer rdb.Close()

	wmLogger := watermill.NewStdLogger(false, false)
	notifier, err := notification.NewStreamNotifier(rdb, wmLogger)
	if err != nil {
		log.Fatalf("Failed to initialize notifier: %v", err)
	}

	txManager := database.NewPoolTxManager(pool)
	eventRepo := repository.NewEventRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	reservationRepo := repository.NewReservationRepository(pool)
	specialPriceRepo := repository.NewSpecialPriceRepository(pool)
	fieldValueRepo := repository.NewFieldValueRepository(pool)
	additionalServiceRepo := repository.NewAdditionalServiceItemRepository(pool)

	availabilityCache := cache.NewAvailabilityCache(rdb)
	connector := payment.NewManualConnector()

	tokenService := service.NewTokenService(specialPriceRepo)
	allocationService := service.NewAllocationService(eventRepo, categoryRepo, ticketRepo, tokenService)
	reservationService := service.NewReservationService(
		txManager, eventRepo, reservationRepo, ticketRepo,
		specialPriceRepo, fieldValueRepo, additionalServiceRepo,
		allocationService, availabilityCache, notifier, cfg.Reservation,
	)
	removalService := service.NewRemovalService(
		txManager, eventRepo, reservationRepo, ticketRepo,
		specialPriceRepo, fieldValueRepo, additionalServiceRepo,
		availabilityCache, notifier, connector,
	)
	eventService := service.NewEventService(eventRepo, categoryRepo, ticketRepo, availabilityCache)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reaperInterval := time.Duration(cfg.Reservation.ReaperIntervalSeconds) * time.Second
	expirationWorker := worker.NewExpirationWorker(reservationService, reaperInterval)
	if err := expirationWorker.Start(ctx); err != nil {
		log.Fatalf("Failed to start expiration worker: %v", err)
	}

	mailerWorker := notification.NewMailerWorker(rdb, wmLogger, notification.LogMailer{})
	if err := mailerWorker.Start(ctx); err != nil {
		log.Fatalf("Failed to start mailer worker: %v", err)
	}

	router := gin.Default()
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handler.NewEventHandler(eventService).RegisterRoutes(router)
	handler.NewReservationHandler(reservationService, removalService).RegisterRoutes(router)

	router.Run()
}
