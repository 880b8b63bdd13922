package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"marketplace-backend/config"
	"marketplace-backend/controllers"
	"marketplace-backend/database"
	"marketplace-backend/kafka"
	awspkg "marketplace-backend/pkg/aws"
	"marketplace-backend/pkg/logger"
	"marketplace-backend/repository"
	"marketplace-backend/routes"
	"marketplace-backend/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic("config load failed: " + err.Error())
	}

	logger.Initialize(cfg.Env)
	log := logger.Log
	defer log.Sync()

	// --- Database ---
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		log.Fatal("DB connection failed", zap.Error(err))
	}

	redisClient, err := database.NewRedisClient(context.Background(), cfg.RedisURL)
	if err != nil {
		log.Fatal("Redis connection failed", zap.Error(err))
	}

	// --- AWS setup ---
	awsCfg, err := awspkg.LoadAWSConfig(context.Background())
	if err != nil {
		log.Fatal("Failed to load AWS config", zap.Error(err))
	}
	snsClient := awspkg.NewSNSClient(awsCfg)

	var payoutQueue *awspkg.SQSQueue
	if queueURL, err := awspkg.GetQueueURL(context.Background(), awsCfg, cfg.PayoutQueueName); err != nil {
		log.Warn("Payout retry queue unavailable (non-fatal)", zap.Error(err))
	} else {
		payoutQueue = awspkg.NewSQSQueue(awsCfg, queueURL)
	}

	metricsClient, err := awspkg.NewMetricsClient(context.Background())
	if err != nil {
		log.Warn("CloudWatch metrics client init failed (non-fatal)", zap.Error(err))
	}

	// --- Messaging & payments ---
	producer := kafka.NewProducer(strings.Split(cfg.KafkaBrokers, ","), cfg.KafkaTopic)
	defer producer.Close()

	gateway := services.NewStripeService(cfg.StripeSecretKey, cfg.StripeWebhookKey)

	// --- Dependency injection ---
	productRepo := repository.NewGormProductRepository(db)
	couponRepo := repository.NewGormCouponRepository(db)
	orderRepo := repository.NewGormOrderRepository(db)
	vendorRepo := repository.NewGormVendorRepository(db)
	customerRepo := repository.NewGormCustomerRepository(db)
	cartRepo := repository.NewRedisCartRepository(redisClient, cfg.CartTTL)

	publisher := services.NewEventPublisher(producer, snsClient, cfg.SNSTopicARN, log)
	couponService := services.NewCouponService(couponRepo, log)
	pricingService := services.NewPricingService(productRepo, couponService, log)
	checkoutService := services.NewCheckoutService(pricingService, cartRepo, customerRepo, gateway, log)

	var queueSender services.QueueSender
	if payoutQueue != nil {
		queueSender = payoutQueue
	}
	settlementService := services.NewSettlementService(productRepo, vendorRepo, gateway, queueSender, metricsClient, log)
	paymentEventService := services.NewPaymentEventService(orderRepo, cartRepo, couponService, settlementService, publisher, metricsClient, log)
	orderService := services.NewOrderService(orderRepo, log)
	vendorService := services.NewVendorService(vendorRepo, log)
	withdrawalService := services.NewWithdrawalService(vendorRepo, publisher, log)

	cartCtrl := controllers.NewCartController(cartRepo, pricingService, log)
	checkoutCtrl := controllers.NewCheckoutController(checkoutService)
	couponCtrl := controllers.NewCouponController(couponService)
	orderCtrl := controllers.NewOrderController(orderService)
	withdrawalCtrl := controllers.NewWithdrawalController(withdrawalService)
	vendorCtrl := controllers.NewVendorController(vendorService)
	webhookCtrl := controllers.NewWebhookController(gateway, paymentEventService, metricsClient, log)

	// --- HTTP router ---
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestLogger())

	// CloudWatch HTTP metrics middleware
	r.Use(func(c *gin.Context) {
		if metricsClient == nil || !metricsClient.IsEnabled() {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		go func(path, method string, status int, dur time.Duration) {
			mctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			dims := map[string]string{"Service": "marketplace-backend", "Method": method, "Path": path}
			_ = metricsClient.RecordCount(mctx, awspkg.MetricHTTPRequests, dims)
			_ = metricsClient.RecordLatency(mctx, awspkg.MetricHTTPLatency, dur, dims)
			if status >= 400 {
				_ = metricsClient.RecordCount(mctx, awspkg.MetricHTTPErrors, dims)
			}
		}(c.Request.URL.Path, c.Request.Method, c.Writer.Status(), time.Since(start))
	})

	// Request timeout middleware
	r.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})

	routes.RegisterRoutes(r, cartCtrl, checkoutCtrl, couponCtrl, orderCtrl, withdrawalCtrl, vendorCtrl, webhookCtrl)

	// --- Background workers ---
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	if payoutQueue != nil {
		worker := services.NewPayoutWorker(payoutQueue, gateway, log)
		go func() {
			if err := worker.Run(workerCtx); err != nil && err != context.Canceled {
				log.Error("Payout worker stopped", zap.Error(err))
			}
		}()
	}

	// --- HTTP server ---
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		log.Info("Marketplace backend started", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Initiating graceful shutdown...")
	stopWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}

	log.Info("Marketplace backend stopped")
}
