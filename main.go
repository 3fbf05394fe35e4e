package main

import (
	"context"
	"log"
	"strings"

	"payment-gateway/config"
	"payment-gateway/controllers"
	"payment-gateway/database"
	"payment-gateway/kafka"
	"payment-gateway/models"
	awspkg "payment-gateway/pkg/aws"
	"payment-gateway/repository"
	"payment-gateway/routes"
	"payment-gateway/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("[PaymentGateway] ❌ Failed to load config:", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("[PaymentGateway] ❌ Failed to initialize logger:", err)
	}
	defer logger.Sync()

	if err := database.Connect(cfg, logger, &models.Order{}); err != nil {
		log.Fatal("[PaymentGateway] ❌ Failed to connect to DB:", err)
	}
	defer database.Close()

	orderRepo := repository.NewGormOrderRepository(database.DB)
	gateway := services.NewUddoktaPayClient(cfg.UddoktaPayAPIKey, cfg.UddoktaPayAPIURL)

	producer := kafka.NewPaymentEventProducer(strings.Split(cfg.KafkaBrokers, ","), cfg.PaymentEventsTopic)
	defer producer.Close()

	// SNS fan-out is best-effort and only wired when a topic is configured.
	var snsClient services.SNSPublisher
	if cfg.PaymentSNSTopicARN != "" {
		awsCfg, err := awspkg.LoadAWSConfig(context.Background())
		if err != nil {
			logger.Warn("AWS config unavailable, SNS fan-out disabled", zap.Error(err))
		} else {
			snsClient = awspkg.NewSNSClient(awsCfg)
		}
	}

	reconciler := services.NewReconciler(orderRepo, producer, snsClient, cfg.PaymentSNSTopicARN, logger)
	checkout := services.NewCheckoutService(orderRepo, gateway, services.CheckoutSettings{
		StoreCurrency: cfg.StoreCurrency,
		ExchangeRate:  cfg.ExchangeRate,
		PublicBaseURL: cfg.PublicBaseURL,
	}, logger)

	r := gin.New()
	r.Use(gin.Recovery())

	cc := &controllers.CheckoutController{
		Checkout:    checkout,
		Gateway:     gateway,
		Reconciler:  reconciler,
		Frontend:    cfg.FrontendURL,
		DisplayName: cfg.DisplayName,
		Logger:      logger,
	}
	routes.RegisterRoutes(r, cc)

	log.Println("[PaymentGateway] ✅ Running on port", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("[PaymentGateway] ❌ Server failed:", err)
	}
}
