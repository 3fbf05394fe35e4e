package config

import (
	"context"
	"fmt"
	"os"
	"strconv"

	awspkg "payment-gateway/pkg/aws"

	"github.com/joho/godotenv"
)

type Config struct {
	Port             string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     string
	PostgresSSLMode  string
	PostgresTimeZone string

	// UddoktaPay gateway settings. Key and URL may legitimately be empty at
	// startup; their absence is surfaced per checkout attempt, not here.
	UddoktaPayAPIKey string
	UddoktaPayAPIURL string
	DisplayName      string
	StoreCurrency    string  // currency orders are priced in
	ExchangeRate     float64 // 1 unit of store currency in BDT

	// PublicBaseURL is this service's externally reachable base URL; the
	// redirect, cancel and webhook URLs handed to UddoktaPay are built on it.
	PublicBaseURL string
	FrontendURL   string

	KafkaBrokers       string
	PaymentEventsTopic string
	PaymentSNSTopicARN string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// no .env file, rely on the environment
	}

	cfg := &Config{
		Port:             getEnv("PORT", "8093"),
		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     os.Getenv("POSTGRES_HOST"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresTimeZone: getEnv("POSTGRES_TIMEZONE", "Asia/Dhaka"),

		UddoktaPayAPIKey: os.Getenv("UDDOKTAPAY_API_KEY"),
		UddoktaPayAPIURL: os.Getenv("UDDOKTAPAY_API_URL"),
		DisplayName:      getEnv("UDDOKTAPAY_DISPLAY_NAME", "UddoktaPay"),
		StoreCurrency:    getEnv("STORE_CURRENCY", "BDT"),
		ExchangeRate:     getEnvFloat("UDDOKTAPAY_EXCHANGE_RATE", 1),

		PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:8093"),
		FrontendURL:   getEnv("FRONTEND_URL", "http://localhost:3000"),

		KafkaBrokers:       getEnv("KAFKA_BROKERS", "localhost:9092"),
		PaymentEventsTopic: getEnv("PAYMENT_EVENTS_TOPIC", "payment-events"),
		PaymentSNSTopicARN: os.Getenv("PAYMENT_SNS_TOPIC_ARN"),
	}

	// Override the gateway key from Secrets Manager when running on AWS
	if os.Getenv("AWS_USE_SECRETS") == "true" {
		if awsCfg, err := awspkg.LoadAWSConfig(context.Background()); err == nil {
			sm := awspkg.NewSecretsClient(awsCfg)
			if v, err := sm.GetSecret(context.Background(), "payment-gateway/UDDOKTAPAY_API_KEY"); err == nil && v != "" {
				cfg.UddoktaPayAPIKey = v
			}
		}
	}

	if cfg.PostgresUser == "" || cfg.PostgresPassword == "" || cfg.PostgresDB == "" || cfg.PostgresHost == "" {
		return nil, fmt.Errorf("database config incomplete")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback
	}
	return f
}
