package main

import (
	"context"
	"log"
	"net/http"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/custodialabs/payment-service/internal/bitcoin"
	"github.com/custodialabs/payment-service/internal/config"
	delivery "github.com/custodialabs/payment-service/internal/delivery/http"
	"github.com/custodialabs/payment-service/internal/infrastructure/authy"
	"github.com/custodialabs/payment-service/internal/infrastructure/bitcore"
	publisher "github.com/custodialabs/payment-service/internal/infrastructure/kafka"
	"github.com/custodialabs/payment-service/internal/infrastructure/logger"
	"github.com/custodialabs/payment-service/internal/infrastructure/metrics"
	"github.com/custodialabs/payment-service/internal/infrastructure/migrate"
	"github.com/custodialabs/payment-service/internal/infrastructure/postgres"
	"github.com/custodialabs/payment-service/internal/infrastructure/vault"
	"github.com/custodialabs/payment-service/internal/usecase/payment"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("failed to load .env")
	}
	// Reading config
	cfg := config.MustLoad()

	zlog := logger.MustInit(&cfg.LogConfig)
	defer zlog.Sync()

	// Init database
	db := postgres.MustInitDB(cfg)
	if err := migrate.RunMigrations(db, cfg.Migrations.Path); err != nil {
		zlog.Fatal("failed to run migrations", zap.Error(err))
	}
	zlog.Info("migrations applied")

	// Init repos
	transactionRepo := postgres.NewDefaultTransactionRepository(db)
	accountRepo := postgres.NewDefaultAccountRepository(db)
	tenantRepo := postgres.NewDefaultTenantRepository(db)
	idempotencyRepo := postgres.NewDefaultIdempotencyRepository(db)

	// Init event bus
	pub := publisher.NewDefaultKafkaPublisher(cfg.Kafka.Brokers)
	sub := publisher.NewDefaultKafkaSubscriber(cfg.Kafka.Brokers)

	// Init outbound clients
	chainClient := bitcore.NewClient(cfg.Bitcore.BaseURL, cfg.Bitcore.Timeout)
	signer := vault.NewSigner(cfg.Vault.Address, cfg.Vault.Token, cfg.Vault.Timeout)
	pushService := authy.NewPushService(cfg.Authy.BaseURL, cfg.Authy.APIKey, cfg.Authy.SecondsToExpire, cfg.Authy.Timeout)

	// Init transaction builder
	params, err := bitcoin.ParseNetwork(cfg.Bitcoin.Network)
	if err != nil {
		zlog.Fatal("invalid bitcoin network", zap.Error(err))
	}
	builder := bitcoin.NewTransactionBuilder(
		params,
		bitcoin.NewUtxoSelector(cfg.Bitcoin.MinConfirmations),
		cfg.Bitcoin.MaxFeePerByte,
	)

	paymentMetrics := metrics.NewPaymentMetrics()

	uc := payment.NewDefaultPaymentUsecase(
		transactionRepo,
		accountRepo,
		tenantRepo,
		idempotencyRepo,
		chainClient,
		signer,
		pushService,
		pub,
		sub,
		builder,
		paymentMetrics,
		zlog,
	)

	// Approval event consumer
	go uc.StartApprovalListener(context.Background())

	// Metrics on a dedicated mux
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		addr := ":" + cfg.Metrics.Port
		zlog.Info("metrics server starting", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, mux); err != nil {
			zlog.Error("metrics server stopped", zap.Error(err))
		}
	}()

	paymentHandler := delivery.NewPaymentHandler(uc, zlog)
	webhookHandler, err := delivery.NewWebhookHandler(uc, cfg.Authy.APIKey, zlog)
	if err != nil {
		zlog.Fatal("failed to init webhook handler", zap.Error(err))
	}

	server := delivery.NewServer(cfg.HTTPServer, paymentHandler, webhookHandler, zlog)
	if err := server.Run(); err != nil {
		zlog.Fatal("http server stopped", zap.Error(err))
	}
}
