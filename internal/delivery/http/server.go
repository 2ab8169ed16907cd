package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/custodialabs/payment-service/internal/config"
)

type Server struct {
	App  *fiber.App
	addr string
	log  *zap.Logger
}

func NewServer(cfg config.HTTPServer, payments *PaymentHandler, webhooks *WebhookHandler, log *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		CaseSensitive: true,
		ReadTimeout:   15 * time.Second,
		WriteTimeout:  15 * time.Second,
		AppName:       "payment-service",
	})
	app.Use(recover.New())

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	transactions := app.Group("/v1/bitcoin/transactions")
	transactions.Post("/payments", payments.CreatePayment)
	transactions.Get("/:transactionId/status", payments.GetPaymentStatus)

	app.Post("/webhooks/v1/authy/callbacks", webhooks.HandleAuthyCallback)

	return &Server{
		App:  app,
		addr: cfg.Host + ":" + cfg.Port,
		log:  log,
	}
}

func (s *Server) Run() error {
	s.log.Info("http server starting", zap.String("addr", s.addr))
	return s.App.Listen(s.addr)
}

func (s *Server) Shutdown() error {
	return s.App.Shutdown()
}
