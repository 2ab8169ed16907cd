package postgres

import (
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/custodialabs/payment-service/internal/config"
	"github.com/custodialabs/payment-service/internal/infrastructure/postgres/models"
)

func MustInitDB(cfg *config.PaymentConfig) *gorm.DB {
	dsn := cfg.PaymentDB.Dsn
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to init db: %v\n", err.Error())
	}

	db.AutoMigrate(
		&models.TenantModel{},
		&models.AccountModel{},
		&models.TransactionRequestModel{},
		&models.ApproverModel{},
		&models.TransactionResponseModel{},
		&models.IdempotencyKeyModel{},
	)

	return db
}
