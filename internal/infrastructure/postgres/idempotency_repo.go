package postgres

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/custodialabs/payment-service/internal/infrastructure/postgres/models"
)

type DefaultIdempotencyRepository struct {
	DB *gorm.DB
}

func NewDefaultIdempotencyRepository(db *gorm.DB) *DefaultIdempotencyRepository {
	return &DefaultIdempotencyRepository{DB: db}
}

// Acquire inserts the key with ON CONFLICT DO NOTHING. Exactly one of any set
// of concurrent callers observes true.
func (r *DefaultIdempotencyRepository) Acquire(tenantID, key, accountID string) (bool, error) {
	model := models.IdempotencyKeyModel{
		TenantID:  tenantID,
		Key:       key,
		AccountID: accountID,
		CreatedAt: time.Now(),
	}

	res := r.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&model)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
