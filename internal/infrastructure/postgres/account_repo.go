package postgres

import (
	"gorm.io/gorm"

	"github.com/custodialabs/payment-service/internal/domain"
	"github.com/custodialabs/payment-service/internal/infrastructure/postgres/mappers"
	"github.com/custodialabs/payment-service/internal/infrastructure/postgres/models"
)

type DefaultAccountRepository struct {
	DB *gorm.DB
}

func NewDefaultAccountRepository(db *gorm.DB) *DefaultAccountRepository {
	return &DefaultAccountRepository{DB: db}
}

func (r *DefaultAccountRepository) GetByIdentifier(tenantID, identifier string) (*domain.Account, error) {
	var model models.AccountModel
	err := r.DB.First(&model, "tenant_id = ? AND identifier = ?", tenantID, identifier).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return mappers.ToDomainAccount(&model), nil
}

func (r *DefaultAccountRepository) GetByID(accountID string) (*domain.Account, error) {
	var model models.AccountModel
	err := r.DB.First(&model, "id = ?", accountID).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return mappers.ToDomainAccount(&model), nil
}
