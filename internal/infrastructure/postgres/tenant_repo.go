package postgres

import (
	"gorm.io/gorm"

	"github.com/custodialabs/payment-service/internal/domain"
	"github.com/custodialabs/payment-service/internal/infrastructure/postgres/mappers"
	"github.com/custodialabs/payment-service/internal/infrastructure/postgres/models"
)

type DefaultTenantRepository struct {
	DB *gorm.DB
}

func NewDefaultTenantRepository(db *gorm.DB) *DefaultTenantRepository {
	return &DefaultTenantRepository{DB: db}
}

func (r *DefaultTenantRepository) GetByCode(code string) (*domain.Tenant, error) {
	var model models.TenantModel
	err := r.DB.First(&model, "code = ?", code).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return mappers.ToDomainTenant(&model), nil
}
