package mappers

import (
	"github.com/custodialabs/payment-service/internal/domain"
	"github.com/custodialabs/payment-service/internal/infrastructure/postgres/models"
)

func ToDomainAccount(model *models.AccountModel) *domain.Account {
	return &domain.Account{
		ID:             model.ID,
		TenantID:       model.TenantID,
		Identifier:     model.Identifier,
		UserName:       model.UserName,
		Email:          model.Email,
		BitcoinAddress: model.BitcoinAddress,
		ApprovalMethod: model.ApprovalMethod,
		AuthyID:        model.AuthyID,
	}
}

func ToDomainTenant(model *models.TenantModel) *domain.Tenant {
	return &domain.Tenant{
		ID:   model.ID,
		Code: model.Code,
		Name: model.Name,
	}
}
