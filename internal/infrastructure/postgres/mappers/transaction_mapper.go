package mappers

import (
	"github.com/custodialabs/payment-service/internal/domain"
	"github.com/custodialabs/payment-service/internal/infrastructure/postgres/models"
)

func ToDomainRequest(model *models.TransactionRequestModel) *domain.TransactionRequest {
	approvers := make([]domain.Approver, 0, len(model.Approvers))
	for i := range model.Approvers {
		approvers = append(approvers, ToDomainApprover(&model.Approvers[i]))
	}

	return &domain.TransactionRequest{
		ID:              model.ID,
		TenantID:        model.TenantID,
		SourceAccountID: model.SourceAccountID,
		DestAccountID:   model.DestAccountID,
		AmountSat:       model.AmountSat,
		AssetCode:       model.AssetCode,
		Memo:            model.Memo,
		RawPayload:      model.RawPayload,
		Approvers:       approvers,
		CreatedAt:       model.CreatedAt,
	}
}

func ToGORMRequest(request *domain.TransactionRequest) *models.TransactionRequestModel {
	approvers := make([]models.ApproverModel, 0, len(request.Approvers))
	for _, a := range request.Approvers {
		approvers = append(approvers, models.ApproverModel{
			ID:                a.ID,
			TransactionID:     request.ID,
			AccountID:         a.AccountID,
			UserName:          a.UserName,
			Email:             a.Email,
			Status:            a.Status,
			ApprovalRequestID: a.ApprovalRequestID,
		})
	}

	return &models.TransactionRequestModel{
		ID:              request.ID,
		TenantID:        request.TenantID,
		SourceAccountID: request.SourceAccountID,
		DestAccountID:   request.DestAccountID,
		AmountSat:       request.AmountSat,
		AssetCode:       request.AssetCode,
		Memo:            request.Memo,
		RawPayload:      request.RawPayload,
		Approvers:       approvers,
		CreatedAt:       request.CreatedAt,
	}
}

func ToDomainApprover(model *models.ApproverModel) domain.Approver {
	return domain.Approver{
		ID:                model.ID,
		AccountID:         model.AccountID,
		UserName:          model.UserName,
		Email:             model.Email,
		Status:            model.Status,
		ApprovalRequestID: model.ApprovalRequestID,
	}
}

func ToDomainResponse(model *models.TransactionResponseModel) *domain.TransactionResponse {
	return &domain.TransactionResponse{
		TransactionID:     model.TransactionID,
		SignedTransaction: model.SignedTransaction,
		TransactionHash:   model.TransactionHash,
		Success:           model.Success,
		Result:            model.Result,
		CompletedAt:       model.CompletedAt,
	}
}

func ToGORMResponse(response *domain.TransactionResponse) *models.TransactionResponseModel {
	return &models.TransactionResponseModel{
		TransactionID:     response.TransactionID,
		SignedTransaction: response.SignedTransaction,
		TransactionHash:   response.TransactionHash,
		Success:           response.Success,
		Result:            response.Result,
		CompletedAt:       response.CompletedAt,
	}
}
