package postgres

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/custodialabs/payment-service/internal/domain"
	"github.com/custodialabs/payment-service/internal/infrastructure/postgres/mappers"
	"github.com/custodialabs/payment-service/internal/infrastructure/postgres/models"
)

type DefaultTransactionRepository struct {
	DB *gorm.DB
}

func NewDefaultTransactionRepository(db *gorm.DB) *DefaultTransactionRepository {
	return &DefaultTransactionRepository{DB: db}
}

func (r *DefaultTransactionRepository) CreateRequest(request *domain.TransactionRequest, response *domain.TransactionResponse) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(mappers.ToGORMRequest(request)).Error; err != nil {
			return err
		}
		return tx.Create(mappers.ToGORMResponse(response)).Error
	})
}

func (r *DefaultTransactionRepository) GetRequest(transactionID string) (*domain.TransactionRequest, error) {
	var model models.TransactionRequestModel
	err := r.DB.Preload("Approvers").First(&model, "id = ?", transactionID).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return mappers.ToDomainRequest(&model), nil
}

func (r *DefaultTransactionRepository) GetRequestLocked(transactionID string) (*domain.TransactionRequest, error) {
	var model models.TransactionRequestModel
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Preload("Approvers").
			First(&model, "id = ?", transactionID).Error
	})
	if err != nil {
		return nil, translateNotFound(err)
	}
	return mappers.ToDomainRequest(&model), nil
}

func (r *DefaultTransactionRepository) GetResponse(transactionID string) (*domain.TransactionResponse, error) {
	var model models.TransactionResponseModel
	err := r.DB.First(&model, "transaction_id = ?", transactionID).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return mappers.ToDomainResponse(&model), nil
}

// UpdateApproverStatus takes the request row lock before touching the
// approver so quorum evaluation never interleaves with a status change.
func (r *DefaultTransactionRepository) UpdateApproverStatus(transactionID, approvalRequestID string, status domain.ApprovalStatus) (bool, error) {
	matched := false
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		var request models.TransactionRequestModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			First(&request, "id = ?", transactionID).Error; err != nil {
			return err
		}

		res := tx.Model(&models.ApproverModel{}).
			Where("transaction_id = ? AND approval_request_id = ? AND status = ?",
				transactionID, approvalRequestID, domain.ApprovalPending).
			Update("status", status)
		if res.Error != nil {
			return res.Error
		}
		matched = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, translateNotFound(err)
	}
	return matched, nil
}

func (r *DefaultTransactionRepository) SetApproverStatus(approverID string, status domain.ApprovalStatus) error {
	return r.DB.Model(&models.ApproverModel{}).
		Where("id = ?", approverID).
		Update("status", status).Error
}

func (r *DefaultTransactionRepository) SetApproverCorrelation(approverID, approvalRequestID string) error {
	return r.DB.Model(&models.ApproverModel{}).
		Where("id = ?", approverID).
		Update("approval_request_id", approvalRequestID).Error
}

func (r *DefaultTransactionRepository) ClaimSubmission(transactionID string) (bool, error) {
	res := r.DB.Model(&models.TransactionResponseModel{}).
		Where("transaction_id = ? AND submission_claimed_at IS NULL AND completed_at IS NULL", transactionID).
		Update("submission_claimed_at", time.Now())
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ResolveResponse writes the terminal outcome. A response already resolved is
// left untouched.
func (r *DefaultTransactionRepository) ResolveResponse(response *domain.TransactionResponse) error {
	return r.DB.Model(&models.TransactionResponseModel{}).
		Where("transaction_id = ? AND completed_at IS NULL", response.TransactionID).
		Updates(map[string]interface{}{
			"signed_transaction": response.SignedTransaction,
			"transaction_hash":   response.TransactionHash,
			"success":            response.Success,
			"result":             response.Result,
			"completed_at":       response.CompletedAt,
		}).Error
}

func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}
