package interfaces

import (
	"context"

	"corpvox/internal/lifecycle"
	"corpvox/internal/models"
	"corpvox/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BenefitRepository interface {
	// Create returns ErrDuplicateBenefit when a benefit for the same
	// referral already exists (backed by a unique index on referral_id).
	Create(ctx context.Context, benefit *models.Benefit) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Benefit, error)
	GetByReferralID(ctx context.Context, referralID primitive.ObjectID) (*models.Benefit, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error

	List(ctx context.Context, params *utils.PaginationParams) ([]*models.Benefit, int64, error)
	ListByExpert(ctx context.Context, expertID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Benefit, int64, error)
	ListByStatus(ctx context.Context, status lifecycle.BenefitStatus, params *utils.PaginationParams) ([]*models.Benefit, int64, error)
}
