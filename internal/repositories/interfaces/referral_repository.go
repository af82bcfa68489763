package interfaces

import (
	"context"
	"errors"

	"corpvox/internal/lifecycle"
	"corpvox/internal/models"
	"corpvox/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Record-store sentinels. Repositories translate driver errors into these
// so services and handlers never match on backend specifics.
var (
	ErrNotFound         = errors.New("record not found")
	ErrDuplicateBenefit = errors.New("a benefit already exists for this referral")
)

type ReferralRepository interface {
	Create(ctx context.Context, referral *models.Referral) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Referral, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error

	List(ctx context.Context, params *utils.PaginationParams) ([]*models.Referral, int64, error)
	ListByExpert(ctx context.Context, expertID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Referral, int64, error)
	ListByStatus(ctx context.Context, status lifecycle.ReferralStatus, params *utils.PaginationParams) ([]*models.Referral, int64, error)

	CountByStatus(ctx context.Context, status lifecycle.ReferralStatus) (int64, error)
}
