package interfaces

import (
	"context"

	"corpvox/internal/models"
	"corpvox/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error
	UpdateLastLogin(ctx context.Context, id primitive.ObjectID) error

	List(ctx context.Context, userType models.UserType, params *utils.PaginationParams) ([]*models.User, int64, error)
}
