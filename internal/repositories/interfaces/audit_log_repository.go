package interfaces

import (
	"context"

	"corpvox/internal/models"
	"corpvox/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AuditLogRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	GetResourceHistory(ctx context.Context, resource, resourceID string, params *utils.PaginationParams) ([]*models.AuditLog, int64, error)
	ListByActor(ctx context.Context, actorID primitive.ObjectID, params *utils.PaginationParams) ([]*models.AuditLog, int64, error)
}
