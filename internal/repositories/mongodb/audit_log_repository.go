package mongodb

import (
	"context"
	"fmt"
	"time"

	"corpvox/internal/models"
	"corpvox/internal/repositories/interfaces"
	"corpvox/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type auditLogRepository struct {
	collection *mongo.Collection
}

func NewAuditLogRepository(db *mongo.Database) interfaces.AuditLogRepository {
	return &auditLogRepository{
		collection: db.Collection("audit_logs"),
	}
}

func (r *auditLogRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	entry.ID = primitive.NewObjectID()
	entry.CreatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, entry)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}

	return nil
}

func (r *auditLogRepository) GetResourceHistory(ctx context.Context, resource, resourceID string, params *utils.PaginationParams) ([]*models.AuditLog, int64, error) {
	filter := bson.M{
		"resource":    resource,
		"resource_id": resourceID,
	}
	return r.findWithFilter(ctx, filter, params)
}

func (r *auditLogRepository) ListByActor(ctx context.Context, actorID primitive.ObjectID, params *utils.PaginationParams) ([]*models.AuditLog, int64, error) {
	return r.findWithFilter(ctx, bson.M{"actor_id": actorID}, params)
}

func (r *auditLogRepository) findWithFilter(ctx context.Context, filter bson.M, params *utils.PaginationParams) ([]*models.AuditLog, int64, error) {
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	// History reads newest-first regardless of the requested sort field.
	opts := params.GetFindOptions()
	opts.SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find audit logs: %w", err)
	}
	defer cursor.Close(ctx)

	var logs []*models.AuditLog
	for cursor.Next(ctx) {
		var entry models.AuditLog
		if err := cursor.Decode(&entry); err != nil {
			return nil, 0, fmt.Errorf("failed to decode audit log: %w", err)
		}
		logs = append(logs, &entry)
	}

	return logs, total, nil
}
