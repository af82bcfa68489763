package mongodb

import (
	"context"
	"fmt"
	"time"

	"corpvox/internal/lifecycle"
	"corpvox/internal/models"
	"corpvox/internal/repositories/interfaces"
	"corpvox/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type benefitRepository struct {
	collection *mongo.Collection
}

func NewBenefitRepository(db *mongo.Database) interfaces.BenefitRepository {
	return &benefitRepository{
		collection: db.Collection("benefits"),
	}
}

func (r *benefitRepository) Create(ctx context.Context, benefit *models.Benefit) error {
	benefit.ID = primitive.NewObjectID()
	benefit.CreatedAt = time.Now()
	benefit.UpdatedAt = benefit.CreatedAt

	_, err := r.collection.InsertOne(ctx, benefit)
	if err != nil {
		// The unique index on referral_id turns a concurrent second
		// contract into a duplicate key error rather than a second benefit.
		if mongo.IsDuplicateKeyError(err) {
			return interfaces.ErrDuplicateBenefit
		}
		return fmt.Errorf("failed to create benefit: %w", err)
	}

	return nil
}

func (r *benefitRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Benefit, error) {
	var benefit models.Benefit
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&benefit)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get benefit: %w", err)
	}

	return &benefit, nil
}

func (r *benefitRepository) GetByReferralID(ctx context.Context, referralID primitive.ObjectID) (*models.Benefit, error) {
	var benefit models.Benefit
	err := r.collection.FindOne(ctx, bson.M{"referral_id": referralID}).Decode(&benefit)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get benefit by referral: %w", err)
	}

	return &benefit, nil
}

func (r *benefitRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": updates})
	if err != nil {
		return fmt.Errorf("failed to update benefit: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}

	return nil
}

func (r *benefitRepository) List(ctx context.Context, params *utils.PaginationParams) ([]*models.Benefit, int64, error) {
	return r.findWithFilter(ctx, bson.M{}, params)
}

func (r *benefitRepository) ListByExpert(ctx context.Context, expertID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Benefit, int64, error) {
	return r.findWithFilter(ctx, bson.M{"expert_id": expertID}, params)
}

func (r *benefitRepository) ListByStatus(ctx context.Context, status lifecycle.BenefitStatus, params *utils.PaginationParams) ([]*models.Benefit, int64, error) {
	return r.findWithFilter(ctx, bson.M{"status": status}, params)
}

func (r *benefitRepository) findWithFilter(ctx context.Context, filter bson.M, params *utils.PaginationParams) ([]*models.Benefit, int64, error) {
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count benefits: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.GetFindOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find benefits: %w", err)
	}
	defer cursor.Close(ctx)

	var benefits []*models.Benefit
	for cursor.Next(ctx) {
		var benefit models.Benefit
		if err := cursor.Decode(&benefit); err != nil {
			return nil, 0, fmt.Errorf("failed to decode benefit: %w", err)
		}
		benefits = append(benefits, &benefit)
	}

	return benefits, total, nil
}
