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

type referralRepository struct {
	collection *mongo.Collection
}

func NewReferralRepository(db *mongo.Database) interfaces.ReferralRepository {
	return &referralRepository{
		collection: db.Collection("referrals"),
	}
}

func (r *referralRepository) Create(ctx context.Context, referral *models.Referral) error {
	referral.ID = primitive.NewObjectID()
	referral.CreatedAt = time.Now()
	referral.UpdatedAt = referral.CreatedAt

	_, err := r.collection.InsertOne(ctx, referral)
	if err != nil {
		return fmt.Errorf("failed to create referral: %w", err)
	}

	return nil
}

func (r *referralRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Referral, error) {
	var referral models.Referral
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&referral)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get referral: %w", err)
	}

	return &referral, nil
}

func (r *referralRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": updates})
	if err != nil {
		return fmt.Errorf("failed to update referral: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}

	return nil
}

func (r *referralRepository) List(ctx context.Context, params *utils.PaginationParams) ([]*models.Referral, int64, error) {
	return r.findWithFilter(ctx, bson.M{}, params)
}

func (r *referralRepository) ListByExpert(ctx context.Context, expertID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Referral, int64, error) {
	return r.findWithFilter(ctx, bson.M{"expert_id": expertID}, params)
}

func (r *referralRepository) ListByStatus(ctx context.Context, status lifecycle.ReferralStatus, params *utils.PaginationParams) ([]*models.Referral, int64, error) {
	return r.findWithFilter(ctx, bson.M{"status": status}, params)
}

func (r *referralRepository) CountByStatus(ctx context.Context, status lifecycle.ReferralStatus) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"status": status})
	if err != nil {
		return 0, fmt.Errorf("failed to count referrals: %w", err)
	}

	return count, nil
}

func (r *referralRepository) findWithFilter(ctx context.Context, filter bson.M, params *utils.PaginationParams) ([]*models.Referral, int64, error) {
	if params.Search != "" {
		searchFields := []string{"company_name", "tax_id", "contact_name", "contact_email"}
		filter = bson.M{
			"$and": []bson.M{
				filter,
				params.GetSearchFilter(searchFields),
			},
		}
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count referrals: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.GetFindOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find referrals: %w", err)
	}
	defer cursor.Close(ctx)

	var referrals []*models.Referral
	for cursor.Next(ctx) {
		var referral models.Referral
		if err := cursor.Decode(&referral); err != nil {
			return nil, 0, fmt.Errorf("failed to decode referral: %w", err)
		}
		referrals = append(referrals, &referral)
	}

	return referrals, total, nil
}
