package services

import (
	"context"
	"errors"

	"corpvox/internal/models"
	"corpvox/internal/repositories/interfaces"
	"corpvox/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Service-level sentinels. Handlers map these onto HTTP statuses.
var (
	ErrForbidden          = errors.New("actor is not allowed to access this record")
	ErrReferralExpired    = errors.New("referral has expired and can no longer be advanced")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailAlreadyUsed   = errors.New("email is already registered")
	ErrAccountDisabled    = errors.New("account is not active")
)

// Actor identifies who is performing an operation. It travels from the
// auth middleware through handlers into services, which use it for
// ownership checks and audit attribution.
type Actor struct {
	ID        primitive.ObjectID
	Type      models.UserType
	IPAddress string
}

func (a Actor) IsAdmin() bool {
	return a.Type == models.UserTypeAdmin
}

// writeAudit appends a trail entry. Audit failures are logged and
// swallowed; they never roll back the operation they describe.
func writeAudit(ctx context.Context, repo interfaces.AuditLogRepository, log *logger.Logger, actor Actor, action models.AuditAction, resource, resourceID string, oldValues, newValues map[string]interface{}) {
	actorID := actor.ID
	entry := &models.AuditLog{
		ActorID:    &actorID,
		ActorType:  actor.Type,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		OldValues:  oldValues,
		NewValues:  newValues,
		IPAddress:  actor.IPAddress,
	}

	if err := repo.Create(ctx, entry); err != nil {
		log.WithError(err).WithFields(map[string]interface{}{
			"action":      action,
			"resource":    resource,
			"resource_id": resourceID,
		}).Error("Failed to write audit log")
	}
}
