package validators

import (
	"errors"

	"corpvox/internal/lifecycle"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrInvalidObjectID = errors.New("invalid object ID format")
	ErrInvalidStatus   = errors.New("unknown status value")
	ErrInvalidStage    = errors.New("unknown pipeline stage")
	ErrInvalidDate     = errors.New("date must be formatted YYYY-MM-DD")
)

// ParseObjectID validates a path parameter before it reaches a repository.
func ParseObjectID(raw string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidObjectID
	}
	return id, nil
}

// ParseReferralStatus accepts an optional status filter. Empty means no
// filter.
func ParseReferralStatus(raw string) (lifecycle.ReferralStatus, error) {
	if raw == "" {
		return "", nil
	}
	status := lifecycle.ReferralStatus(raw)
	if !status.Valid() {
		return "", ErrInvalidStatus
	}
	return status, nil
}

func ParseBenefitStatus(raw string) (lifecycle.BenefitStatus, error) {
	if raw == "" {
		return "", nil
	}
	status := lifecycle.BenefitStatus(raw)
	if !status.Valid() {
		return "", ErrInvalidStatus
	}
	return status, nil
}

func ParseCRMStage(raw string) (lifecycle.CRMStage, error) {
	stage := lifecycle.CRMStage(raw)
	if !stage.Valid() {
		return "", ErrInvalidStage
	}
	return stage, nil
}

func ParseDate(raw string) (lifecycle.Date, error) {
	date, err := lifecycle.ParseDate(raw)
	if err != nil {
		return lifecycle.Date{}, ErrInvalidDate
	}
	return date, nil
}
