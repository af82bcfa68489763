package models

import (
	"time"

	"corpvox/internal/lifecycle"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReferralChannel string

const (
	ChannelTechnicalReport ReferralChannel = "technical_report"
	ChannelEmail           ReferralChannel = "email"
	ChannelChat            ReferralChannel = "chat"
)

func (c ReferralChannel) Valid() bool {
	switch c {
	case ChannelTechnicalReport, ChannelEmail, ChannelChat:
		return true
	}
	return false
}

// Referral is one expert's submission of a prospective client company.
// Records are never physically deleted; closure is expressed through the
// lost and validation_rejected statuses.
type Referral struct {
	ID              primitive.ObjectID       `json:"id" bson:"_id,omitempty"`
	ExpertID        primitive.ObjectID       `json:"expert_id" bson:"expert_id" validate:"required"`
	CompanyName     string                   `json:"company_name" bson:"company_name" validate:"required,min=2"`
	TaxID           string                   `json:"tax_id" bson:"tax_id" validate:"required"`
	ContactName     string                   `json:"contact_name" bson:"contact_name" validate:"required"`
	ContactEmail    string                   `json:"contact_email" bson:"contact_email" validate:"required,email"`
	ContactPhone    string                   `json:"contact_phone" bson:"contact_phone"`
	EmployeeCount   int                      `json:"employee_count" bson:"employee_count" validate:"gte=0"`
	Channel         ReferralChannel          `json:"channel" bson:"channel" validate:"required"`
	Notes           string                   `json:"notes" bson:"notes"`
	Status          lifecycle.ReferralStatus `json:"status" bson:"status"`
	CRMStage        *lifecycle.CRMStage      `json:"crm_stage" bson:"crm_stage"`
	RejectionReason string                   `json:"rejection_reason,omitempty" bson:"rejection_reason,omitempty"`
	ValidatedBy     *primitive.ObjectID      `json:"validated_by" bson:"validated_by"`
	ValidatedAt     *time.Time               `json:"validated_at" bson:"validated_at"`
	// InvoiceSubmitted and BenefitPaid are informational markers set by the
	// benefit lifecycle; the status enum never changes on their account.
	InvoiceSubmitted bool      `json:"invoice_submitted" bson:"invoice_submitted"`
	BenefitPaid      bool      `json:"benefit_paid" bson:"benefit_paid"`
	Expired          bool      `json:"expired" bson:"-"`
	CreatedAt        time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" bson:"updated_at"`
}

// RefreshExpired recomputes the derived 90-day expiration flag. It is
// evaluated wherever referral data is read, not enforced by a sweep.
func (r *Referral) RefreshExpired(now time.Time) {
	r.Expired = lifecycle.ReferralExpired(r.Status, r.CreatedAt, now)
}
