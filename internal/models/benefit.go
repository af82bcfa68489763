package models

import (
	"time"

	"corpvox/internal/lifecycle"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Benefit is the monetary reward tied to a referral that converted into a
// contract. Exactly one exists per referral; the amount is fixed at
// creation and only its disposition changes.
type Benefit struct {
	ID         primitive.ObjectID      `json:"id" bson:"_id,omitempty"`
	ReferralID primitive.ObjectID      `json:"referral_id" bson:"referral_id" validate:"required"`
	ExpertID   primitive.ObjectID      `json:"expert_id" bson:"expert_id" validate:"required"`
	Amount     float64                 `json:"amount" bson:"amount" validate:"required,gt=0"`
	Status     lifecycle.BenefitStatus `json:"status" bson:"status"`

	ContractDate lifecycle.Date       `json:"contract_date" bson:"contract_date"`
	Milestones   lifecycle.Milestones `json:"milestones" bson:"milestones"`

	ClientPaidAt *time.Time `json:"client_paid_at" bson:"client_paid_at"`

	InvoiceSubmitted     bool       `json:"invoice_submitted" bson:"invoice_submitted"`
	InvoiceSubmittedAt   *time.Time `json:"invoice_submitted_at" bson:"invoice_submitted_at"`
	InvoiceAmount        float64    `json:"invoice_amount,omitempty" bson:"invoice_amount,omitempty"`
	InvoiceFileKey       string     `json:"invoice_file_key,omitempty" bson:"invoice_file_key,omitempty"`
	InvoiceRejectionNote string     `json:"invoice_rejection_note,omitempty" bson:"invoice_rejection_note,omitempty"`

	PaymentScheduledFor *lifecycle.Date `json:"payment_scheduled_for" bson:"payment_scheduled_for"`
	PaymentPerformed    bool            `json:"payment_performed" bson:"payment_performed"`
	PaidAt              *time.Time      `json:"paid_at" bson:"paid_at"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}
