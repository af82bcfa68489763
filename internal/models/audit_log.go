package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AuditAction string

const (
	AuditActionCreate           AuditAction = "create"
	AuditActionApprove          AuditAction = "approve"
	AuditActionReject           AuditAction = "reject"
	AuditActionStageMove        AuditAction = "stage_move"
	AuditActionMarkLost         AuditAction = "mark_lost"
	AuditActionContract         AuditAction = "contract"
	AuditActionClientPayment    AuditAction = "client_payment"
	AuditActionInvoiceSubmit    AuditAction = "invoice_submit"
	AuditActionInvoiceApprove   AuditAction = "invoice_approve"
	AuditActionInvoiceReject    AuditAction = "invoice_reject"
	AuditActionPaymentSchedule  AuditAction = "payment_schedule"
	AuditActionPaymentConfirmed AuditAction = "payment_confirmed"
	AuditActionLogin            AuditAction = "login"
	AuditActionLogout           AuditAction = "logout"
)

// AuditLog captures who moved which record, from and to which state.
type AuditLog struct {
	ID         primitive.ObjectID     `json:"id" bson:"_id,omitempty"`
	ActorID    *primitive.ObjectID    `json:"actor_id" bson:"actor_id"`
	ActorType  UserType               `json:"actor_type" bson:"actor_type"`
	Action     AuditAction            `json:"action" bson:"action" validate:"required"`
	Resource   string                 `json:"resource" bson:"resource" validate:"required"`
	ResourceID string                 `json:"resource_id" bson:"resource_id"`
	OldValues  map[string]interface{} `json:"old_values" bson:"old_values"`
	NewValues  map[string]interface{} `json:"new_values" bson:"new_values"`
	IPAddress  string                 `json:"ip_address" bson:"ip_address"`
	CreatedAt  time.Time              `json:"created_at" bson:"created_at"`
}
