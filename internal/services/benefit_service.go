package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"corpvox/internal/lifecycle"
	"corpvox/internal/models"
	"corpvox/internal/repositories/interfaces"
	"corpvox/internal/utils"
	"corpvox/pkg/logger"
	"corpvox/pkg/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BenefitService interface {
	Get(ctx context.Context, actor Actor, id primitive.ObjectID) (*models.Benefit, error)
	GetByReferral(ctx context.Context, actor Actor, referralID primitive.ObjectID) (*models.Benefit, error)
	List(ctx context.Context, actor Actor, status lifecycle.BenefitStatus, params *utils.PaginationParams) ([]*models.Benefit, int64, error)

	ConfirmClientPayment(ctx context.Context, actor Actor, id primitive.ObjectID) (*models.Benefit, error)
	SubmitInvoice(ctx context.Context, actor Actor, id primitive.ObjectID, upload *InvoiceUpload) (*models.Benefit, error)
	ApproveInvoice(ctx context.Context, actor Actor, id primitive.ObjectID) (*models.Benefit, error)
	RejectInvoice(ctx context.Context, actor Actor, id primitive.ObjectID, justification string) (*models.Benefit, error)
	SchedulePayment(ctx context.Context, actor Actor, id primitive.ObjectID, date lifecycle.Date) (*models.Benefit, error)
	ConfirmPayment(ctx context.Context, actor Actor, id primitive.ObjectID) (*models.Benefit, error)

	InvoiceDownloadURL(ctx context.Context, actor Actor, id primitive.ObjectID) (string, error)
}

type benefitService struct {
	benefitRepo  interfaces.BenefitRepository
	referralRepo interfaces.ReferralRepository
	auditLogRepo interfaces.AuditLogRepository
	storage      storage.StorageProvider
	email        EmailService
	logger       *logger.Logger
}

func NewBenefitService(
	benefitRepo interfaces.BenefitRepository,
	referralRepo interfaces.ReferralRepository,
	auditLogRepo interfaces.AuditLogRepository,
	storageProvider storage.StorageProvider,
	email EmailService,
	log *logger.Logger,
) BenefitService {
	return &benefitService{
		benefitRepo:  benefitRepo,
		referralRepo: referralRepo,
		auditLogRepo: auditLogRepo,
		storage:      storageProvider,
		email:        email,
		logger:       log,
	}
}

// InvoiceUpload carries one invoice document as received from the
// multipart request, plus the amount the expert is invoicing.
type InvoiceUpload struct {
	Reader      io.Reader
	Filename    string
	ContentType string
	Size        int64
	Amount      float64
}

func (s *benefitService) Get(ctx context.Context, actor Actor, id primitive.ObjectID) (*models.Benefit, error) {
	benefit, err := s.benefitRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !actor.IsAdmin() && benefit.ExpertID != actor.ID {
		return nil, ErrForbidden
	}

	return benefit, nil
}

func (s *benefitService) GetByReferral(ctx context.Context, actor Actor, referralID primitive.ObjectID) (*models.Benefit, error) {
	benefit, err := s.benefitRepo.GetByReferralID(ctx, referralID)
	if err != nil {
		return nil, err
	}

	if !actor.IsAdmin() && benefit.ExpertID != actor.ID {
		return nil, ErrForbidden
	}

	return benefit, nil
}

func (s *benefitService) List(ctx context.Context, actor Actor, status lifecycle.BenefitStatus, params *utils.PaginationParams) ([]*models.Benefit, int64, error) {
	switch {
	case !actor.IsAdmin():
		return s.benefitRepo.ListByExpert(ctx, actor.ID, params)
	case status != "":
		return s.benefitRepo.ListByStatus(ctx, status, params)
	default:
		return s.benefitRepo.List(ctx, params)
	}
}

func (s *benefitService) ConfirmClientPayment(ctx context.Context, actor Actor, id primitive.ObjectID) (*models.Benefit, error) {
	benefit, err := s.benefitRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	next, err := lifecycle.ConfirmClientPayment(benefit.Status)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":         next,
		"client_paid_at": now,
	}

	if err := s.benefitRepo.Update(ctx, id, updates); err != nil {
		return nil, err
	}

	s.audit(ctx, actor, models.AuditActionClientPayment, benefit, next, nil)

	benefit.Status = next
	benefit.ClientPaidAt = &now

	s.notifyExpert(ctx, benefit, "Invoice requested",
		"The client's first payment cleared. You can now submit your invoice.")

	return benefit, nil
}

// SubmitInvoice stores the document and advances the benefit. File
// validation runs before any storage call so a bad upload touches
// nothing. When a rejected invoice is resubmitted the previous object is
// removed first, best effort; a live replacement must not hinge on the
// old file still being deletable.
func (s *benefitService) SubmitInvoice(ctx context.Context, actor Actor, id primitive.ObjectID, upload *InvoiceUpload) (*models.Benefit, error) {
	benefit, err := s.benefitRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !actor.IsAdmin() && benefit.ExpertID != actor.ID {
		return nil, ErrForbidden
	}

	next, err := lifecycle.SubmitInvoice(benefit.Status)
	if err != nil {
		return nil, err
	}

	if upload.Amount <= 0 {
		return nil, lifecycle.ErrInvalidAmount
	}

	if err := lifecycle.ValidateInvoiceFile(upload.ContentType, upload.Filename, upload.Size); err != nil {
		return nil, err
	}

	if benefit.InvoiceFileKey != "" && lifecycle.InvoiceReplaceable(benefit.Status) {
		if err := s.storage.Delete(ctx, benefit.InvoiceFileKey); err != nil {
			s.logger.WithError(err).WithBenefitID(benefit.ID).Warn("Failed to delete replaced invoice file")
		}
	}

	key := lifecycle.InvoiceObjectKey(benefit.ExpertID.Hex(), benefit.ID.Hex(), time.Now(), upload.ContentType, upload.Filename)

	if _, err := s.storage.Upload(ctx, &storage.UploadRequest{
		Key:         key,
		Reader:      upload.Reader,
		Size:        upload.Size,
		ContentType: upload.ContentType,
	}); err != nil {
		return nil, fmt.Errorf("failed to store invoice: %w", err)
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":                 next,
		"invoice_submitted":      true,
		"invoice_submitted_at":   now,
		"invoice_amount":         upload.Amount,
		"invoice_file_key":       key,
		"invoice_rejection_note": "",
	}

	if err := s.benefitRepo.Update(ctx, id, updates); err != nil {
		// The record still points at the old file; drop the orphan.
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			s.logger.WithError(delErr).WithBenefitID(benefit.ID).Error("Failed to clean up orphaned invoice file")
		}
		return nil, err
	}

	if err := s.referralRepo.Update(ctx, benefit.ReferralID, map[string]interface{}{"invoice_submitted": true}); err != nil {
		s.logger.WithError(err).WithReferralID(benefit.ReferralID).Error("Failed to flag referral invoice submission")
	}

	s.audit(ctx, actor, models.AuditActionInvoiceSubmit, benefit, next, map[string]interface{}{
		"invoice_amount":   upload.Amount,
		"invoice_file_key": key,
	})

	benefit.Status = next
	benefit.InvoiceSubmitted = true
	benefit.InvoiceSubmittedAt = &now
	benefit.InvoiceAmount = upload.Amount
	benefit.InvoiceFileKey = key
	benefit.InvoiceRejectionNote = ""

	return benefit, nil
}

func (s *benefitService) ApproveInvoice(ctx context.Context, actor Actor, id primitive.ObjectID) (*models.Benefit, error) {
	benefit, err := s.benefitRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	next, err := lifecycle.ApproveInvoice(benefit.Status)
	if err != nil {
		return nil, err
	}

	if err := s.benefitRepo.Update(ctx, id, map[string]interface{}{"status": next}); err != nil {
		return nil, err
	}

	s.audit(ctx, actor, models.AuditActionInvoiceApprove, benefit, next, nil)

	benefit.Status = next
	return benefit, nil
}

func (s *benefitService) RejectInvoice(ctx context.Context, actor Actor, id primitive.ObjectID, justification string) (*models.Benefit, error) {
	benefit, err := s.benefitRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	next, err := lifecycle.RejectInvoice(benefit.Status, justification)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"status":                 next,
		"invoice_rejection_note": justification,
	}

	if err := s.benefitRepo.Update(ctx, id, updates); err != nil {
		return nil, err
	}

	s.audit(ctx, actor, models.AuditActionInvoiceReject, benefit, next, map[string]interface{}{
		"justification": justification,
	})

	benefit.Status = next
	benefit.InvoiceRejectionNote = justification

	s.notifyExpert(ctx, benefit, "Invoice rejected",
		fmt.Sprintf("Your invoice was rejected: %s. Please submit a corrected one.", justification))

	return benefit, nil
}

func (s *benefitService) SchedulePayment(ctx context.Context, actor Actor, id primitive.ObjectID, date lifecycle.Date) (*models.Benefit, error) {
	benefit, err := s.benefitRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	next, err := lifecycle.SchedulePayment(benefit.Status, date)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"status":                next,
		"payment_scheduled_for": date,
	}

	if err := s.benefitRepo.Update(ctx, id, updates); err != nil {
		return nil, err
	}

	s.audit(ctx, actor, models.AuditActionPaymentSchedule, benefit, next, map[string]interface{}{
		"payment_scheduled_for": date.String(),
	})

	benefit.Status = next
	benefit.PaymentScheduledFor = &date

	s.notifyExpert(ctx, benefit, "Payment scheduled",
		fmt.Sprintf("Your benefit payment is scheduled for %s.", date.String()))

	return benefit, nil
}

// ConfirmPayment closes the benefit and marks the originating referral
// as paid out.
func (s *benefitService) ConfirmPayment(ctx context.Context, actor Actor, id primitive.ObjectID) (*models.Benefit, error) {
	benefit, err := s.benefitRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	next, err := lifecycle.ConfirmExpertPayment(benefit.Status)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":            next,
		"payment_performed": true,
		"paid_at":           now,
	}

	if err := s.benefitRepo.Update(ctx, id, updates); err != nil {
		return nil, err
	}

	if err := s.referralRepo.Update(ctx, benefit.ReferralID, map[string]interface{}{"benefit_paid": true}); err != nil {
		s.logger.WithError(err).WithReferralID(benefit.ReferralID).Error("Failed to flag referral as paid")
	}

	s.audit(ctx, actor, models.AuditActionPaymentConfirmed, benefit, next, nil)

	benefit.Status = next
	benefit.PaymentPerformed = true
	benefit.PaidAt = &now

	s.notifyExpert(ctx, benefit, "Payment sent",
		fmt.Sprintf("Your benefit of %.2f has been paid.", benefit.Amount))

	return benefit, nil
}

func (s *benefitService) InvoiceDownloadURL(ctx context.Context, actor Actor, id primitive.ObjectID) (string, error) {
	benefit, err := s.benefitRepo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}

	if !actor.IsAdmin() && benefit.ExpertID != actor.ID {
		return "", ErrForbidden
	}

	if benefit.InvoiceFileKey == "" {
		return "", interfaces.ErrNotFound
	}

	url, err := s.storage.GetURL(ctx, benefit.InvoiceFileKey, utils.InvoiceURLExpiry)
	if err != nil {
		return "", fmt.Errorf("failed to generate invoice URL: %w", err)
	}

	return url, nil
}

func (s *benefitService) audit(ctx context.Context, actor Actor, action models.AuditAction, benefit *models.Benefit, next lifecycle.BenefitStatus, extra map[string]interface{}) {
	newValues := map[string]interface{}{"status": next}
	for k, v := range extra {
		newValues[k] = v
	}

	writeAudit(ctx, s.auditLogRepo, s.logger, actor, action, utils.ResourceBenefit, benefit.ID.Hex(),
		map[string]interface{}{"status": benefit.Status},
		newValues)

	s.logger.LogStateChange(utils.ResourceBenefit, benefit.ID.Hex(), string(benefit.Status), string(next), actor.ID)
}

func (s *benefitService) notifyExpert(ctx context.Context, benefit *models.Benefit, subject, body string) {
	if s.email == nil {
		return
	}
	if err := s.email.SendToUser(ctx, benefit.ExpertID, subject, body); err != nil {
		s.logger.WithError(err).WithBenefitID(benefit.ID).Warn("Failed to send benefit notification")
	}
}
