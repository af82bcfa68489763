package services

import (
	"context"
	"fmt"
	"time"

	"corpvox/internal/lifecycle"
	"corpvox/internal/models"
	"corpvox/internal/repositories/interfaces"
	"corpvox/internal/utils"
	"corpvox/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReferralService interface {
	Create(ctx context.Context, actor Actor, request *CreateReferralRequest) (*models.Referral, error)
	Get(ctx context.Context, actor Actor, id primitive.ObjectID) (*models.Referral, error)
	List(ctx context.Context, actor Actor, status lifecycle.ReferralStatus, params *utils.PaginationParams) ([]*models.Referral, int64, error)

	Approve(ctx context.Context, actor Actor, id primitive.ObjectID) (*models.Referral, error)
	Reject(ctx context.Context, actor Actor, id primitive.ObjectID, reason string) (*models.Referral, error)
	MoveStage(ctx context.Context, actor Actor, id primitive.ObjectID, stage lifecycle.CRMStage) (*models.Referral, error)
	MarkLost(ctx context.Context, actor Actor, id primitive.ObjectID) (*models.Referral, error)
	MarkContracted(ctx context.Context, actor Actor, id primitive.ObjectID, request *ContractRequest) (*models.Referral, *models.Benefit, error)

	History(ctx context.Context, id primitive.ObjectID, params *utils.PaginationParams) ([]*models.AuditLog, int64, error)
}

type referralService struct {
	referralRepo interfaces.ReferralRepository
	benefitRepo  interfaces.BenefitRepository
	auditLogRepo interfaces.AuditLogRepository
	txRunner     interfaces.TransactionRunner
	email        EmailService
	logger       *logger.Logger
}

func NewReferralService(
	referralRepo interfaces.ReferralRepository,
	benefitRepo interfaces.BenefitRepository,
	auditLogRepo interfaces.AuditLogRepository,
	txRunner interfaces.TransactionRunner,
	email EmailService,
	log *logger.Logger,
) ReferralService {
	return &referralService{
		referralRepo: referralRepo,
		benefitRepo:  benefitRepo,
		auditLogRepo: auditLogRepo,
		txRunner:     txRunner,
		email:        email,
		logger:       log,
	}
}

type CreateReferralRequest struct {
	CompanyName   string `json:"company_name" validate:"required,min=2,max=120"`
	TaxID         string `json:"tax_id" validate:"required,tax_id"`
	ContactName   string `json:"contact_name" validate:"required,min=2,max=120"`
	ContactEmail  string `json:"contact_email" validate:"required,email"`
	ContactPhone  string `json:"contact_phone"`
	EmployeeCount int    `json:"employee_count" validate:"gte=0"`
	Channel       string `json:"channel" validate:"required,referral_channel"`
	Notes         string `json:"notes" validate:"max=2000"`
}

type ContractRequest struct {
	Amount       float64 `json:"amount" validate:"required,gt=0"`
	ContractDate string  `json:"contract_date" validate:"required"`
}

func (s *referralService) Create(ctx context.Context, actor Actor, request *CreateReferralRequest) (*models.Referral, error) {
	if err := utils.ValidateStruct(request); err != nil {
		return nil, err
	}

	referral := &models.Referral{
		ExpertID:      actor.ID,
		CompanyName:   request.CompanyName,
		TaxID:         request.TaxID,
		ContactName:   request.ContactName,
		ContactEmail:  utils.NormalizeEmail(request.ContactEmail),
		ContactPhone:  request.ContactPhone,
		EmployeeCount: request.EmployeeCount,
		Channel:       models.ReferralChannel(request.Channel),
		Notes:         request.Notes,
		Status:        lifecycle.ReferralStatusAwaitingValidation,
	}

	if err := s.referralRepo.Create(ctx, referral); err != nil {
		return nil, err
	}

	writeAudit(ctx, s.auditLogRepo, s.logger, actor, models.AuditActionCreate, utils.ResourceReferral, referral.ID.Hex(), nil, map[string]interface{}{
		"status":       referral.Status,
		"company_name": referral.CompanyName,
	})

	s.logger.WithReferralID(referral.ID).WithUserID(actor.ID).Info("Referral submitted")

	referral.RefreshExpired(time.Now())
	return referral, nil
}

func (s *referralService) Get(ctx context.Context, actor Actor, id primitive.ObjectID) (*models.Referral, error) {
	referral, err := s.referralRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !actor.IsAdmin() && referral.ExpertID != actor.ID {
		return nil, ErrForbidden
	}

	referral.RefreshExpired(time.Now())
	return referral, nil
}

func (s *referralService) List(ctx context.Context, actor Actor, status lifecycle.ReferralStatus, params *utils.PaginationParams) ([]*models.Referral, int64, error) {
	var (
		referrals []*models.Referral
		total     int64
		err       error
	)

	switch {
	case !actor.IsAdmin():
		referrals, total, err = s.referralRepo.ListByExpert(ctx, actor.ID, params)
	case status != "":
		referrals, total, err = s.referralRepo.ListByStatus(ctx, status, params)
	default:
		referrals, total, err = s.referralRepo.List(ctx, params)
	}
	if err != nil {
		return nil, 0, err
	}

	now := time.Now()
	for _, referral := range referrals {
		referral.RefreshExpired(now)
	}

	return referrals, total, nil
}

func (s *referralService) Approve(ctx context.Context, actor Actor, id primitive.ObjectID) (*models.Referral, error) {
	referral, err := s.getActionable(ctx, id)
	if err != nil {
		return nil, err
	}

	next, err := lifecycle.ApproveReferral(referral.Status)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	stage := lifecycle.StageInitialContact
	updates := map[string]interface{}{
		"status":       next,
		"crm_stage":    stage,
		"validated_by": actor.ID,
		"validated_at": now,
	}

	if err := s.referralRepo.Update(ctx, id, updates); err != nil {
		return nil, err
	}

	s.audit(ctx, actor, models.AuditActionApprove, referral, next)

	referral.Status = next
	referral.CRMStage = &stage
	referral.ValidatedBy = &actor.ID
	referral.ValidatedAt = &now
	referral.UpdatedAt = now

	s.notifyExpert(ctx, referral, "Referral approved",
		fmt.Sprintf("Your referral for %s was approved and is now in contact.", referral.CompanyName))

	return referral, nil
}

func (s *referralService) Reject(ctx context.Context, actor Actor, id primitive.ObjectID, reason string) (*models.Referral, error) {
	referral, err := s.referralRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	next, err := lifecycle.RejectReferral(referral.Status, reason)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"status":           next,
		"rejection_reason": reason,
		"validated_by":     actor.ID,
		"validated_at":     time.Now(),
	}

	if err := s.referralRepo.Update(ctx, id, updates); err != nil {
		return nil, err
	}

	s.audit(ctx, actor, models.AuditActionReject, referral, next)

	referral.Status = next
	referral.RejectionReason = reason

	s.notifyExpert(ctx, referral, "Referral rejected",
		fmt.Sprintf("Your referral for %s was rejected: %s", referral.CompanyName, reason))

	return referral, nil
}

func (s *referralService) MoveStage(ctx context.Context, actor Actor, id primitive.ObjectID, stage lifecycle.CRMStage) (*models.Referral, error) {
	referral, err := s.getActionable(ctx, id)
	if err != nil {
		return nil, err
	}

	next, err := lifecycle.MoveStage(referral.Status, stage)
	if err != nil {
		return nil, err
	}

	if err := s.referralRepo.Update(ctx, id, map[string]interface{}{"crm_stage": next}); err != nil {
		return nil, err
	}

	var from interface{}
	if referral.CRMStage != nil {
		from = *referral.CRMStage
	}
	writeAudit(ctx, s.auditLogRepo, s.logger, actor, models.AuditActionStageMove, utils.ResourceReferral, referral.ID.Hex(),
		map[string]interface{}{"crm_stage": from},
		map[string]interface{}{"crm_stage": next})

	referral.CRMStage = &next
	return referral, nil
}

func (s *referralService) MarkLost(ctx context.Context, actor Actor, id primitive.ObjectID) (*models.Referral, error) {
	referral, err := s.referralRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	next, err := lifecycle.MarkReferralLost(referral.Status)
	if err != nil {
		return nil, err
	}

	stage := lifecycle.StageLost
	updates := map[string]interface{}{
		"status":    next,
		"crm_stage": stage,
	}

	if err := s.referralRepo.Update(ctx, id, updates); err != nil {
		return nil, err
	}

	s.audit(ctx, actor, models.AuditActionMarkLost, referral, next)

	referral.Status = next
	referral.CRMStage = &stage
	return referral, nil
}

// MarkContracted closes the sales pipeline and opens the payment
// lifecycle. The referral update and the benefit insert commit
// atomically; the unique index on benefits.referral_id backstops
// concurrent contract attempts that race past the status check.
func (s *referralService) MarkContracted(ctx context.Context, actor Actor, id primitive.ObjectID, request *ContractRequest) (*models.Referral, *models.Benefit, error) {
	if err := utils.ValidateStruct(request); err != nil {
		return nil, nil, err
	}

	contractDate, err := lifecycle.ParseDate(request.ContractDate)
	if err != nil {
		return nil, nil, lifecycle.ErrInvalidContractDate
	}

	referral, err := s.getActionable(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	next, milestones, err := lifecycle.ContractReferral(referral.Status, request.Amount, contractDate)
	if err != nil {
		return nil, nil, err
	}

	stage := lifecycle.StageContractSigned
	benefit := &models.Benefit{
		ReferralID:   referral.ID,
		ExpertID:     referral.ExpertID,
		Amount:       request.Amount,
		Status:       lifecycle.BenefitStatusAwaitingClientPayment,
		ContractDate: contractDate,
		Milestones:   milestones,
	}

	err = s.txRunner.RunInTransaction(ctx, func(txCtx context.Context) error {
		updates := map[string]interface{}{
			"status":    next,
			"crm_stage": stage,
		}
		if err := s.referralRepo.Update(txCtx, id, updates); err != nil {
			return err
		}
		return s.benefitRepo.Create(txCtx, benefit)
	})
	if err != nil {
		return nil, nil, err
	}

	s.audit(ctx, actor, models.AuditActionContract, referral, next)
	writeAudit(ctx, s.auditLogRepo, s.logger, actor, models.AuditActionCreate, utils.ResourceBenefit, benefit.ID.Hex(), nil, map[string]interface{}{
		"referral_id":   benefit.ReferralID.Hex(),
		"amount":        benefit.Amount,
		"status":        benefit.Status,
		"contract_date": benefit.ContractDate.String(),
	})

	s.logger.WithReferralID(referral.ID).WithBenefitID(benefit.ID).WithFields(map[string]interface{}{
		"amount":        benefit.Amount,
		"contract_date": benefit.ContractDate.String(),
	}).Info("Referral contracted, benefit opened")

	referral.Status = next
	referral.CRMStage = &stage

	s.notifyExpert(ctx, referral, "Referral contracted",
		fmt.Sprintf("Your referral for %s signed a contract. A benefit of %.2f is now tracked for you.", referral.CompanyName, benefit.Amount))

	return referral, benefit, nil
}

func (s *referralService) History(ctx context.Context, id primitive.ObjectID, params *utils.PaginationParams) ([]*models.AuditLog, int64, error) {
	if _, err := s.referralRepo.GetByID(ctx, id); err != nil {
		return nil, 0, err
	}
	return s.auditLogRepo.GetResourceHistory(ctx, utils.ResourceReferral, id.Hex(), params)
}

// getActionable loads a referral and refuses forward progress once the
// 90-day window has lapsed. Closing moves (reject, lost) skip this so
// stale records can still be tidied up.
func (s *referralService) getActionable(ctx context.Context, id primitive.ObjectID) (*models.Referral, error) {
	referral, err := s.referralRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if lifecycle.ReferralExpired(referral.Status, referral.CreatedAt, time.Now()) {
		return nil, ErrReferralExpired
	}

	return referral, nil
}

func (s *referralService) audit(ctx context.Context, actor Actor, action models.AuditAction, referral *models.Referral, next lifecycle.ReferralStatus) {
	writeAudit(ctx, s.auditLogRepo, s.logger, actor, action, utils.ResourceReferral, referral.ID.Hex(),
		map[string]interface{}{"status": referral.Status},
		map[string]interface{}{"status": next})

	s.logger.LogStateChange(utils.ResourceReferral, referral.ID.Hex(), string(referral.Status), string(next), actor.ID)
}

func (s *referralService) notifyExpert(ctx context.Context, referral *models.Referral, subject, body string) {
	if s.email == nil {
		return
	}
	if err := s.email.SendToUser(ctx, referral.ExpertID, subject, body); err != nil {
		s.logger.WithError(err).WithReferralID(referral.ID).Warn("Failed to send referral notification")
	}
}
