package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"corpvox/internal/lifecycle"
	"corpvox/internal/models"
	"corpvox/internal/repositories/interfaces"
	"corpvox/internal/utils"
	"corpvox/pkg/logger"
	"corpvox/pkg/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func testLogger() *logger.Logger {
	log, err := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Format: "text"})
	if err != nil {
		panic(err)
	}
	return log
}

type fakeReferralRepo struct {
	mu        sync.Mutex
	records   map[primitive.ObjectID]*models.Referral
	updateErr error
}

func newFakeReferralRepo() *fakeReferralRepo {
	return &fakeReferralRepo{records: map[primitive.ObjectID]*models.Referral{}}
}

func (r *fakeReferralRepo) Create(ctx context.Context, referral *models.Referral) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	referral.ID = primitive.NewObjectID()
	referral.CreatedAt = time.Now()
	referral.UpdatedAt = referral.CreatedAt
	clone := *referral
	r.records[referral.ID] = &clone
	return nil
}

func (r *fakeReferralRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Referral, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	referral, ok := r.records[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	clone := *referral
	return &clone, nil
}

func (r *fakeReferralRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	referral, ok := r.records[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	for key, value := range updates {
		switch key {
		case "status":
			referral.Status = value.(lifecycle.ReferralStatus)
		case "crm_stage":
			stage := value.(lifecycle.CRMStage)
			referral.CRMStage = &stage
		case "rejection_reason":
			referral.RejectionReason = value.(string)
		case "validated_by":
			actorID := value.(primitive.ObjectID)
			referral.ValidatedBy = &actorID
		case "validated_at":
			at := value.(time.Time)
			referral.ValidatedAt = &at
		case "invoice_submitted":
			referral.InvoiceSubmitted = value.(bool)
		case "benefit_paid":
			referral.BenefitPaid = value.(bool)
		}
	}
	referral.UpdatedAt = time.Now()
	return nil
}

func (r *fakeReferralRepo) List(ctx context.Context, params *utils.PaginationParams) ([]*models.Referral, int64, error) {
	return r.filter(func(*models.Referral) bool { return true })
}

func (r *fakeReferralRepo) ListByExpert(ctx context.Context, expertID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Referral, int64, error) {
	return r.filter(func(ref *models.Referral) bool { return ref.ExpertID == expertID })
}

func (r *fakeReferralRepo) ListByStatus(ctx context.Context, status lifecycle.ReferralStatus, params *utils.PaginationParams) ([]*models.Referral, int64, error) {
	return r.filter(func(ref *models.Referral) bool { return ref.Status == status })
}

func (r *fakeReferralRepo) CountByStatus(ctx context.Context, status lifecycle.ReferralStatus) (int64, error) {
	_, total, err := r.ListByStatus(ctx, status, nil)
	return total, err
}

func (r *fakeReferralRepo) filter(keep func(*models.Referral) bool) ([]*models.Referral, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Referral
	for _, referral := range r.records {
		if keep(referral) {
			clone := *referral
			out = append(out, &clone)
		}
	}
	return out, int64(len(out)), nil
}

type fakeBenefitRepo struct {
	mu        sync.Mutex
	records   map[primitive.ObjectID]*models.Benefit
	updateErr error
}

func newFakeBenefitRepo() *fakeBenefitRepo {
	return &fakeBenefitRepo{records: map[primitive.ObjectID]*models.Benefit{}}
}

func (r *fakeBenefitRepo) Create(ctx context.Context, benefit *models.Benefit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.records {
		if existing.ReferralID == benefit.ReferralID {
			return interfaces.ErrDuplicateBenefit
		}
	}
	benefit.ID = primitive.NewObjectID()
	benefit.CreatedAt = time.Now()
	benefit.UpdatedAt = benefit.CreatedAt
	clone := *benefit
	r.records[benefit.ID] = &clone
	return nil
}

func (r *fakeBenefitRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Benefit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	benefit, ok := r.records[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	clone := *benefit
	return &clone, nil
}

func (r *fakeBenefitRepo) GetByReferralID(ctx context.Context, referralID primitive.ObjectID) (*models.Benefit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, benefit := range r.records {
		if benefit.ReferralID == referralID {
			clone := *benefit
			return &clone, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (r *fakeBenefitRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	benefit, ok := r.records[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	for key, value := range updates {
		switch key {
		case "status":
			benefit.Status = value.(lifecycle.BenefitStatus)
		case "client_paid_at":
			at := value.(time.Time)
			benefit.ClientPaidAt = &at
		case "invoice_submitted":
			benefit.InvoiceSubmitted = value.(bool)
		case "invoice_submitted_at":
			at := value.(time.Time)
			benefit.InvoiceSubmittedAt = &at
		case "invoice_amount":
			benefit.InvoiceAmount = value.(float64)
		case "invoice_file_key":
			benefit.InvoiceFileKey = value.(string)
		case "invoice_rejection_note":
			benefit.InvoiceRejectionNote = value.(string)
		case "payment_scheduled_for":
			date := value.(lifecycle.Date)
			benefit.PaymentScheduledFor = &date
		case "payment_performed":
			benefit.PaymentPerformed = value.(bool)
		case "paid_at":
			at := value.(time.Time)
			benefit.PaidAt = &at
		}
	}
	benefit.UpdatedAt = time.Now()
	return nil
}

func (r *fakeBenefitRepo) List(ctx context.Context, params *utils.PaginationParams) ([]*models.Benefit, int64, error) {
	return r.filter(func(*models.Benefit) bool { return true })
}

func (r *fakeBenefitRepo) ListByExpert(ctx context.Context, expertID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Benefit, int64, error) {
	return r.filter(func(b *models.Benefit) bool { return b.ExpertID == expertID })
}

func (r *fakeBenefitRepo) ListByStatus(ctx context.Context, status lifecycle.BenefitStatus, params *utils.PaginationParams) ([]*models.Benefit, int64, error) {
	return r.filter(func(b *models.Benefit) bool { return b.Status == status })
}

func (r *fakeBenefitRepo) filter(keep func(*models.Benefit) bool) ([]*models.Benefit, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Benefit
	for _, benefit := range r.records {
		if keep(benefit) {
			clone := *benefit
			out = append(out, &clone)
		}
	}
	return out, int64(len(out)), nil
}

type fakeAuditLogRepo struct {
	mu      sync.Mutex
	entries []*models.AuditLog
}

func (r *fakeAuditLogRepo) Create(ctx context.Context, entry *models.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.ID = primitive.NewObjectID()
	entry.CreatedAt = time.Now()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeAuditLogRepo) GetResourceHistory(ctx context.Context, resource, resourceID string, params *utils.PaginationParams) ([]*models.AuditLog, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.AuditLog
	for _, entry := range r.entries {
		if entry.Resource == resource && entry.ResourceID == resourceID {
			out = append(out, entry)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeAuditLogRepo) ListByActor(ctx context.Context, actorID primitive.ObjectID, params *utils.PaginationParams) ([]*models.AuditLog, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.AuditLog
	for _, entry := range r.entries {
		if entry.ActorID != nil && *entry.ActorID == actorID {
			out = append(out, entry)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeAuditLogRepo) actions() []models.AuditAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.AuditAction, 0, len(r.entries))
	for _, entry := range r.entries {
		out = append(out, entry.Action)
	}
	return out
}

// fakeTxRunner runs fn directly; atomicity is the real implementation's
// concern, the tests only care that both writes happen through it.
type fakeTxRunner struct{}

func (fakeTxRunner) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type storageOp struct {
	kind string
	key  string
}

type fakeStorage struct {
	mu        sync.Mutex
	objects   map[string][]byte
	ops       []storageOp
	deleteErr error
	uploadErr error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string][]byte{}}
}

func (s *fakeStorage) Upload(ctx context.Context, request *storage.UploadRequest) (*storage.UploadResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = append(s.ops, storageOp{kind: "upload", key: request.Key})
	if s.uploadErr != nil {
		return nil, s.uploadErr
	}
	data, err := io.ReadAll(request.Reader)
	if err != nil {
		return nil, err
	}
	s.objects[request.Key] = data
	return &storage.UploadResponse{Key: request.Key, Size: int64(len(data))}, nil
}

func (s *fakeStorage) Download(ctx context.Context, key string) (*storage.DownloadResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return &storage.DownloadResponse{
		Reader: io.NopCloser(bytes.NewReader(data)),
		Size:   int64(len(data)),
	}, nil
}

func (s *fakeStorage) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = append(s.ops, storageOp{kind: "delete", key: key})
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.objects, key)
	return nil
}

func (s *fakeStorage) GetURL(ctx context.Context, key string, expiration time.Duration) (string, error) {
	return "https://files.test/" + key, nil
}

func (s *fakeStorage) FileExists(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok, nil
}

func (s *fakeStorage) opCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ops)
}
