package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"corpvox/internal/lifecycle"
	"corpvox/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type benefitFixture struct {
	svc          BenefitService
	referralRepo *fakeReferralRepo
	benefitRepo  *fakeBenefitRepo
	auditRepo    *fakeAuditLogRepo
	storage      *fakeStorage
	expert       Actor
	admin        Actor
	benefit      *models.Benefit
	referralID   primitive.ObjectID
}

// newBenefitFixture contracts a referral end to end so the benefit under
// test carries real milestone data.
func newBenefitFixture(t *testing.T) *benefitFixture {
	t.Helper()

	referralRepo := newFakeReferralRepo()
	benefitRepo := newFakeBenefitRepo()
	auditRepo := &fakeAuditLogRepo{}
	store := newFakeStorage()
	log := testLogger()

	referralSvc := NewReferralService(referralRepo, benefitRepo, auditRepo, fakeTxRunner{}, nil, log)
	benefitSvc := NewBenefitService(benefitRepo, referralRepo, auditRepo, store, nil, log)

	expert := expertActor()
	admin := adminActor()

	referral, err := referralSvc.Create(context.Background(), expert, validCreateRequest())
	require.NoError(t, err)
	_, err = referralSvc.Approve(context.Background(), admin, referral.ID)
	require.NoError(t, err)
	_, benefit, err := referralSvc.MarkContracted(context.Background(), admin, referral.ID, &ContractRequest{
		Amount:       1000.00,
		ContractDate: "2024-06-15",
	})
	require.NoError(t, err)

	return &benefitFixture{
		svc:          benefitSvc,
		referralRepo: referralRepo,
		benefitRepo:  benefitRepo,
		auditRepo:    auditRepo,
		storage:      store,
		expert:       expert,
		admin:        admin,
		benefit:      benefit,
		referralID:   referral.ID,
	}
}

func pdfUpload(amount float64) *InvoiceUpload {
	return &InvoiceUpload{
		Reader:      bytes.NewReader([]byte("%PDF-1.4 test")),
		Filename:    "invoice.pdf",
		ContentType: "application/pdf",
		Size:        13,
		Amount:      amount,
	}
}

func TestBenefitFullLifecycle(t *testing.T) {
	f := newBenefitFixture(t)
	ctx := context.Background()

	assert.Equal(t, lifecycle.BenefitStatusAwaitingClientPayment, f.benefit.Status)
	assert.Equal(t, lifecycle.NewDate(2024, time.July, 5), f.benefit.Milestones.FirstClientPayment)

	benefit, err := f.svc.ConfirmClientPayment(ctx, f.admin, f.benefit.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.BenefitStatusReleasedForInvoice, benefit.Status)
	assert.NotNil(t, benefit.ClientPaidAt)

	benefit, err = f.svc.SubmitInvoice(ctx, f.expert, f.benefit.ID, pdfUpload(1000.00))
	require.NoError(t, err)
	assert.Equal(t, lifecycle.BenefitStatusAwaitingReview, benefit.Status)
	assert.True(t, benefit.InvoiceSubmitted)
	assert.Equal(t, 1000.00, benefit.InvoiceAmount)
	assert.True(t, strings.HasPrefix(benefit.InvoiceFileKey, f.expert.ID.Hex()+"/"))
	assert.True(t, strings.HasSuffix(benefit.InvoiceFileKey, ".pdf"))

	exists, err := f.storage.FileExists(ctx, benefit.InvoiceFileKey)
	require.NoError(t, err)
	assert.True(t, exists)

	// Submission flips the informational marker on the parent referral
	// without touching its status enum.
	referral, err := f.referralRepo.GetByID(ctx, f.referralID)
	require.NoError(t, err)
	assert.True(t, referral.InvoiceSubmitted)
	assert.Equal(t, lifecycle.ReferralStatusContracted, referral.Status)

	benefit, err = f.svc.ApproveInvoice(ctx, f.admin, f.benefit.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.BenefitStatusProcessingPayment, benefit.Status)

	benefit, err = f.svc.SchedulePayment(ctx, f.admin, f.benefit.ID, lifecycle.NewDate(2024, time.July, 15))
	require.NoError(t, err)
	assert.Equal(t, lifecycle.BenefitStatusScheduled, benefit.Status)
	require.NotNil(t, benefit.PaymentScheduledFor)
	assert.Equal(t, "2024-07-15", benefit.PaymentScheduledFor.String())

	benefit, err = f.svc.ConfirmPayment(ctx, f.admin, f.benefit.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.BenefitStatusPaid, benefit.Status)
	assert.True(t, benefit.PaymentPerformed)
	assert.NotNil(t, benefit.PaidAt)

	// The originating referral is flagged once the payout lands.
	referral, err = f.referralRepo.GetByID(ctx, f.referralID)
	require.NoError(t, err)
	assert.True(t, referral.BenefitPaid)
}

func TestSubmitInvoiceBeforeClientPayment(t *testing.T) {
	f := newBenefitFixture(t)

	_, err := f.svc.SubmitInvoice(context.Background(), f.expert, f.benefit.ID, pdfUpload(1000))
	assert.ErrorIs(t, err, lifecycle.ErrInvalidTransition)
	assert.Zero(t, f.storage.opCount())
}

func TestSubmitInvoiceRejectsBadFileWithoutTouchingStorage(t *testing.T) {
	f := newBenefitFixture(t)
	ctx := context.Background()

	_, err := f.svc.ConfirmClientPayment(ctx, f.admin, f.benefit.ID)
	require.NoError(t, err)

	upload := &InvoiceUpload{
		Reader:      bytes.NewReader([]byte("GIF89a")),
		Filename:    "invoice.gif",
		ContentType: "image/gif",
		Size:        6,
		Amount:      1000,
	}

	_, err = f.svc.SubmitInvoice(ctx, f.expert, f.benefit.ID, upload)
	assert.ErrorIs(t, err, lifecycle.ErrInvoiceFileType)
	assert.Zero(t, f.storage.opCount())

	oversized := pdfUpload(1000)
	oversized.Size = lifecycle.MaxInvoiceFileSize + 1

	_, err = f.svc.SubmitInvoice(ctx, f.expert, f.benefit.ID, oversized)
	assert.ErrorIs(t, err, lifecycle.ErrInvoiceFileTooLarge)
	assert.Zero(t, f.storage.opCount())

	zeroAmount := pdfUpload(0)
	_, err = f.svc.SubmitInvoice(ctx, f.expert, f.benefit.ID, zeroAmount)
	assert.ErrorIs(t, err, lifecycle.ErrInvalidAmount)
	assert.Zero(t, f.storage.opCount())
}

func TestResubmitAfterRejectionReplacesFile(t *testing.T) {
	f := newBenefitFixture(t)
	ctx := context.Background()

	_, err := f.svc.ConfirmClientPayment(ctx, f.admin, f.benefit.ID)
	require.NoError(t, err)
	first, err := f.svc.SubmitInvoice(ctx, f.expert, f.benefit.ID, pdfUpload(1000))
	require.NoError(t, err)
	firstKey := first.InvoiceFileKey

	_, err = f.svc.RejectInvoice(ctx, f.admin, f.benefit.ID, "missing tax line")
	require.NoError(t, err)

	second, err := f.svc.SubmitInvoice(ctx, f.expert, f.benefit.ID, pdfUpload(1000))
	require.NoError(t, err)
	assert.Equal(t, lifecycle.BenefitStatusAwaitingReview, second.Status)
	assert.Empty(t, second.InvoiceRejectionNote, "resubmission clears the rejection note")

	// The replaced file is deleted before the new one is stored.
	f.storage.mu.Lock()
	ops := append([]storageOp(nil), f.storage.ops...)
	f.storage.mu.Unlock()

	require.Len(t, ops, 3)
	assert.Equal(t, storageOp{kind: "delete", key: firstKey}, ops[1])
	assert.Equal(t, "upload", ops[2].kind)
	assert.Equal(t, second.InvoiceFileKey, ops[2].key)
}

func TestResubmitProceedsWhenOldFileDeleteFails(t *testing.T) {
	f := newBenefitFixture(t)
	ctx := context.Background()

	_, err := f.svc.ConfirmClientPayment(ctx, f.admin, f.benefit.ID)
	require.NoError(t, err)
	_, err = f.svc.SubmitInvoice(ctx, f.expert, f.benefit.ID, pdfUpload(1000))
	require.NoError(t, err)
	_, err = f.svc.RejectInvoice(ctx, f.admin, f.benefit.ID, "wrong amount")
	require.NoError(t, err)

	f.storage.mu.Lock()
	f.storage.deleteErr = errors.New("backend unavailable")
	f.storage.mu.Unlock()

	second, err := f.svc.SubmitInvoice(ctx, f.expert, f.benefit.ID, pdfUpload(1000))
	require.NoError(t, err, "a stuck delete must not block the resubmission")
	assert.Equal(t, lifecycle.BenefitStatusAwaitingReview, second.Status)
}

func TestSubmitInvoiceCleansUpOnUpdateFailure(t *testing.T) {
	f := newBenefitFixture(t)
	ctx := context.Background()

	_, err := f.svc.ConfirmClientPayment(ctx, f.admin, f.benefit.ID)
	require.NoError(t, err)

	f.benefitRepo.mu.Lock()
	f.benefitRepo.updateErr = errors.New("write conflict")
	f.benefitRepo.mu.Unlock()

	_, err = f.svc.SubmitInvoice(ctx, f.expert, f.benefit.ID, pdfUpload(1000))
	require.Error(t, err)

	// The freshly uploaded object must not be left orphaned.
	f.storage.mu.Lock()
	ops := append([]storageOp(nil), f.storage.ops...)
	f.storage.mu.Unlock()

	require.Len(t, ops, 2)
	assert.Equal(t, "upload", ops[0].kind)
	assert.Equal(t, "delete", ops[1].kind)
	assert.Equal(t, ops[0].key, ops[1].key)
}

func TestRejectInvoiceRequiresJustification(t *testing.T) {
	f := newBenefitFixture(t)
	ctx := context.Background()

	_, err := f.svc.ConfirmClientPayment(ctx, f.admin, f.benefit.ID)
	require.NoError(t, err)
	_, err = f.svc.SubmitInvoice(ctx, f.expert, f.benefit.ID, pdfUpload(1000))
	require.NoError(t, err)

	_, err = f.svc.RejectInvoice(ctx, f.admin, f.benefit.ID, "")
	assert.ErrorIs(t, err, lifecycle.ErrJustificationRequired)
}

func TestConfirmPaymentWithoutSchedule(t *testing.T) {
	f := newBenefitFixture(t)
	ctx := context.Background()

	_, err := f.svc.ConfirmClientPayment(ctx, f.admin, f.benefit.ID)
	require.NoError(t, err)
	_, err = f.svc.SubmitInvoice(ctx, f.expert, f.benefit.ID, pdfUpload(1000))
	require.NoError(t, err)
	_, err = f.svc.ApproveInvoice(ctx, f.admin, f.benefit.ID)
	require.NoError(t, err)

	benefit, err := f.svc.ConfirmPayment(ctx, f.admin, f.benefit.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.BenefitStatusPaid, benefit.Status)
	assert.Nil(t, benefit.PaymentScheduledFor)
}

func TestInvoiceUploadOwnership(t *testing.T) {
	f := newBenefitFixture(t)
	ctx := context.Background()

	_, err := f.svc.ConfirmClientPayment(ctx, f.admin, f.benefit.ID)
	require.NoError(t, err)

	stranger := expertActor()
	_, err = f.svc.SubmitInvoice(ctx, stranger, f.benefit.ID, pdfUpload(1000))
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestInvoiceDownloadURL(t *testing.T) {
	f := newBenefitFixture(t)
	ctx := context.Background()

	_, err := f.svc.InvoiceDownloadURL(ctx, f.expert, f.benefit.ID)
	assert.Error(t, err, "no invoice stored yet")

	_, err = f.svc.ConfirmClientPayment(ctx, f.admin, f.benefit.ID)
	require.NoError(t, err)
	benefit, err := f.svc.SubmitInvoice(ctx, f.expert, f.benefit.ID, pdfUpload(1000))
	require.NoError(t, err)

	url, err := f.svc.InvoiceDownloadURL(ctx, f.expert, f.benefit.ID)
	require.NoError(t, err)
	assert.Contains(t, url, benefit.InvoiceFileKey)

	stranger := expertActor()
	_, err = f.svc.InvoiceDownloadURL(ctx, stranger, f.benefit.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestBenefitListScopesByActor(t *testing.T) {
	f := newBenefitFixture(t)
	ctx := context.Background()

	mine, total, err := f.svc.List(ctx, f.expert, "", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, f.expert.ID, mine[0].ExpertID)

	stranger := expertActor()
	_, total, err = f.svc.List(ctx, stranger, "", nil)
	require.NoError(t, err)
	assert.Zero(t, total)

	_, total, err = f.svc.List(ctx, f.admin, lifecycle.BenefitStatusAwaitingClientPayment, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}
