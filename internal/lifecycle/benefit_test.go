package lifecycle

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfirmClientPayment(t *testing.T) {
	next, err := ConfirmClientPayment(BenefitStatusAwaitingClientPayment)
	require.NoError(t, err)
	assert.Equal(t, BenefitStatusReleasedForInvoice, next)

	_, err = ConfirmClientPayment(BenefitStatusReleasedForInvoice)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSubmitInvoice(t *testing.T) {
	next, err := SubmitInvoice(BenefitStatusReleasedForInvoice)
	require.NoError(t, err)
	assert.Equal(t, BenefitStatusAwaitingReview, next)

	// Resubmission after a rejection is the second legal entry point.
	next, err = SubmitInvoice(BenefitStatusInvoiceRejected)
	require.NoError(t, err)
	assert.Equal(t, BenefitStatusAwaitingReview, next)

	for _, current := range []BenefitStatus{
		BenefitStatusAwaitingClientPayment,
		BenefitStatusAwaitingReview,
		BenefitStatusProcessingPayment,
		BenefitStatusScheduled,
		BenefitStatusPaid,
	} {
		_, err := SubmitInvoice(current)
		assert.ErrorIs(t, err, ErrInvalidTransition, "from %s", current)
	}
}

func TestApproveAndRejectInvoice(t *testing.T) {
	next, err := ApproveInvoice(BenefitStatusAwaitingReview)
	require.NoError(t, err)
	assert.Equal(t, BenefitStatusProcessingPayment, next)

	_, err = ApproveInvoice(BenefitStatusReleasedForInvoice)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	next, err = RejectInvoice(BenefitStatusAwaitingReview, "wrong tax amount")
	require.NoError(t, err)
	assert.Equal(t, BenefitStatusInvoiceRejected, next)

	_, err = RejectInvoice(BenefitStatusAwaitingReview, " ")
	assert.ErrorIs(t, err, ErrJustificationRequired)

	_, err = RejectInvoice(BenefitStatusProcessingPayment, "too late")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSchedulePayment(t *testing.T) {
	date := NewDate(2024, time.August, 15)

	next, err := SchedulePayment(BenefitStatusProcessingPayment, date)
	require.NoError(t, err)
	assert.Equal(t, BenefitStatusScheduled, next)

	_, err = SchedulePayment(BenefitStatusProcessingPayment, Date{})
	assert.Error(t, err)

	_, err = SchedulePayment(BenefitStatusAwaitingReview, date)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestConfirmExpertPayment(t *testing.T) {
	// Payment may be confirmed with or without a prior schedule.
	next, err := ConfirmExpertPayment(BenefitStatusScheduled)
	require.NoError(t, err)
	assert.Equal(t, BenefitStatusPaid, next)

	next, err = ConfirmExpertPayment(BenefitStatusProcessingPayment)
	require.NoError(t, err)
	assert.Equal(t, BenefitStatusPaid, next)

	_, err = ConfirmExpertPayment(BenefitStatusPaid)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestInvoiceReplaceable(t *testing.T) {
	assert.True(t, InvoiceReplaceable(BenefitStatusAwaitingReview))
	assert.True(t, InvoiceReplaceable(BenefitStatusInvoiceRejected))
	assert.False(t, InvoiceReplaceable(BenefitStatusProcessingPayment))
	assert.False(t, InvoiceReplaceable(BenefitStatusPaid))
}

func TestValidateInvoiceFile(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		filename    string
		size        int64
		wantErr     error
	}{
		{"pdf by content type", "application/pdf", "invoice.bin", 1024, nil},
		{"xml by content type", "text/xml", "invoice", 1024, nil},
		{"application xml", "application/xml", "invoice", 1024, nil},
		{"content type with charset", "application/pdf; charset=utf-8", "x", 1024, nil},
		{"pdf by extension fallback", "application/octet-stream", "invoice.PDF", 1024, nil},
		{"xml by extension fallback", "", "nota.xml", 1024, nil},
		{"png rejected", "image/png", "invoice.png", 1024, ErrInvoiceFileType},
		{"docx rejected", "application/octet-stream", "invoice.docx", 1024, ErrInvoiceFileType},
		{"zero size", "application/pdf", "invoice.pdf", 0, ErrInvoiceFileTooLarge},
		{"at limit", "application/pdf", "invoice.pdf", MaxInvoiceFileSize, nil},
		{"over limit", "application/pdf", "invoice.pdf", MaxInvoiceFileSize + 1, ErrInvoiceFileTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInvoiceFile(tt.contentType, tt.filename, tt.size)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestInvoiceObjectKey(t *testing.T) {
	now := time.UnixMilli(1718000000000)

	key := InvoiceObjectKey("expert1", "benefit1", now, "application/pdf", "invoice.pdf")
	assert.Equal(t, "expert1/benefit1_1718000000000.pdf", key)

	// Extension wins over content type when recognized.
	key = InvoiceObjectKey("expert1", "benefit1", now, "application/pdf", "nota.XML")
	assert.True(t, strings.HasSuffix(key, ".xml"))

	// Content type decides when the filename has no usable extension.
	key = InvoiceObjectKey("expert1", "benefit1", now, "text/xml; charset=utf-8", "upload")
	assert.True(t, strings.HasSuffix(key, ".xml"))

	// Keys are namespaced by expert.
	assert.True(t, strings.HasPrefix(key, "expert1/"))
}

func TestTransitionErrorMessage(t *testing.T) {
	_, err := ApproveInvoice(BenefitStatusPaid)
	require.Error(t, err)
	assert.Contains(t, err.Error(), string(BenefitStatusPaid))
	assert.Contains(t, err.Error(), string(BenefitStatusProcessingPayment))
}
