package lifecycle

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

type BenefitStatus string

const (
	BenefitStatusAwaitingClientPayment BenefitStatus = "awaiting_client_payment"
	BenefitStatusReleasedForInvoice    BenefitStatus = "released_for_invoice"
	BenefitStatusAwaitingReview        BenefitStatus = "awaiting_review"
	BenefitStatusInvoiceRejected       BenefitStatus = "invoice_rejected"
	BenefitStatusProcessingPayment     BenefitStatus = "processing_payment"
	BenefitStatusScheduled             BenefitStatus = "scheduled"
	BenefitStatusPaid                  BenefitStatus = "paid"
)

func (s BenefitStatus) Valid() bool {
	switch s {
	case BenefitStatusAwaitingClientPayment, BenefitStatusReleasedForInvoice,
		BenefitStatusAwaitingReview, BenefitStatusInvoiceRejected,
		BenefitStatusProcessingPayment, BenefitStatusScheduled, BenefitStatusPaid:
		return true
	}
	return false
}

// ConfirmClientPayment records that the client's first contract payment
// arrived, releasing the expert to invoice.
func ConfirmClientPayment(current BenefitStatus) (BenefitStatus, error) {
	if current != BenefitStatusAwaitingClientPayment {
		return current, transitionErr(string(current), string(BenefitStatusReleasedForInvoice))
	}
	return BenefitStatusReleasedForInvoice, nil
}

// SubmitInvoice accepts an invoice upload. Legal both for the first
// submission and for a replacement after a rejection.
func SubmitInvoice(current BenefitStatus) (BenefitStatus, error) {
	if current != BenefitStatusReleasedForInvoice && current != BenefitStatusInvoiceRejected {
		return current, transitionErr(string(current), string(BenefitStatusAwaitingReview))
	}
	return BenefitStatusAwaitingReview, nil
}

// InvoiceReplaceable reports whether a stored invoice file may still be
// swapped out (pre-approval states only).
func InvoiceReplaceable(current BenefitStatus) bool {
	return current == BenefitStatusAwaitingReview || current == BenefitStatusInvoiceRejected
}

func ApproveInvoice(current BenefitStatus) (BenefitStatus, error) {
	if current != BenefitStatusAwaitingReview {
		return current, transitionErr(string(current), string(BenefitStatusProcessingPayment))
	}
	return BenefitStatusProcessingPayment, nil
}

// RejectInvoice refuses a submitted invoice; a non-empty justification is
// mandatory.
func RejectInvoice(current BenefitStatus, justification string) (BenefitStatus, error) {
	if strings.TrimSpace(justification) == "" {
		return current, ErrJustificationRequired
	}
	if current != BenefitStatusAwaitingReview {
		return current, transitionErr(string(current), string(BenefitStatusInvoiceRejected))
	}
	return BenefitStatusInvoiceRejected, nil
}

// SchedulePayment fixes the date the expert payment will be executed.
func SchedulePayment(current BenefitStatus, date Date) (BenefitStatus, error) {
	if date.IsZero() || !date.Valid() {
		return current, ErrInvalidContractDate
	}
	if current != BenefitStatusProcessingPayment {
		return current, transitionErr(string(current), string(BenefitStatusScheduled))
	}
	return BenefitStatusScheduled, nil
}

// ConfirmExpertPayment records the payout as executed. Legal whether or not
// a schedule date was set first.
func ConfirmExpertPayment(current BenefitStatus) (BenefitStatus, error) {
	if current != BenefitStatusProcessingPayment && current != BenefitStatusScheduled {
		return current, transitionErr(string(current), string(BenefitStatusPaid))
	}
	return BenefitStatusPaid, nil
}

// Invoice file constraints.
const MaxInvoiceFileSize = 10 * 1024 * 1024

var invoiceContentTypes = map[string]string{
	"application/pdf": ".pdf",
	"text/xml":        ".xml",
	"application/xml": ".xml",
}

var invoiceExtensions = map[string]bool{
	".pdf": true,
	".xml": true,
}

// ValidateInvoiceFile checks type and size before anything touches storage
// or the record store. The content type wins; the filename extension is the
// fallback when the client sent a generic type.
func ValidateInvoiceFile(contentType, filename string, size int64) error {
	if size <= 0 || size > MaxInvoiceFileSize {
		return ErrInvoiceFileTooLarge
	}

	ct := contentType
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = ct[:i]
	}
	ct = strings.TrimSpace(strings.ToLower(ct))

	if _, ok := invoiceContentTypes[ct]; ok {
		return nil
	}
	if invoiceExtensions[strings.ToLower(filepath.Ext(filename))] {
		return nil
	}
	return ErrInvoiceFileType
}

// InvoiceObjectKey builds the storage key for an invoice document:
// {expertID}/{benefitID}_{unixMillis}.{ext}. Keeping every expert's files
// under their own id segment scopes access per expert.
func InvoiceObjectKey(expertID, benefitID string, now time.Time, contentType, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if !invoiceExtensions[ext] {
		ct := contentType
		if i := strings.Index(ct, ";"); i >= 0 {
			ct = ct[:i]
		}
		if mapped, ok := invoiceContentTypes[strings.TrimSpace(strings.ToLower(ct))]; ok {
			ext = mapped
		} else {
			ext = ".pdf"
		}
	}
	return fmt.Sprintf("%s/%s_%d%s", expertID, benefitID, now.UnixMilli(), ext)
}
