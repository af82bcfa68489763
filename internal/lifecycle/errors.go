package lifecycle

import (
	"errors"
	"fmt"
)

// Guard violations. These are raised before any state is touched; callers
// map them to validation errors at the API boundary.
var (
	ErrReasonRequired        = errors.New("rejection reason is required")
	ErrJustificationRequired = errors.New("invoice rejection justification is required")
	ErrInvalidAmount         = errors.New("benefit amount must be greater than zero")
	ErrInvalidContractDate   = errors.New("contract date is missing or invalid")
	ErrInvalidStage          = errors.New("unknown crm stage")
	ErrStageViaContract      = errors.New("contract_signed is only reachable through the contract transition")
	ErrStageViaLost          = errors.New("lost is only reachable through the lost transition")
	ErrInvoiceFileType       = errors.New("invoice file must be a PDF or XML document")
	ErrInvoiceFileTooLarge   = errors.New("invoice file exceeds the maximum allowed size")
)

// ErrInvalidTransition is the base of every illegal status move; match it
// with errors.Is.
var ErrInvalidTransition = errors.New("invalid status transition")

type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot transition from %q to %q", e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

func transitionErr(from, to string) error {
	return &TransitionError{From: from, To: to}
}
