package lifecycle

import (
	"strings"
	"time"
)

type ReferralStatus string

const (
	ReferralStatusAwaitingValidation ReferralStatus = "awaiting_validation"
	ReferralStatusUnderAnalysis      ReferralStatus = "under_analysis" // reserved, not driven by any transition
	ReferralStatusInContact          ReferralStatus = "in_contact"
	ReferralStatusContracted         ReferralStatus = "contracted"
	ReferralStatusValidationRejected ReferralStatus = "validation_rejected"
	ReferralStatusLost               ReferralStatus = "lost"
)

// Terminal reports whether no further referral transition is possible.
func (s ReferralStatus) Terminal() bool {
	switch s {
	case ReferralStatusContracted, ReferralStatusValidationRejected, ReferralStatusLost:
		return true
	}
	return false
}

func (s ReferralStatus) Valid() bool {
	switch s {
	case ReferralStatusAwaitingValidation, ReferralStatusUnderAnalysis,
		ReferralStatusInContact, ReferralStatusContracted,
		ReferralStatusValidationRejected, ReferralStatusLost:
		return true
	}
	return false
}

// CRMStage is the fine-grained sales-pipeline classification used while a
// referral is in active pursuit. It is a separate field from the primary
// status; contract_signed and lost mirror the terminal statuses.
type CRMStage string

const (
	StageInitialContact        CRMStage = "initial_contact"
	StagePresentationScheduled CRMStage = "presentation_scheduled"
	StagePresentationDone      CRMStage = "presentation_done"
	StageProposalSent          CRMStage = "proposal_sent"
	StageUnderEvaluation       CRMStage = "under_evaluation"
	StageNegotiation           CRMStage = "negotiation"
	StageContractSent          CRMStage = "contract_sent"
	StageContractSigned        CRMStage = "contract_signed"
	StageLost                  CRMStage = "lost"
)

// ActiveStages are the stages a referral may move between freely while the
// deal is being pursued.
var ActiveStages = []CRMStage{
	StageInitialContact,
	StagePresentationScheduled,
	StagePresentationDone,
	StageProposalSent,
	StageUnderEvaluation,
	StageNegotiation,
	StageContractSent,
}

func (s CRMStage) Valid() bool {
	if s.Active() {
		return true
	}
	return s == StageContractSigned || s == StageLost
}

func (s CRMStage) Active() bool {
	for _, stage := range ActiveStages {
		if s == stage {
			return true
		}
	}
	return false
}

// ReferralExpiry is how long a referral stays actionable without reaching
// contracted.
const ReferralExpiry = 90 * 24 * time.Hour

// ReferralExpired is the lazily evaluated 90-day rule: it is a derived fact
// computed wherever referral data is read, never a stored transition.
func ReferralExpired(status ReferralStatus, createdAt, now time.Time) bool {
	if status == ReferralStatusContracted {
		return false
	}
	return now.After(createdAt.Add(ReferralExpiry))
}

// ApproveReferral validates an expert submission into active pursuit.
func ApproveReferral(current ReferralStatus) (ReferralStatus, error) {
	if current != ReferralStatusAwaitingValidation {
		return current, transitionErr(string(current), string(ReferralStatusInContact))
	}
	return ReferralStatusInContact, nil
}

// RejectReferral refuses an expert submission. A non-empty reason is
// mandatory; without one the referral is left untouched.
func RejectReferral(current ReferralStatus, reason string) (ReferralStatus, error) {
	if strings.TrimSpace(reason) == "" {
		return current, ErrReasonRequired
	}
	if current != ReferralStatusAwaitingValidation {
		return current, transitionErr(string(current), string(ReferralStatusValidationRejected))
	}
	return ReferralStatusValidationRejected, nil
}

// ContractReferral moves a pursued referral to contracted and derives the
// benefit milestone dates. Amount and contract date are both mandatory.
// The one-benefit-per-referral guard is enforced by the caller against the
// record store; this function only rules on status and inputs.
func ContractReferral(current ReferralStatus, amount float64, contractDate Date) (ReferralStatus, Milestones, error) {
	if amount <= 0 {
		return current, Milestones{}, ErrInvalidAmount
	}
	if contractDate.IsZero() || !contractDate.Valid() {
		return current, Milestones{}, ErrInvalidContractDate
	}
	if current != ReferralStatusInContact {
		return current, Milestones{}, transitionErr(string(current), string(ReferralStatusContracted))
	}
	return ReferralStatusContracted, DeriveMilestones(contractDate), nil
}

// MarkReferralLost closes a referral from any non-terminal state.
func MarkReferralLost(current ReferralStatus) (ReferralStatus, error) {
	if current.Terminal() {
		return current, transitionErr(string(current), string(ReferralStatusLost))
	}
	return ReferralStatusLost, nil
}

// MoveStage moves a referral between active CRM stages. Movement among the
// active stages is unguarded; contract_signed and lost are never reachable
// here, they are set as side effects of ContractReferral and
// MarkReferralLost, which keep the primary status in step.
func MoveStage(status ReferralStatus, to CRMStage) (CRMStage, error) {
	if !to.Valid() {
		return "", ErrInvalidStage
	}
	if to == StageContractSigned {
		return "", ErrStageViaContract
	}
	if to == StageLost {
		return "", ErrStageViaLost
	}
	if status != ReferralStatusInContact {
		return "", transitionErr(string(status), string(to))
	}
	return to, nil
}
