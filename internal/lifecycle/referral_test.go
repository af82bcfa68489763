package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApproveReferral(t *testing.T) {
	next, err := ApproveReferral(ReferralStatusAwaitingValidation)
	require.NoError(t, err)
	assert.Equal(t, ReferralStatusInContact, next)

	for _, current := range []ReferralStatus{
		ReferralStatusInContact,
		ReferralStatusContracted,
		ReferralStatusValidationRejected,
		ReferralStatusLost,
	} {
		_, err := ApproveReferral(current)
		assert.ErrorIs(t, err, ErrInvalidTransition, "from %s", current)
	}
}

func TestRejectReferral(t *testing.T) {
	next, err := RejectReferral(ReferralStatusAwaitingValidation, "duplicate submission")
	require.NoError(t, err)
	assert.Equal(t, ReferralStatusValidationRejected, next)

	_, err = RejectReferral(ReferralStatusAwaitingValidation, "")
	assert.ErrorIs(t, err, ErrReasonRequired)

	_, err = RejectReferral(ReferralStatusAwaitingValidation, "   ")
	assert.ErrorIs(t, err, ErrReasonRequired)

	_, err = RejectReferral(ReferralStatusInContact, "too late")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestContractReferral(t *testing.T) {
	contractDate := NewDate(2024, time.June, 15)

	next, milestones, err := ContractReferral(ReferralStatusInContact, 1000.00, contractDate)
	require.NoError(t, err)
	assert.Equal(t, ReferralStatusContracted, next)
	assert.Equal(t, NewDate(2024, time.July, 5), milestones.FirstClientPayment)
	assert.Equal(t, NewDate(2024, time.July, 6), milestones.InvoiceEligibleFrom)
	assert.Equal(t, NewDate(2024, time.July, 15), milestones.ExpectedExpertPayment)

	_, _, err = ContractReferral(ReferralStatusInContact, 0, contractDate)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, _, err = ContractReferral(ReferralStatusInContact, -50, contractDate)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, _, err = ContractReferral(ReferralStatusInContact, 1000, Date{})
	assert.ErrorIs(t, err, ErrInvalidContractDate)

	_, _, err = ContractReferral(ReferralStatusAwaitingValidation, 1000, contractDate)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, _, err = ContractReferral(ReferralStatusContracted, 1000, contractDate)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestMarkReferralLost(t *testing.T) {
	for _, current := range []ReferralStatus{
		ReferralStatusAwaitingValidation,
		ReferralStatusInContact,
	} {
		next, err := MarkReferralLost(current)
		require.NoError(t, err, "from %s", current)
		assert.Equal(t, ReferralStatusLost, next)
	}

	for _, current := range []ReferralStatus{
		ReferralStatusContracted,
		ReferralStatusValidationRejected,
		ReferralStatusLost,
	} {
		_, err := MarkReferralLost(current)
		assert.ErrorIs(t, err, ErrInvalidTransition, "from %s", current)
	}
}

func TestMoveStage(t *testing.T) {
	for _, stage := range ActiveStages {
		got, err := MoveStage(ReferralStatusInContact, stage)
		require.NoError(t, err, "to %s", stage)
		assert.Equal(t, stage, got)
	}

	_, err := MoveStage(ReferralStatusInContact, StageContractSigned)
	assert.ErrorIs(t, err, ErrStageViaContract)

	_, err = MoveStage(ReferralStatusInContact, "warming_up")
	assert.ErrorIs(t, err, ErrInvalidStage)

	_, err = MoveStage(ReferralStatusAwaitingValidation, StageNegotiation)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// Closing the deal on the board goes through the lost transition so
	// the primary status stays in step with the stage.
	_, err = MoveStage(ReferralStatusInContact, StageLost)
	assert.ErrorIs(t, err, ErrStageViaLost)
}

func TestReferralExpired(t *testing.T) {
	createdAt := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)

	assert.False(t, ReferralExpired(ReferralStatusAwaitingValidation, createdAt, createdAt.Add(89*24*time.Hour)))
	assert.False(t, ReferralExpired(ReferralStatusAwaitingValidation, createdAt, createdAt.Add(ReferralExpiry)))
	assert.True(t, ReferralExpired(ReferralStatusAwaitingValidation, createdAt, createdAt.Add(ReferralExpiry+time.Second)))

	// Contracted referrals never expire, regardless of age.
	assert.False(t, ReferralExpired(ReferralStatusContracted, createdAt, createdAt.Add(1000*24*time.Hour)))

	assert.True(t, ReferralExpired(ReferralStatusInContact, createdAt, createdAt.Add(91*24*time.Hour)))
}

func TestReferralStatusTerminal(t *testing.T) {
	assert.True(t, ReferralStatusContracted.Terminal())
	assert.True(t, ReferralStatusValidationRejected.Terminal())
	assert.True(t, ReferralStatusLost.Terminal())
	assert.False(t, ReferralStatusAwaitingValidation.Terminal())
	assert.False(t, ReferralStatusInContact.Terminal())
}
