package lifecycle

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveMilestones(t *testing.T) {
	tests := []struct {
		name             string
		contract         Date
		wantClient       Date
		wantInvoice      Date
		wantExpertPayout Date
	}{
		{
			name:             "mid-month contract",
			contract:         NewDate(2024, time.March, 20),
			wantClient:       NewDate(2024, time.April, 5),
			wantInvoice:      NewDate(2024, time.April, 6),
			wantExpertPayout: NewDate(2024, time.April, 15),
		},
		{
			name:             "december rolls into next year",
			contract:         NewDate(2024, time.December, 10),
			wantClient:       NewDate(2025, time.January, 5),
			wantInvoice:      NewDate(2025, time.January, 6),
			wantExpertPayout: NewDate(2025, time.January, 15),
		},
		{
			name:             "first of month",
			contract:         NewDate(2024, time.June, 1),
			wantClient:       NewDate(2024, time.July, 5),
			wantInvoice:      NewDate(2024, time.July, 6),
			wantExpertPayout: NewDate(2024, time.July, 15),
		},
		{
			name:             "last of month",
			contract:         NewDate(2024, time.January, 31),
			wantClient:       NewDate(2024, time.February, 5),
			wantInvoice:      NewDate(2024, time.February, 6),
			wantExpertPayout: NewDate(2024, time.February, 15),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := DeriveMilestones(tt.contract)
			assert.Equal(t, tt.wantClient, m.FirstClientPayment)
			assert.Equal(t, tt.wantInvoice, m.InvoiceEligibleFrom)
			assert.Equal(t, tt.wantExpertPayout, m.ExpectedExpertPayment)
		})
	}
}

func TestDeriveMilestonesDayOfMonthIgnored(t *testing.T) {
	// Only the contract month matters; any day yields the same milestones.
	a := DeriveMilestones(NewDate(2024, time.March, 1))
	b := DeriveMilestones(NewDate(2024, time.March, 31))
	assert.Equal(t, a, b)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-03-20")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2024, time.March, 20), d)
	assert.Equal(t, "2024-03-20", d.String())

	_, err = ParseDate("20/03/2024")
	assert.Error(t, err)

	_, err = ParseDate("")
	assert.Error(t, err)
}

func TestDateValid(t *testing.T) {
	assert.True(t, NewDate(2024, time.February, 29).Valid()) // leap year
	assert.False(t, NewDate(2023, time.February, 29).Valid())
	assert.False(t, NewDate(2024, time.April, 31).Valid())
	assert.False(t, Date{}.Valid())
}

func TestDateBeforeAndAddDays(t *testing.T) {
	d := NewDate(2024, time.December, 30)
	assert.Equal(t, NewDate(2025, time.January, 2), d.AddDays(3))

	assert.True(t, NewDate(2024, time.May, 1).Before(NewDate(2024, time.May, 2)))
	assert.False(t, NewDate(2024, time.May, 2).Before(NewDate(2024, time.May, 2)))
}

func TestDateJSONRoundTrip(t *testing.T) {
	d := NewDate(2024, time.July, 5)

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2024-07-05"`, string(data))

	var decoded Date
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, d, decoded)
}
