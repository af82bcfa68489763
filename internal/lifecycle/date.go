package lifecycle

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Date is a plain calendar date. It deliberately carries no time component
// and no location: contract and milestone dates are business facts, and
// routing them through time.Time constructors shifts them across UTC
// midnight depending on the server timezone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// DateOf extracts the calendar components of t in its own location.
func DateOf(t time.Time) Date {
	year, month, day := t.Date()
	return Date{Year: year, Month: month, Day: day}
}

// ParseDate parses an ISO calendar date (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Date) IsZero() bool {
	return d == Date{}
}

// Valid reports whether the components form a real calendar date.
func (d Date) Valid() bool {
	if d.Year < 1 || d.Month < time.January || d.Month > time.December || d.Day < 1 {
		return false
	}
	t := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
	y, m, day := t.Date()
	return y == d.Year && m == d.Month && day == d.Day
}

// AddDays returns the date n days later, normalized through the calendar.
func (d Date) AddDays(n int) Date {
	return DateOf(time.Date(d.Year, d.Month, d.Day+n, 0, 0, 0, 0, time.UTC))
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid date literal %s", s)
	}
	parsed, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Dates are stored in mongo as their ISO string form.
func (d Date) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(d.String())
}

func (d *Date) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	var s string
	if err := bson.UnmarshalValue(t, data, &s); err != nil {
		return fmt.Errorf("failed to decode date: %w", err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Milestones are the benefit payment dates derived from a contract date.
type Milestones struct {
	FirstClientPayment    Date `json:"first_client_payment" bson:"first_client_payment"`
	InvoiceEligibleFrom   Date `json:"invoice_eligible_from" bson:"invoice_eligible_from"`
	ExpectedExpertPayment Date `json:"expected_expert_payment" bson:"expected_expert_payment"`
}

// DeriveMilestones computes the three milestone dates for a contract signed
// on the given date: the client's first payment falls due on the 5th of the
// following month, the expert may invoice from the 6th, and the expert
// payment is expected on the 15th. A December contract rolls into January
// of the next year. The function is pure; calling it twice with the same
// input yields the same output.
func DeriveMilestones(contract Date) Milestones {
	year := contract.Year
	month := contract.Month + 1
	if month > time.December {
		month = time.January
		year++
	}

	return Milestones{
		FirstClientPayment:    Date{Year: year, Month: month, Day: 5},
		InvoiceEligibleFrom:   Date{Year: year, Month: month, Day: 6},
		ExpectedExpertPayment: Date{Year: year, Month: month, Day: 15},
	}
}
