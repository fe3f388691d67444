package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

// Proration is the outcome of pricing a membership for the current month.
type Proration struct {
	FullPrice             decimal.Decimal
	PayableThisMonth      decimal.Decimal
	Prorated              bool
	TotalClassDaysOfMonth int
	RemainingClasses      int
}

// ProrateMembership compares the weekly sessions in the class's start month
// with the sessions still ahead of now, both counted by calendar day in the
// class's location. Only a class whose end is still after now is prorated;
// otherwise the full price is charged.
func ProrateMembership(fullPrice decimal.Decimal, start, end, now time.Time) (Proration, error) {
	result := Proration{FullPrice: fullPrice, PayableThisMonth: fullPrice}

	loc := start.Location()
	first := dateOf(start, loc)
	last := dateOf(end, loc)
	today := dateOf(now, loc)

	if !end.After(now) {
		return result, nil
	}

	result.TotalClassDaysOfMonth = weekdaysInMonth(first)
	for session := first; !session.After(last); session = session.AddDate(0, 0, 7) {
		if !session.Before(today) {
			result.RemainingClasses++
		}
	}

	result.Prorated = result.TotalClassDaysOfMonth != result.RemainingClasses
	if !result.Prorated || result.TotalClassDaysOfMonth == 0 {
		return result, nil
	}

	result.PayableThisMonth = fullPrice.
		Div(decimal.NewFromInt(int64(result.TotalClassDaysOfMonth))).
		Mul(decimal.NewFromInt(int64(result.RemainingClasses))).
		Round(2)
	if !result.PayableThisMonth.IsPositive() {
		return result, ErrNoRemainingSessions
	}
	return result, nil
}

// weekdaysInMonth counts the days in day's month falling on day's weekday.
func weekdaysInMonth(day time.Time) int {
	count := 0
	month := day.Month()
	for d := time.Date(day.Year(), month, 1, 0, 0, 0, 0, day.Location()); d.Month() == month; d = d.AddDate(0, 0, 1) {
		if d.Weekday() == day.Weekday() {
			count++
		}
	}
	return count
}

func dateOf(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
