package ledger

import (
	"errors"
	"time"
)

// Frequency is the cadence between two installments of a payment plan.
type Frequency string

const (
	FrequencyWeekly   Frequency = "weekly"
	FrequencyBiweekly Frequency = "biweekly"
	FrequencyMonthly  Frequency = "monthly"
)

var (
	ErrInvalidInstallments = errors.New("number of installments must be positive")
	ErrInvalidTotal        = errors.New("total amount must be positive")
	ErrUnknownFrequency    = errors.New("unknown frequency")
)

// ScheduledInstallment is one generated line of a payment plan schedule.
type ScheduledInstallment struct {
	Sequence int       `json:"sequence"`
	DueDate  time.Time `json:"due_date"`
	Amount   float64   `json:"amount"`
}

// BuildSchedule generates count installments of total/count each, with due
// dates advancing from start by the chosen frequency. Amounts are rounded to
// cents; the last installment absorbs the rounding remainder so the schedule
// always sums to the total.
func BuildSchedule(total float64, count int, start time.Time, freq Frequency) ([]ScheduledInstallment, error) {
	if total <= 0 {
		return nil, ErrInvalidTotal
	}
	if count <= 0 {
		return nil, ErrInvalidInstallments
	}
	switch freq {
	case FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly:
	default:
		return nil, ErrUnknownFrequency
	}

	share := roundToTwoDecimals(total / float64(count))

	schedule := make([]ScheduledInstallment, count)
	due := start
	for i := 0; i < count; i++ {
		amount := share
		if i == count-1 {
			amount = roundToTwoDecimals(total - share*float64(count-1))
		}
		schedule[i] = ScheduledInstallment{
			Sequence: i + 1,
			DueDate:  due,
			Amount:   amount,
		}
		due = advance(due, freq)
	}
	return schedule, nil
}

// PlanEndDate returns the due date of the last installment of a plan.
func PlanEndDate(start time.Time, count int, freq Frequency) time.Time {
	due := start
	for i := 1; i < count; i++ {
		due = advance(due, freq)
	}
	return due
}

func advance(from time.Time, freq Frequency) time.Time {
	switch freq {
	case FrequencyWeekly:
		return from.AddDate(0, 0, 7)
	case FrequencyBiweekly:
		return from.AddDate(0, 0, 14)
	default:
		return from.AddDate(0, 1, 0)
	}
}
