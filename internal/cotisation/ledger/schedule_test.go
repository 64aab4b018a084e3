package ledger

import (
	"errors"
	"testing"
	"time"
)

func TestBuildScheduleMonthly(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	schedule, err := BuildSchedule(300, 3, start, FrequencyMonthly)
	if err != nil {
		t.Fatalf("BuildSchedule: %v", err)
	}
	if len(schedule) != 3 {
		t.Fatalf("got %d installments, want 3", len(schedule))
	}

	wantDates := []time.Time{
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	for i, inst := range schedule {
		if inst.Amount != 100 {
			t.Errorf("installment %d amount = %v, want 100", i+1, inst.Amount)
		}
		if !inst.DueDate.Equal(wantDates[i]) {
			t.Errorf("installment %d due %v, want %v", i+1, inst.DueDate, wantDates[i])
		}
		if inst.Sequence != i+1 {
			t.Errorf("installment %d sequence = %d", i+1, inst.Sequence)
		}
	}
}

func TestBuildScheduleLastAbsorbsRemainder(t *testing.T) {
	start := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	schedule, err := BuildSchedule(100, 3, start, FrequencyWeekly)
	if err != nil {
		t.Fatalf("BuildSchedule: %v", err)
	}

	if schedule[0].Amount != 33.33 || schedule[1].Amount != 33.33 {
		t.Errorf("shares = %v, %v, want 33.33 each", schedule[0].Amount, schedule[1].Amount)
	}
	if schedule[2].Amount != 33.34 {
		t.Errorf("last installment = %v, want 33.34", schedule[2].Amount)
	}

	var sum float64
	for _, inst := range schedule {
		sum = roundToTwoDecimals(sum + inst.Amount)
	}
	if sum != 100 {
		t.Errorf("schedule sums to %v, want 100", sum)
	}
}

func TestBuildScheduleFrequencies(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	weekly, _ := BuildSchedule(20, 2, start, FrequencyWeekly)
	if got := weekly[1].DueDate; !got.Equal(start.AddDate(0, 0, 7)) {
		t.Errorf("weekly second due %v", got)
	}
	biweekly, _ := BuildSchedule(20, 2, start, FrequencyBiweekly)
	if got := biweekly[1].DueDate; !got.Equal(start.AddDate(0, 0, 14)) {
		t.Errorf("biweekly second due %v", got)
	}
}

func TestBuildScheduleValidation(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	if _, err := BuildSchedule(0, 3, start, FrequencyMonthly); !errors.Is(err, ErrInvalidTotal) {
		t.Errorf("zero total: err = %v", err)
	}
	if _, err := BuildSchedule(100, 0, start, FrequencyMonthly); !errors.Is(err, ErrInvalidInstallments) {
		t.Errorf("zero count: err = %v", err)
	}
	if _, err := BuildSchedule(100, 3, start, Frequency("daily")); !errors.Is(err, ErrUnknownFrequency) {
		t.Errorf("unknown frequency: err = %v", err)
	}
}

func TestPlanEndDate(t *testing.T) {
	start := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	got := PlanEndDate(start, 3, FrequencyMonthly)
	// Jan 31 -> Feb 31 normalizes to Mar 2 in 2024; AddDate semantics apply.
	want := start.AddDate(0, 1, 0).AddDate(0, 1, 0)
	if !got.Equal(want) {
		t.Errorf("PlanEndDate = %v, want %v", got, want)
	}
}
