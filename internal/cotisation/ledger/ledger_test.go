package ledger

import (
	"errors"
	"testing"
	"time"
)

var (
	today     = time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	yesterday = today.AddDate(0, 0, -1)
	tomorrow  = today.AddDate(0, 0, 1)
)

func TestDeriveState(t *testing.T) {
	tests := []struct {
		name    string
		due     float64
		paid    float64
		dueDate time.Time
		want    State
	}{
		{"unpaid future due date", 100, 0, tomorrow, StatePending},
		{"unpaid due today stays pending", 100, 0, today, StatePending},
		{"unpaid past due date", 100, 0, yesterday, StateOverdue},
		{"partially paid", 100, 40, tomorrow, StatePartial},
		{"partially paid past due date stays partial", 100, 40, yesterday, StatePartial},
		{"fully paid", 100, 100, tomorrow, StatePaid},
		{"overpaid", 100, 120, yesterday, StatePaid},
		{"negative paid treated as unpaid", 100, -5, yesterday, StateOverdue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveState(tt.due, tt.paid, tt.dueDate, today)
			if got != tt.want {
				t.Errorf("DeriveState(%v, %v) = %s, want %s", tt.due, tt.paid, got, tt.want)
			}
		})
	}
}

func TestRecomputeStampsPaymentDateOnce(t *testing.T) {
	item := &Item{ID: 1, AmountDue: 100, AmountPaid: 100, DueDate: yesterday}

	Recompute(item, today)
	if item.State != StatePaid {
		t.Fatalf("state = %s, want paid", item.State)
	}
	if item.PaymentDate == nil || !item.PaymentDate.Equal(today) {
		t.Fatalf("payment date not stamped with today")
	}

	// A later recomputation must not move the stamp.
	later := today.AddDate(0, 0, 5)
	Recompute(item, later)
	if !item.PaymentDate.Equal(today) {
		t.Errorf("payment date moved on recomputation: %v", item.PaymentDate)
	}
}

func TestRecomputeLeavesCancelledAlone(t *testing.T) {
	item := &Item{ID: 1, AmountDue: 100, AmountPaid: 0, DueDate: yesterday, State: StateCancelled}
	Recompute(item, today)
	if item.State != StateCancelled {
		t.Errorf("state = %s, want cancelled", item.State)
	}
}

func TestRecordPaymentPartialThenFull(t *testing.T) {
	item := &Item{ID: 1, AmountDue: 100, AmountPaid: 0, DueDate: yesterday}
	Recompute(item, today)
	if item.State != StateOverdue {
		t.Fatalf("initial state = %s, want overdue", item.State)
	}

	if err := RecordPayment(item, 40, PaymentOptions{}, today); err != nil {
		t.Fatalf("first payment: %v", err)
	}
	if item.AmountPaid != 40 || item.State != StatePartial {
		t.Fatalf("after 40: paid=%v state=%s, want 40/partial", item.AmountPaid, item.State)
	}

	if err := RecordPayment(item, 60, PaymentOptions{}, today); err != nil {
		t.Fatalf("second payment: %v", err)
	}
	if item.AmountPaid != 100 || item.State != StatePaid {
		t.Fatalf("after 60: paid=%v state=%s, want 100/paid", item.AmountPaid, item.State)
	}
	if item.PaymentDate == nil {
		t.Error("payment date not stamped on settlement")
	}
}

func TestRecordPaymentExactRemainingSettles(t *testing.T) {
	item := &Item{ID: 1, AmountDue: 75.5, AmountPaid: 25.25, DueDate: tomorrow, State: StatePartial}
	if err := RecordPayment(item, item.Remaining(), PaymentOptions{}, today); err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}
	if item.State != StatePaid {
		t.Errorf("state = %s, want paid", item.State)
	}
}

func TestRecordPaymentValidation(t *testing.T) {
	base := Item{ID: 1, AmountDue: 100, AmountPaid: 30, DueDate: tomorrow, State: StatePartial}

	t.Run("rejects non-positive amount", func(t *testing.T) {
		item := base
		if err := RecordPayment(&item, 0, PaymentOptions{}, today); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("err = %v, want ErrInvalidAmount", err)
		}
		if item.AmountPaid != 30 {
			t.Errorf("item mutated on failed payment")
		}
	})

	t.Run("rejects amount above remaining", func(t *testing.T) {
		item := base
		if err := RecordPayment(&item, 71, PaymentOptions{}, today); !errors.Is(err, ErrExceedsRemaining) {
			t.Errorf("err = %v, want ErrExceedsRemaining", err)
		}
	})

	t.Run("tolerates 10 percent overpay when allowed", func(t *testing.T) {
		item := base
		if err := RecordPayment(&item, 77, PaymentOptions{AllowOverpay: true}, today); err != nil {
			t.Fatalf("RecordPayment: %v", err)
		}
		// Collapses to exact settlement, never stored above amount due.
		if item.AmountPaid != 100 || item.State != StatePaid {
			t.Errorf("paid=%v state=%s, want 100/paid", item.AmountPaid, item.State)
		}
	})

	t.Run("rejects overpay beyond tolerance even when allowed", func(t *testing.T) {
		item := base
		if err := RecordPayment(&item, 78, PaymentOptions{AllowOverpay: true}, today); !errors.Is(err, ErrExceedsRemaining) {
			t.Errorf("err = %v, want ErrExceedsRemaining", err)
		}
	})

	t.Run("rejects paid item", func(t *testing.T) {
		item := Item{ID: 1, AmountDue: 100, AmountPaid: 100, DueDate: tomorrow, State: StatePaid}
		if err := RecordPayment(&item, 10, PaymentOptions{}, today); !errors.Is(err, ErrItemNotPayable) {
			t.Errorf("err = %v, want ErrItemNotPayable", err)
		}
	})

	t.Run("rejects cancelled item", func(t *testing.T) {
		item := Item{ID: 1, AmountDue: 100, AmountPaid: 0, DueDate: tomorrow, State: StateCancelled}
		if err := RecordPayment(&item, 10, PaymentOptions{}, today); !errors.Is(err, ErrItemNotPayable) {
			t.Errorf("err = %v, want ErrItemNotPayable", err)
		}
	})
}

func TestRecordPaymentFullSettlementOverride(t *testing.T) {
	item := &Item{ID: 1, AmountDue: 100, AmountPaid: 30, DueDate: yesterday, State: StatePartial}
	// Nominal amount below the remaining balance; the override still settles.
	if err := RecordPayment(item, 50, PaymentOptions{FullSettlement: true}, today); err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}
	if item.AmountPaid != 100 || item.State != StatePaid {
		t.Errorf("paid=%v state=%s, want 100/paid", item.AmountPaid, item.State)
	}
}

func TestRecordPaymentMonotonic(t *testing.T) {
	item := &Item{ID: 1, AmountDue: 200, AmountPaid: 0, DueDate: tomorrow, State: StatePending}
	prev := 0.0
	for _, amount := range []float64{12.5, 0.01, 87.49, 100} {
		if err := RecordPayment(item, amount, PaymentOptions{}, today); err != nil {
			t.Fatalf("RecordPayment(%v): %v", amount, err)
		}
		if item.AmountPaid < prev {
			t.Fatalf("amount paid decreased: %v -> %v", prev, item.AmountPaid)
		}
		prev = item.AmountPaid
	}
	if item.State != StatePaid {
		t.Errorf("final state = %s, want paid", item.State)
	}
}

func TestSweep(t *testing.T) {
	items := []*Item{
		{ID: 1, AmountDue: 100, DueDate: yesterday, State: StatePending},
		{ID: 2, AmountDue: 100, DueDate: today, State: StatePending},
		{ID: 3, AmountDue: 100, AmountPaid: 20, DueDate: yesterday, State: StatePartial},
		{ID: 4, AmountDue: 100, DueDate: yesterday, State: StateCancelled},
		{ID: 5, AmountDue: 100, AmountPaid: 100, DueDate: yesterday, State: StatePaid},
	}

	changed := Sweep(items, today)
	if len(changed) != 1 || changed[0].ID != 1 {
		t.Fatalf("changed = %v, want only item 1", ids(changed))
	}
	if items[0].State != StateOverdue {
		t.Errorf("item 1 state = %s, want overdue", items[0].State)
	}
	// Due today is not late (strict comparison); partial is never swept.
	if items[1].State != StatePending {
		t.Errorf("item 2 state = %s, want pending", items[1].State)
	}
	if items[2].State != StatePartial {
		t.Errorf("item 3 state = %s, want partial", items[2].State)
	}

	// Second run is a no-op.
	if again := Sweep(items, today); len(again) != 0 {
		t.Errorf("second sweep changed %v, want none", ids(again))
	}
}

func ids(items []*Item) []int64 {
	out := make([]int64, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}
