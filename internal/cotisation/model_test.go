package cotisation

import (
	"testing"
	"time"

	"github.com/cotizapp/cotiz/internal/cotisation/ledger"
)

func TestLedgerProjectionRoundTrip(t *testing.T) {
	due := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	c := &Cotisation{
		ID:        7,
		AmountDue: 100,
		DueDate:   due,
		State:     ledger.StatePending,
	}

	item := c.LedgerItem()
	today := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	if err := ledger.RecordPayment(item, 40, ledger.PaymentOptions{}, today); err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}
	c.ApplyLedger(item)

	if c.AmountPaid != 40 {
		t.Errorf("AmountPaid = %v, want 40", c.AmountPaid)
	}
	if c.State != ledger.StatePartial {
		t.Errorf("State = %s, want partial", c.State)
	}
	if c.PaymentDate != nil {
		t.Errorf("PaymentDate = %v, want nil while partial", c.PaymentDate)
	}
	if c.Remaining() != 60 {
		t.Errorf("Remaining() = %v, want 60", c.Remaining())
	}

	// Settling the balance flips the item to paid and stamps the date once.
	item = c.LedgerItem()
	if err := ledger.RecordPayment(item, 60, ledger.PaymentOptions{}, today); err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}
	c.ApplyLedger(item)

	if c.State != ledger.StatePaid {
		t.Errorf("State = %s, want paid", c.State)
	}
	if c.PaymentDate == nil {
		t.Error("PaymentDate should be stamped on entering paid")
	} else if !c.PaymentDate.Equal(today) {
		t.Errorf("PaymentDate = %v, want %v", c.PaymentDate, today)
	}
	if c.Remaining() != 0 {
		t.Errorf("Remaining() = %v, want 0", c.Remaining())
	}
}

func TestDaysOverdue(t *testing.T) {
	due := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	today := time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC)

	overdue := &Cotisation{DueDate: due, State: ledger.StateOverdue}
	if got := overdue.DaysOverdue(today); got != 10 {
		t.Errorf("DaysOverdue() = %d, want 10", got)
	}

	pending := &Cotisation{DueDate: due, State: ledger.StatePending}
	if got := pending.DaysOverdue(today); got != 0 {
		t.Errorf("DaysOverdue() on pending item = %d, want 0", got)
	}
}
