package ledger

import (
	"errors"
	"math"
	"time"
)

// State is the lifecycle state of a due item.
type State string

const (
	StatePending   State = "pending"
	StatePartial   State = "partial"
	StatePaid      State = "paid"
	StateOverdue   State = "overdue"
	StateCancelled State = "cancelled"
)

// OverpayTolerance is how far a payment may exceed the remaining balance
// before it is refused (10%). It applies only when the caller opts in;
// the stored amount_paid never exceeds amount_due.
const OverpayTolerance = 1.10

// Item is the minimal due-item view the engine operates on. It carries no
// persistence concerns; callers load it, mutate it through the engine, and
// persist the result themselves.
type Item struct {
	ID          int64
	AmountDue   float64
	AmountPaid  float64
	DueDate     time.Time
	PaymentDate *time.Time
	State       State
	CreatedAt   time.Time
}

// Remaining returns the unpaid balance, never negative.
func (i *Item) Remaining() float64 {
	r := roundToTwoDecimals(i.AmountDue - i.AmountPaid)
	if r < 0 {
		return 0
	}
	return r
}

// Payable reports whether the item can still receive a payment.
func (i *Item) Payable() bool {
	return i.State != StatePaid && i.State != StateCancelled
}

var (
	ErrInvalidAmount    = errors.New("payment amount must be positive")
	ErrExceedsRemaining = errors.New("payment exceeds remaining balance")
	ErrItemNotPayable   = errors.New("item is already paid or cancelled")
)

// PaymentOptions tunes a single payment recording.
type PaymentOptions struct {
	// AllowOverpay accepts amounts up to OverpayTolerance over the remaining
	// balance. The stored amount is still capped at the amount due.
	AllowOverpay bool
	// FullSettlement forces amount_paid to exactly amount_due regardless of
	// the nominal amount entered (the "mark as full payment" escape hatch).
	FullSettlement bool
}

// DeriveState computes the lifecycle state from paid/owed amounts and the due
// date. Cancellation is an external decision and is never derived here. The
// rules, in order:
//
//  1. nothing paid: overdue when the due date is strictly past, else pending
//  2. paid in full (or more): paid
//  3. otherwise: partial, even when the due date has passed
func DeriveState(amountDue, amountPaid float64, dueDate, today time.Time) State {
	switch {
	case amountPaid <= 0:
		if dateBefore(dueDate, today) {
			return StateOverdue
		}
		return StatePending
	case amountPaid >= amountDue:
		return StatePaid
	default:
		return StatePartial
	}
}

// Recompute re-derives the item's state in place. Entering paid stamps the
// payment date once; later recomputations leave it untouched. Cancelled items
// are left alone. Calling Recompute repeatedly with the same inputs is a no-op
// after the first call.
func Recompute(item *Item, today time.Time) {
	if item.State == StateCancelled {
		return
	}
	item.State = DeriveState(item.AmountDue, item.AmountPaid, item.DueDate, today)
	if item.State == StatePaid && item.PaymentDate == nil {
		d := today
		item.PaymentDate = &d
	}
}

// RecordPayment applies a single payment to the item and re-derives its state.
// The mutation is all-or-nothing: on error the item is unchanged.
func RecordPayment(item *Item, amount float64, opts PaymentOptions, today time.Time) error {
	if !item.Payable() {
		return ErrItemNotPayable
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}

	if opts.FullSettlement {
		item.AmountPaid = item.AmountDue
		Recompute(item, today)
		return nil
	}

	remaining := item.Remaining()
	if amount > remaining {
		if !opts.AllowOverpay || amount > roundToTwoDecimals(remaining*OverpayTolerance) {
			return ErrExceedsRemaining
		}
		// Tolerated overpayment collapses to exact settlement.
		amount = remaining
	}

	item.AmountPaid = roundToTwoDecimals(item.AmountPaid + amount)
	Recompute(item, today)
	return nil
}

// Sweep transitions stale pending items to overdue and returns the ones that
// changed. Partially paid items are deliberately skipped: partial takes
// precedence over lateness. Running the sweep twice in a row changes nothing
// the second time.
func Sweep(items []*Item, now time.Time) []*Item {
	var changed []*Item
	for _, item := range items {
		if item.State != StatePending {
			continue
		}
		if dateBefore(item.DueDate, now) {
			item.State = StateOverdue
			changed = append(changed, item)
		}
	}
	return changed
}

// dateBefore compares calendar dates, ignoring the time of day. The comparison
// is strict: an item due today is not yet late.
func dateBefore(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	if ay != by {
		return ay < by
	}
	if am != bm {
		return am < bm
	}
	return ad < bd
}

// roundToTwoDecimals rounds a monetary value to cents.
func roundToTwoDecimals(value float64) float64 {
	return math.Round(value*100) / 100
}
