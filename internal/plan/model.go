package plan

import (
	"time"

	"github.com/cotizapp/cotiz/internal/cotisation/ledger"
)

// PlanState is the lifecycle state of a payment plan
type PlanState string

const (
	StateDraft      PlanState = "draft"
	StateConfirmed  PlanState = "confirmed"
	StateInProgress PlanState = "in_progress"
	StateCompleted  PlanState = "completed"
	StateCancelled  PlanState = "cancelled"
)

// Plan spreads a member's debt over scheduled installments.
type Plan struct {
	ID                   int64      `json:"id"`
	MemberID             int64      `json:"member_id"`
	Reference            string     `json:"reference"`
	TotalAmount          float64    `json:"total_amount"`
	NumberOfInstallments int        `json:"number_of_installments"`
	Frequency            string     `json:"frequency"`
	StartDate            time.Time  `json:"start_date"`
	EndDate              *time.Time `json:"end_date,omitempty"`
	State                PlanState  `json:"state"`
	AutoReminder         bool       `json:"auto_reminder"`
	ReminderDays         int        `json:"reminder_days"`
	Notes                *string    `json:"notes,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`

	// Populated via JOIN
	MemberName string `json:"member_name,omitempty"`
}

// Installment is one scheduled slice of a plan. It carries the same ledger
// states as a cotisation, minus cancellation handled at the plan level.
type Installment struct {
	ID          int64        `json:"id"`
	PlanID      int64        `json:"plan_id"`
	Sequence    int          `json:"sequence"`
	DueDate     time.Time    `json:"due_date"`
	Amount      float64      `json:"amount"`
	AmountPaid  float64      `json:"amount_paid"`
	PaymentDate *time.Time   `json:"payment_date,omitempty"`
	State       ledger.State `json:"state"`
	Notes       *string      `json:"notes,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// LedgerItem projects the installment onto the shared ledger engine.
func (i *Installment) LedgerItem() *ledger.Item {
	return &ledger.Item{
		ID:          i.ID,
		AmountDue:   i.Amount,
		AmountPaid:  i.AmountPaid,
		DueDate:     i.DueDate,
		PaymentDate: i.PaymentDate,
		State:       i.State,
		CreatedAt:   i.CreatedAt,
	}
}

// ApplyLedger copies the engine's result back onto the installment.
func (i *Installment) ApplyLedger(item *ledger.Item) {
	i.AmountPaid = item.AmountPaid
	i.PaymentDate = item.PaymentDate
	i.State = item.State
}

// Remaining is the unpaid balance of the installment.
func (i *Installment) Remaining() float64 {
	return i.LedgerItem().Remaining()
}

// Stats aggregates the progress of one plan
type Stats struct {
	TotalInstallments int     `json:"total_installments"`
	PaidInstallments  int     `json:"paid_installments"`
	TotalAmount       float64 `json:"total_amount"`
	TotalPaid         float64 `json:"total_paid"`
	CompletionRate    float64 `json:"completion_rate"`
}
