package cotisation

import (
	"time"

	"github.com/cotizapp/cotiz/internal/cotisation/ledger"
)

// SourceType tells what a cotisation was raised for.
type SourceType string

const (
	SourceActivity SourceType = "activity"
	SourceMonthly  SourceType = "monthly"
)

// Cotisation is one member's financial obligation, raised per activity or per
// monthly period.
type Cotisation struct {
	ID           int64        `json:"id"`
	MemberID     int64        `json:"member_id"`
	SourceType   SourceType   `json:"source_type"`
	ActivityID   *int64       `json:"activity_id,omitempty"`
	MonthlyID    *int64       `json:"monthly_id,omitempty"`
	AmountDue    float64      `json:"amount_due"`
	AmountPaid   float64      `json:"amount_paid"`
	DueDate      time.Time    `json:"due_date"`
	PaymentDate  *time.Time   `json:"payment_date,omitempty"`
	State        ledger.State `json:"state"`
	Description  *string      `json:"description,omitempty"`
	PaymentNotes *string      `json:"payment_notes,omitempty"`
	Active       bool         `json:"active"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`

	// Populated via JOIN
	MemberName string `json:"member_name,omitempty"`
	GroupName  string `json:"group_name,omitempty"`
}

// Remaining returns the unpaid balance.
func (c *Cotisation) Remaining() float64 {
	return c.LedgerItem().Remaining()
}

// DaysOverdue counts whole days past the due date for overdue items, zero
// otherwise.
func (c *Cotisation) DaysOverdue(today time.Time) int {
	if c.State != ledger.StateOverdue {
		return 0
	}
	days := int(today.Sub(c.DueDate).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// LedgerItem projects the cotisation into the engine's value type.
func (c *Cotisation) LedgerItem() *ledger.Item {
	return &ledger.Item{
		ID:          c.ID,
		AmountDue:   c.AmountDue,
		AmountPaid:  c.AmountPaid,
		DueDate:     c.DueDate,
		PaymentDate: c.PaymentDate,
		State:       c.State,
		CreatedAt:   c.CreatedAt,
	}
}

// ApplyLedger copies the engine's mutations back onto the record.
func (c *Cotisation) ApplyLedger(item *ledger.Item) {
	c.AmountPaid = item.AmountPaid
	c.PaymentDate = item.PaymentDate
	c.State = item.State
}

// Payment is one recorded payment line against a cotisation.
type Payment struct {
	ID           int64     `json:"id"`
	CotisationID int64     `json:"cotisation_id"`
	Amount       float64   `json:"amount"`
	Method       string    `json:"method"`
	Reference    string    `json:"reference"`
	PaymentDate  time.Time `json:"payment_date"`
	Notes        *string   `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// PaymentMethods are the accepted payment channels.
var PaymentMethods = map[string]bool{
	"cash":          true,
	"bank_transfer": true,
	"mobile_money":  true,
	"check":         true,
	"card":          true,
	"online":        true,
	"other":         true,
}

// OverdueSummary aggregates the outstanding late items.
type OverdueSummary struct {
	TotalOverdue    int                      `json:"total_overdue"`
	AmountOverdue   float64                  `json:"total_amount_overdue"`
	CriticalOverdue int                      `json:"critical_overdue"`
	ByGroup         map[string]*GroupOverdue `json:"by_group"`
}

// GroupOverdue is the overdue slice of one group.
type GroupOverdue struct {
	Count  int     `json:"count"`
	Amount float64 `json:"amount"`
}
