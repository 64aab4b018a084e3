package monthly

import "time"

// PeriodState is the lifecycle state of a monthly period
type PeriodState string

const (
	StateDraft  PeriodState = "draft"
	StateActive PeriodState = "active"
	StateClosed PeriodState = "closed"
)

// Period is one month of recurring group fees. Activating it raises one
// cotisation per active member, due on DueDay of the period's month.
type Period struct {
	ID        int64       `json:"id"`
	GroupID   int64       `json:"group_id"`
	Month     int         `json:"month"`
	Year      int         `json:"year"`
	Amount    float64     `json:"amount"`
	DueDay    int         `json:"due_day"`
	State     PeriodState `json:"state"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`

	// Populated via JOIN
	GroupName string `json:"group_name,omitempty"`
}

// DueDate resolves the period's due date, clamping DueDay to the length of
// the month so a due_day of 31 lands on Feb 29 rather than overflowing.
func (p Period) DueDate() time.Time {
	lastDay := time.Date(p.Year, time.Month(p.Month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
	day := p.DueDay
	if day > lastDay {
		day = lastDay
	}
	return time.Date(p.Year, time.Month(p.Month), day, 0, 0, 0, 0, time.UTC)
}

// Label returns the period as "2024-06" for notifications and descriptions.
func (p Period) Label() string {
	return time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
}

// Stats aggregates the collection progress of one period
type Stats struct {
	TotalMembers   int     `json:"total_members"`
	PaidMembers    int     `json:"paid_members"`
	TotalExpected  float64 `json:"total_expected"`
	TotalCollected float64 `json:"total_collected"`
	CompletionRate float64 `json:"completion_rate"`
}
