package activity

import "time"

// ActivityState is the lifecycle state of a group activity
type ActivityState string

const (
	StateDraft     ActivityState = "draft"
	StateConfirmed ActivityState = "confirmed"
	StateOngoing   ActivityState = "ongoing"
	StateCompleted ActivityState = "completed"
	StateCancelled ActivityState = "cancelled"
)

// Activity is a group event whose participation fee is raised as one
// cotisation per member on confirmation.
type Activity struct {
	ID               int64         `json:"id"`
	GroupID          int64         `json:"group_id"`
	Name             string        `json:"name"`
	Description      *string       `json:"description,omitempty"`
	CotisationAmount float64       `json:"cotisation_amount"`
	StartDate        time.Time     `json:"start_date"`
	EndDate          time.Time     `json:"end_date"`
	DueDate          time.Time     `json:"due_date"`
	State            ActivityState `json:"state"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`

	// Populated via JOIN
	GroupName string `json:"group_name,omitempty"`
}

// Stats aggregates the collection progress of one activity
type Stats struct {
	TotalMembers   int     `json:"total_members"`
	PaidMembers    int     `json:"paid_members"`
	TotalExpected  float64 `json:"total_expected"`
	TotalCollected float64 `json:"total_collected"`
	CompletionRate float64 `json:"completion_rate"`
}
