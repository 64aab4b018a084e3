package member

import "time"

// Member represents a group member liable for cotisations
type Member struct {
	ID        int64     `json:"id"`
	GroupID   int64     `json:"group_id"`
	Name      string    `json:"name"`
	Email     *string   `json:"email,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`

	// Populated via JOIN
	GroupName string `json:"group_name,omitempty"`
}

// Group is a collective whose members pay dues
type Group struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
