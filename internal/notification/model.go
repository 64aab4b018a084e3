package notification

import "time"

// Notification represents an in-app notification
type Notification struct {
	ID                int64     `json:"id"`
	RecipientID       int64     `json:"recipient_id"`
	Message           string    `json:"message"`
	IsRead            bool      `json:"is_read"`
	RelatedEntityType *string   `json:"related_entity_type,omitempty"` // e.g., "COTISATION", "PROOF", "PLAN"
	RelatedEntityID   *int64    `json:"related_entity_id,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// ReminderTier selects how insistent an overdue reminder is
type ReminderTier string

const (
	TierFirst  ReminderTier = "first"
	TierSecond ReminderTier = "second"
	TierFinal  ReminderTier = "final"
	TierCustom ReminderTier = "custom"
)

// tierWindow is the days-overdue range a tier targets. Custom tiers carry
// their own window in the request.
type tierWindow struct {
	MinDays int
	MaxDays int // 0 means no upper bound
}

var tierWindows = map[ReminderTier]tierWindow{
	TierFirst:  {MinDays: 1, MaxDays: 7},
	TierSecond: {MinDays: 8, MaxDays: 14},
	TierFinal:  {MinDays: 15, MaxDays: 0},
}

func (w tierWindow) matches(days int) bool {
	if days < w.MinDays {
		return false
	}
	if w.MaxDays > 0 && days > w.MaxDays {
		return false
	}
	return true
}
