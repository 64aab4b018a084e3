package proof

import "time"

// ProofState is the review state of a payment proof
type ProofState string

const (
	StateSubmitted   ProofState = "submitted"
	StateUnderReview ProofState = "under_review"
	StateValidated   ProofState = "validated"
	StateRejected    ProofState = "rejected"
)

// RejectionReason is the manager's reason for refusing a proof
type RejectionReason string

const (
	ReasonAmountMismatch  RejectionReason = "amount_mismatch"
	ReasonUnreadable      RejectionReason = "unreadable"
	ReasonWrongCotisation RejectionReason = "wrong_cotisation"
	ReasonDuplicate       RejectionReason = "duplicate"
	ReasonOther           RejectionReason = "other"
)

// RejectionReasons is the set of accepted rejection reasons
var RejectionReasons = map[RejectionReason]bool{
	ReasonAmountMismatch:  true,
	ReasonUnreadable:      true,
	ReasonWrongCotisation: true,
	ReasonDuplicate:       true,
	ReasonOther:           true,
}

// Proof is a member-submitted payment claim awaiting manager review.
// Validation applies the claimed amount to the cotisation exactly once.
type Proof struct {
	ID              int64           `json:"id"`
	CotisationID    int64           `json:"cotisation_id"`
	MemberID        int64           `json:"member_id"`
	Amount          float64         `json:"amount"`
	Method          string          `json:"method"`
	Reference       *string         `json:"reference,omitempty"`
	PaymentDate     time.Time       `json:"payment_date"`
	Filename        *string         `json:"filename,omitempty"`
	State           ProofState      `json:"state"`
	SubmittedAt     time.Time       `json:"submitted_at"`
	ReviewAt        *time.Time      `json:"review_at,omitempty"`
	DecidedAt       *time.Time      `json:"decided_at,omitempty"`
	ValidatorID     *int64          `json:"validator_id,omitempty"`
	RejectionReason RejectionReason `json:"rejection_reason,omitempty"`
	Notes           *string         `json:"notes,omitempty"`
	ValidationNotes *string         `json:"validation_notes,omitempty"`
	Active          bool            `json:"active"`

	// Populated via JOIN
	MemberName string `json:"member_name,omitempty"`
}

// Decided reports whether the proof already received a final decision.
func (p Proof) Decided() bool {
	return p.State == StateValidated || p.State == StateRejected
}

// PendingDays returns how long the proof has waited without a decision.
func (p Proof) PendingDays(now time.Time) int {
	if p.Decided() {
		return 0
	}
	return int(now.Sub(p.SubmittedAt).Hours() / 24)
}
