package proof

import (
	"errors"
	"time"

	"github.com/cotizapp/cotiz/internal/cotisation"
)

const dateLayout = "2006-01-02"

type SubmitProofRequest struct {
	CotisationID int64   `json:"cotisation_id" validate:"required"`
	Amount       float64 `json:"amount" validate:"required,gt=0"`
	Method       string  `json:"method" validate:"required"`
	Reference    *string `json:"reference,omitempty"`
	PaymentDate  string  `json:"payment_date" validate:"required"` // YYYY-MM-DD
	Filename     *string `json:"filename,omitempty"`
	Notes        *string `json:"notes,omitempty"`
}

func (r SubmitProofRequest) Validate() error {
	if r.CotisationID <= 0 {
		return errors.New("cotisation_id is required")
	}
	if r.Amount <= 0 {
		return errors.New("amount must be positive")
	}
	if r.Method == "" {
		return errors.New("method is required")
	}
	// The method ends up in RecordPayment at validation time; an unknown one
	// must bounce here, not after the manager accepts the proof.
	if !cotisation.PaymentMethods[r.Method] {
		return errors.New("unknown payment method")
	}
	if _, err := time.Parse(dateLayout, r.PaymentDate); err != nil {
		return errors.New("payment_date must be in YYYY-MM-DD format")
	}
	return nil
}

type ValidateProofRequest struct {
	Notes *string `json:"notes,omitempty"`
}

type RejectProofRequest struct {
	Reason string  `json:"reason" validate:"required"`
	Notes  *string `json:"notes,omitempty"`
}

type ProofResponse struct {
	ID              int64   `json:"id"`
	CotisationID    int64   `json:"cotisation_id"`
	MemberID        int64   `json:"member_id"`
	MemberName      string  `json:"member_name,omitempty"`
	Amount          float64 `json:"amount"`
	Method          string  `json:"method"`
	Reference       *string `json:"reference,omitempty"`
	PaymentDate     string  `json:"payment_date"`
	Filename        *string `json:"filename,omitempty"`
	State           string  `json:"state"`
	SubmittedAt     string  `json:"submitted_at"`
	DecidedAt       *string `json:"decided_at,omitempty"`
	ValidatorID     *int64  `json:"validator_id,omitempty"`
	RejectionReason string  `json:"rejection_reason,omitempty"`
	Notes           *string `json:"notes,omitempty"`
	ValidationNotes *string `json:"validation_notes,omitempty"`
	PendingDays     int     `json:"pending_days,omitempty"`
}

func (p *Proof) ToResponse(now time.Time) *ProofResponse {
	resp := &ProofResponse{
		ID:              p.ID,
		CotisationID:    p.CotisationID,
		MemberID:        p.MemberID,
		MemberName:      p.MemberName,
		Amount:          p.Amount,
		Method:          p.Method,
		Reference:       p.Reference,
		PaymentDate:     p.PaymentDate.Format(dateLayout),
		Filename:        p.Filename,
		State:           string(p.State),
		SubmittedAt:     p.SubmittedAt.Format(time.RFC3339),
		ValidatorID:     p.ValidatorID,
		RejectionReason: string(p.RejectionReason),
		Notes:           p.Notes,
		ValidationNotes: p.ValidationNotes,
		PendingDays:     p.PendingDays(now),
	}
	if p.DecidedAt != nil {
		d := p.DecidedAt.Format(time.RFC3339)
		resp.DecidedAt = &d
	}
	return resp
}
