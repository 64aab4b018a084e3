package proof

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/cotizapp/cotiz/internal/cotisation"
	"github.com/cotizapp/cotiz/internal/cotisation/ledger"
)

var (
	ErrProofNotFound  = errors.New("proof not found")
	ErrAlreadyDecided = errors.New("proof already received a decision")
	ErrMemberMismatch = errors.New("proof member does not match the cotisation member")
	ErrAmountTooHigh  = errors.New("claimed amount exceeds the remaining balance tolerance")
	ErrFutureDate     = errors.New("payment date cannot be in the future")
	ErrUnknownReason  = errors.New("unknown rejection reason")
	ErrItemNotPayable = errors.New("cotisation cannot receive proofs")
)

// DecisionMailer sends proof decision emails. Failures are logged, never
// surfaced to the caller.
type DecisionMailer interface {
	ProofValidated(ctx context.Context, memberID int64, amount float64)
	ProofRejected(ctx context.Context, memberID int64, amount float64, reason string)
}

type Service struct {
	repo        *Repository
	cotisations *cotisation.Service
	mailer      DecisionMailer
	staleDays   int
	now         func() time.Time
}

func NewService(repo *Repository, cotisations *cotisation.Service, mailer DecisionMailer) *Service {
	return &Service{
		repo:        repo,
		cotisations: cotisations,
		mailer:      mailer,
		staleDays:   StalePendingDays,
		now:         time.Now,
	}
}

// SetStaleDays overrides how long a proof may wait before FlagStale reports it.
func (s *Service) SetStaleDays(days int) {
	if days > 0 {
		s.staleDays = days
	}
}

// Submit files a proof against a cotisation. The claimed amount may exceed
// the remaining balance by the overpay tolerance; anything above is refused
// up front rather than at validation time.
func (s *Service) Submit(ctx context.Context, memberID int64, req *SubmitProofRequest) (*Proof, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	paymentDate, _ := time.Parse(dateLayout, req.PaymentDate)
	if paymentDate.After(s.now()) {
		return nil, ErrFutureDate
	}

	c, err := s.cotisations.GetByID(ctx, req.CotisationID)
	if err != nil {
		return nil, err
	}
	if c.MemberID != memberID {
		return nil, ErrMemberMismatch
	}
	item := c.LedgerItem()
	if !item.Payable() {
		return nil, ErrItemNotPayable
	}
	if req.Amount > item.Remaining()*ledger.OverpayTolerance {
		return nil, ErrAmountTooHigh
	}

	p := &Proof{
		CotisationID: req.CotisationID,
		MemberID:     memberID,
		Amount:       req.Amount,
		Method:       req.Method,
		Reference:    req.Reference,
		PaymentDate:  paymentDate,
		Filename:     req.Filename,
		State:        StateSubmitted,
		Notes:        req.Notes,
		Active:       true,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*Proof, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProofNotFound
	}
	return p, nil
}

func (s *Service) List(ctx context.Context, state string, memberID int64) ([]*Proof, error) {
	return s.repo.List(ctx, state, memberID)
}

// StartReview marks a submitted proof as under review.
func (s *Service) StartReview(ctx context.Context, id int64) (*Proof, error) {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Decided() {
		return nil, ErrAlreadyDecided
	}
	if _, err := s.repo.StartReview(ctx, id); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// Validate accepts a proof and applies its amount to the cotisation. The
// decision row update guards against double application: once a proof leaves
// submitted/under_review the payment can never be recorded again through it.
func (s *Service) Validate(ctx context.Context, id, validatorID int64, req *ValidateProofRequest) (*Proof, error) {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	moved, err := s.repo.Decide(ctx, id, StateValidated, validatorID, "", req.Notes)
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, ErrAlreadyDecided
	}

	reference := ""
	if p.Reference != nil {
		reference = *p.Reference
	}
	_, _, err = s.cotisations.RecordPayment(ctx, p.CotisationID, &cotisation.RecordPaymentRequest{
		Amount:       p.Amount,
		Method:       p.Method,
		Reference:    reference,
		PaymentDate:  p.PaymentDate.Format(dateLayout),
		Notes:        p.Notes,
		AllowOverpay: true,
		SendReceipt:  true,
	})
	if err != nil {
		// The money was not applied, so the decision is rolled back and the
		// proof goes back in the review queue.
		if revertErr := s.repo.Revert(ctx, id, StateUnderReview); revertErr != nil {
			log.Printf("failed to revert proof %d after payment error: %v", id, revertErr)
		}
		return nil, err
	}

	decided, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.mailer != nil {
		s.mailer.ProofValidated(ctx, p.MemberID, p.Amount)
	}
	return decided, nil
}

// Reject refuses a proof with a reason. The ledger is untouched.
func (s *Service) Reject(ctx context.Context, id, validatorID int64, req *RejectProofRequest) (*Proof, error) {
	reason := RejectionReason(req.Reason)
	if !RejectionReasons[reason] {
		return nil, ErrUnknownReason
	}

	p, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	moved, err := s.repo.Decide(ctx, id, StateRejected, validatorID, reason, req.Notes)
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, ErrAlreadyDecided
	}

	decided, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.mailer != nil {
		s.mailer.ProofRejected(ctx, p.MemberID, p.Amount, string(reason))
	}
	return decided, nil
}

func (s *Service) CountPending(ctx context.Context) (int, error) {
	return s.repo.CountPending(ctx)
}

// StalePendingDays is the default wait before the reminder job flags a proof.
const StalePendingDays = 3

// FlagStale returns undecided proofs older than the stale threshold. The
// scheduler logs them so managers notice the backlog.
func (s *Service) FlagStale(ctx context.Context) ([]*Proof, error) {
	cutoff := s.now().AddDate(0, 0, -s.staleDays)
	return s.repo.ListStalePending(ctx, cutoff)
}
