package plan

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cotizapp/cotiz/internal/cotisation/ledger"
)

var (
	ErrPlanNotFound        = errors.New("payment plan not found")
	ErrInstallmentNotFound = errors.New("installment not found")
	ErrInvalidState        = errors.New("plan state does not allow this operation")
	ErrNotAllPaid          = errors.New("plan still has unpaid installments")
)

type Service struct {
	repo *Repository
	now  func() time.Time
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Create registers a plan in draft state. The schedule is generated at
// confirmation, so drafts can still be deleted freely.
func (s *Service) Create(ctx context.Context, req *CreatePlanRequest) (*Plan, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	freq := ledger.Frequency(req.Frequency)
	switch freq {
	case ledger.FrequencyWeekly, ledger.FrequencyBiweekly, ledger.FrequencyMonthly:
	default:
		return nil, ledger.ErrUnknownFrequency
	}
	start, _ := time.Parse(dateLayout, req.StartDate)

	reminderDays := req.ReminderDays
	if reminderDays == 0 {
		reminderDays = 3
	}
	end := ledger.PlanEndDate(start, req.NumberOfInstallments, freq)

	p := &Plan{
		MemberID:             req.MemberID,
		Reference:            planReference(),
		TotalAmount:          req.TotalAmount,
		NumberOfInstallments: req.NumberOfInstallments,
		Frequency:            req.Frequency,
		StartDate:            start,
		EndDate:              &end,
		State:                StateDraft,
		AutoReminder:         req.AutoReminder,
		ReminderDays:         reminderDays,
		Notes:                req.Notes,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*Plan, []Installment, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if p == nil {
		return nil, nil, ErrPlanNotFound
	}
	installments, err := s.repo.ListInstallments(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return p, installments, nil
}

func (s *Service) List(ctx context.Context, memberID int64, state string) ([]*Plan, error) {
	return s.repo.List(ctx, memberID, state)
}

// Confirm generates the installment schedule and moves the plan to confirmed.
func (s *Service) Confirm(ctx context.Context, id int64) (*Plan, []Installment, error) {
	p, _, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if p.State != StateDraft {
		return nil, nil, ErrInvalidState
	}

	schedule, err := ledger.BuildSchedule(p.TotalAmount, p.NumberOfInstallments, p.StartDate, ledger.Frequency(p.Frequency))
	if err != nil {
		return nil, nil, err
	}
	if err := s.repo.InsertInstallments(ctx, id, schedule); err != nil {
		return nil, nil, err
	}
	if err := s.repo.SetState(ctx, id, StateConfirmed); err != nil {
		return nil, nil, err
	}
	return s.GetByID(ctx, id)
}

// PayInstallment records a payment on one installment under the same ledger
// rules as cotisations. The first payment moves the plan to in_progress; a
// fully settled schedule completes it.
func (s *Service) PayInstallment(ctx context.Context, planID, installmentID int64, req *PayInstallmentRequest) (*Installment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var paymentDate *time.Time
	if req.PaymentDate != "" {
		d, _ := time.Parse(dateLayout, req.PaymentDate)
		paymentDate = &d
	}

	p, _, err := s.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if p.State != StateConfirmed && p.State != StateInProgress {
		return nil, ErrInvalidState
	}

	today := s.now()
	var updated *Installment
	err = s.repo.WithTx(ctx, func(tx *sql.Tx) error {
		inst, err := s.repo.GetInstallmentForUpdate(ctx, tx, installmentID)
		if err != nil {
			return err
		}
		if inst == nil || inst.PlanID != planID {
			return ErrInstallmentNotFound
		}

		item := inst.LedgerItem()
		opts := ledger.PaymentOptions{FullSettlement: req.MarkAsFullPayment}
		if err := ledger.RecordPayment(item, req.Amount, opts, today); err != nil {
			return err
		}
		inst.ApplyLedger(item)
		if req.Notes != nil {
			inst.Notes = req.Notes
		}
		if paymentDate != nil {
			inst.PaymentDate = paymentDate
		}

		if err := s.repo.SaveInstallmentAmounts(ctx, tx, inst); err != nil {
			return err
		}
		updated = inst
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.advancePlanState(ctx, p)
	return updated, nil
}

// advancePlanState moves a confirmed plan to in_progress on first payment and
// to completed once every installment is paid. Failures are logged; the
// payment already committed.
func (s *Service) advancePlanState(ctx context.Context, p *Plan) {
	installments, err := s.repo.ListInstallments(ctx, p.ID)
	if err != nil {
		log.Printf("failed to reload plan %d installments: %v", p.ID, err)
		return
	}

	allPaid := true
	anyPaid := false
	for _, inst := range installments {
		if inst.State == ledger.StateCancelled {
			continue
		}
		if inst.AmountPaid > 0 {
			anyPaid = true
		}
		if inst.State != ledger.StatePaid {
			allPaid = false
		}
	}

	var next PlanState
	switch {
	case allPaid:
		next = StateCompleted
	case anyPaid && p.State == StateConfirmed:
		next = StateInProgress
	default:
		return
	}
	if err := s.repo.SetState(ctx, p.ID, next); err != nil {
		log.Printf("failed to advance plan %d to %s: %v", p.ID, next, err)
	}
}

// Complete closes a plan once every installment is settled.
func (s *Service) Complete(ctx context.Context, id int64) (*Plan, error) {
	p, installments, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.State != StateConfirmed && p.State != StateInProgress {
		return nil, ErrInvalidState
	}
	for _, inst := range installments {
		if inst.State != ledger.StatePaid && inst.State != ledger.StateCancelled {
			return nil, ErrNotAllPaid
		}
	}
	if err := s.repo.SetState(ctx, id, StateCompleted); err != nil {
		return nil, err
	}
	p.State = StateCompleted
	return p, nil
}

// Cancel aborts a plan and voids its unpaid installments. Draft plans are
// deleted outright.
func (s *Service) Cancel(ctx context.Context, id int64) (int, error) {
	p, _, err := s.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	if p.State == StateDraft {
		return 0, s.repo.Delete(ctx, id)
	}
	if p.State == StateCompleted || p.State == StateCancelled {
		return 0, ErrInvalidState
	}

	voided, err := s.repo.VoidUnpaidInstallments(ctx, id)
	if err != nil {
		return 0, err
	}
	if err := s.repo.SetState(ctx, id, StateCancelled); err != nil {
		return voided, err
	}
	return voided, nil
}

func (s *Service) Stats(ctx context.Context, id int64) (*Stats, error) {
	if _, _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.Stats(ctx, id)
}

// SweepOverdue marks stale pending installments overdue across all active
// plans. Same discipline as the cotisation sweep: pending only, idempotent.
func (s *Service) SweepOverdue(ctx context.Context) (int, error) {
	stale, err := s.repo.ListStalePendingInstallments(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if len(stale) == 0 {
		return 0, nil
	}

	items := make([]*ledger.Item, len(stale))
	for i := range stale {
		items[i] = stale[i].LedgerItem()
	}
	flipped := ledger.Sweep(items, s.now())
	if len(flipped) == 0 {
		return 0, nil
	}

	ids := make([]int64, len(flipped))
	for i, item := range flipped {
		ids[i] = item.ID
	}
	if err := s.repo.MarkInstallmentsOverdue(ctx, ids); err != nil {
		return 0, err
	}
	return len(ids), nil
}

func planReference() string {
	return "PLAN-" + strings.ToUpper(uuid.NewString()[:8])
}
