package cotisation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/cotizapp/cotiz/internal/cotisation/ledger"
)

// Common errors
var (
	ErrCotisationNotFound = errors.New("cotisation not found")
	ErrInvalidDueDate     = errors.New("invalid due date")
	ErrInvalidSource      = errors.New("source type and reference do not match")
	ErrAlreadyActive      = errors.New("cotisation is already active")
	ErrCannotCancelPaid   = errors.New("a paid cotisation cannot be cancelled")
	ErrHasPayments        = errors.New("cotisation has recorded payments and cannot be deleted")
	ErrNoLines            = errors.New("individual mode requires payment lines")
	ErrUnknownMethod      = errors.New("unknown payment method")
)

// Notifier receives ledger events after they are committed. Implementations
// must not fail the calling operation; errors stay on their side.
type Notifier interface {
	PaymentRecorded(ctx context.Context, c *Cotisation, amount float64)
	CotisationSettled(ctx context.Context, c *Cotisation)
}

// ReceiptSender emails a payment receipt. Fire-and-forget.
type ReceiptSender interface {
	SendReceipt(ctx context.Context, memberID int64, amount float64, reference string)
}

// Service handles cotisation business logic
type Service struct {
	repo     *Repository
	factory  *ledger.Factory
	notifier Notifier
	receipts ReceiptSender
	now      func() time.Time
}

// NewService creates a new cotisation service with dependencies injected.
// notifier and receipts may be nil.
func NewService(repo *Repository, factory *ledger.Factory, notifier Notifier, receipts ReceiptSender) *Service {
	return &Service{
		repo:     repo,
		factory:  factory,
		notifier: notifier,
		receipts: receipts,
		now:      time.Now,
	}
}

// SetNotifier wires the notifier after construction. The notification
// service consumes this service, so the two are linked in a second step.
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

// Create raises a new cotisation
func (s *Service) Create(ctx context.Context, req *CreateCotisationRequest) (*Cotisation, error) {
	if req.AmountDue <= 0 {
		return nil, ledger.ErrInvalidAmount
	}
	dueDate, err := time.Parse(dateLayout, req.DueDate)
	if err != nil {
		return nil, ErrInvalidDueDate
	}
	source := SourceType(req.SourceType)
	switch source {
	case SourceActivity:
		if req.ActivityID == nil || req.MonthlyID != nil {
			return nil, ErrInvalidSource
		}
	case SourceMonthly:
		if req.MonthlyID == nil || req.ActivityID != nil {
			return nil, ErrInvalidSource
		}
	default:
		return nil, ErrInvalidSource
	}

	c := &Cotisation{
		MemberID:    req.MemberID,
		SourceType:  source,
		ActivityID:  req.ActivityID,
		MonthlyID:   req.MonthlyID,
		AmountDue:   req.AmountDue,
		DueDate:     dueDate,
		State:       ledger.DeriveState(req.AmountDue, 0, dueDate, s.now()),
		Description: req.Description,
	}
	return s.repo.Create(ctx, c)
}

// GetByID retrieves a cotisation
func (s *Service) GetByID(ctx context.Context, id int64) (*Cotisation, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCotisationNotFound
	}
	return c, nil
}

// List retrieves cotisations with pagination
func (s *Service) List(ctx context.Context, memberID int64, state string, page, perPage int) ([]*Cotisation, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	offset := (page - 1) * perPage
	return s.repo.List(ctx, memberID, state, perPage, offset)
}

// ListPayments returns a cotisation's payment history
func (s *Service) ListPayments(ctx context.Context, id int64) ([]*Payment, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.ListPayments(ctx, id)
}

// RecordPayment applies one payment to one cotisation inside a single
// transaction: the row is locked, the ledger rules run, and the amounts plus
// the payment line are persisted together. Notifications and receipts go out
// after the commit and never undo it.
func (s *Service) RecordPayment(ctx context.Context, id int64, req *RecordPaymentRequest) (*Cotisation, *Payment, error) {
	if !PaymentMethods[req.Method] {
		return nil, nil, ErrUnknownMethod
	}
	today := s.now()
	paymentDate := today
	if req.PaymentDate != "" {
		d, err := time.Parse(dateLayout, req.PaymentDate)
		if err != nil {
			return nil, nil, ErrInvalidDueDate
		}
		paymentDate = d
	}
	reference := req.Reference
	if reference == "" {
		reference = "PAY-" + uuid.NewString()
	}

	var (
		updated *Cotisation
		payment *Payment
	)
	err := s.repo.WithTx(ctx, func(tx *sql.Tx) error {
		c, err := s.repo.GetForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if c == nil {
			return ErrCotisationNotFound
		}

		item := c.LedgerItem()
		opts := ledger.PaymentOptions{
			AllowOverpay:   req.AllowOverpay,
			FullSettlement: req.MarkAsFullPayment,
		}
		recorded := req.Amount
		if opts.FullSettlement {
			recorded = item.Remaining()
		} else if opts.AllowOverpay && recorded > item.Remaining() {
			recorded = item.Remaining()
		}
		if err := ledger.RecordPayment(item, req.Amount, opts, today); err != nil {
			return err
		}
		c.ApplyLedger(item)
		if req.Notes != nil {
			c.PaymentNotes = req.Notes
		}

		if err := s.repo.SaveAmounts(ctx, tx, c); err != nil {
			return err
		}
		payment, err = s.repo.InsertPayment(ctx, tx, &Payment{
			CotisationID: c.ID,
			Amount:       recorded,
			Method:       req.Method,
			Reference:    reference,
			PaymentDate:  paymentDate,
			Notes:        req.Notes,
		})
		if err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.afterPayment(ctx, updated, payment.Amount, req.SendReceipt, payment.Reference)
	return updated, payment, nil
}

// MarkPaid settles the cotisation in full regardless of the remaining amount
func (s *Service) MarkPaid(ctx context.Context, id int64) (*Cotisation, error) {
	c, payment, err := s.RecordPayment(ctx, id, &RecordPaymentRequest{
		Amount:            1, // nominal; the override settles at the amount due
		Method:            "other",
		MarkAsFullPayment: true,
	})
	_ = payment
	return c, err
}

// Cancel deactivates a cotisation. Paid items cannot be cancelled; items with
// recorded payments are only ever soft-deleted.
func (s *Service) Cancel(ctx context.Context, id int64) error {
	c, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if c.State == ledger.StatePaid {
		return ErrCannotCancelPaid
	}
	if err := s.repo.SetActive(ctx, id, false, ledger.StateCancelled); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrCotisationNotFound
		}
		return err
	}
	return nil
}

// Reactivate restores a cancelled cotisation and re-derives its state
func (s *Service) Reactivate(ctx context.Context, id int64) (*Cotisation, error) {
	c, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Active {
		return nil, ErrAlreadyActive
	}
	state := ledger.DeriveState(c.AmountDue, c.AmountPaid, c.DueDate, s.now())
	if err := s.repo.SetActive(ctx, id, true, state); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// Delete removes a cotisation that never received a payment; anything with a
// payment history must go through Cancel instead.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	has, err := s.repo.HasPayments(ctx, id)
	if err != nil {
		return err
	}
	if has {
		return ErrHasPayments
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrCotisationNotFound
		}
		return err
	}
	return nil
}

// MassPayment spreads a payment across the selected cotisations. Each item's
// update is its own atomic unit; failures are collected, not propagated, so
// the caller can retry only the failed subset.
func (s *Service) MassPayment(ctx context.Context, req *MassPaymentRequest) (*BatchResult, error) {
	if !PaymentMethods[req.Method] {
		return nil, ErrUnknownMethod
	}

	allocations, err := s.planAllocations(ctx, req)
	if err != nil {
		return nil, err
	}

	reference := req.Reference
	if reference == "" {
		reference = "MASS-" + uuid.NewString()
	}

	result := &BatchResult{Succeeded: []BatchItemResult{}, Failed: []BatchItemResult{}}
	for _, alloc := range allocations {
		if alloc.Amount <= 0 {
			continue
		}
		_, payment, err := s.RecordPayment(ctx, alloc.ItemID, &RecordPaymentRequest{
			Amount:      alloc.Amount,
			Method:      req.Method,
			Reference:   reference,
			Notes:       req.Notes,
			SendReceipt: req.SendReceipts,
		})
		if err != nil {
			result.Failed = append(result.Failed, BatchItemResult{
				CotisationID: alloc.ItemID,
				Amount:       alloc.Amount,
				Error:        err.Error(),
			})
			continue
		}
		result.Succeeded = append(result.Succeeded, BatchItemResult{
			CotisationID: alloc.ItemID,
			Amount:       payment.Amount,
		})
		result.TotalApplied += payment.Amount
	}
	return result, nil
}

// planAllocations resolves the per-item amounts for a mass payment
func (s *Service) planAllocations(ctx context.Context, req *MassPaymentRequest) ([]ledger.Allocation, error) {
	if req.Mode == "INDIVIDUAL" {
		if len(req.Lines) == 0 {
			return nil, ErrNoLines
		}
		allocations := make([]ledger.Allocation, len(req.Lines))
		for i, line := range req.Lines {
			allocations[i] = ledger.Allocation{ItemID: line.CotisationID, Amount: line.Amount}
		}
		return allocations, nil
	}

	strategy, err := s.factory.CreateFromString(req.Mode)
	if err != nil {
		return nil, err
	}

	cotisations, err := s.repo.ListByIDs(ctx, req.CotisationIDs)
	if err != nil {
		return nil, err
	}
	items := make([]*ledger.Item, 0, len(cotisations))
	for _, c := range cotisations {
		if c.Active {
			items = append(items, c.LedgerItem())
		}
	}
	return strategy.Allocate(req.TotalAmount, items)
}

// SweepOverdue reclassifies stale pending items as overdue. Re-runnable: a
// second pass with no intervening payments changes nothing.
func (s *Service) SweepOverdue(ctx context.Context) (int, error) {
	now := s.now()
	stale, err := s.repo.ListStalePending(ctx, now)
	if err != nil {
		return 0, err
	}

	items := make([]*ledger.Item, len(stale))
	for i, c := range stale {
		items[i] = c.LedgerItem()
	}
	changed := ledger.Sweep(items, now)
	if len(changed) == 0 {
		return 0, nil
	}

	ids := make([]int64, len(changed))
	for i, item := range changed {
		ids[i] = item.ID
	}
	if err := s.repo.MarkOverdue(ctx, ids); err != nil {
		return 0, err
	}
	log.Printf("overdue sweep: %d cotisations marked overdue", len(ids))
	return len(ids), nil
}

// ListOverdue returns every active overdue cotisation. Reminder jobs feed on
// this.
func (s *Service) ListOverdue(ctx context.Context) ([]*Cotisation, error) {
	return s.repo.ListOverdue(ctx)
}

// OverdueSummary aggregates the currently overdue items
func (s *Service) OverdueSummary(ctx context.Context) (*OverdueSummary, error) {
	overdue, err := s.repo.ListOverdue(ctx)
	if err != nil {
		return nil, err
	}
	today := s.now()

	summary := &OverdueSummary{ByGroup: map[string]*GroupOverdue{}}
	for _, c := range overdue {
		summary.TotalOverdue++
		summary.AmountOverdue += c.Remaining()
		if c.DaysOverdue(today) > 30 {
			summary.CriticalOverdue++
		}
		group := c.GroupName
		if group == "" {
			group = "unassigned"
		}
		if summary.ByGroup[group] == nil {
			summary.ByGroup[group] = &GroupOverdue{}
		}
		summary.ByGroup[group].Count++
		summary.ByGroup[group].Amount += c.Remaining()
	}
	return summary, nil
}

// afterPayment dispatches post-commit side effects. Failures here are logged
// and never surface to the caller.
func (s *Service) afterPayment(ctx context.Context, c *Cotisation, amount float64, sendReceipt bool, reference string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("post-payment hook panicked: %v", r)
		}
	}()
	if s.notifier != nil {
		s.notifier.PaymentRecorded(ctx, c, amount)
		if c.State == ledger.StatePaid {
			s.notifier.CotisationSettled(ctx, c)
		}
	}
	if sendReceipt && s.receipts != nil {
		s.receipts.SendReceipt(ctx, c.MemberID, amount, reference)
	}
}

// CancelUnpaidBySource cancels every unpaid cotisation raised by the given
// source. Used when an activity or monthly period is cancelled.
func (s *Service) CancelUnpaidBySource(ctx context.Context, source SourceType, sourceID int64) (int, error) {
	return s.repo.CancelUnpaidBySource(ctx, source, sourceID)
}

// CreateForMembers raises one cotisation per member, skipping failures so one
// bad member does not block a whole activity or period fan-out. Used by the
// activity and monthly features.
func (s *Service) CreateForMembers(ctx context.Context, memberIDs []int64, build func(memberID int64) *CreateCotisationRequest) (int, error) {
	created := 0
	for _, memberID := range memberIDs {
		if _, err := s.Create(ctx, build(memberID)); err != nil {
			log.Printf("failed to raise cotisation for member %d: %v", memberID, err)
			continue
		}
		created++
	}
	if created == 0 && len(memberIDs) > 0 {
		return 0, fmt.Errorf("no cotisation could be raised for %d members", len(memberIDs))
	}
	return created, nil
}
