package plan

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cotizapp/cotiz/internal/cotisation/ledger"
	"github.com/lib/pq"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const planColumns = `p.id, p.member_id, p.reference, p.total_amount, p.number_of_installments,
		p.frequency, p.start_date, p.end_date, p.state, p.auto_reminder, p.reminder_days,
		p.notes, p.created_at, p.updated_at, m.name AS member_name`

func scanPlan(row interface{ Scan(...any) error }) (*Plan, error) {
	var p Plan
	err := row.Scan(&p.ID, &p.MemberID, &p.Reference, &p.TotalAmount, &p.NumberOfInstallments,
		&p.Frequency, &p.StartDate, &p.EndDate, &p.State, &p.AutoReminder, &p.ReminderDays,
		&p.Notes, &p.CreatedAt, &p.UpdatedAt, &p.MemberName)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

const installmentColumns = `id, plan_id, sequence, due_date, amount, amount_paid,
		payment_date, state, notes, created_at, updated_at`

func scanInstallment(row interface{ Scan(...any) error }) (*Installment, error) {
	var i Installment
	err := row.Scan(&i.ID, &i.PlanID, &i.Sequence, &i.DueDate, &i.Amount, &i.AmountPaid,
		&i.PaymentDate, &i.State, &i.Notes, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func (r *Repository) Create(ctx context.Context, p *Plan) error {
	query := `
		INSERT INTO payment_plans (member_id, reference, total_amount, number_of_installments,
			frequency, start_date, end_date, state, auto_reminder, reminder_days, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		p.MemberID, p.Reference, p.TotalAmount, p.NumberOfInstallments,
		p.Frequency, p.StartDate, p.EndDate, p.State, p.AutoReminder, p.ReminderDays, p.Notes,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create payment plan: %w", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Plan, error) {
	query := `
		SELECT ` + planColumns + `
		FROM payment_plans p
		JOIN members m ON m.id = p.member_id
		WHERE p.id = $1`

	p, err := scanPlan(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment plan: %w", err)
	}
	return p, nil
}

func (r *Repository) List(ctx context.Context, memberID int64, state string) ([]*Plan, error) {
	query := `
		SELECT ` + planColumns + `
		FROM payment_plans p
		JOIN members m ON m.id = p.member_id
		WHERE 1=1`
	args := []any{}
	if memberID > 0 {
		args = append(args, memberID)
		query += fmt.Sprintf(" AND p.member_id = $%d", len(args))
	}
	if state != "" {
		args = append(args, state)
		query += fmt.Sprintf(" AND p.state = $%d", len(args))
	}
	query += ` ORDER BY p.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment plans: %w", err)
	}
	defer rows.Close()

	var plans []*Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment plan: %w", err)
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

func (r *Repository) SetState(ctx context.Context, id int64, state PlanState) error {
	query := `UPDATE payment_plans SET state = $1, updated_at = NOW() WHERE id = $2`
	if _, err := r.db.ExecContext(ctx, query, state, id); err != nil {
		return fmt.Errorf("failed to set plan state: %w", err)
	}
	return nil
}

func (r *Repository) SetEndDate(ctx context.Context, id int64, end time.Time) error {
	query := `UPDATE payment_plans SET end_date = $1, updated_at = NOW() WHERE id = $2`
	if _, err := r.db.ExecContext(ctx, query, end, id); err != nil {
		return fmt.Errorf("failed to set plan end date: %w", err)
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM payment_plans WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete payment plan: %w", err)
	}
	return nil
}

// InsertInstallments writes a generated schedule in one transaction.
func (r *Repository) InsertInstallments(ctx context.Context, planID int64, schedule []ledger.ScheduledInstallment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO installments (plan_id, sequence, due_date, amount, state)
		VALUES ($1, $2, $3, $4, 'pending')`
	for _, line := range schedule {
		if _, err := tx.ExecContext(ctx, query, planID, line.Sequence, line.DueDate, line.Amount); err != nil {
			return fmt.Errorf("failed to insert installment %d: %w", line.Sequence, err)
		}
	}
	return tx.Commit()
}

func (r *Repository) ListInstallments(ctx context.Context, planID int64) ([]Installment, error) {
	query := `
		SELECT ` + installmentColumns + `
		FROM installments
		WHERE plan_id = $1
		ORDER BY sequence`

	rows, err := r.db.QueryContext(ctx, query, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to list installments: %w", err)
	}
	defer rows.Close()

	var installments []Installment
	for rows.Next() {
		i, err := scanInstallment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan installment: %w", err)
		}
		installments = append(installments, *i)
	}
	return installments, rows.Err()
}

// WithTx runs fn inside a transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// GetInstallmentForUpdate locks one installment row for a read-modify-write.
func (r *Repository) GetInstallmentForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*Installment, error) {
	query := `
		SELECT ` + installmentColumns + `
		FROM installments
		WHERE id = $1
		FOR UPDATE`

	i, err := scanInstallment(tx.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock installment: %w", err)
	}
	return i, nil
}

func (r *Repository) SaveInstallmentAmounts(ctx context.Context, tx *sql.Tx, i *Installment) error {
	query := `
		UPDATE installments
		SET amount_paid = $1, payment_date = $2, state = $3, notes = $4, updated_at = NOW()
		WHERE id = $5`

	if _, err := tx.ExecContext(ctx, query, i.AmountPaid, i.PaymentDate, i.State, i.Notes, i.ID); err != nil {
		return fmt.Errorf("failed to save installment: %w", err)
	}
	return nil
}

// VoidUnpaidInstallments cancels a plan's installments that received no money.
func (r *Repository) VoidUnpaidInstallments(ctx context.Context, planID int64) (int, error) {
	query := `
		UPDATE installments
		SET state = 'cancelled', updated_at = NOW()
		WHERE plan_id = $1 AND amount_paid = 0 AND state <> 'cancelled'`

	result, err := r.db.ExecContext(ctx, query, planID)
	if err != nil {
		return 0, fmt.Errorf("failed to void installments: %w", err)
	}
	n, _ := result.RowsAffected()
	return int(n), nil
}

// ListStalePendingInstallments returns pending installments past due across
// all plans in progress.
func (r *Repository) ListStalePendingInstallments(ctx context.Context, now time.Time) ([]Installment, error) {
	query := `
		SELECT i.id, i.plan_id, i.sequence, i.due_date, i.amount, i.amount_paid,
		       i.payment_date, i.state, i.notes, i.created_at, i.updated_at
		FROM installments i
		JOIN payment_plans p ON p.id = i.plan_id
		WHERE i.state = 'pending'
		  AND i.due_date < $1
		  AND p.state IN ('confirmed', 'in_progress')
		ORDER BY i.due_date, i.id`

	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale installments: %w", err)
	}
	defer rows.Close()

	var installments []Installment
	for rows.Next() {
		i, err := scanInstallment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan installment: %w", err)
		}
		installments = append(installments, *i)
	}
	return installments, rows.Err()
}

// MarkInstallmentsOverdue flips the given pending installments to overdue.
func (r *Repository) MarkInstallmentsOverdue(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	query := `
		UPDATE installments
		SET state = 'overdue', updated_at = NOW()
		WHERE id = ANY($1) AND state = 'pending'`

	if _, err := r.db.ExecContext(ctx, query, pq.Array(ids)); err != nil {
		return fmt.Errorf("failed to mark installments overdue: %w", err)
	}
	return nil
}

// Stats computes progress over a plan's installments.
func (r *Repository) Stats(ctx context.Context, planID int64) (*Stats, error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE state = 'paid'),
		       COALESCE(SUM(amount), 0),
		       COALESCE(SUM(amount_paid), 0)
		FROM installments
		WHERE plan_id = $1 AND state <> 'cancelled'`

	var s Stats
	err := r.db.QueryRowContext(ctx, query, planID).Scan(
		&s.TotalInstallments, &s.PaidInstallments, &s.TotalAmount, &s.TotalPaid)
	if err != nil {
		return nil, fmt.Errorf("failed to compute plan stats: %w", err)
	}
	if s.TotalInstallments > 0 {
		s.CompletionRate = float64(s.PaidInstallments) / float64(s.TotalInstallments) * 100
	}
	return &s, nil
}
