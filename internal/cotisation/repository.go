package cotisation

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/cotizapp/cotiz/internal/cotisation/ledger"
)

// Repository handles cotisation and payment persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new cotisation repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const cotisationColumns = `
	c.id, c.member_id, c.source_type, c.activity_id, c.monthly_id,
	c.amount_due, c.amount_paid, c.due_date, c.payment_date, c.state,
	c.description, c.payment_notes, c.active, c.created_at, c.updated_at`

func scanCotisation(row interface{ Scan(...interface{}) error }, c *Cotisation) error {
	return row.Scan(
		&c.ID,
		&c.MemberID,
		&c.SourceType,
		&c.ActivityID,
		&c.MonthlyID,
		&c.AmountDue,
		&c.AmountPaid,
		&c.DueDate,
		&c.PaymentDate,
		&c.State,
		&c.Description,
		&c.PaymentNotes,
		&c.Active,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
}

// Create inserts a new cotisation
func (r *Repository) Create(ctx context.Context, c *Cotisation) (*Cotisation, error) {
	query := `
		INSERT INTO cotisations AS c (member_id, source_type, activity_id, monthly_id, amount_due, due_date, state, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + cotisationColumns

	created := &Cotisation{}
	err := scanCotisation(r.db.QueryRowContext(ctx, query,
		c.MemberID,
		c.SourceType,
		c.ActivityID,
		c.MonthlyID,
		c.AmountDue,
		c.DueDate,
		c.State,
		c.Description,
	), created)
	if err != nil {
		return nil, fmt.Errorf("failed to create cotisation: %w", err)
	}
	return created, nil
}

// GetByID retrieves a cotisation by its ID, with member and group names
func (r *Repository) GetByID(ctx context.Context, id int64) (*Cotisation, error) {
	query := `
		SELECT ` + cotisationColumns + `, m.name, g.name
		FROM cotisations c
		JOIN members m ON c.member_id = m.id
		JOIN groups g ON m.group_id = g.id
		WHERE c.id = $1
	`

	c := &Cotisation{}
	row := r.db.QueryRowContext(ctx, query, id)
	err := row.Scan(
		&c.ID, &c.MemberID, &c.SourceType, &c.ActivityID, &c.MonthlyID,
		&c.AmountDue, &c.AmountPaid, &c.DueDate, &c.PaymentDate, &c.State,
		&c.Description, &c.PaymentNotes, &c.Active, &c.CreatedAt, &c.UpdatedAt,
		&c.MemberName, &c.GroupName,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cotisation: %w", err)
	}
	return c, nil
}

// List retrieves cotisations with optional state/member filters
func (r *Repository) List(ctx context.Context, memberID int64, state string, limit, offset int) ([]*Cotisation, int, error) {
	where := `WHERE c.active = TRUE`
	args := []interface{}{}
	idx := 1
	if memberID > 0 {
		where += fmt.Sprintf(" AND c.member_id = $%d", idx)
		args = append(args, memberID)
		idx++
	}
	if state != "" {
		where += fmt.Sprintf(" AND c.state = $%d", idx)
		args = append(args, state)
		idx++
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM cotisations c ` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count cotisations: %w", err)
	}

	query := `
		SELECT ` + cotisationColumns + `, m.name, g.name
		FROM cotisations c
		JOIN members m ON c.member_id = m.id
		JOIN groups g ON m.group_id = g.id
		` + where + fmt.Sprintf(`
		ORDER BY c.due_date DESC, c.created_at DESC
		LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list cotisations: %w", err)
	}
	defer rows.Close()

	var cotisations []*Cotisation
	for rows.Next() {
		c := &Cotisation{}
		if err := rows.Scan(
			&c.ID, &c.MemberID, &c.SourceType, &c.ActivityID, &c.MonthlyID,
			&c.AmountDue, &c.AmountPaid, &c.DueDate, &c.PaymentDate, &c.State,
			&c.Description, &c.PaymentNotes, &c.Active, &c.CreatedAt, &c.UpdatedAt,
			&c.MemberName, &c.GroupName,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan cotisation: %w", err)
		}
		cotisations = append(cotisations, c)
	}
	return cotisations, total, nil
}

// ListByIDs retrieves the given cotisations in one round trip
func (r *Repository) ListByIDs(ctx context.Context, ids []int64) ([]*Cotisation, error) {
	query := `
		SELECT ` + cotisationColumns + `
		FROM cotisations c
		WHERE c.id = ANY($1)
	`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to list cotisations: %w", err)
	}
	defer rows.Close()

	var cotisations []*Cotisation
	for rows.Next() {
		c := &Cotisation{}
		if err := scanCotisation(rows, c); err != nil {
			return nil, fmt.Errorf("failed to scan cotisation: %w", err)
		}
		cotisations = append(cotisations, c)
	}
	return cotisations, nil
}

// ListOutstandingByMember retrieves the member's unpaid active cotisations
func (r *Repository) ListOutstandingByMember(ctx context.Context, memberID int64) ([]*Cotisation, error) {
	query := `
		SELECT ` + cotisationColumns + `
		FROM cotisations c
		WHERE c.member_id = $1
		  AND c.active = TRUE
		  AND c.state IN ('pending', 'partial', 'overdue')
		ORDER BY c.due_date, c.created_at, c.id
	`
	rows, err := r.db.QueryContext(ctx, query, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to list outstanding cotisations: %w", err)
	}
	defer rows.Close()

	var cotisations []*Cotisation
	for rows.Next() {
		c := &Cotisation{}
		if err := scanCotisation(rows, c); err != nil {
			return nil, fmt.Errorf("failed to scan cotisation: %w", err)
		}
		cotisations = append(cotisations, c)
	}
	return cotisations, nil
}

// WithTx runs fn inside a transaction, committing on nil and rolling back on error.
func (r *Repository) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original: %w)", rbErr, err)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetForUpdate locks and retrieves a cotisation row inside a transaction so a
// read-modify-write cannot lose concurrent payments.
func (r *Repository) GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*Cotisation, error) {
	query := `
		SELECT ` + cotisationColumns + `
		FROM cotisations c
		WHERE c.id = $1
		FOR UPDATE
	`
	c := &Cotisation{}
	if err := scanCotisation(tx.QueryRowContext(ctx, query, id), c); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock cotisation: %w", err)
	}
	return c, nil
}

// SaveAmounts persists the payment-related columns inside a transaction
func (r *Repository) SaveAmounts(ctx context.Context, tx *sql.Tx, c *Cotisation) error {
	query := `
		UPDATE cotisations
		SET amount_paid = $2, payment_date = $3, state = $4, payment_notes = $5, updated_at = NOW()
		WHERE id = $1
	`
	if _, err := tx.ExecContext(ctx, query, c.ID, c.AmountPaid, c.PaymentDate, c.State, c.PaymentNotes); err != nil {
		return fmt.Errorf("failed to save cotisation amounts: %w", err)
	}
	return nil
}

// InsertPayment records one payment line inside a transaction
func (r *Repository) InsertPayment(ctx context.Context, tx *sql.Tx, p *Payment) (*Payment, error) {
	query := `
		INSERT INTO payments (cotisation_id, amount, method, reference, payment_date, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, cotisation_id, amount, method, reference, payment_date, notes, created_at
	`
	created := &Payment{}
	err := tx.QueryRowContext(ctx, query,
		p.CotisationID, p.Amount, p.Method, p.Reference, p.PaymentDate, p.Notes,
	).Scan(
		&created.ID, &created.CotisationID, &created.Amount, &created.Method,
		&created.Reference, &created.PaymentDate, &created.Notes, &created.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert payment: %w", err)
	}
	return created, nil
}

// ListPayments returns the payment history of a cotisation
func (r *Repository) ListPayments(ctx context.Context, cotisationID int64) ([]*Payment, error) {
	query := `
		SELECT id, cotisation_id, amount, method, reference, payment_date, notes, created_at
		FROM payments
		WHERE cotisation_id = $1
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, cotisationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []*Payment
	for rows.Next() {
		p := &Payment{}
		if err := rows.Scan(
			&p.ID, &p.CotisationID, &p.Amount, &p.Method,
			&p.Reference, &p.PaymentDate, &p.Notes, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, nil
}

// HasPayments reports whether any payment was ever recorded against the item
func (r *Repository) HasPayments(ctx context.Context, cotisationID int64) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM payments WHERE cotisation_id = $1`
	if err := r.db.QueryRowContext(ctx, query, cotisationID).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to count payments: %w", err)
	}
	return count > 0, nil
}

// SetActive flips the soft-delete flag and state
func (r *Repository) SetActive(ctx context.Context, id int64, active bool, state ledger.State) error {
	query := `UPDATE cotisations SET active = $2, state = $3, updated_at = NOW() WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, active, state)
	if err != nil {
		return fmt.Errorf("failed to update cotisation: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CancelUnpaidBySource cancels every unpaid cotisation raised by one activity
// or monthly period. Items that already received money are left untouched.
func (r *Repository) CancelUnpaidBySource(ctx context.Context, source SourceType, sourceID int64) (int, error) {
	column := "activity_id"
	if source == SourceMonthly {
		column = "monthly_id"
	}
	query := `
		UPDATE cotisations
		SET active = FALSE, state = 'cancelled', updated_at = NOW()
		WHERE ` + column + ` = $1 AND amount_paid = 0 AND state <> 'cancelled'`

	result, err := r.db.ExecContext(ctx, query, sourceID)
	if err != nil {
		return 0, fmt.Errorf("failed to cancel cotisations: %w", err)
	}
	n, _ := result.RowsAffected()
	return int(n), nil
}

// Delete removes a cotisation that never received a payment
func (r *Repository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM cotisations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete cotisation: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListStalePending returns active pending items whose due date is strictly past
func (r *Repository) ListStalePending(ctx context.Context, now time.Time) ([]*Cotisation, error) {
	query := `
		SELECT ` + cotisationColumns + `
		FROM cotisations c
		WHERE c.active = TRUE
		  AND c.state = 'pending'
		  AND c.due_date < $1
		ORDER BY c.due_date, c.created_at, c.id
	`
	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale cotisations: %w", err)
	}
	defer rows.Close()

	var cotisations []*Cotisation
	for rows.Next() {
		c := &Cotisation{}
		if err := scanCotisation(rows, c); err != nil {
			return nil, fmt.Errorf("failed to scan cotisation: %w", err)
		}
		cotisations = append(cotisations, c)
	}
	return cotisations, nil
}

// MarkOverdue persists the swept state for the given items
func (r *Repository) MarkOverdue(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	query := `UPDATE cotisations SET state = 'overdue', updated_at = NOW() WHERE id = ANY($1) AND state = 'pending'`
	if _, err := r.db.ExecContext(ctx, query, pq.Array(ids)); err != nil {
		return fmt.Errorf("failed to mark cotisations overdue: %w", err)
	}
	return nil
}

// ListOverdue returns active overdue cotisations with member/group names
func (r *Repository) ListOverdue(ctx context.Context) ([]*Cotisation, error) {
	query := `
		SELECT ` + cotisationColumns + `, m.name, g.name
		FROM cotisations c
		JOIN members m ON c.member_id = m.id
		JOIN groups g ON m.group_id = g.id
		WHERE c.active = TRUE AND c.state = 'overdue'
		ORDER BY c.due_date, c.id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue cotisations: %w", err)
	}
	defer rows.Close()

	var cotisations []*Cotisation
	for rows.Next() {
		c := &Cotisation{}
		if err := rows.Scan(
			&c.ID, &c.MemberID, &c.SourceType, &c.ActivityID, &c.MonthlyID,
			&c.AmountDue, &c.AmountPaid, &c.DueDate, &c.PaymentDate, &c.State,
			&c.Description, &c.PaymentNotes, &c.Active, &c.CreatedAt, &c.UpdatedAt,
			&c.MemberName, &c.GroupName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan cotisation: %w", err)
		}
		cotisations = append(cotisations, c)
	}
	return cotisations, nil
}
