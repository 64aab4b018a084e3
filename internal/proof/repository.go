package proof

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const proofColumns = `p.id, p.cotisation_id, p.member_id, p.amount, p.method, p.reference,
		p.payment_date, p.filename, p.state, p.submitted_at, p.review_at, p.decided_at,
		p.validator_id, COALESCE(p.rejection_reason, ''), p.notes, p.validation_notes, p.active,
		m.name AS member_name`

func scanProof(row interface{ Scan(...any) error }) (*Proof, error) {
	var p Proof
	err := row.Scan(&p.ID, &p.CotisationID, &p.MemberID, &p.Amount, &p.Method, &p.Reference,
		&p.PaymentDate, &p.Filename, &p.State, &p.SubmittedAt, &p.ReviewAt, &p.DecidedAt,
		&p.ValidatorID, &p.RejectionReason, &p.Notes, &p.ValidationNotes, &p.Active,
		&p.MemberName)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repository) Create(ctx context.Context, p *Proof) error {
	query := `
		INSERT INTO payment_proofs (cotisation_id, member_id, amount, method, reference, payment_date, filename, state, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, submitted_at`

	err := r.db.QueryRowContext(ctx, query,
		p.CotisationID, p.MemberID, p.Amount, p.Method, p.Reference,
		p.PaymentDate, p.Filename, p.State, p.Notes,
	).Scan(&p.ID, &p.SubmittedAt)
	if err != nil {
		return fmt.Errorf("failed to create proof: %w", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Proof, error) {
	query := `
		SELECT ` + proofColumns + `
		FROM payment_proofs p
		JOIN members m ON m.id = p.member_id
		WHERE p.id = $1`

	p, err := scanProof(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get proof: %w", err)
	}
	return p, nil
}

func (r *Repository) List(ctx context.Context, state string, memberID int64) ([]*Proof, error) {
	query := `
		SELECT ` + proofColumns + `
		FROM payment_proofs p
		JOIN members m ON m.id = p.member_id
		WHERE p.active = TRUE`
	args := []any{}
	if state != "" {
		args = append(args, state)
		query += fmt.Sprintf(" AND p.state = $%d", len(args))
	}
	if memberID > 0 {
		args = append(args, memberID)
		query += fmt.Sprintf(" AND p.member_id = $%d", len(args))
	}
	query += ` ORDER BY p.submitted_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list proofs: %w", err)
	}
	defer rows.Close()

	var proofs []*Proof
	for rows.Next() {
		p, err := scanProof(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan proof: %w", err)
		}
		proofs = append(proofs, p)
	}
	return proofs, rows.Err()
}

// StartReview moves a submitted proof to under_review. The WHERE clause makes
// the transition a no-op when the proof already moved on.
func (r *Repository) StartReview(ctx context.Context, id int64) (bool, error) {
	query := `
		UPDATE payment_proofs
		SET state = 'under_review', review_at = NOW()
		WHERE id = $1 AND state = 'submitted'`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to start review: %w", err)
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

// Decide finalizes a proof. The state guard in the WHERE clause is what makes
// validation apply-once: a second decision matches zero rows.
func (r *Repository) Decide(ctx context.Context, id int64, to ProofState, validatorID int64, reason RejectionReason, notes *string) (bool, error) {
	query := `
		UPDATE payment_proofs
		SET state = $2, decided_at = NOW(), validator_id = $3,
		    rejection_reason = NULLIF($4, ''), validation_notes = $5
		WHERE id = $1 AND state IN ('submitted', 'under_review')`

	result, err := r.db.ExecContext(ctx, query, id, to, validatorID, string(reason), notes)
	if err != nil {
		return false, fmt.Errorf("failed to decide proof: %w", err)
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

// Revert undoes a decision, used when applying a validated payment fails.
func (r *Repository) Revert(ctx context.Context, id int64, to ProofState) error {
	query := `
		UPDATE payment_proofs
		SET state = $2, decided_at = NULL, validator_id = NULL,
		    rejection_reason = NULL, validation_notes = NULL
		WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id, to); err != nil {
		return fmt.Errorf("failed to revert proof: %w", err)
	}
	return nil
}

func (r *Repository) CountPending(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM payment_proofs WHERE state IN ('submitted', 'under_review') AND active = TRUE`
	var n int
	if err := r.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count pending proofs: %w", err)
	}
	return n, nil
}

// ListStalePending returns undecided proofs submitted before the cutoff.
func (r *Repository) ListStalePending(ctx context.Context, cutoff time.Time) ([]*Proof, error) {
	query := `
		SELECT ` + proofColumns + `
		FROM payment_proofs p
		JOIN members m ON m.id = p.member_id
		WHERE p.state IN ('submitted', 'under_review')
		  AND p.active = TRUE
		  AND p.submitted_at < $1
		ORDER BY p.submitted_at`

	rows, err := r.db.QueryContext(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale proofs: %w", err)
	}
	defer rows.Close()

	var proofs []*Proof
	for rows.Next() {
		p, err := scanProof(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan proof: %w", err)
		}
		proofs = append(proofs, p)
	}
	return proofs, rows.Err()
}
