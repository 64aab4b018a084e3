package monthly

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const periodColumns = `m.id, m.group_id, m.month, m.year, m.amount, m.due_day, m.state,
		m.created_at, m.updated_at, g.name AS group_name`

func scanPeriod(row interface{ Scan(...any) error }) (*Period, error) {
	var p Period
	err := row.Scan(&p.ID, &p.GroupID, &p.Month, &p.Year, &p.Amount, &p.DueDay, &p.State,
		&p.CreatedAt, &p.UpdatedAt, &p.GroupName)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ErrDuplicatePeriod reports the unique (group_id, month, year) constraint.
var ErrDuplicatePeriod = fmt.Errorf("a period already exists for this group and month")

func (r *Repository) Create(ctx context.Context, p *Period) error {
	query := `
		INSERT INTO monthly_cotisations (group_id, month, year, amount, due_day, state)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		p.GroupID, p.Month, p.Year, p.Amount, p.DueDay, p.State,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrDuplicatePeriod
		}
		return fmt.Errorf("failed to create monthly period: %w", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Period, error) {
	query := `
		SELECT ` + periodColumns + `
		FROM monthly_cotisations m
		JOIN groups g ON g.id = m.group_id
		WHERE m.id = $1`

	p, err := scanPeriod(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get monthly period: %w", err)
	}
	return p, nil
}

func (r *Repository) ListByGroup(ctx context.Context, groupID int64, year int) ([]Period, error) {
	query := `
		SELECT ` + periodColumns + `
		FROM monthly_cotisations m
		JOIN groups g ON g.id = m.group_id
		WHERE m.group_id = $1`
	args := []any{groupID}
	if year > 0 {
		query += ` AND m.year = $2`
		args = append(args, year)
	}
	query += ` ORDER BY m.year DESC, m.month DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list monthly periods: %w", err)
	}
	defer rows.Close()

	var periods []Period
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan monthly period: %w", err)
		}
		periods = append(periods, *p)
	}
	return periods, rows.Err()
}

func (r *Repository) SetState(ctx context.Context, id int64, state PeriodState) error {
	query := `UPDATE monthly_cotisations SET state = $1, updated_at = NOW() WHERE id = $2`
	if _, err := r.db.ExecContext(ctx, query, state, id); err != nil {
		return fmt.Errorf("failed to set period state: %w", err)
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM monthly_cotisations WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete monthly period: %w", err)
	}
	return nil
}

// ListActiveExpired returns active periods whose month is fully in the past.
func (r *Repository) ListActiveExpired(ctx context.Context, year, month int) ([]Period, error) {
	query := `
		SELECT ` + periodColumns + `
		FROM monthly_cotisations m
		JOIN groups g ON g.id = m.group_id
		WHERE m.state = 'active' AND (m.year < $1 OR (m.year = $1 AND m.month < $2))
		ORDER BY m.id`

	rows, err := r.db.QueryContext(ctx, query, year, month)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired periods: %w", err)
	}
	defer rows.Close()

	var periods []Period
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan monthly period: %w", err)
		}
		periods = append(periods, *p)
	}
	return periods, rows.Err()
}

// Stats computes collection progress over the period's cotisations.
func (r *Repository) Stats(ctx context.Context, periodID int64) (*Stats, error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE state = 'paid'),
		       COALESCE(SUM(amount_due), 0),
		       COALESCE(SUM(amount_paid), 0)
		FROM cotisations
		WHERE monthly_id = $1 AND active = TRUE`

	var s Stats
	err := r.db.QueryRowContext(ctx, query, periodID).Scan(
		&s.TotalMembers, &s.PaidMembers, &s.TotalExpected, &s.TotalCollected)
	if err != nil {
		return nil, fmt.Errorf("failed to compute period stats: %w", err)
	}
	if s.TotalMembers > 0 {
		s.CompletionRate = float64(s.PaidMembers) / float64(s.TotalMembers) * 100
	}
	return &s, nil
}
