package activity

import (
	"context"
	"database/sql"
	"fmt"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const activityColumns = `a.id, a.group_id, a.name, a.description, a.cotisation_amount,
		a.start_date, a.end_date, a.due_date, a.state, a.created_at, a.updated_at,
		g.name AS group_name`

func scanActivity(row interface{ Scan(...any) error }) (*Activity, error) {
	var a Activity
	err := row.Scan(&a.ID, &a.GroupID, &a.Name, &a.Description, &a.CotisationAmount,
		&a.StartDate, &a.EndDate, &a.DueDate, &a.State, &a.CreatedAt, &a.UpdatedAt,
		&a.GroupName)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *Repository) Create(ctx context.Context, a *Activity) error {
	query := `
		INSERT INTO activities (group_id, name, description, cotisation_amount, start_date, end_date, due_date, state)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		a.GroupID, a.Name, a.Description, a.CotisationAmount,
		a.StartDate, a.EndDate, a.DueDate, a.State,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create activity: %w", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Activity, error) {
	query := `
		SELECT ` + activityColumns + `
		FROM activities a
		JOIN groups g ON g.id = a.group_id
		WHERE a.id = $1`

	a, err := scanActivity(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	return a, nil
}

func (r *Repository) ListByGroup(ctx context.Context, groupID int64, state string) ([]Activity, error) {
	query := `
		SELECT ` + activityColumns + `
		FROM activities a
		JOIN groups g ON g.id = a.group_id
		WHERE a.group_id = $1`
	args := []any{groupID}
	if state != "" {
		query += ` AND a.state = $2`
		args = append(args, state)
	}
	query += ` ORDER BY a.start_date DESC, a.id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	var activities []Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, *a)
	}
	return activities, rows.Err()
}

func (r *Repository) Update(ctx context.Context, a *Activity) error {
	query := `
		UPDATE activities
		SET name = $1, description = $2, cotisation_amount = $3,
		    start_date = $4, end_date = $5, due_date = $6, updated_at = NOW()
		WHERE id = $7
		RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query,
		a.Name, a.Description, a.CotisationAmount,
		a.StartDate, a.EndDate, a.DueDate, a.ID,
	).Scan(&a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update activity: %w", err)
	}
	return nil
}

func (r *Repository) SetState(ctx context.Context, id int64, state ActivityState) error {
	query := `UPDATE activities SET state = $1, updated_at = NOW() WHERE id = $2`
	if _, err := r.db.ExecContext(ctx, query, state, id); err != nil {
		return fmt.Errorf("failed to set activity state: %w", err)
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM activities WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete activity: %w", err)
	}
	return nil
}

// ListConfirmedStarted returns confirmed activities whose start date has passed.
func (r *Repository) ListConfirmedStarted(ctx context.Context, now string) ([]Activity, error) {
	return r.listByStateAndDate(ctx, StateConfirmed, "start_date", now)
}

// ListOngoingEnded returns ongoing activities whose end date has passed.
func (r *Repository) ListOngoingEnded(ctx context.Context, now string) ([]Activity, error) {
	return r.listByStateAndDate(ctx, StateOngoing, "end_date", now)
}

func (r *Repository) listByStateAndDate(ctx context.Context, state ActivityState, column, now string) ([]Activity, error) {
	query := `
		SELECT ` + activityColumns + `
		FROM activities a
		JOIN groups g ON g.id = a.group_id
		WHERE a.state = $1 AND a.` + column + ` <= $2
		ORDER BY a.id`

	rows, err := r.db.QueryContext(ctx, query, state, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	var activities []Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, *a)
	}
	return activities, rows.Err()
}

// Stats computes collection progress over the activity's cotisations.
func (r *Repository) Stats(ctx context.Context, activityID int64) (*Stats, error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE state = 'paid'),
		       COALESCE(SUM(amount_due), 0),
		       COALESCE(SUM(amount_paid), 0)
		FROM cotisations
		WHERE activity_id = $1 AND active = TRUE`

	var s Stats
	err := r.db.QueryRowContext(ctx, query, activityID).Scan(
		&s.TotalMembers, &s.PaidMembers, &s.TotalExpected, &s.TotalCollected)
	if err != nil {
		return nil, fmt.Errorf("failed to compute activity stats: %w", err)
	}
	if s.TotalMembers > 0 {
		s.CompletionRate = float64(s.PaidMembers) / float64(s.TotalMembers) * 100
	}
	return &s, nil
}
