package member

import (
	"context"
	"database/sql"
	"fmt"
)

// Repository handles member and group data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new member repository with database dependency injected
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateGroup inserts a new group
func (r *Repository) CreateGroup(ctx context.Context, name string) (*Group, error) {
	query := `
		INSERT INTO groups (name)
		VALUES ($1)
		RETURNING id, name, created_at
	`
	group := &Group{}
	err := r.db.QueryRowContext(ctx, query, name).Scan(&group.ID, &group.Name, &group.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}
	return group, nil
}

// GetGroupByID retrieves a group by its ID
func (r *Repository) GetGroupByID(ctx context.Context, id int64) (*Group, error) {
	query := `SELECT id, name, created_at FROM groups WHERE id = $1`

	group := &Group{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&group.ID, &group.Name, &group.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return group, nil
}

// Create inserts a new member
func (r *Repository) Create(ctx context.Context, req *CreateMemberRequest) (*Member, error) {
	query := `
		INSERT INTO members (group_id, name, email)
		VALUES ($1, $2, $3)
		RETURNING id, group_id, name, email, active, created_at
	`
	member := &Member{}
	err := r.db.QueryRowContext(ctx, query, req.GroupID, req.Name, req.Email).Scan(
		&member.ID,
		&member.GroupID,
		&member.Name,
		&member.Email,
		&member.Active,
		&member.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create member: %w", err)
	}
	return member, nil
}

// GetByID retrieves a member by their ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*Member, error) {
	query := `
		SELECT m.id, m.group_id, m.name, m.email, m.active, m.created_at, g.name
		FROM members m
		JOIN groups g ON m.group_id = g.id
		WHERE m.id = $1
	`
	member := &Member{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&member.ID,
		&member.GroupID,
		&member.Name,
		&member.Email,
		&member.Active,
		&member.CreatedAt,
		&member.GroupName,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return member, nil
}

// ListByGroup retrieves a group's members, optionally only active ones
func (r *Repository) ListByGroup(ctx context.Context, groupID int64, activeOnly bool) ([]*Member, error) {
	query := `
		SELECT m.id, m.group_id, m.name, m.email, m.active, m.created_at, g.name
		FROM members m
		JOIN groups g ON m.group_id = g.id
		WHERE m.group_id = $1
	`
	if activeOnly {
		query += ` AND m.active = TRUE`
	}
	query += ` ORDER BY m.name`

	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*Member
	for rows.Next() {
		member := &Member{}
		if err := rows.Scan(
			&member.ID,
			&member.GroupID,
			&member.Name,
			&member.Email,
			&member.Active,
			&member.CreatedAt,
			&member.GroupName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, member)
	}
	return members, nil
}

// Update patches a member's fields
func (r *Repository) Update(ctx context.Context, id int64, req *UpdateMemberRequest) (*Member, error) {
	query := `
		UPDATE members
		SET name = COALESCE($2, name),
		    email = COALESCE($3, email),
		    active = COALESCE($4, active)
		WHERE id = $1
		RETURNING id, group_id, name, email, active, created_at
	`
	member := &Member{}
	err := r.db.QueryRowContext(ctx, query, id, req.Name, req.Email, req.Active).Scan(
		&member.ID,
		&member.GroupID,
		&member.Name,
		&member.Email,
		&member.Active,
		&member.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update member: %w", err)
	}
	return member, nil
}
