package member

import (
	"context"
	"errors"
)

// Common errors
var (
	ErrMemberNotFound = errors.New("member not found")
	ErrGroupNotFound  = errors.New("group not found")
)

// Service handles member business logic
type Service struct {
	repo *Repository
}

// NewService creates a new member service
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// CreateGroup creates a new group
func (s *Service) CreateGroup(ctx context.Context, req *CreateGroupRequest) (*Group, error) {
	return s.repo.CreateGroup(ctx, req.Name)
}

// Create registers a member in a group
func (s *Service) Create(ctx context.Context, req *CreateMemberRequest) (*Member, error) {
	group, err := s.repo.GetGroupByID(ctx, req.GroupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, ErrGroupNotFound
	}
	return s.repo.Create(ctx, req)
}

// GetByID retrieves a member
func (s *Service) GetByID(ctx context.Context, id int64) (*Member, error) {
	member, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrMemberNotFound
	}
	return member, nil
}

// ListByGroup retrieves a group's members
func (s *Service) ListByGroup(ctx context.Context, groupID int64, activeOnly bool) ([]*Member, error) {
	group, err := s.repo.GetGroupByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, ErrGroupNotFound
	}
	return s.repo.ListByGroup(ctx, groupID, activeOnly)
}

// ActiveMemberIDs returns the ids of a group's active members. Used by the
// activity and monthly fan-outs.
func (s *Service) ActiveMemberIDs(ctx context.Context, groupID int64) ([]int64, error) {
	members, err := s.ListByGroup(ctx, groupID, true)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(members))
	for i, m := range members {
		ids[i] = m.ID
	}
	return ids, nil
}

// Update patches a member
func (s *Service) Update(ctx context.Context, id int64, req *UpdateMemberRequest) (*Member, error) {
	member, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrMemberNotFound
	}
	return member, nil
}
