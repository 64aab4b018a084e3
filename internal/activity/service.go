package activity

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/cotizapp/cotiz/internal/cotisation"
	"github.com/cotizapp/cotiz/internal/member"
)

var (
	ErrActivityNotFound = errors.New("activity not found")
	ErrInvalidState     = errors.New("activity state does not allow this operation")
	ErrNoActiveMembers  = errors.New("group has no active members")
)

type Service struct {
	repo        *Repository
	cotisations *cotisation.Service
	members     *member.Service
	now         func() time.Time
}

func NewService(repo *Repository, cotisations *cotisation.Service, members *member.Service) *Service {
	return &Service{
		repo:        repo,
		cotisations: cotisations,
		members:     members,
		now:         time.Now,
	}
}

// Create registers a new activity in draft state
func (s *Service) Create(ctx context.Context, req *CreateActivityRequest) (*Activity, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	start, _ := time.Parse(dateLayout, req.StartDate)
	end, _ := time.Parse(dateLayout, req.EndDate)
	due, _ := time.Parse(dateLayout, req.DueDate)

	a := &Activity{
		GroupID:          req.GroupID,
		Name:             req.Name,
		Description:      req.Description,
		CotisationAmount: req.CotisationAmount,
		StartDate:        start,
		EndDate:          end,
		DueDate:          due,
		State:            StateDraft,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*Activity, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrActivityNotFound
	}
	return a, nil
}

func (s *Service) ListByGroup(ctx context.Context, groupID int64, state string) ([]Activity, error) {
	return s.repo.ListByGroup(ctx, groupID, state)
}

// Update edits a draft activity. Confirmed activities already raised their
// cotisations, so amounts and dates are frozen past that point.
func (s *Service) Update(ctx context.Context, id int64, req *UpdateActivityRequest) (*Activity, error) {
	a, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.State != StateDraft {
		return nil, ErrInvalidState
	}

	if req.Name != nil {
		a.Name = *req.Name
	}
	if req.Description != nil {
		a.Description = req.Description
	}
	if req.CotisationAmount != nil {
		if *req.CotisationAmount <= 0 {
			return nil, errors.New("cotisation_amount must be positive")
		}
		a.CotisationAmount = *req.CotisationAmount
	}
	if req.StartDate != nil {
		start, err := time.Parse(dateLayout, *req.StartDate)
		if err != nil {
			return nil, errors.New("start_date must be in YYYY-MM-DD format")
		}
		a.StartDate = start
	}
	if req.EndDate != nil {
		end, err := time.Parse(dateLayout, *req.EndDate)
		if err != nil {
			return nil, errors.New("end_date must be in YYYY-MM-DD format")
		}
		a.EndDate = end
	}
	if req.DueDate != nil {
		due, err := time.Parse(dateLayout, *req.DueDate)
		if err != nil {
			return nil, errors.New("due_date must be in YYYY-MM-DD format")
		}
		a.DueDate = due
	}
	if a.EndDate.Before(a.StartDate) {
		return nil, errors.New("end_date must not be before start_date")
	}

	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Confirm moves a draft activity to confirmed and raises one cotisation per
// active member of the group.
func (s *Service) Confirm(ctx context.Context, id int64) (*Activity, int, error) {
	a, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	if a.State != StateDraft {
		return nil, 0, ErrInvalidState
	}

	memberIDs, err := s.members.ActiveMemberIDs(ctx, a.GroupID)
	if err != nil {
		return nil, 0, err
	}
	if len(memberIDs) == 0 {
		return nil, 0, ErrNoActiveMembers
	}

	if err := s.repo.SetState(ctx, id, StateConfirmed); err != nil {
		return nil, 0, err
	}
	a.State = StateConfirmed

	activityID := a.ID
	dueDate := a.DueDate.Format(dateLayout)
	created, err := s.cotisations.CreateForMembers(ctx, memberIDs, func(memberID int64) *cotisation.CreateCotisationRequest {
		return &cotisation.CreateCotisationRequest{
			MemberID:    memberID,
			SourceType:  string(cotisation.SourceActivity),
			ActivityID:  &activityID,
			AmountDue:   a.CotisationAmount,
			DueDate:     dueDate,
			Description: &a.Name,
		}
	})
	if err != nil {
		return nil, 0, err
	}
	return a, created, nil
}

// Cancel aborts an activity and cancels every unpaid cotisation it raised.
// Money already collected stays on the books.
func (s *Service) Cancel(ctx context.Context, id int64) (*Activity, int, error) {
	a, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	if a.State == StateCompleted || a.State == StateCancelled {
		return nil, 0, ErrInvalidState
	}

	if err := s.repo.SetState(ctx, id, StateCancelled); err != nil {
		return nil, 0, err
	}
	a.State = StateCancelled

	cancelled, err := s.cotisations.CancelUnpaidBySource(ctx, cotisation.SourceActivity, id)
	if err != nil {
		log.Printf("failed to cancel cotisations for activity %d: %v", id, err)
	}
	return a, cancelled, nil
}

// Delete removes a draft activity. Anything past draft has raised cotisations
// and must be cancelled instead.
func (s *Service) Delete(ctx context.Context, id int64) error {
	a, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if a.State != StateDraft {
		return ErrInvalidState
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) Stats(ctx context.Context, id int64) (*Stats, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.Stats(ctx, id)
}

// AdvanceStates moves confirmed activities whose start date has passed to
// ongoing and ongoing activities whose end date has passed to completed.
// Run daily by the scheduler.
func (s *Service) AdvanceStates(ctx context.Context) (started, completed int, err error) {
	today := s.now().Format(dateLayout)

	toStart, err := s.repo.ListConfirmedStarted(ctx, today)
	if err != nil {
		return 0, 0, err
	}
	for _, a := range toStart {
		if err := s.repo.SetState(ctx, a.ID, StateOngoing); err != nil {
			log.Printf("failed to start activity %d: %v", a.ID, err)
			continue
		}
		started++
	}

	toComplete, err := s.repo.ListOngoingEnded(ctx, today)
	if err != nil {
		return started, 0, err
	}
	for _, a := range toComplete {
		if err := s.repo.SetState(ctx, a.ID, StateCompleted); err != nil {
			log.Printf("failed to complete activity %d: %v", a.ID, err)
			continue
		}
		completed++
	}
	return started, completed, nil
}
