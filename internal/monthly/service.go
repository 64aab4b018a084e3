package monthly

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/cotizapp/cotiz/internal/cotisation"
	"github.com/cotizapp/cotiz/internal/member"
)

var (
	ErrPeriodNotFound  = errors.New("monthly period not found")
	ErrInvalidState    = errors.New("period state does not allow this operation")
	ErrNoActiveMembers = errors.New("group has no active members")
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

// Create registers a monthly period in draft state. One period per
// group/month/year; duplicates are rejected.
func (s *Service) Create(ctx context.Context, req *CreatePeriodRequest) (*Period, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	p := &Period{
		GroupID: req.GroupID,
		Month:   req.Month,
		Year:    req.Year,
		Amount:  req.Amount,
		DueDay:  req.DueDay,
		State:   StateDraft,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*Period, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPeriodNotFound
	}
	return p, nil
}

func (s *Service) ListByGroup(ctx context.Context, groupID int64, year int) ([]Period, error) {
	return s.repo.ListByGroup(ctx, groupID, year)
}

// Activate moves a draft period to active and raises one cotisation per
// active member, due on the period's clamped due date.
func (s *Service) Activate(ctx context.Context, id int64) (*Period, int, error) {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	if p.State != StateDraft {
		return nil, 0, ErrInvalidState
	}

	memberIDs, err := s.members.ActiveMemberIDs(ctx, p.GroupID)
	if err != nil {
		return nil, 0, err
	}
	if len(memberIDs) == 0 {
		return nil, 0, ErrNoActiveMembers
	}

	if err := s.repo.SetState(ctx, id, StateActive); err != nil {
		return nil, 0, err
	}
	p.State = StateActive

	periodID := p.ID
	dueDate := p.DueDate().Format(dateLayout)
	description := fmt.Sprintf("Monthly cotisation %s", p.Label())
	created, err := s.cotisations.CreateForMembers(ctx, memberIDs, func(memberID int64) *cotisation.CreateCotisationRequest {
		return &cotisation.CreateCotisationRequest{
			MemberID:    memberID,
			SourceType:  string(cotisation.SourceMonthly),
			MonthlyID:   &periodID,
			AmountDue:   p.Amount,
			DueDate:     dueDate,
			Description: &description,
		}
	})
	if err != nil {
		return nil, 0, err
	}
	return p, created, nil
}

// Close ends an active period. Its cotisations stay collectable.
func (s *Service) Close(ctx context.Context, id int64) (*Period, error) {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.State != StateActive {
		return nil, ErrInvalidState
	}
	if err := s.repo.SetState(ctx, id, StateClosed); err != nil {
		return nil, err
	}
	p.State = StateClosed
	return p, nil
}

// Cancel aborts a period and cancels its unpaid cotisations. Draft periods
// are simply deleted.
func (s *Service) Cancel(ctx context.Context, id int64) (int, error) {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	if p.State == StateDraft {
		return 0, s.repo.Delete(ctx, id)
	}
	if p.State == StateClosed {
		return 0, ErrInvalidState
	}

	if err := s.repo.SetState(ctx, id, StateClosed); err != nil {
		return 0, err
	}
	cancelled, err := s.cotisations.CancelUnpaidBySource(ctx, cotisation.SourceMonthly, id)
	if err != nil {
		log.Printf("failed to cancel cotisations for period %d: %v", id, err)
	}
	return cancelled, nil
}

func (s *Service) Stats(ctx context.Context, id int64) (*Stats, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.Stats(ctx, id)
}

// AutoClose closes active periods whose month is fully in the past. Run
// daily by the scheduler.
func (s *Service) AutoClose(ctx context.Context) (int, error) {
	now := s.now()
	expired, err := s.repo.ListActiveExpired(ctx, now.Year(), int(now.Month()))
	if err != nil {
		return 0, err
	}

	closed := 0
	for _, p := range expired {
		if err := s.repo.SetState(ctx, p.ID, StateClosed); err != nil {
			log.Printf("failed to auto-close period %d: %v", p.ID, err)
			continue
		}
		closed++
	}
	return closed, nil
}
