package monthly

import (
	"errors"
	"time"
)

const dateLayout = "2006-01-02"

type CreatePeriodRequest struct {
	GroupID int64   `json:"group_id"`
	Month   int     `json:"month"`
	Year    int     `json:"year"`
	Amount  float64 `json:"amount"`
	DueDay  int     `json:"due_day"`
}

func (r CreatePeriodRequest) Validate() error {
	if r.GroupID <= 0 {
		return errors.New("group_id is required")
	}
	if r.Month < 1 || r.Month > 12 {
		return errors.New("month must be between 1 and 12")
	}
	if r.Year < 2000 || r.Year > 2100 {
		return errors.New("year is out of range")
	}
	if r.Amount <= 0 {
		return errors.New("amount must be positive")
	}
	if r.DueDay < 1 || r.DueDay > 31 {
		return errors.New("due_day must be between 1 and 31")
	}
	return nil
}

type PeriodResponse struct {
	ID        int64   `json:"id"`
	GroupID   int64   `json:"group_id"`
	GroupName string  `json:"group_name,omitempty"`
	Month     int     `json:"month"`
	Year      int     `json:"year"`
	Amount    float64 `json:"amount"`
	DueDay    int     `json:"due_day"`
	DueDate   string  `json:"due_date"`
	State     string  `json:"state"`
	CreatedAt string  `json:"created_at"`
}

type ActivateResult struct {
	Period             PeriodResponse `json:"period"`
	CotisationsCreated int            `json:"cotisations_created"`
}

func (p Period) ToResponse() PeriodResponse {
	return PeriodResponse{
		ID:        p.ID,
		GroupID:   p.GroupID,
		GroupName: p.GroupName,
		Month:     p.Month,
		Year:      p.Year,
		Amount:    p.Amount,
		DueDay:    p.DueDay,
		DueDate:   p.DueDate().Format(dateLayout),
		State:     string(p.State),
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
	}
}
