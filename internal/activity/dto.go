package activity

import (
	"errors"
	"time"
)

const dateLayout = "2006-01-02"

type CreateActivityRequest struct {
	GroupID          int64   `json:"group_id"`
	Name             string  `json:"name"`
	Description      *string `json:"description,omitempty"`
	CotisationAmount float64 `json:"cotisation_amount"`
	StartDate        string  `json:"start_date"`
	EndDate          string  `json:"end_date"`
	DueDate          string  `json:"due_date"`
}

func (r CreateActivityRequest) Validate() error {
	if r.GroupID <= 0 {
		return errors.New("group_id is required")
	}
	if r.Name == "" {
		return errors.New("name is required")
	}
	if len(r.Name) > 200 {
		return errors.New("name must be at most 200 characters")
	}
	if r.CotisationAmount <= 0 {
		return errors.New("cotisation_amount must be positive")
	}
	start, err := time.Parse(dateLayout, r.StartDate)
	if err != nil {
		return errors.New("start_date must be in YYYY-MM-DD format")
	}
	end, err := time.Parse(dateLayout, r.EndDate)
	if err != nil {
		return errors.New("end_date must be in YYYY-MM-DD format")
	}
	if end.Before(start) {
		return errors.New("end_date must not be before start_date")
	}
	if _, err := time.Parse(dateLayout, r.DueDate); err != nil {
		return errors.New("due_date must be in YYYY-MM-DD format")
	}
	return nil
}

type UpdateActivityRequest struct {
	Name             *string  `json:"name,omitempty"`
	Description      *string  `json:"description,omitempty"`
	CotisationAmount *float64 `json:"cotisation_amount,omitempty"`
	StartDate        *string  `json:"start_date,omitempty"`
	EndDate          *string  `json:"end_date,omitempty"`
	DueDate          *string  `json:"due_date,omitempty"`
}

type ActivityResponse struct {
	ID               int64   `json:"id"`
	GroupID          int64   `json:"group_id"`
	GroupName        string  `json:"group_name,omitempty"`
	Name             string  `json:"name"`
	Description      *string `json:"description,omitempty"`
	CotisationAmount float64 `json:"cotisation_amount"`
	StartDate        string  `json:"start_date"`
	EndDate          string  `json:"end_date"`
	DueDate          string  `json:"due_date"`
	State            string  `json:"state"`
	CreatedAt        string  `json:"created_at"`
}

type ConfirmResult struct {
	Activity           ActivityResponse `json:"activity"`
	CotisationsCreated int              `json:"cotisations_created"`
}

func (a Activity) ToResponse() ActivityResponse {
	return ActivityResponse{
		ID:               a.ID,
		GroupID:          a.GroupID,
		GroupName:        a.GroupName,
		Name:             a.Name,
		Description:      a.Description,
		CotisationAmount: a.CotisationAmount,
		StartDate:        a.StartDate.Format(dateLayout),
		EndDate:          a.EndDate.Format(dateLayout),
		DueDate:          a.DueDate.Format(dateLayout),
		State:            string(a.State),
		CreatedAt:        a.CreatedAt.Format(time.RFC3339),
	}
}
