package plan

import (
	"errors"
	"time"
)

const dateLayout = "2006-01-02"

type CreatePlanRequest struct {
	MemberID             int64   `json:"member_id" validate:"required"`
	TotalAmount          float64 `json:"total_amount" validate:"required,gt=0"`
	NumberOfInstallments int     `json:"number_of_installments" validate:"required,gt=0"`
	Frequency            string  `json:"frequency" validate:"required,oneof=weekly biweekly monthly"`
	StartDate            string  `json:"start_date" validate:"required"` // YYYY-MM-DD
	AutoReminder         bool    `json:"auto_reminder,omitempty"`
	ReminderDays         int     `json:"reminder_days,omitempty"`
	Notes                *string `json:"notes,omitempty"`
}

func (r CreatePlanRequest) Validate() error {
	if r.MemberID <= 0 {
		return errors.New("member_id is required")
	}
	if r.TotalAmount <= 0 {
		return errors.New("total_amount must be positive")
	}
	if r.NumberOfInstallments < 1 || r.NumberOfInstallments > 36 {
		return errors.New("number_of_installments must be between 1 and 36")
	}
	if _, err := time.Parse(dateLayout, r.StartDate); err != nil {
		return errors.New("start_date must be in YYYY-MM-DD format")
	}
	if r.ReminderDays < 0 || r.ReminderDays > 30 {
		return errors.New("reminder_days must be between 0 and 30")
	}
	return nil
}

type PayInstallmentRequest struct {
	Amount            float64 `json:"amount" validate:"required,gt=0"`
	PaymentDate       string  `json:"payment_date,omitempty"` // YYYY-MM-DD, defaults to today
	Notes             *string `json:"notes,omitempty"`
	MarkAsFullPayment bool    `json:"mark_as_full_payment,omitempty"`
}

func (r PayInstallmentRequest) Validate() error {
	if r.Amount <= 0 {
		return errors.New("amount must be positive")
	}
	if r.PaymentDate != "" {
		if _, err := time.Parse(dateLayout, r.PaymentDate); err != nil {
			return errors.New("payment_date must be in YYYY-MM-DD format")
		}
	}
	return nil
}

type PlanResponse struct {
	ID                   int64                 `json:"id"`
	MemberID             int64                 `json:"member_id"`
	MemberName           string                `json:"member_name,omitempty"`
	Reference            string                `json:"reference"`
	TotalAmount          float64               `json:"total_amount"`
	NumberOfInstallments int                   `json:"number_of_installments"`
	Frequency            string                `json:"frequency"`
	StartDate            string                `json:"start_date"`
	EndDate              *string               `json:"end_date,omitempty"`
	State                string                `json:"state"`
	AutoReminder         bool                  `json:"auto_reminder"`
	ReminderDays         int                   `json:"reminder_days"`
	Notes                *string               `json:"notes,omitempty"`
	CreatedAt            string                `json:"created_at"`
	Installments         []InstallmentResponse `json:"installments,omitempty"`
}

type InstallmentResponse struct {
	ID          int64   `json:"id"`
	PlanID      int64   `json:"plan_id"`
	Sequence    int     `json:"sequence"`
	DueDate     string  `json:"due_date"`
	Amount      float64 `json:"amount"`
	AmountPaid  float64 `json:"amount_paid"`
	Remaining   float64 `json:"remaining_amount"`
	PaymentDate *string `json:"payment_date,omitempty"`
	State       string  `json:"state"`
	Notes       *string `json:"notes,omitempty"`
}

func (p *Plan) ToResponse(installments []Installment) *PlanResponse {
	resp := &PlanResponse{
		ID:                   p.ID,
		MemberID:             p.MemberID,
		MemberName:           p.MemberName,
		Reference:            p.Reference,
		TotalAmount:          p.TotalAmount,
		NumberOfInstallments: p.NumberOfInstallments,
		Frequency:            p.Frequency,
		StartDate:            p.StartDate.Format(dateLayout),
		State:                string(p.State),
		AutoReminder:         p.AutoReminder,
		ReminderDays:         p.ReminderDays,
		Notes:                p.Notes,
		CreatedAt:            p.CreatedAt.Format(time.RFC3339),
	}
	if p.EndDate != nil {
		d := p.EndDate.Format(dateLayout)
		resp.EndDate = &d
	}
	for i := range installments {
		resp.Installments = append(resp.Installments, installments[i].ToResponse())
	}
	return resp
}

func (i Installment) ToResponse() InstallmentResponse {
	resp := InstallmentResponse{
		ID:         i.ID,
		PlanID:     i.PlanID,
		Sequence:   i.Sequence,
		DueDate:    i.DueDate.Format(dateLayout),
		Amount:     i.Amount,
		AmountPaid: i.AmountPaid,
		Remaining:  i.Remaining(),
		State:      string(i.State),
		Notes:      i.Notes,
	}
	if i.PaymentDate != nil {
		d := i.PaymentDate.Format(dateLayout)
		resp.PaymentDate = &d
	}
	return resp
}
