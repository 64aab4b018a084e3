package cotisation

import "time"

// CreateCotisationRequest represents the request to raise a cotisation
type CreateCotisationRequest struct {
	MemberID    int64   `json:"member_id" validate:"required"`
	SourceType  string  `json:"source_type" validate:"required,oneof=activity monthly"`
	ActivityID  *int64  `json:"activity_id,omitempty"`
	MonthlyID   *int64  `json:"monthly_id,omitempty"`
	AmountDue   float64 `json:"amount_due" validate:"required,gt=0"`
	DueDate     string  `json:"due_date" validate:"required"` // YYYY-MM-DD
	Description *string `json:"description,omitempty"`
}

// RecordPaymentRequest represents a single payment against one cotisation
type RecordPaymentRequest struct {
	Amount            float64 `json:"amount" validate:"required,gt=0"`
	Method            string  `json:"method" validate:"required"`
	Reference         string  `json:"reference,omitempty"`
	PaymentDate       string  `json:"payment_date,omitempty"` // YYYY-MM-DD, defaults to today
	Notes             *string `json:"notes,omitempty"`
	MarkAsFullPayment bool    `json:"mark_as_full_payment,omitempty"`
	AllowOverpay      bool    `json:"allow_overpay,omitempty"`
	SendReceipt       bool    `json:"send_receipt,omitempty"`
}

// MassPaymentLine carries an explicit per-item amount in individual mode
type MassPaymentLine struct {
	CotisationID int64   `json:"cotisation_id" validate:"required"`
	Amount       float64 `json:"amount" validate:"required,gt=0"`
}

// MassPaymentRequest represents a payment spread across several cotisations
type MassPaymentRequest struct {
	CotisationIDs []int64           `json:"cotisation_ids" validate:"required,min=1"`
	Mode          string            `json:"mode" validate:"required,oneof=FULL EQUAL PROPORTIONAL INDIVIDUAL"`
	TotalAmount   float64           `json:"total_amount,omitempty"`
	Method        string            `json:"method" validate:"required"`
	Reference     string            `json:"reference,omitempty"`
	Notes         *string           `json:"notes,omitempty"`
	Lines         []MassPaymentLine `json:"lines,omitempty"`
	SendReceipts  bool              `json:"send_receipts,omitempty"`
}

// BatchItemResult is the outcome of one item inside a mass payment
type BatchItemResult struct {
	CotisationID int64   `json:"cotisation_id"`
	Amount       float64 `json:"amount"`
	Error        string  `json:"error,omitempty"`
}

// BatchResult reports the partial-success outcome of a mass payment. Each
// item's update is its own atomic unit; the batch as a whole never rolls back.
type BatchResult struct {
	Succeeded    []BatchItemResult `json:"succeeded"`
	Failed       []BatchItemResult `json:"failed"`
	TotalApplied float64           `json:"total_applied"`
}

// CotisationResponse represents the response for a cotisation
type CotisationResponse struct {
	ID           int64   `json:"id"`
	MemberID     int64   `json:"member_id"`
	MemberName   string  `json:"member_name,omitempty"`
	GroupName    string  `json:"group_name,omitempty"`
	SourceType   string  `json:"source_type"`
	ActivityID   *int64  `json:"activity_id,omitempty"`
	MonthlyID    *int64  `json:"monthly_id,omitempty"`
	AmountDue    float64 `json:"amount_due"`
	AmountPaid   float64 `json:"amount_paid"`
	Remaining    float64 `json:"remaining_amount"`
	DueDate      string  `json:"due_date"`
	PaymentDate  *string `json:"payment_date,omitempty"`
	State        string  `json:"state"`
	DaysOverdue  int     `json:"days_overdue,omitempty"`
	Description  *string `json:"description,omitempty"`
	PaymentNotes *string `json:"payment_notes,omitempty"`
	Active       bool    `json:"active"`
	CreatedAt    string  `json:"created_at"`
}

// PaymentResponse represents one recorded payment line
type PaymentResponse struct {
	ID           int64   `json:"id"`
	CotisationID int64   `json:"cotisation_id"`
	Amount       float64 `json:"amount"`
	Method       string  `json:"method"`
	Reference    string  `json:"reference"`
	PaymentDate  string  `json:"payment_date"`
	Notes        *string `json:"notes,omitempty"`
}

const dateLayout = "2006-01-02"
const timestampLayout = "2006-01-02T15:04:05Z"

// ToResponse converts a Cotisation model to its response DTO. today feeds the
// days-overdue indicator.
func (c *Cotisation) ToResponse(today time.Time) *CotisationResponse {
	resp := &CotisationResponse{
		ID:           c.ID,
		MemberID:     c.MemberID,
		MemberName:   c.MemberName,
		GroupName:    c.GroupName,
		SourceType:   string(c.SourceType),
		ActivityID:   c.ActivityID,
		MonthlyID:    c.MonthlyID,
		AmountDue:    c.AmountDue,
		AmountPaid:   c.AmountPaid,
		Remaining:    c.Remaining(),
		DueDate:      c.DueDate.Format(dateLayout),
		State:        string(c.State),
		DaysOverdue:  c.DaysOverdue(today),
		Description:  c.Description,
		PaymentNotes: c.PaymentNotes,
		Active:       c.Active,
		CreatedAt:    c.CreatedAt.Format(timestampLayout),
	}
	if c.PaymentDate != nil {
		d := c.PaymentDate.Format(dateLayout)
		resp.PaymentDate = &d
	}
	return resp
}

// ToResponse converts a Payment model to its response DTO
func (p *Payment) ToResponse() *PaymentResponse {
	return &PaymentResponse{
		ID:           p.ID,
		CotisationID: p.CotisationID,
		Amount:       p.Amount,
		Method:       p.Method,
		Reference:    p.Reference,
		PaymentDate:  p.PaymentDate.Format(dateLayout),
		Notes:        p.Notes,
	}
}
