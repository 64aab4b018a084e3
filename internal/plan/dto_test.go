package plan

import "testing"

func TestPayInstallmentRequestValidate(t *testing.T) {
	valid := PayInstallmentRequest{Amount: 25, PaymentDate: "2024-06-10"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	// The payment date is optional; an empty one means "today".
	if err := (PayInstallmentRequest{Amount: 25}).Validate(); err != nil {
		t.Fatalf("request without payment date rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*PayInstallmentRequest)
	}{
		{"zero amount", func(r *PayInstallmentRequest) { r.Amount = 0 }},
		{"negative amount", func(r *PayInstallmentRequest) { r.Amount = -10 }},
		{"bad payment date", func(r *PayInstallmentRequest) { r.PaymentDate = "10/06/2024" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			if err := req.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}
