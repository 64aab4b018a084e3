package proof

import (
	"testing"

	"github.com/cotizapp/cotiz/internal/cotisation"
)

func validSubmitRequest() SubmitProofRequest {
	return SubmitProofRequest{
		CotisationID: 1,
		Amount:       50,
		Method:       "bank_transfer",
		PaymentDate:  "2024-06-10",
	}
}

func TestSubmitProofRequestValidate(t *testing.T) {
	if err := validSubmitRequest().Validate(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*SubmitProofRequest)
	}{
		{"missing cotisation", func(r *SubmitProofRequest) { r.CotisationID = 0 }},
		{"zero amount", func(r *SubmitProofRequest) { r.Amount = 0 }},
		{"negative amount", func(r *SubmitProofRequest) { r.Amount = -10 }},
		{"missing method", func(r *SubmitProofRequest) { r.Method = "" }},
		{"unknown method", func(r *SubmitProofRequest) { r.Method = "carrier_pigeon" }},
		{"bad payment date", func(r *SubmitProofRequest) { r.PaymentDate = "10/06/2024" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validSubmitRequest()
			tt.mutate(&req)
			if err := req.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestSubmitProofRequestAcceptsAllRecordableMethods(t *testing.T) {
	// Every method RecordPayment accepts must pass submission, so a valid
	// proof can never be stuck undecidable.
	for method := range cotisation.PaymentMethods {
		req := validSubmitRequest()
		req.Method = method
		if err := req.Validate(); err != nil {
			t.Errorf("method %s rejected at submission: %v", method, err)
		}
	}
}
