package activity

import "testing"

func validCreateRequest() CreateActivityRequest {
	return CreateActivityRequest{
		GroupID:          1,
		Name:             "Summer retreat",
		CotisationAmount: 75,
		StartDate:        "2024-07-10",
		EndDate:          "2024-07-12",
		DueDate:          "2024-07-01",
	}
}

func TestCreateActivityRequestValidate(t *testing.T) {
	if err := validCreateRequest().Validate(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*CreateActivityRequest)
	}{
		{"missing group", func(r *CreateActivityRequest) { r.GroupID = 0 }},
		{"missing name", func(r *CreateActivityRequest) { r.Name = "" }},
		{"zero amount", func(r *CreateActivityRequest) { r.CotisationAmount = 0 }},
		{"negative amount", func(r *CreateActivityRequest) { r.CotisationAmount = -5 }},
		{"bad start date", func(r *CreateActivityRequest) { r.StartDate = "07/10/2024" }},
		{"bad due date", func(r *CreateActivityRequest) { r.DueDate = "soon" }},
		{"end before start", func(r *CreateActivityRequest) { r.EndDate = "2024-07-01" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreateRequest()
			tt.mutate(&req)
			if err := req.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}
