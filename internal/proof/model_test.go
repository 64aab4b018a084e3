package proof

import (
	"testing"
	"time"
)

func TestDecided(t *testing.T) {
	tests := []struct {
		state ProofState
		want  bool
	}{
		{StateSubmitted, false},
		{StateUnderReview, false},
		{StateValidated, true},
		{StateRejected, true},
	}
	for _, tt := range tests {
		p := Proof{State: tt.state}
		if got := p.Decided(); got != tt.want {
			t.Errorf("Decided() with state %s = %v, want %v", tt.state, got, tt.want)
		}
	}
}

func TestPendingDays(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	p := Proof{State: StateSubmitted, SubmittedAt: now.AddDate(0, 0, -4)}
	if got := p.PendingDays(now); got != 4 {
		t.Errorf("PendingDays() = %d, want 4", got)
	}

	decided := Proof{State: StateValidated, SubmittedAt: now.AddDate(0, 0, -10)}
	if got := decided.PendingDays(now); got != 0 {
		t.Errorf("PendingDays() on decided proof = %d, want 0", got)
	}
}

func TestRejectionReasonsAreClosed(t *testing.T) {
	if RejectionReasons["made_up_reason"] {
		t.Error("unknown reason should not be accepted")
	}
	for _, reason := range []RejectionReason{ReasonAmountMismatch, ReasonUnreadable, ReasonWrongCotisation, ReasonDuplicate, ReasonOther} {
		if !RejectionReasons[reason] {
			t.Errorf("reason %s should be accepted", reason)
		}
	}
}
