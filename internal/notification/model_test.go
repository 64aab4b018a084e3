package notification

import "testing"

func TestTierWindowsMatch(t *testing.T) {
	tests := []struct {
		name string
		tier ReminderTier
		days int
		want bool
	}{
		{"first tier day 1", TierFirst, 1, true},
		{"first tier day 7", TierFirst, 7, true},
		{"first tier day 8", TierFirst, 8, false},
		{"second tier day 7", TierSecond, 7, false},
		{"second tier day 8", TierSecond, 8, true},
		{"second tier day 14", TierSecond, 14, true},
		{"second tier day 15", TierSecond, 15, false},
		{"final tier day 14", TierFinal, 14, false},
		{"final tier day 15", TierFinal, 15, true},
		{"final tier unbounded", TierFinal, 400, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tierWindows[tt.tier].matches(tt.days); got != tt.want {
				t.Errorf("matches(%d) = %v, want %v", tt.days, got, tt.want)
			}
		})
	}
}

func TestCustomWindowUnbounded(t *testing.T) {
	w := tierWindow{MinDays: 5, MaxDays: 0}
	if !w.matches(5) || !w.matches(100) {
		t.Error("unbounded window should match anything past min")
	}
	if w.matches(4) {
		t.Error("window should not match below min")
	}
}

func TestReminderMessageEscalates(t *testing.T) {
	first := reminderMessage(TierFirst, 3, 50)
	second := reminderMessage(TierSecond, 10, 50)
	final := reminderMessage(TierFinal, 20, 50)

	if first == second || second == final || first == final {
		t.Error("tiers should produce distinct messages")
	}
}
