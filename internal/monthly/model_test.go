package monthly

import (
	"testing"
	"time"
)

func TestPeriodDueDateClampsToMonthLength(t *testing.T) {
	tests := []struct {
		name  string
		month int
		year  int
		day   int
		want  string
	}{
		{"normal day", 6, 2024, 15, "2024-06-15"},
		{"day 31 in 30-day month", 6, 2024, 31, "2024-06-30"},
		{"day 31 in february leap year", 2, 2024, 31, "2024-02-29"},
		{"day 30 in february non-leap", 2, 2023, 30, "2023-02-28"},
		{"last day exact", 1, 2024, 31, "2024-01-31"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Period{Month: tt.month, Year: tt.year, DueDay: tt.day}
			got := p.DueDate().Format("2006-01-02")
			if got != tt.want {
				t.Errorf("DueDate() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestPeriodLabel(t *testing.T) {
	p := Period{Month: 3, Year: 2024}
	if got := p.Label(); got != "2024-03" {
		t.Errorf("Label() = %s, want 2024-03", got)
	}
}

func TestPeriodDueDateIsUTCMidnight(t *testing.T) {
	p := Period{Month: 6, Year: 2024, DueDay: 5}
	d := p.DueDate()
	if d.Hour() != 0 || d.Location() != time.UTC {
		t.Errorf("DueDate() = %v, want UTC midnight", d)
	}
}
