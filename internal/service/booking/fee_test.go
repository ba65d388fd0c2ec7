package booking

import (
	"testing"
	"time"
)

func TestBillableHours(t *testing.T) {
	entry := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		elapsed time.Duration
		want    int64
	}{
		{"zero elapsed bills minimum hour", 0, 1},
		{"one second", time.Second, 1},
		{"exactly one hour", time.Hour, 1},
		{"one hour one second rounds up", time.Hour + time.Second, 2},
		{"ninety minutes", 90 * time.Minute, 2},
		{"exactly two hours", 2 * time.Hour, 2},
		{"negative elapsed bills minimum hour", -time.Hour, 1},
		{"just under a day", 24*time.Hour - time.Minute, 24},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BillableHours(entry, entry.Add(tt.elapsed))
			if got != tt.want {
				t.Errorf("BillableHours(%v) = %d, want %d", tt.elapsed, got, tt.want)
			}
		})
	}
}

func TestComputeFee(t *testing.T) {
	entry := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	hours, amount := ComputeFee(entry, entry.Add(90*time.Minute), 50)
	if hours != 2 {
		t.Errorf("expected 2 billable hours, got %d", hours)
	}
	if amount != 100 {
		t.Errorf("expected amount 100, got %d", amount)
	}

	// Immediate exit still pays for one hour.
	hours, amount = ComputeFee(entry, entry, 75)
	if hours != 1 {
		t.Errorf("expected 1 billable hour, got %d", hours)
	}
	if amount != 75 {
		t.Errorf("expected amount 75, got %d", amount)
	}

	// Free lot charges nothing regardless of duration.
	_, amount = ComputeFee(entry, entry.Add(5*time.Hour), 0)
	if amount != 0 {
		t.Errorf("expected amount 0 for free lot, got %d", amount)
	}
}
