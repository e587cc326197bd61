package services

import (
	"testing"
	"time"
)

func TestAnalyticsRequest_Range_Defaults(t *testing.T) {
	req := &AnalyticsRequest{}
	start, end := req.Range()

	if !end.After(start) {
		t.Fatalf("end %v is not after start %v", end, start)
	}
	days := end.Sub(start).Hours() / 24
	if days < 29 || days > 31 {
		t.Errorf("default window is %.1f days, expected about 30", days)
	}
}

func TestAnalyticsRequest_Range_Explicit(t *testing.T) {
	req := &AnalyticsRequest{StartDate: "2026-03-01", EndDate: "2026-03-15"}
	start, end := req.Range()

	wantStart := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	if !start.Equal(wantStart) {
		t.Errorf("start = %v, expected %v", start, wantStart)
	}

	// End date is inclusive: extended to the last second of the day
	wantEnd := time.Date(2026, 3, 15, 23, 59, 59, 0, time.UTC)
	if !end.Equal(wantEnd) {
		t.Errorf("end = %v, expected %v", end, wantEnd)
	}
}

func TestAnalyticsRequest_Range_InvalidFallsBack(t *testing.T) {
	req := &AnalyticsRequest{StartDate: "March 1st", EndDate: "also wrong"}
	start, end := req.Range()

	if !end.After(start) {
		t.Errorf("fallback window invalid: start %v end %v", start, end)
	}
}

func TestMergeThroughput(t *testing.T) {
	created := []CompletionPoint{
		{Day: "2026-03-01", Created: 3},
		{Day: "2026-03-03", Created: 1},
	}
	completed := []CompletionPoint{
		{Day: "2026-03-02", Completed: 2},
		{Day: "2026-03-03", Completed: 4},
	}

	merged := mergeThroughput(created, completed)
	if len(merged) != 3 {
		t.Fatalf("expected 3 merged days, got %d", len(merged))
	}

	expected := []CompletionPoint{
		{Day: "2026-03-01", Created: 3, Completed: 0},
		{Day: "2026-03-02", Created: 0, Completed: 2},
		{Day: "2026-03-03", Created: 1, Completed: 4},
	}
	for i, want := range expected {
		if merged[i] != want {
			t.Errorf("merged[%d] = %+v, expected %+v", i, merged[i], want)
		}
	}
}

func TestMergeThroughput_Empty(t *testing.T) {
	if merged := mergeThroughput(nil, nil); len(merged) != 0 {
		t.Errorf("expected empty result, got %d entries", len(merged))
	}
}
