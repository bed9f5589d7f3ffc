package model

import (
	"testing"
	"time"
)

func slot(start, end string) TimeSlot {
	s, _ := time.Parse("2006-01-02 15:04", start)
	e, _ := time.Parse("2006-01-02 15:04", end)
	return TimeSlot{Start: s, End: e}
}

func TestTimeSlot_Overlaps(t *testing.T) {
	base := slot("2026-09-07 08:00", "2026-09-07 16:00")

	tests := []struct {
		name  string
		other TimeSlot
		want  bool
	}{
		{"完全重合", slot("2026-09-07 08:00", "2026-09-07 16:00"), true},
		{"部分重叠", slot("2026-09-07 14:00", "2026-09-07 18:00"), true},
		{"包含", slot("2026-09-07 10:00", "2026-09-07 12:00"), true},
		{"首尾相接不算重叠", slot("2026-09-07 16:00", "2026-09-07 18:00"), false},
		{"完全分离", slot("2026-09-08 08:00", "2026-09-08 16:00"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := base.Overlaps(tt.other); got != tt.want {
				t.Errorf("Overlaps() = %v, want %v", got, tt.want)
			}
			// 重叠关系对称
			if got := tt.other.Overlaps(base); got != tt.want {
				t.Errorf("Overlaps() reversed = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTimeSlot_Contains(t *testing.T) {
	s := slot("2026-09-07 08:00", "2026-09-07 16:00")

	if !s.Contains(s.Start) {
		t.Error("Start should be contained")
	}
	if s.Contains(s.End) {
		t.Error("End is exclusive")
	}
	if !s.Contains(s.Start.Add(4 * time.Hour)) {
		t.Error("Midpoint should be contained")
	}
}

func TestTimeSlot_IsValid(t *testing.T) {
	if !slot("2026-09-07 08:00", "2026-09-07 16:00").IsValid() {
		t.Error("Normal slot should be valid")
	}
	if slot("2026-09-07 16:00", "2026-09-07 08:00").IsValid() {
		t.Error("Reversed slot should be invalid")
	}
	if slot("2026-09-07 08:00", "2026-09-07 08:00").IsValid() {
		t.Error("Zero-length slot should be invalid")
	}
}

func TestTimeSlot_ShiftTo(t *testing.T) {
	s := slot("2026-09-07 08:30", "2026-09-07 16:30")
	target := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)

	shifted := s.ShiftTo(target)

	if DateOf(shifted.Start) != "2026-09-10" {
		t.Errorf("Expected shifted to 2026-09-10, got %s", DateOf(shifted.Start))
	}
	if shifted.Start.Hour() != 8 || shifted.Start.Minute() != 30 {
		t.Errorf("Start time of day should be preserved, got %s", shifted.Start.Format("15:04"))
	}
	if shifted.Duration() != s.Duration() {
		t.Errorf("Duration should be preserved: %v vs %v", shifted.Duration(), s.Duration())
	}
}

func TestTimeSlot_Days(t *testing.T) {
	single := slot("2026-09-07 08:00", "2026-09-07 16:00")
	if days := single.Days(); len(days) != 1 {
		t.Errorf("Expected 1 day, got %d", len(days))
	}

	multi := slot("2026-09-07 09:00", "2026-09-09 15:00")
	days := multi.Days()
	if len(days) != 3 {
		t.Fatalf("Expected 3 days, got %d", len(days))
	}
	if DateOf(days[0]) != "2026-09-07" || DateOf(days[2]) != "2026-09-09" {
		t.Errorf("Unexpected day range: %s .. %s", DateOf(days[0]), DateOf(days[2]))
	}
}

func TestWeekOf(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
	}{
		{"周三", time.Date(2026, 9, 9, 12, 0, 0, 0, time.UTC)},
		{"周一", time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)},
		{"周日", time.Date(2026, 9, 13, 23, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			week := WeekOf(tt.in)
			if DateOf(week.Start) != "2026-09-07" {
				t.Errorf("Week should start on Monday 2026-09-07, got %s", DateOf(week.Start))
			}
			if week.Start.Weekday() != time.Monday {
				t.Errorf("Week start should be Monday, got %s", week.Start.Weekday())
			}
			if DateOf(week.End) != "2026-09-13" {
				t.Errorf("Week should end on Sunday 2026-09-13, got %s", DateOf(week.End))
			}
		})
	}
}

func TestDateRange_CoversDate(t *testing.T) {
	r := DateRange{StartDate: "2026-09-07", EndDate: "2026-09-09"}

	for _, d := range []string{"2026-09-07", "2026-09-08", "2026-09-09"} {
		if !r.CoversDate(d) {
			t.Errorf("Expected %s covered", d)
		}
	}
	for _, d := range []string{"2026-09-06", "2026-09-10"} {
		if r.CoversDate(d) {
			t.Errorf("Expected %s not covered", d)
		}
	}
}
