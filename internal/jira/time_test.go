package jira

import (
	"testing"
	"time"
)

func TestParseTime(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Time
		wantErr bool
	}{
		{"2023-01-15T10:30:00.000+0000", time.Date(2023, 1, 15, 10, 30, 0, 0, time.UTC), false},
		{"2023-01-15T10:30:00Z", time.Date(2023, 1, 15, 10, 30, 0, 0, time.UTC), false},
		{"2023-01-15T10:30:00+02:00", time.Date(2023, 1, 15, 8, 30, 0, 0, time.UTC), false},
		{"2023-01-15 10:30", time.Date(2023, 1, 15, 10, 30, 0, 0, time.UTC), false},
		{"2023-01-15", time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC), false},
		{"15/Jan/23 10:30 AM", time.Date(2023, 1, 15, 10, 30, 0, 0, time.UTC), false},
		{"  2023-01-15  ", time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC), false},
		{"", time.Time{}, true},
		{"yesterday", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTime(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTime(%q) failed: %v", tt.input, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseTime(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestDay_UsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	ts := time.Date(2023, 1, 2, 5, 0, 0, 0, loc)
	if got := Day(ts); got != "2023-01-01" {
		t.Errorf("Day() = %q, want 2023-01-01", got)
	}
}
