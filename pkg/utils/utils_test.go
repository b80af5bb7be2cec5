package utils

import "testing"

func TestFormatMMSS(t *testing.T) {
	tests := []struct {
		seconds  float64
		expected string
	}{
		{0, "00:00"},
		{59.9, "00:59"},
		{60, "01:00"},
		{125.4, "02:05"},
		{3600, "60:00"},
		{-5, "00:00"},
	}

	for _, tt := range tests {
		if got := FormatMMSS(tt.seconds); got != tt.expected {
			t.Errorf("FormatMMSS(%v) = %s, expected %s", tt.seconds, got, tt.expected)
		}
	}
}

func TestFormatSRTTimestamp(t *testing.T) {
	if got := FormatSRTTimestamp(3725.5); got != "01:02:05,500" {
		t.Errorf("unexpected SRT timestamp: %s", got)
	}
	if got := FormatSRTTimestamp(0); got != "00:00:00,000" {
		t.Errorf("unexpected SRT timestamp for zero: %s", got)
	}
	// millisecond rounding must not produce ",1000"
	if got := FormatSRTTimestamp(1.9999); got != "00:00:02,000" {
		t.Errorf("unexpected rounding: %s", got)
	}
}

func TestFormatVTTTimestamp(t *testing.T) {
	if got := FormatVTTTimestamp(59.25); got != "00:00:59.250" {
		t.Errorf("unexpected VTT timestamp: %s", got)
	}
}

func TestTruncateWithEllipsis(t *testing.T) {
	if got := TruncateWithEllipsis("short", 200); got != "short" {
		t.Errorf("short strings must pass through, got %s", got)
	}
	if got := TruncateWithEllipsis("abcdef", 3); got != "abc..." {
		t.Errorf("expected truncation with ellipsis, got %s", got)
	}
	if got := TruncateWithEllipsis("", 10); got != "" {
		t.Errorf("empty string must stay empty, got %s", got)
	}
}
