package utils

import (
	"fmt"
	"math"
)

// FormatMMSS renders seconds as "MM:SS", the display format segments use.
func FormatMMSS(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	mins := int(seconds) / 60
	secs := int(seconds) % 60
	return fmt.Sprintf("%02d:%02d", mins, secs)
}

// FormatSRTTimestamp renders seconds as "HH:MM:SS,mmm" for SubRip files.
func FormatSRTTimestamp(seconds float64) string {
	h, m, s, ms := splitClock(seconds)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// FormatVTTTimestamp renders seconds as "HH:MM:SS.mmm" for WebVTT files.
func FormatVTTTimestamp(seconds float64) string {
	h, m, s, ms := splitClock(seconds)
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}

func splitClock(seconds float64) (h, m, s, ms int) {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	ms = int(math.Round((seconds - float64(total)) * 1000))
	if ms >= 1000 {
		total++
		ms -= 1000
	}
	h = total / 3600
	m = (total % 3600) / 60
	s = total % 60
	return
}

// TruncateWithEllipsis shortens s to max runes and appends "..." when cut.
func TruncateWithEllipsis(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
