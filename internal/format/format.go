package format

import (
	"fmt"
	"time"
)

// Duration formats a duration as HH:MM:SS.mmm or MM:SS.mmm.
// Aligned series are often shorter than a second, so milliseconds are kept.
func Duration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	ms := int(d.Milliseconds()) % 1000
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
	}
	return fmt.Sprintf("%02d:%02d.%03d", m, s, ms)
}

// Elapsed formats a wall-clock duration for status lines.
// Examples: "1h30m", "2m5s", "45s", "120ms"
func Elapsed(d time.Duration) string {
	switch {
	case d >= time.Hour:
		return fmt.Sprintf("%dh%dm", d/time.Hour, (d%time.Hour)/time.Minute)
	case d >= time.Minute:
		return fmt.Sprintf("%dm%ds", d/time.Minute, (d%time.Minute)/time.Second)
	case d >= time.Second:
		return fmt.Sprintf("%ds", d/time.Second)
	}
	return fmt.Sprintf("%dms", d/time.Millisecond)
}

// Frames returns the time covered by n frames spaced hop base samples apart
// at sampleRate base samples per second. Non-positive rates yield 0.
func Frames(n, hop, sampleRate int) time.Duration {
	if sampleRate <= 0 || n <= 0 || hop <= 0 {
		return 0
	}
	samples := int64(n) * int64(hop)
	return time.Duration(samples * int64(time.Second) / int64(sampleRate))
}

// Size formats a size in bytes for human display.
// Uses MB for sizes >= 1MB, KB otherwise.
func Size(bytes int64) string {
	const (
		kb = 1024
		mb = 1024 * kb
	)
	if bytes >= mb {
		return fmt.Sprintf("%d MB", bytes/mb)
	}
	if bytes >= kb {
		return fmt.Sprintf("%d KB", bytes/kb)
	}
	if bytes == 1 {
		return "1 byte"
	}
	return fmt.Sprintf("%d bytes", bytes)
}
