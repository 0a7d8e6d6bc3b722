// Package utils holds small formatting helpers shared by commands and
// reports.
package utils

import (
	"strconv"
	"strings"
	"time"
)

// Humanize renders a duration as space-separated day/hour/minute/second
// parts, appending milliseconds only when showMillis is set.
func Humanize(d time.Duration, showMillis bool) string {
	millis := d.Milliseconds()
	days := millis / 86_400_000
	millis %= 86_400_000
	hours := millis / 3_600_000
	millis %= 3_600_000
	minutes := millis / 60_000
	millis %= 60_000
	seconds := millis / 1_000
	millis %= 1_000

	parts := []struct {
		value int64
		unit  string
	}{
		{days, "d"},
		{hours, "h"},
		{minutes, "m"},
		{seconds, "s"},
		{millis, "ms"},
	}

	var out []string
	for _, part := range parts {
		if part.value == 0 {
			continue
		}
		if part.unit == "ms" && !showMillis {
			continue
		}
		out = append(out, strconv.FormatInt(part.value, 10)+part.unit)
	}
	return strings.Join(out, " ")
}

// AddCommas groups the digits of n in thousands.
func AddCommas(n int64) string {
	s := strconv.FormatInt(n, 10)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign = "-"
		s = s[1:]
	}
	if len(s) <= 3 {
		return sign + s
	}

	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return sign + b.String()
}

// ParseHexColor parses a "#RGB" or "#RRGGBB" color (hash optional,
// case-insensitive), expanding the short form. ok is false for anything
// else.
func ParseHexColor(input string) (color int, ok bool) {
	s := strings.TrimPrefix(strings.TrimSpace(input), "#")
	if len(s) != 3 && len(s) != 6 {
		return 0, false
	}
	if len(s) == 3 {
		var expanded strings.Builder
		for _, c := range s {
			expanded.WriteRune(c)
			expanded.WriteRune(c)
		}
		s = expanded.String()
	}

	value, err := strconv.ParseInt(s, 16, 32)
	if err != nil {
		return 0, false
	}
	return int(value), true
}
