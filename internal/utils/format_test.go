package utils

import (
	"testing"
	"time"
)

func TestHumanize(t *testing.T) {
	tests := []struct {
		d          time.Duration
		showMillis bool
		want       string
	}{
		{90 * time.Second, false, "1m 30s"},
		{25*time.Hour + 3*time.Minute, false, "1d 1h 3m"},
		{1500 * time.Millisecond, true, "1s 500ms"},
		{1500 * time.Millisecond, false, "1s"},
		{42 * time.Millisecond, true, "42ms"},
	}
	for _, tt := range tests {
		if got := Humanize(tt.d, tt.showMillis); got != tt.want {
			t.Errorf("Humanize(%v, %v) = %q, want %q", tt.d, tt.showMillis, got, tt.want)
		}
	}
}

func TestAddCommas(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-4200, "-4,200"},
	}
	for _, tt := range tests {
		if got := AddCommas(tt.n); got != tt.want {
			t.Errorf("AddCommas(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		input string
		want  int
		ok    bool
	}{
		{"#F8F8FF", 0xF8F8FF, true},
		{"f8f8ff", 0xF8F8FF, true},
		{"#abc", 0xAABBCC, true},
		{"FFF", 0xFFFFFF, true},
		{"#12345", 0, false},
		{"zzzzzz", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseHexColor(tt.input)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseHexColor(%q) = (%#x, %v), want (%#x, %v)", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}
