package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charlie0129/batteryinfo/pkg/batteryinfo"
	"github.com/charlie0129/batteryinfo/pkg/measurement"
	"github.com/charlie0129/batteryinfo/pkg/powerinfo"
	"github.com/charlie0129/batteryinfo/pkg/utils/ptr"
)

func TestFormatMapValue(t *testing.T) {
	tests := []struct {
		name string
		v    any
		want string
	}{
		{"percent", []any{95.26, "%"}, "95.26%"},
		{"measurement", []any{12.5, "V"}, "12.5 V"},
		{"empty string", "", "-"},
		{"string", "2 hours", "2 hours"},
		{"index", float64(1), "1"},
		{"other", true, "true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatMapValue(tt.v); got != tt.want {
				t.Errorf("formatMapValue(%v) = %q, want %q", tt.v, got, tt.want)
			}
		})
	}
}

func TestPrintMap(t *testing.T) {
	var buf bytes.Buffer
	printMap(&buf, map[string]any{
		"state":         "charging",
		"battery_index": float64(0),
		"not_a_key":     "x",
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "battery_index:") || !strings.HasPrefix(lines[1], "state:") {
		t.Errorf("lines not in key order: %q", lines)
	}
}

func TestWatchLine(t *testing.T) {
	s := batteryinfo.Snapshot{
		Percent:     measurement.New(50, measurement.PercentUnit, 1),
		State:       powerinfo.Charging,
		EnergyRate:  measurement.New(20, "W", 1),
		TimeToFull:  ptr.To("1 hour"),
		Temperature: ptr.To(measurement.New(30, "°C", 1)),
	}
	want := "50.0%  charging  20.0 W  30.0 °C  1 hour to full"
	if got := watchLine(s); got != want {
		t.Errorf("watchLine() = %q, want %q", got, want)
	}
}

func TestParseIntArg(t *testing.T) {
	if v, err := parseIntArg([]string{"42"}, "n"); err != nil || v != 42 {
		t.Errorf("parseIntArg(42) = %d, %v", v, err)
	}
	if _, err := parseIntArg([]string{"x"}, "n"); err == nil {
		t.Errorf("parseIntArg(x) should fail")
	}
	if _, err := parseIntArg(nil, "n"); err == nil {
		t.Errorf("parseIntArg() should fail")
	}
}
