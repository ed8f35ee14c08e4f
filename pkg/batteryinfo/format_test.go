package batteryinfo

import "testing"

func TestHumanDuration(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{0, "0 seconds"},
		{1, "1 second"},
		{59, "59 seconds"},
		{60, "1 minute"},
		{150, "2 minutes, 30 seconds"},
		{8100, "2 hours, 15 minutes"},
		{90061, "1 day, 1 hour, 1 minute, 1 second"},
	}
	for _, tt := range tests {
		if got := humanDuration(tt.in); got != tt.want {
			t.Errorf("humanDuration(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatTime(t *testing.T) {
	tests := []struct {
		seconds float32
		format  TimeFormat
		want    string
	}{
		{150, Seconds, "150.0 seconds"},
		{150, Minutes, "2.5 minutes"},
		{150, Human, "2 minutes, 30 seconds"},
		{150.9, Human, "2 minutes, 30 seconds"},
		{0.4, Human, "0 seconds"},
		{-5, Human, "0 seconds"},
	}
	for _, tt := range tests {
		if got := formatTime(tt.seconds, tt.format); got != tt.want {
			t.Errorf("formatTime(%v, %v) = %q, want %q", tt.seconds, tt.format, got, tt.want)
		}
	}
}

func TestConvertTemperature(t *testing.T) {
	if got := convertTemperature(100, Fahrenheit); got != 212 {
		t.Errorf("convertTemperature(100, F) = %v, want 212", got)
	}
	if got := convertTemperature(-40, Fahrenheit); got != -40 {
		t.Errorf("convertTemperature(-40, F) = %v, want -40", got)
	}
	if got := convertTemperature(21.5, Celsius); got != 21.5 {
		t.Errorf("convertTemperature(21.5, C) = %v, want 21.5", got)
	}
}

func TestParseOptions(t *testing.T) {
	if f, err := ParseTimeFormat("minutes"); err != nil || f != Minutes {
		t.Errorf("ParseTimeFormat(minutes) = %v, %v", f, err)
	}
	if _, err := ParseTimeFormat("fortnights"); err == nil {
		t.Errorf("ParseTimeFormat(fortnights) should fail")
	}
	if u, err := ParseTempUnit("C"); err != nil || u != Celsius {
		t.Errorf("ParseTempUnit(C) = %v, %v", u, err)
	}
	if u, err := ParseTempUnit("fahrenheit"); err != nil || u != Fahrenheit {
		t.Errorf("ParseTempUnit(fahrenheit) = %v, %v", u, err)
	}
	if _, err := ParseTempUnit("kelvin"); err == nil {
		t.Errorf("ParseTempUnit(kelvin) should fail")
	}

	var f TimeFormat
	if err := f.UnmarshalText([]byte("Seconds")); err != nil || f != Seconds {
		t.Errorf("UnmarshalText(Seconds) = %v, %v", f, err)
	}
	if b, _ := Celsius.MarshalText(); string(b) != "Celsius" {
		t.Errorf("MarshalText() = %s", b)
	}
}
