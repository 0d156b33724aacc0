package models

import "testing"

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"+254 712 345 678", "+254712345678"},
		{"0712-345-678", "0712345678"},
		{"(071) 234 5678", "0712345678"},
		{"  +91 98765 43210", "+919876543210"},
		{"712+345", "712345"},
		{"call me", ""},
		{"+", ""},
		{"", ""},
	}

	for _, c := range cases {
		if got := NormalizePhone(c.in); got != c.want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	if !s.VoiceDetectionEnabled {
		t.Error("voice detection should default on")
	}
	if s.TrackingEnabled || s.AutoSendSOS {
		t.Errorf("tracking/auto-send should default off: %+v", s)
	}
}
