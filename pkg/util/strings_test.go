package util

import "testing"

func TestFormatCompact(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{7_200_000_000_000, "7200.0B"},
		{1_234_567_890, "1.2B"},
		{1_000_000_000, "1.0B"},
		{45_670_000, "45.7M"},
		{5_600, "5.6K"},
		{999, "999.0"},
		{12.34, "12.3"},
		{0, "0.0"},
	}
	for _, c := range cases {
		if got := FormatCompact(c.in); got != c.want {
			t.Fatalf("FormatCompact(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestRound2(t *testing.T) {
	if got := Round2(168.456); got != 168.46 {
		t.Fatalf("Round2 = %v", got)
	}
	if got := Round2(-0.004); got != 0 {
		t.Fatalf("Round2 = %v", got)
	}
}
