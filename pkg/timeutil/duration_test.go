package timeutil

import "testing"

func TestParseMinutes(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"90", 90},
		{"45m", 45},
		{"2h", 120},
		{"1h30m", 90},
		{" 1 hour 15 min ", 75},
		{"1H05M", 65},
	}
	for _, tt := range tests {
		got, err := ParseMinutes(tt.in)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("%q: expected %d, got %d", tt.in, tt.want, got)
		}
	}
}

func TestParseMinutesInvalid(t *testing.T) {
	for _, in := range []string{"", "noop", "0", "0m", "3d", "1h 30", "-5"} {
		if _, err := ParseMinutes(in); err == nil {
			t.Errorf("expected error for %q", in)
		}
	}
}

func TestFormatMinutes(t *testing.T) {
	tests := map[int]string{
		0:   "0m",
		45:  "45m",
		60:  "1h00m",
		75:  "1h15m",
		605: "10h05m",
	}
	for in, want := range tests {
		if got := FormatMinutes(in); got != want {
			t.Errorf("%d: expected %s, got %s", in, want, got)
		}
	}
}

func TestMinutesFlag(t *testing.T) {
	n := 60
	f := MinutesFlag{Target: &n}
	if err := f.Set("1h30m"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 90 || f.String() != "90" {
		t.Fatalf("expected 90, got %d (%s)", n, f.String())
	}
	if err := f.Set("soon"); err == nil {
		t.Fatalf("expected error")
	}
	if n != 90 {
		t.Fatalf("failed Set changed target to %d", n)
	}
}
