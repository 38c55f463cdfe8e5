package capture

import "testing"

func TestParseOdometer(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   float64
		wantOK bool
	}{
		{"plain integer", "1200", 1200, true},
		{"decimal", "1200.5", 1200.5, true},
		{"thousands separator", "12,345.6", 12345.6, true},
		{"surrounding whitespace", "  980 ", 980, true},
		{"blank is zero and ok", "", 0, true},
		{"whitespace only is blank", "   ", 0, true},
		{"zero", "0", 0, true},
		{"negative rejected", "-12", 0, false},
		{"garbage rejected", "12a4", 0, false},
		{"letters rejected", "abc", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseOdometer(tt.input)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseOdometer(%q) = (%v, %v), want (%v, %v)",
					tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestParseLiters(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
	}{
		{"plain value", "50", 50},
		{"decimal", "12.75", 12.75},
		{"blank defaults to zero", "", 0},
		{"garbage defaults to zero", "n/a", 0},
		{"negative defaults to zero", "-3", 0},
		{"thousands separator", "1,020.5", 1020.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLiters(tt.input); got != tt.want {
				t.Errorf("ParseLiters(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
