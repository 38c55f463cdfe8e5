package capture

import "testing"

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain value uppercased", "region sur", "REGION SUR"},
		{"already canonical", "REGION SUR", "REGION SUR"},
		{"surrounding whitespace trimmed", "  Pickup \t", "PICKUP"},
		{"empty string", "", ""},
		{"whitespace only", "   ", ""},
		{"literal None is empty", "None", ""},
		{"literal none any case", "nOnE", ""},
		{"interior whitespace preserved", "REGION  NORTE", "REGION  NORTE"},
		{"mixed case model", "Sprinter 316", "SPRINTER 316"},
		{"accented input survives", "Camión", "CAMIÓN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeKey(tt.input); got != tt.want {
				t.Errorf("NormalizeKey(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// Normalization must be idempotent: applying it twice changes nothing.
func TestNormalizeKeyIdempotent(t *testing.T) {
	inputs := []string{
		"", "   ", "None", "region sur", "  Pickup ", "SPRINTER 316",
		"Ñandú", "a\tb", "REGION  NORTE",
	}
	for _, in := range inputs {
		once := NormalizeKey(in)
		twice := NormalizeKey(once)
		if once != twice {
			t.Errorf("NormalizeKey not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestMakeLimitKey(t *testing.T) {
	got := MakeLimitKey(" region sur ", "pickup", "None")
	want := LimitKey{Region: "REGION SUR", VehicleType: "PICKUP", Model: ""}
	if got != want {
		t.Errorf("MakeLimitKey = %+v, want %+v", got, want)
	}
}

func TestParseRegionParam(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"REGION_SUR", "REGION SUR"},
		{"region_sur", "REGION SUR"},
		{"REGION SUR", "REGION SUR"},
		{"_region_", "REGION"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ParseRegionParam(tt.input); got != tt.want {
			t.Errorf("ParseRegionParam(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
