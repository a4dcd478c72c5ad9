package model

import "testing"

func TestSameName(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"Cones", "cones", true},
		{"  Cones ", "CONES", true},
		{"Bê Rào", "BÊ RÀO", true},
		{"Cones", "Cone", false},
	}

	for _, tt := range tests {
		if got := SameName(tt.a, tt.b); got != tt.want {
			t.Errorf("SameName(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
