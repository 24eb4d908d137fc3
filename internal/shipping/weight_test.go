package shipping

import "testing"

func TestParsePackWeightKg(t *testing.T) {
	cases := []struct {
		in     string
		wantKg float64
		wantOK bool
	}{
		{"500g", 0.5, true},
		{"1kg", 1.0, true},
		{"2kg", 2.0, true},
		{"250g", 0.25, true},
		{"1.5kg", 1.5, true},
		{"500 g", 0.5, true},
		{"1L", 1.0, true},
		{"750ml", 0.75, true},
		{"  1KG ", 1.0, true},
		{"a dozen", 1.0, false},
		{"", 1.0, false},
		{"0g", 1.0, false},
		{"-2kg", 1.0, false},
		{"combo pack", 1.0, false},
	}
	for _, tc := range cases {
		gotKg, gotOK := ParsePackWeightKg(tc.in)
		if gotKg != tc.wantKg || gotOK != tc.wantOK {
			t.Errorf("ParsePackWeightKg(%q) = (%v, %v), want (%v, %v)",
				tc.in, gotKg, gotOK, tc.wantKg, tc.wantOK)
		}
	}
}
