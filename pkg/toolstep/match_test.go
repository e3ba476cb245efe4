package toolstep

import "testing"

func TestMatches(t *testing.T) {
	cases := []struct {
		expect, v string
		want      bool
	}{
		{"latest", "1.2.3", true},
		{"20", "20.11.0", true},
		{"20.11", "20.11.0", true},
		{"20.11.0", "20.11.0", true},
		{"2", "20.11.0", false},
		{"20.11.0-rc1", "20.11.0-rc1", true},
		{"20.11.0", "20.11.0-rc1", false},
		{"3.12", "3.2.0", false},
	}
	for _, tc := range cases {
		if got := Matches(tc.expect, tc.v); got != tc.want {
			t.Errorf("Matches(%q, %q) = %v, want %v", tc.expect, tc.v, got, tc.want)
		}
	}
}
