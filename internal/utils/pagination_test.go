package utils

import "testing"

func TestAtoiDefault(t *testing.T) {
	cases := []struct {
		s    string
		def  int
		want int
	}{
		{"", 20, 20},
		{"3", 1, 3},
		{"-1", 1, -1},
		{"007", 99, 7},
		// Anything strconv.Atoi rejects falls back, including whitespace
		// and values that overflow int.
		{"two", 5, 5},
		{" 3", 7, 7},
		{"999999999999999999999999", 20, 20},
	}

	for _, tc := range cases {
		if got := AtoiDefault(tc.s, tc.def); got != tc.want {
			t.Fatalf("AtoiDefault(%q, %d) = %d; want %d", tc.s, tc.def, got, tc.want)
		}
	}
}
