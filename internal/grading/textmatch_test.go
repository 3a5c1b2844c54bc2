package grading

import "testing"

func TestMatches(t *testing.T) {
	cases := []struct {
		given, expected string
		want            bool
	}{
		{" Paris ", "paris", true},
		{"PARIS", "Paris", true},
		{"\tlisbon\n", "Lisbon ", true},
		{"ÉCOLE", "école", true},
		{"Paris.", "Paris", false},
		{"", "Paris", false},
		{"", "  ", true},
		{"New  York", "new york", false},
	}
	for _, c := range cases {
		if got := Matches(c.given, c.expected); got != c.want {
			t.Errorf("Matches(%q, %q) = %v, want %v", c.given, c.expected, got, c.want)
		}
	}
}
