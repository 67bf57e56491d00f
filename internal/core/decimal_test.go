package core

import "testing"

func TestParseQuantity(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"2", 2, true},
		{"0.5", 0.5, true},
		{"1,5", 1.5, true},
		{"0", 0, true},
		{" 3 ", 3, true},
		{"", 0, false},
		{"-1", 0, false},
		{"+1", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"1e3", 0, false},
		{"10000", 0, false}, // over cap
	}
	for _, tc := range cases {
		got, err := ParseQuantity(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Errorf("ParseQuantity(%q) = %v, %v; want %v", tc.in, got, err, tc.want)
		}
		if !tc.ok && err == nil {
			t.Errorf("ParseQuantity(%q) expected error", tc.in)
		}
	}
}

func TestParseVolume(t *testing.T) {
	if v, err := ParseVolume("330"); err != nil || v != 330 {
		t.Fatalf("got %v, %v", v, err)
	}
	if v, err := ParseVolume("568,26"); err != nil || v != 568.26 {
		t.Fatalf("got %v, %v", v, err)
	}
	for _, in := range []string{"0", "-5", "", "ml"} {
		if _, err := ParseVolume(in); err == nil {
			t.Errorf("ParseVolume(%q) expected error", in)
		}
	}
}

func TestParseABV(t *testing.T) {
	if v, err := ParseABV("4.5"); err != nil || v != 4.5 {
		t.Fatalf("got %v, %v", v, err)
	}
	if v, err := ParseABV("0"); err != nil || v != 0 {
		t.Fatalf("zero ABV should be valid, got %v, %v", v, err)
	}
	for _, in := range []string{"101", "-1", "abv"} {
		if _, err := ParseABV(in); err == nil {
			t.Errorf("ParseABV(%q) expected error", in)
		}
	}
}

func TestFormatQuantity(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{2, "2"},
		{0.5, "0.5"},
		{1.25, "1.25"},
		{0, "0"},
		{3.10, "3.1"},
	}
	for _, tc := range cases {
		if got := FormatQuantity(tc.in); got != tc.want {
			t.Errorf("FormatQuantity(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
