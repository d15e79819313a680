package frid

import "testing"

func TestIsFridIdentifier(t *testing.T) {
	cases := map[string]bool{
		"":        false,
		"a":       true,
		"_x":      true,
		"a.b-c":   true,
		"1abc":    false,
		"abc.":    false,
		"abc-":    false,
		"a_b1":    true,
		"a b":     false,
	}
	for in, want := range cases {
		if got := IsFridIdentifier(in); got != want {
			t.Errorf("IsFridIdentifier(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestIsFridQuoteFree(t *testing.T) {
	cases := map[string]bool{
		"":            false,
		"hello":       true,
		"hello world": true,
		"hello  world": false,
		"$var":        true,
		"abc@":        false,
		"abc$":        false,
		"a.b-c_d":     true,
		"1abc":        false,
	}
	for in, want := range cases {
		if got := IsFridQuoteFree(in); got != want {
			t.Errorf("IsFridQuoteFree(%q) = %v, want %v", in, got, want)
		}
	}
}
