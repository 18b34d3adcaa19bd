package search

import "testing"

func TestFold(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"   ", ""},
		{"Matrix", "matrix"},
		{"  The   Dark\tKnight ", "the dark knight"},
		{"AÇÃO", "ação"},
		{"Ação", "ação"},
		{"Straße", "strasse"},
	}
	for _, tc := range tests {
		if got := Fold(tc.in); got != tc.want {
			t.Errorf("Fold(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFold_CaseInsensitiveEquality(t *testing.T) {
	if Fold("FICÇÃO CIENTÍFICA") != Fold("ficção científica") {
		t.Fatalf("folded forms differ for accented genre")
	}
}

func TestContainsPattern(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"  ", ""},
		{"Matrix", "%matrix%"},
		{"100%", `%100\%%`},
		{"a_b", `%a\_b%`},
		{`c:\dir`, `%c:\\dir%`},
	}
	for _, tc := range tests {
		if got := ContainsPattern(tc.in); got != tc.want {
			t.Errorf("ContainsPattern(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
