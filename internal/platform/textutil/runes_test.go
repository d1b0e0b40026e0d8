package textutil

import "testing"

func TestSplitAt(t *testing.T) {
	t.Helper()

	cases := []struct {
		name   string
		value  string
		idx    int
		family string
		given  string
	}{
		{name: "kanji boundary", value: "菅義偉", idx: 1, family: "菅", given: "義偉"},
		{name: "mixed scripts", value: "中山マサ", idx: 2, family: "中山", given: "マサ"},
		{name: "surrogate range glyph", value: "𠮷田太郎", idx: 2, family: "𠮷田", given: "太郎"},
		{name: "zero index", value: "原敬", idx: 0, family: "", given: "原敬"},
		{name: "index past end", value: "原敬", idx: 5, family: "原敬", given: ""},
		{name: "index at end", value: "原敬", idx: 2, family: "原敬", given: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			family, given := SplitAt(tc.value, tc.idx)
			if family != tc.family || given != tc.given {
				t.Fatalf("expected (%q, %q) got (%q, %q)", tc.family, tc.given, family, given)
			}
		})
	}
}

func TestRuneLen(t *testing.T) {
	if got := RuneLen("𠮷田"); got != 2 {
		t.Fatalf("expected 2 code points, got %d", got)
	}
	if got := RuneLen(""); got != 0 {
		t.Fatalf("expected 0 code points, got %d", got)
	}
}

func TestIsHan(t *testing.T) {
	for _, r := range []rune{'菅', '髙', '𠮷', '々'} {
		if !IsHan(r) {
			t.Errorf("expected %q to be Han", r)
		}
	}
	for _, r := range []rune{'マ', 'さ', 'A', 'ー'} {
		if IsHan(r) {
			t.Errorf("expected %q not to be Han", r)
		}
	}
}

func TestHasPrefixRune(t *testing.T) {
	if !HasPrefixRune("田中", '田') {
		t.Fatalf("expected prefix match")
	}
	if HasPrefixRune("", '田') {
		t.Fatalf("expected empty string not to match")
	}
	if HasPrefixRune("中田", '田') {
		t.Fatalf("expected non-prefix not to match")
	}
}
