package textutil

import "testing"

func TestLabel(t *testing.T) {
	cases := []struct {
		in    string
		limit int
		want  string
	}{
		{"john.doe_99", 20, "johndoe99"},
		{"  spaced name  ", 20, "spacedname"},
		{"abcdefghijklmnopqrstuvwxyz", 20, "abcdefghijklmnopqrst"},
		{"!!!", 20, ""},
		{"", 20, ""},
		{"Qu\u00e1n \u0102n Ngon", 20, "Qu\u00e1n\u0102nNgon"},
	}
	for _, tc := range cases {
		if got := Label(tc.in, tc.limit); got != tc.want {
			t.Fatalf("Label(%q, %d) = %q, want %q", tc.in, tc.limit, got, tc.want)
		}
	}
}

func TestLabelNormalizesDecomposedInput(t *testing.T) {
	composed := "Qu\u00e1n"
	decomposed := "Qua\u0301n"
	if Label(composed, 20) != Label(decomposed, 20) {
		t.Fatalf("expected NFC normalization: %q vs %q", Label(composed, 20), Label(decomposed, 20))
	}
}

func TestFolderName(t *testing.T) {
	if got := FolderName("user_1700000000-x/../evil", 50); got != "user_1700000000-xevil" {
		t.Fatalf("unexpected folder name %q", got)
	}
	long := ""
	for i := 0; i < 60; i++ {
		long += "a"
	}
	if got := FolderName(long, 50); len(got) != 50 {
		t.Fatalf("expected 50 runes, got %d", len(got))
	}
}

