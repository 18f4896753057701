package domain

import "testing"

func TestTransliterate(t *testing.T) {
	got := Transliterate("باب الحارة")
	if got == "" {
		t.Fatal("expected non-empty transliteration")
	}
	for _, r := range got {
		if r > 0x7F {
			t.Fatalf("transliteration %q contains non-ASCII rune %q", got, r)
		}
	}
	if DetectScript(got) != ScriptLatin {
		t.Fatalf("transliteration %q should classify as Latin", got)
	}
}

func TestTransliterateDeterministic(t *testing.T) {
	first := Transliterate("مسلسل عائلي")
	second := Transliterate("مسلسل عائلي")
	if first != second {
		t.Fatalf("transliteration not stable: %q vs %q", first, second)
	}
}

func TestTransliterateLatinPassthrough(t *testing.T) {
	if got := Transliterate("Breaking Bad"); got != "Breaking Bad" {
		t.Fatalf("expected Latin title unchanged, got %q", got)
	}
}
