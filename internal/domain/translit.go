package domain

import (
	"strings"

	"github.com/mozillazg/go-unidecode"
)

// Transliterate renders a non-Latin title into a searchable Latin form
// using unidecode's rule tables. Deterministic by construction; the
// same input always yields the same output, which keeps cache keys
// stable across runs.
func Transliterate(title string) string {
	t := unidecode.Unidecode(title)
	// unidecode can leave runs of whitespace where characters had no
	// Latin equivalent.
	return strings.Join(strings.Fields(t), " ")
}
