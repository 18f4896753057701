package domain

// Script is the writing system a title is classified into for search
// language selection.
type Script string

const (
	ScriptArabic Script = "ar"
	ScriptLatin  Script = "en"
)

// DetectScript classifies a title as Arabic or Latin by counting
// characters in the Arabic Unicode blocks against the Basic Latin
// range. Majority wins; ties go to Latin. This is a heuristic, not a
// language detector.
func DetectScript(text string) Script {
	var arabic, latin int
	for _, r := range text {
		switch {
		case (r >= 0x0600 && r <= 0x06FF) || // Arabic
			(r >= 0x0750 && r <= 0x077F) || // Arabic Supplement
			(r >= 0xFB50 && r <= 0xFDFF) || // Presentation Forms-A
			(r >= 0xFE70 && r <= 0xFEFF): // Presentation Forms-B
			arabic++
		case r >= 0x0020 && r <= 0x007F:
			latin++
		}
	}

	if arabic > latin {
		return ScriptArabic
	}
	return ScriptLatin
}
