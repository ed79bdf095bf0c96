package normalize

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Clean composes text to NFC, collapses runs of whitespace to a single
// space and trims the ends. Decomposed Hangul jamo from some input methods
// would otherwise never match the rule tables.
func Clean(text string) string {
	if text == "" {
		return ""
	}
	return strings.Join(strings.Fields(norm.NFC.String(text)), " ")
}

// Tokens splits text on whitespace.
func Tokens(text string) []string {
	return strings.Fields(text)
}

// StripParticle removes one trailing postposition from token, as in
// "서울에" -> "서울". The remainder must keep at least two runes, so short
// words such as "남이" are left alone.
func StripParticle(token string) string {
	for _, p := range particles {
		if !strings.HasSuffix(token, p) {
			continue
		}
		rest := strings.TrimSuffix(token, p)
		if utf8.RuneCountInString(rest) >= 2 {
			return rest
		}
	}
	return token
}

// tokenForms returns a token and, when different, its particle-stripped form.
func tokenForms(token string) []string {
	stripped := StripParticle(token)
	if stripped == token {
		return []string{token}
	}
	return []string{token, stripped}
}
