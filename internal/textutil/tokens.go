package textutil

import (
	"strings"
	"unicode"
)

// NormalizeToken reduces a word to its comparable form: lowercased, with
// punctuation stripped. Apostrophes inside a word are kept so contractions
// ("don't") survive as single tokens. Returns "" for words that are pure
// punctuation.
func NormalizeToken(word string) string {
	var b strings.Builder
	runes := []rune(word)
	for i, r := range runes {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		case (r == '\'' || r == '’') && i > 0 && i < len(runes)-1:
			// interior apostrophe only
			if unicode.IsLetter(runes[i-1]) && unicode.IsLetter(runes[i+1]) {
				b.WriteRune('\'')
			}
		}
	}
	return b.String()
}

// Word pairs a display form with its comparable token.
type Word struct {
	Display string
	Token   string
}

// SplitWords breaks text on whitespace into display words with their
// comparable tokens, dropping words that normalize to nothing.
func SplitWords(text string) []Word {
	fields := strings.Fields(text)
	words := make([]Word, 0, len(fields))
	for _, field := range fields {
		token := NormalizeToken(field)
		if token == "" {
			continue
		}
		words = append(words, Word{Display: field, Token: token})
	}
	return words
}

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName replaces filesystem-unsafe characters in a filename.
// Slashes, backslashes, colons, and asterisks become dashes; other unsafe
// characters are removed. The result is trimmed of leading/trailing
// whitespace.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return strings.TrimSpace(fileNameReplacer.Replace(name))
}
