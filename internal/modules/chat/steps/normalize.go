package steps

import (
	"strings"
	"unicode"
)

var foldReplacer = strings.NewReplacer(
	"à", "a", "â", "a", "ä", "a",
	"é", "e", "è", "e", "ê", "e", "ë", "e",
	"î", "i", "ï", "i",
	"ô", "o", "ö", "o",
	"ù", "u", "û", "u", "ü", "u",
	"ç", "c", "œ", "oe", "æ", "ae",
	"’", "'", "‘", "'",
)

// fold lowercases s and strips French diacritics so keyword rules can be written plainly.
func fold(s string) string {
	return foldReplacer.Replace(strings.ToLower(s))
}

// tokenize folds s and splits it into words. Apostrophes stay inside a word, so
// "c'est" is one token and never matches the rule "c".
func tokenize(s string) []string {
	fields := strings.FieldsFunc(fold(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	out := fields[:0]
	for _, f := range fields {
		if f = strings.Trim(f, "'"); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// countPhrase counts the whole-word occurrences of phrase in words.
func countPhrase(words []string, phrase string) int {
	p := strings.Fields(phrase)
	if len(p) == 0 || len(p) > len(words) {
		return 0
	}
	n := 0
outer:
	for i := 0; i+len(p) <= len(words); i++ {
		for j, w := range p {
			if words[i+j] != w {
				continue outer
			}
		}
		n++
	}
	return n
}

func containsAny(words []string, phrases ...string) bool {
	for _, p := range phrases {
		if countPhrase(words, p) > 0 {
			return true
		}
	}
	return false
}

func countAny(words []string, phrases ...string) int {
	n := 0
	for _, p := range phrases {
		n += countPhrase(words, p)
	}
	return n
}
