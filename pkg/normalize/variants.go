package normalize

import (
	"strings"
	"unicode"
)

// greekMap spells out Greek letters, so "TNF-α" and "TNF-alpha" share a key.
var greekMap = map[rune]string{
	'α': "alpha", 'β': "beta", 'γ': "gamma", 'δ': "delta",
	'ε': "epsilon", 'ζ': "zeta", 'η': "eta", 'θ': "theta",
	'ι': "iota", 'κ': "kappa", 'λ': "lamda", 'μ': "mu",
	'ν': "nu", 'ξ': "xi", 'ο': "omicron", 'π': "pi",
	'ρ': "rho", 'ς': "sigma", 'σ': "sigma", 'τ': "tau",
	'υ': "upsilon", 'φ': "phi", 'χ': "chi", 'ψ': "psi",
	'ω': "omega",
}

func greekTranslit(token string) string {
	if !strings.ContainsFunc(token, func(r rune) bool { _, ok := greekMap[r]; return ok }) {
		return token
	}
	var b strings.Builder
	b.Grow(len(token) + 8)
	for _, r := range token {
		if name, ok := greekMap[r]; ok {
			b.WriteString(name)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// mask collapses every digit run to a single '0', so "IL2" and "IL6" share
// a key. Letters are untouched; the result is stable under re-application.
func mask(token string) string {
	var b strings.Builder
	b.Grow(len(token))
	inDigits := false
	for _, r := range token {
		if unicode.IsDigit(r) {
			if !inDigits {
				b.WriteRune('0')
				inDigits = true
			}
			continue
		}
		inDigits = false
		b.WriteRune(r)
	}
	return b.String()
}

// suffixRules drive the stemmer, longest suffix first.
type suffixRule struct {
	suffix      string
	replacement string
	minStem     int
}

var suffixRules = []suffixRule{
	{"ational", "ate", 2},
	{"ization", "ize", 2},
	{"fulness", "ful", 2},
	{"iveness", "ive", 2},
	{"tional", "tion", 2},
	{"biliti", "ble", 2},
	{"icities", "ic", 2},
	{"ements", "ement", 2},
	{"ations", "ate", 2},
	{"ically", "ic", 2},
	{"ities", "ity", 2},
	{"ments", "ment", 2},
	{"ingly", "e", 3},
	{"esses", "ess", 2},
	{"ying", "y", 2},
	{"ines", "ine", 2},
	{"ies", "y", 2},
	{"ing", "", 3},
	{"ous", "", 3},
	{"ers", "er", 2},
	{"ess", "ess", 2},
	{"ied", "y", 2},
	{"ed", "", 3},
	{"es", "", 3},
	{"ly", "", 3},
	{"ss", "ss", 2},
	{"s", "", 3},
}

// stem applies a simple suffix-stripping stemmer. The exact algorithm is
// an implementation choice, not a compatibility target; it only has to be
// deterministic and shared between dictionary build and lookup.
func stem(token string) string {
	lower := strings.ToLower(token)
	for _, rule := range suffixRules {
		if !strings.HasSuffix(lower, rule.suffix) {
			continue
		}
		stemmed := lower[:len(lower)-len(rule.suffix)] + rule.replacement
		if len(stemmed) >= rule.minStem {
			return stemmed
		}
	}
	return lower
}
