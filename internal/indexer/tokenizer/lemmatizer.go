package tokenizer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kljensen/snowball"
)

// Lemmatizer reduces a lowercase token to its base form. Implementations
// must be deterministic.
type Lemmatizer interface {
	Name() string
	Lemma(token string) string
}

var lemmatizers = map[string]Lemmatizer{
	"snowball": snowballLemmatizer{},
	"suffix":   suffixLemmatizer{},
	"none":     identityLemmatizer{},
}

// Lookup returns the registered lemmatizer with the given name.
func Lookup(name string) (Lemmatizer, error) {
	if l, ok := lemmatizers[name]; ok {
		return l, nil
	}
	return nil, fmt.Errorf("unknown lemmatizer %q (available: %s)", name, strings.Join(Names(), ", "))
}

// Names lists the registered lemmatizers.
func Names() []string {
	names := make([]string, 0, len(lemmatizers))
	for name := range lemmatizers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type snowballLemmatizer struct{}

func (snowballLemmatizer) Name() string { return "snowball" }

func (snowballLemmatizer) Lemma(token string) string {
	stemmed, err := snowball.Stem(token, "english", true)
	if err != nil || stemmed == "" {
		return token
	}
	return stemmed
}

type identityLemmatizer struct{}

func (identityLemmatizer) Name() string { return "none" }

func (identityLemmatizer) Lemma(token string) string { return token }

// suffixLemmatizer strips common English suffixes by rule. The first rule
// whose result keeps at least minLen bytes wins.
type suffixLemmatizer struct{}

func (suffixLemmatizer) Name() string { return "suffix" }

var suffixRules = []struct {
	suffix      string
	replacement string
	minLen      int
}{
	{"ational", "ate", 2},
	{"tional", "tion", 2},
	{"encies", "ence", 2},
	{"ances", "ance", 2},
	{"ments", "ment", 2},
	{"izing", "ize", 2},
	{"ating", "ate", 2},
	{"iness", "y", 2},
	{"ously", "ous", 2},
	{"ively", "ive", 2},
	{"eness", "ene", 2},
	{"tion", "t", 3},
	{"sion", "s", 3},
	{"ying", "y", 2},
	{"ling", "l", 3},
	{"ies", "y", 2},
	{"ing", "", 3},
	{"ers", "er", 2},
	{"est", "", 3},
	{"ful", "", 3},
	{"ous", "", 3},
	{"ess", "", 3},
	{"ble", "", 3},
	{"ed", "", 3},
	{"er", "", 3},
	{"ly", "", 3},
	{"es", "", 3},
	{"ss", "ss", 2},
	{"s", "", 3},
}

func (suffixLemmatizer) Lemma(token string) string {
	for _, rule := range suffixRules {
		if strings.HasSuffix(token, rule.suffix) {
			stem := token[:len(token)-len(rule.suffix)] + rule.replacement
			if len(stem) >= rule.minLen {
				return stem
			}
		}
	}
	return token
}
