// Package tokenizer turns raw text into the normalized term sequences the
// index is built from. It lower-cases input, splits on letter/digit runs,
// drops stop-words from documents, and reduces every token with a pluggable
// Lemmatizer.
package tokenizer

import (
	"strings"
	"unicode"
)

// Tokenize lower-cases text and splits it into runs of letters and digits.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Normalizer combines a stopword set and a lemmatizer. It holds no mutable
// state and is safe for concurrent use.
type Normalizer struct {
	stopwords  Stopwords
	lemmatizer Lemmatizer
}

func New(stopwords Stopwords, lemmatizer Lemmatizer) *Normalizer {
	if lemmatizer == nil {
		lemmatizer = identityLemmatizer{}
	}
	return &Normalizer{
		stopwords:  stopwords,
		lemmatizer: lemmatizer,
	}
}

func (n *Normalizer) Stopwords() Stopwords {
	return n.stopwords
}

func (n *Normalizer) Lemmatizer() Lemmatizer {
	return n.lemmatizer
}

// Normalize returns one space-joined normalized string per input text.
// Stopwords are removed only when isQuery is false; queries keep every
// token.
func (n *Normalizer) Normalize(texts []string, isQuery bool) []string {
	out := make([]string, len(texts))
	for i, text := range texts {
		out[i] = strings.Join(n.Terms(text, isQuery), " ")
	}
	return out
}

// Terms normalizes a single text into its term sequence, preserving
// multiplicity and order.
func (n *Normalizer) Terms(text string, isQuery bool) []string {
	tokens := Tokenize(text)
	terms := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if !isQuery && n.stopwords.Contains(token) {
			continue
		}
		terms = append(terms, n.lemmatizer.Lemma(token))
	}
	return terms
}
