package tokenizer

import (
	"fmt"
	"sort"
)

// englishStopwords is the NLTK English stopword corpus.
var englishStopwords = []string{
	"i", "me", "my", "myself", "we", "our", "ours", "ourselves", "you",
	"you're", "you've", "you'll", "you'd", "your", "yours", "yourself",
	"yourselves", "he", "him", "his", "himself", "she", "she's", "her",
	"hers", "herself", "it", "it's", "its", "itself", "they", "them",
	"their", "theirs", "themselves", "what", "which", "who", "whom",
	"this", "that", "that'll", "these", "those", "am", "is", "are", "was",
	"were", "be", "been", "being", "have", "has", "had", "having", "do",
	"does", "did", "doing", "a", "an", "the", "and", "but", "if", "or",
	"because", "as", "until", "while", "of", "at", "by", "for", "with",
	"about", "against", "between", "into", "through", "during", "before",
	"after", "above", "below", "to", "from", "up", "down", "in", "out",
	"on", "off", "over", "under", "again", "further", "then", "once",
	"here", "there", "when", "where", "why", "how", "all", "any", "both",
	"each", "few", "more", "most", "other", "some", "such", "no", "nor",
	"not", "only", "own", "same", "so", "than", "too", "very", "s", "t",
	"can", "will", "just", "don", "don't", "should", "should've", "now",
	"d", "ll", "m", "o", "re", "ve", "y", "ain", "aren", "aren't", "couldn",
	"couldn't", "didn", "didn't", "doesn", "doesn't", "hadn", "hadn't",
	"hasn", "hasn't", "haven", "haven't", "isn", "isn't", "ma", "mightn",
	"mightn't", "mustn", "mustn't", "needn", "needn't", "shan", "shan't",
	"shouldn", "shouldn't", "wasn", "wasn't", "weren", "weren't", "won",
	"won't", "wouldn", "wouldn't",
}

// Stopwords is an immutable set of terms excluded from document
// normalization.
type Stopwords struct {
	set map[string]struct{}
}

// NewStopwords builds a set from the given words. Words are used verbatim;
// callers pass lowercase terms.
func NewStopwords(words ...string) Stopwords {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return Stopwords{set: set}
}

// EnglishStopwords returns the English stopword set, extended with extra.
func EnglishStopwords(extra ...string) Stopwords {
	words := make([]string, 0, len(englishStopwords)+len(extra))
	words = append(words, englishStopwords...)
	words = append(words, extra...)
	return NewStopwords(words...)
}

// StopwordsByName resolves a configured stopword set name ("english" or
// "none") and adds extra words to it.
func StopwordsByName(name string, extra ...string) (Stopwords, error) {
	switch name {
	case "english", "":
		return EnglishStopwords(extra...), nil
	case "none":
		return NewStopwords(extra...), nil
	default:
		return Stopwords{}, fmt.Errorf("unknown stopword set %q", name)
	}
}

func (s Stopwords) Contains(term string) bool {
	_, ok := s.set[term]
	return ok
}

func (s Stopwords) Len() int {
	return len(s.set)
}

// Words returns the set members in sorted order.
func (s Stopwords) Words() []string {
	words := make([]string, 0, len(s.set))
	for w := range s.set {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}
