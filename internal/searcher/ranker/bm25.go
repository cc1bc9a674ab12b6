package ranker

import "math"

// Okapi BM25 defaults.
const (
	DefaultK1 = 1.5
	DefaultB  = 0.75
)

// IDF is the BM25 inverse document frequency of a term that occurs in df of
// n documents. The +1 inside the logarithm keeps it positive for terms that
// occur in more than half of the corpus.
func IDF(n, df int) float64 {
	return math.Log((float64(n)-float64(df)+0.5)/(float64(df)+0.5) + 1)
}

// TermScore is the contribution of one query term to the score of a
// document of length dl containing the term tf times.
func TermScore(idf float64, tf, dl int, avgdl, k1, b float64) float64 {
	if tf == 0 {
		return 0
	}
	f := float64(tf)
	return idf * f * (k1 + 1) / (f + k1*(1-b+b*float64(dl)/avgdl))
}
