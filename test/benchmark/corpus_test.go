// Package benchmark measures normalization, index build and persistence,
// and ranking throughput over a synthetic news corpus.
package benchmark

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/internal/indexer/tokenizer"
)

var vocabulary = strings.Fields(`storm coast evacuation residents hurricane flood
	markets rally stocks investors federal reserve interest rates inflation
	election results voters candidate senate governor campaign ballots
	police investigation court judge trial verdict jury prosecutors
	football season coach players championship league injury transfer
	the a of and to in for on with as by at from is was were`)

// syntheticCorpus returns n articles of 50-350 words drawn from vocabulary
// with a fixed seed.
func syntheticCorpus(n int) []string {
	rng := rand.New(rand.NewSource(42))
	docs := make([]string, n)
	for i := range docs {
		words := make([]string, 50+rng.Intn(300))
		for j := range words {
			words[j] = vocabulary[rng.Intn(len(vocabulary))]
		}
		docs[i] = strings.Join(words, " ") + "."
	}
	return docs
}

func newNormalizer(b *testing.B) *tokenizer.Normalizer {
	b.Helper()
	lem, err := tokenizer.Lookup("snowball")
	if err != nil {
		b.Fatal(err)
	}
	return tokenizer.New(tokenizer.EnglishStopwords(), lem)
}

func buildIndex(b *testing.B, n int) *index.Index {
	b.Helper()
	idx, err := indexer.NewBuilder(newNormalizer(b), nil).Build(syntheticCorpus(n))
	if err != nil {
		b.Fatal(err)
	}
	return idx
}

var corpusSizes = []int{100, 1000, 10000}

func sizeName(n int) string {
	return fmt.Sprintf("docs_%d", n)
}
