// Package pagestats summarizes a crawl: page length, the email addresses the
// pages mention, and word frequencies over page bodies.
package pagestats

import (
	"errors"
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/internal/indexer/tokenizer"
)

// ErrNoPages is returned for statistics that are undefined over zero pages.
var ErrNoPages = errors.New("no pages")

// Count pairs a value with the number of times it was seen.
type Count struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Report collects every statistic for one crawl.
type Report struct {
	Pages            int     `json:"pages"`
	AverageLength    float64 `json:"average_length"`
	PercentWithEmail float64 `json:"percent_with_email"`
	TopEmails        []Count `json:"top_emails"`
	TopWords         []Count `json:"top_words"`
	TopContentWords  []Count `json:"top_content_words"`
}

// AverageLength is the mean number of whitespace-separated tokens in a page
// body.
func AverageLength(pages []corpus.Page) (float64, error) {
	if len(pages) == 0 {
		return 0, ErrNoPages
	}
	total := 0
	for _, p := range pages {
		total += len(strings.Fields(p.Body))
	}
	return float64(total) / float64(len(pages)), nil
}

// TopEmails ranks addresses by the number of pages that mention them.
// An address repeated within one page counts once.
func TopEmails(pages []corpus.Page, n int) []Count {
	counts := make(map[string]int)
	for _, p := range pages {
		seen := make(map[string]struct{}, len(p.Emails))
		for _, email := range p.Emails {
			if _, ok := seen[email]; ok {
				continue
			}
			seen[email] = struct{}{}
			counts[email]++
		}
	}
	return top(counts, n)
}

// PercentWithEmail is the share of pages mentioning at least one address.
func PercentWithEmail(pages []corpus.Page) (float64, error) {
	if len(pages) == 0 {
		return 0, ErrNoPages
	}
	with := 0
	for _, p := range pages {
		if len(p.Emails) > 0 {
			with++
		}
	}
	return float64(with) / float64(len(pages)) * 100, nil
}

// TopWords counts whitespace tokens across all bodies. With removeStopwords,
// tokens whose lowercase form is an English stopword are skipped; the
// remaining tokens keep their case.
func TopWords(pages []corpus.Page, n int, removeStopwords bool) []Count {
	stop := tokenizer.EnglishStopwords()
	counts := make(map[string]int)
	for _, p := range pages {
		for _, word := range strings.Fields(p.Body) {
			if removeStopwords && stop.Contains(strings.ToLower(word)) {
				continue
			}
			counts[word]++
		}
	}
	return top(counts, n)
}

// Compute builds the full report, keeping n entries in each ranking.
func Compute(pages []corpus.Page, n int) (*Report, error) {
	avg, err := AverageLength(pages)
	if err != nil {
		return nil, err
	}
	pct, err := PercentWithEmail(pages)
	if err != nil {
		return nil, err
	}
	return &Report{
		Pages:            len(pages),
		AverageLength:    avg,
		PercentWithEmail: pct,
		TopEmails:        TopEmails(pages, n),
		TopWords:         TopWords(pages, n, false),
		TopContentWords:  TopWords(pages, n, true),
	}, nil
}

// top orders by count descending, then value ascending. n <= 0 keeps all.
func top(counts map[string]int, n int) []Count {
	result := make([]Count, 0, len(counts))
	for value, c := range counts {
		result = append(result, Count{Value: value, Count: c})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Value < result[j].Value
	})
	if n > 0 && len(result) > n {
		result = result[:n]
	}
	return result
}
