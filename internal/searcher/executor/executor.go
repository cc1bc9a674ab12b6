// Package executor runs ranked queries against the loaded index and shapes
// the results for callers: only documents that match at least one query
// term are returned, each with a short snippet of its raw text.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"

	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/pkg/tracing"
)

// DefaultSnippetLength is the maximum snippet length in runes.
const DefaultSnippetLength = 240

type Hit struct {
	DocID   int     `json:"doc_id"`
	Score   float64 `json:"score"`
	Snippet string  `json:"snippet"`
}

type SearchResult struct {
	Query     string         `json:"query"`
	Terms     []string       `json:"terms"`
	TotalHits int            `json:"total_hits"`
	Results   []Hit          `json:"results"`
	TermStats map[string]int `json:"term_stats"`
}

type Executor struct {
	engine     *ranker.Engine
	idx        *index.Index
	snippetLen int
	logger     *slog.Logger
}

func New(engine *ranker.Engine) *Executor {
	return &Executor{
		engine:     engine,
		idx:        engine.Index(),
		snippetLen: DefaultSnippetLength,
		logger:     slog.Default().With("component", "query-executor"),
	}
}

// Execute ranks every document against query and returns at most limit of
// the documents with a positive score. TotalHits counts all of them.
func (e *Executor) Execute(ctx context.Context, query string, limit int) (*SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	_, span := tracing.Start(ctx, "rank")
	ranked, err := e.engine.Search(query)
	span.Set("strategy", string(e.engine.Strategy()))
	span.End()
	if err != nil {
		return nil, err
	}

	// ranked is in descending score order, so the matches form a prefix
	totalHits := 0
	for totalHits < len(ranked) && ranked[totalHits].Score > 0 {
		totalHits++
	}
	top := ranked[:totalHits]
	if limit > 0 && len(top) > limit {
		top = top[:limit]
	}

	_, span = tracing.Start(ctx, "snippets")
	hits := make([]Hit, 0, len(top))
	for _, doc := range top {
		raw, err := e.idx.RawText(doc.DocID)
		if err != nil {
			span.End()
			return nil, err
		}
		hits = append(hits, Hit{
			DocID:   doc.DocID,
			Score:   doc.Score,
			Snippet: Snippet(raw, e.snippetLen),
		})
	}
	span.Set("hits", len(hits))
	span.End()

	terms := e.idx.QueryTerms(query)
	termStats := make(map[string]int, len(terms))
	for _, term := range terms {
		termStats[term] = e.idx.DocumentFrequency(term)
	}

	e.logger.Debug("query executed",
		"query", query,
		"terms", terms,
		"total_hits", totalHits,
		"returned", len(hits),
	)
	return &SearchResult{
		Query:     query,
		Terms:     terms,
		TotalHits: totalHits,
		Results:   hits,
		TermStats: termStats,
	}, nil
}

// Document returns the raw text of a document.
func (e *Executor) Document(docID int) (string, error) {
	return e.idx.RawText(docID)
}

func (e *Executor) Stats() index.Stats {
	return e.idx.Stats()
}

// Fingerprint identifies everything a SearchResult depends on: the index
// content, k1, b and the snippet length. Processes sharing a cache tier
// only share entries when all of them agree. The strategy is left out
// because scan and postings rank identically.
func (e *Executor) Fingerprint() string {
	k1, b := e.engine.Params()
	params := xxhash.Sum64String(fmt.Sprintf("k1=%g;b=%g;snippet=%d", k1, b, e.snippetLen))
	return fmt.Sprintf("%s-%08x", e.idx.Fingerprint(), uint32(params))
}

// Snippet collapses whitespace in text and cuts it to at most n runes,
// preferring a word boundary, with an ellipsis when cut.
func Snippet(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	if n <= 0 || utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	cut := string(runes[:n])
	if i := strings.LastIndexByte(cut, ' '); i > len(cut)/2 {
		cut = cut[:i]
	}
	return cut + "…"
}
