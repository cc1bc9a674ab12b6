// Package ranker scores every document of an index.Index against a query
// with Okapi BM25 and orders them by relevance.
package ranker

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/bm25-news-search/pkg/errors"
)

// Strategy selects how candidate documents are enumerated. Both strategies
// produce identical results.
type Strategy string

const (
	// StrategyScan scores every document in the corpus.
	StrategyScan Strategy = "scan"
	// StrategyPostings scores only documents in the union of the query
	// terms' postings and gives every other document a zero score.
	StrategyPostings Strategy = "postings"
)

// ParseStrategy resolves a configured strategy name. An empty name is scan.
func ParseStrategy(name string) (Strategy, error) {
	switch Strategy(name) {
	case StrategyScan, "":
		return StrategyScan, nil
	case StrategyPostings:
		return StrategyPostings, nil
	default:
		return "", fmt.Errorf("unknown search strategy %q", name)
	}
}

type ScoredDoc struct {
	DocID int     `json:"doc_id"`
	Score float64 `json:"score"`
}

// Engine ranks documents of a single immutable index. It holds no mutable
// state and is safe for concurrent use.
type Engine struct {
	idx      *index.Index
	k1       float64
	b        float64
	strategy Strategy
	logger   *slog.Logger
}

type Option func(*Engine)

// WithParams overrides the BM25 k1 and b parameters.
func WithParams(k1, b float64) Option {
	return func(e *Engine) {
		e.k1 = k1
		e.b = b
	}
}

func WithStrategy(s Strategy) Option {
	return func(e *Engine) {
		e.strategy = s
	}
}

func New(idx *index.Index, opts ...Option) *Engine {
	e := &Engine{
		idx:      idx,
		k1:       DefaultK1,
		b:        DefaultB,
		strategy: StrategyScan,
		logger:   slog.Default().With("component", "ranker"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Index() *index.Index {
	return e.idx
}

func (e *Engine) Strategy() Strategy {
	return e.strategy
}

// Params returns the BM25 k1 and b in use.
func (e *Engine) Params() (k1, b float64) {
	return e.k1, e.b
}

// Query scores every document against raw by a full corpus scan and returns
// all of them, zero scores included, in rank order. An empty query scores
// every document 0.
func (e *Engine) Query(raw string) ([]ScoredDoc, error) {
	results, err := e.scan(raw)
	if err != nil {
		return nil, err
	}
	Sort(results)
	return results, nil
}

// QueryPostings returns the same ranking as Query but only computes scores
// for documents that contain at least one query term.
func (e *Engine) QueryPostings(raw string) ([]ScoredDoc, error) {
	results, err := e.postings(raw)
	if err != nil {
		return nil, err
	}
	Sort(results)
	return results, nil
}

// Search ranks with the configured strategy.
func (e *Engine) Search(raw string) ([]ScoredDoc, error) {
	return e.SearchTop(raw, 0)
}

// SearchTop ranks with the configured strategy and keeps the k best results.
// k <= 0 keeps all of them.
func (e *Engine) SearchTop(raw string, k int) ([]ScoredDoc, error) {
	var (
		results []ScoredDoc
		err     error
	)
	switch e.strategy {
	case StrategyPostings:
		results, err = e.postings(raw)
	default:
		results, err = e.scan(raw)
	}
	if err != nil {
		return nil, err
	}
	return TopK(results, k), nil
}

// query holds the normalized terms of one query with their idf, in query
// order. Repeated terms stay repeated so that each repeat contributes.
type query struct {
	terms []string
	idfs  []float64
}

func (e *Engine) prepare(raw string) (*query, error) {
	if e.idx == nil || e.idx.DocCount() == 0 {
		return nil, apperrors.New(apperrors.ErrEmptyIndex, http.StatusServiceUnavailable, "index holds no documents")
	}
	avgdl := e.idx.AvgDL()
	if avgdl == 0 || math.IsNaN(avgdl) || math.IsInf(avgdl, 0) {
		return nil, apperrors.Newf(apperrors.ErrEmptyIndex, http.StatusServiceUnavailable, "average document length is %v", avgdl)
	}
	q := &query{terms: e.idx.QueryTerms(raw)}
	q.idfs = make([]float64, len(q.terms))
	n := e.idx.DocCount()
	for i, term := range q.terms {
		q.idfs[i] = IDF(n, e.idx.DocumentFrequency(term))
	}
	return q, nil
}

func (e *Engine) score(q *query, docID int) float64 {
	dl := e.idx.DocLength(docID)
	avgdl := e.idx.AvgDL()
	var total float64
	for i, term := range q.terms {
		total += TermScore(q.idfs[i], e.idx.TermFrequency(term, docID), dl, avgdl, e.k1, e.b)
	}
	return total
}

func (e *Engine) scan(raw string) ([]ScoredDoc, error) {
	q, err := e.prepare(raw)
	if err != nil {
		return nil, err
	}
	results := make([]ScoredDoc, e.idx.DocCount())
	for d := range results {
		results[d] = ScoredDoc{DocID: d, Score: e.score(q, d)}
	}
	return results, nil
}

func (e *Engine) postings(raw string) ([]ScoredDoc, error) {
	q, err := e.prepare(raw)
	if err != nil {
		return nil, err
	}
	candidates := roaring.New()
	for _, term := range q.terms {
		for _, d := range e.idx.Postings(term) {
			candidates.Add(uint32(d))
		}
	}

	n := e.idx.DocCount()
	results := make([]ScoredDoc, 0, n)
	it := candidates.Iterator()
	for it.HasNext() {
		d := int(it.Next())
		results = append(results, ScoredDoc{DocID: d, Score: e.score(q, d)})
	}
	for d := 0; d < n; d++ {
		if !candidates.Contains(uint32(d)) {
			results = append(results, ScoredDoc{DocID: d})
		}
	}
	e.logger.Debug("postings candidates", "terms", len(q.terms), "candidates", candidates.GetCardinality(), "documents", n)
	return results, nil
}
