package index

import (
	"math"
	"slices"

	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/internal/indexer/segment"
	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/bm25-news-search/pkg/errors"
)

// avgdlTolerance is the largest difference accepted between a persisted
// avgdl and the one recomputed from the persisted documents.
const avgdlTolerance = 1e-9

// Snapshot captures the index in its persisted form.
func (x *Index) Snapshot() *segment.Snapshot {
	snap := &segment.Snapshot{
		TermToID:   make(map[string]uint32, len(x.termToID)),
		IDToTerm:   make(map[uint32]string, len(x.idToTerm)),
		Postings:   make(map[string][]uint32, len(x.postings)),
		Docs:       x.docs,
		Raw:        x.raw,
		AvgDL:      x.avgdl,
		DocCount:   len(x.docs),
		Stopwords:  x.normalizer.Stopwords().Words(),
		Lemmatizer: x.normalizer.Lemmatizer().Name(),
	}
	for term, id := range x.termToID {
		snap.TermToID[term] = id
		snap.IDToTerm[id] = term
	}
	for term, docIDs := range x.postings {
		ids := make([]uint32, len(docIDs))
		for i, id := range docIDs {
			ids[i] = uint32(id)
		}
		snap.Postings[term] = ids
	}
	return snap
}

// FromSnapshot rebuilds an index from a decoded snapshot. Derived state is
// recomputed from the normalized documents and checked against the persisted
// vocabulary, postings and avgdl; any disagreement is an ErrCorruptIndex.
func FromSnapshot(snap *segment.Snapshot, normalizer *tokenizer.Normalizer) (*Index, error) {
	idx, err := Build(snap.Docs, snap.Raw, normalizer)
	if err != nil {
		return nil, apperrors.Corrupt("rebuilding from snapshot: %w", err)
	}
	if math.Abs(idx.avgdl-snap.AvgDL) > avgdlTolerance {
		return nil, apperrors.Corrupt("persisted avgdl %v, documents give %v", snap.AvgDL, idx.avgdl)
	}
	if len(snap.TermToID) != len(idx.termToID) {
		return nil, apperrors.Corrupt("persisted vocabulary has %d terms, documents give %d", len(snap.TermToID), len(idx.termToID))
	}
	for term, id := range snap.TermToID {
		if got, ok := idx.termToID[term]; !ok || got != id {
			return nil, apperrors.Corrupt("term %q has persisted id %d, documents give %d", term, id, got)
		}
	}
	for term, persisted := range snap.Postings {
		rebuilt := idx.postings[term]
		if !slices.EqualFunc(persisted, rebuilt, func(a uint32, b int) bool { return int(a) == b }) {
			return nil, apperrors.Corrupt("postings for %q disagree with documents", term)
		}
	}
	return idx, nil
}
