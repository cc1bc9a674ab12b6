// Package indexer turns a sequence of raw documents into an immutable
// index.Index and persists or restores it through a store.Store.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/internal/indexer/segment"
	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/internal/indexer/store"
	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/bm25-news-search/pkg/errors"
)

// Builder owns the build-time state: the normalizer, the raw and normalized
// documents of the current build, and the last index built or restored.
// It is meant to be driven from a single goroutine.
type Builder struct {
	normalizer *tokenizer.Normalizer
	store      store.Store
	raw        []string
	docs       []string
	idx        *index.Index
	logger     *slog.Logger
}

// NewBuilder creates a Builder. st may be nil when the index is never
// persisted.
func NewBuilder(normalizer *tokenizer.Normalizer, st store.Store) *Builder {
	return &Builder{
		normalizer: normalizer,
		store:      st,
		logger:     slog.Default().With("component", "indexer"),
	}
}

// NewBuilderFromConfig resolves the stopword set and lemmatizer named in cfg.
func NewBuilderFromConfig(cfg config.IndexConfig, st store.Store) (*Builder, error) {
	stopwords, err := tokenizer.StopwordsByName(cfg.Stopwords, cfg.ExtraStopwords...)
	if err != nil {
		return nil, err
	}
	lemmatizer, err := tokenizer.Lookup(cfg.Lemmatizer)
	if err != nil {
		return nil, err
	}
	return NewBuilder(tokenizer.New(stopwords, lemmatizer), st), nil
}

// Normalize normalizes texts. When isQuery is false the result becomes the
// builder's document list and texts its raw documents; normalizing a query
// leaves the builder untouched.
func (b *Builder) Normalize(texts []string, isQuery bool) []string {
	normalized := b.normalizer.Normalize(texts, isQuery)
	if !isQuery {
		b.raw = texts
		b.docs = normalized
	}
	return normalized
}

// BuildPostings builds the index from the stored normalized documents.
func (b *Builder) BuildPostings() (*index.Index, error) {
	if len(b.docs) == 0 {
		return nil, apperrors.New(apperrors.ErrEmptyCorpus, http.StatusUnprocessableEntity, "no documents to index")
	}
	start := time.Now()
	idx, err := index.Build(b.docs, b.raw, b.normalizer)
	if err != nil {
		return nil, err
	}
	b.idx = idx
	stats := idx.Stats()
	b.logger.Info("index built",
		"documents", stats.Documents,
		"terms", stats.Terms,
		"avgdl", stats.AvgDL,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return idx, nil
}

// Build normalizes raw as documents and builds postings from them.
func (b *Builder) Build(raw []string) (*index.Index, error) {
	if len(raw) == 0 {
		return nil, apperrors.New(apperrors.ErrEmptyCorpus, http.StatusUnprocessableEntity, "no documents to index")
	}
	b.Normalize(raw, false)
	return b.BuildPostings()
}

// Index returns the last index built or restored, or nil.
func (b *Builder) Index() *index.Index {
	return b.idx
}

// Persist encodes the current index and saves it to the store.
func (b *Builder) Persist(ctx context.Context) error {
	if b.idx == nil {
		return apperrors.New(apperrors.ErrEmptyIndex, http.StatusConflict, "nothing to persist, build the index first")
	}
	if b.store == nil {
		return fmt.Errorf("persisting index: no store configured")
	}
	blob, err := segment.Encode(b.idx.Snapshot())
	if err != nil {
		return fmt.Errorf("encoding index: %w", err)
	}
	if err := b.store.Save(ctx, blob); err != nil {
		return fmt.Errorf("saving index: %w", err)
	}
	b.logger.Info("index persisted", "location", b.store.Location(), "bytes", len(blob))
	return nil
}

// Restore loads the persisted index and replaces all builder state with it.
// A missing blob matches both ErrCorruptIndex and ErrIndexNotFound. Store
// failures such as a cancelled ctx or a held lock are returned as they are;
// ErrCorruptIndex is reserved for blobs that cannot be decoded.
func (b *Builder) Restore(ctx context.Context) (*index.Index, error) {
	if b.store == nil {
		return nil, fmt.Errorf("restoring index: no store configured")
	}
	blob, err := b.store.Load(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.Corrupt("%w: %w", apperrors.ErrIndexNotFound, err)
		}
		return nil, fmt.Errorf("loading index from %s: %w", b.store.Location(), err)
	}
	snap, err := segment.Decode(blob)
	if err != nil {
		return nil, err
	}
	normalizer := tokenizer.New(tokenizer.NewStopwords(snap.Stopwords...), b.restoredLemmatizer(snap.Lemmatizer))
	idx, err := index.FromSnapshot(snap, normalizer)
	if err != nil {
		return nil, err
	}

	b.normalizer = normalizer
	b.raw = snap.Raw
	b.docs = snap.Docs
	b.idx = idx
	stats := idx.Stats()
	b.logger.Info("index restored",
		"location", b.store.Location(),
		"documents", stats.Documents,
		"terms", stats.Terms,
		"avgdl", stats.AvgDL,
	)
	return idx, nil
}

// restoredLemmatizer prefers the lemmatizer the index was built with so that
// query normalization matches build-time normalization.
func (b *Builder) restoredLemmatizer(name string) tokenizer.Lemmatizer {
	configured := b.normalizer.Lemmatizer()
	if name == configured.Name() {
		return configured
	}
	persisted, err := tokenizer.Lookup(name)
	if err != nil {
		b.logger.Warn("persisted lemmatizer unknown, using configured one",
			"persisted", name,
			"configured", configured.Name(),
		)
		return configured
	}
	b.logger.Warn("configured lemmatizer differs from the persisted index, using persisted one",
		"persisted", name,
		"configured", configured.Name(),
	)
	return persisted
}

// Open restores the persisted index, or, when none exists yet, loads raw
// documents with load, builds the index and persists it.
func (b *Builder) Open(ctx context.Context, load func(ctx context.Context) ([]string, error)) (*index.Index, error) {
	idx, err := b.Restore(ctx)
	if err == nil {
		return idx, nil
	}
	if !errors.Is(err, apperrors.ErrIndexNotFound) {
		return nil, err
	}
	b.logger.Info("no persisted index found, building from dataset", "location", b.store.Location())
	raw, err := load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading documents: %w", err)
	}
	idx, err = b.Build(raw)
	if err != nil {
		return nil, err
	}
	if err := b.Persist(ctx); err != nil {
		return nil, err
	}
	return idx, nil
}
