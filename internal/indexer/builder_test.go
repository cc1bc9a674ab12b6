package indexer

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/internal/indexer/store"
	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/bm25-news-search/pkg/errors"
)

var catCorpus = []string{"the cat sat", "the dog ran fast", "cats and dogs"}

func newBuilder(t *testing.T, st store.Store) *Builder {
	t.Helper()
	lem, err := tokenizer.Lookup("snowball")
	require.NoError(t, err)
	return NewBuilder(tokenizer.New(tokenizer.NewStopwords("the", "and"), lem), st)
}

func newsCorpus() []string {
	return []string{
		"Stocks rallied on Monday as investors cheered strong earnings from technology companies.",
		"The storm brought heavy rain and flooding to coastal towns, forcing thousands to evacuate.",
		"Scientists announced a breakthrough in battery technology that could double electric car range.",
		"The football club signed a new striker, ending a long search for goals.",
		"Flooding closed roads across the region; officials warned more rain would follow the storm.",
		"",
		"Investors sold technology shares after the central bank raised interest rates again.",
	}
}

func TestBuildScenarioPostings(t *testing.T) {
	b := newBuilder(t, nil)

	idx, err := b.Build(catCorpus)
	require.NoError(t, err)

	assert.Equal(t, 3, idx.DocCount())
	assert.Equal(t, []int{0, 2}, idx.Postings("cat"))
	assert.Equal(t, []int{1, 2}, idx.Postings("dog"))
	assert.Nil(t, idx.Postings("the"))
	assert.Equal(t, 0, idx.DocumentFrequency("and"))
	// lengths 2, 3, 2
	assert.InDelta(t, 7.0/3.0, idx.AvgDL(), 1e-12)
}

func TestBuildAssignsTermIDsInFirstOccurrenceOrder(t *testing.T) {
	b := newBuilder(t, nil)

	idx, err := b.Build(catCorpus)
	require.NoError(t, err)

	assert.Equal(t, []string{"cat", "sat", "dog", "ran", "fast"}, idx.Terms())
	for i, term := range idx.Terms() {
		id, ok := idx.TermID(term)
		require.True(t, ok)
		assert.Equal(t, uint32(i), id)
		back, ok := idx.TermByID(id)
		require.True(t, ok)
		assert.Equal(t, term, back)
	}
	_, ok := idx.TermByID(99)
	assert.False(t, ok)
}

func TestBuildPostingsCorrectness(t *testing.T) {
	b := newBuilder(t, nil)
	idx, err := b.Build(newsCorpus())
	require.NoError(t, err)

	for _, term := range idx.Terms() {
		postings := idx.Postings(term)
		assert.True(t, slices.IsSorted(postings), term)
		assert.Len(t, slices.Compact(slices.Clone(postings)), len(postings), term)
		for d := 0; d < idx.DocCount(); d++ {
			occurs := slices.Contains(idx.Tokens(d), term)
			assert.Equal(t, occurs, slices.Contains(postings, d), "term %q doc %d", term, d)
			assert.Equal(t, occurs, idx.TermFrequency(term, d) > 0)
		}
	}
}

func TestBuildAvgDLIsMeanDocumentLength(t *testing.T) {
	b := newBuilder(t, nil)
	idx, err := b.Build(newsCorpus())
	require.NoError(t, err)

	total := 0
	for d := 0; d < idx.DocCount(); d++ {
		assert.Equal(t, len(strings.Fields(idx.Document(d))), idx.DocLength(d))
		total += idx.DocLength(d)
	}
	assert.Equal(t, total, idx.TotalTokens())
	assert.InDelta(t, float64(total)/float64(idx.DocCount()), idx.AvgDL(), 1e-12)
}

func TestBuildKeepsRawDocumentsInOrder(t *testing.T) {
	b := newBuilder(t, nil)
	corpus := newsCorpus()
	idx, err := b.Build(corpus)
	require.NoError(t, err)

	for i, want := range corpus {
		got, err := idx.RawText(i)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err = idx.RawText(len(corpus))
	assert.ErrorIs(t, err, apperrors.ErrDocumentNotFound)
	_, err = idx.RawText(-1)
	assert.ErrorIs(t, err, apperrors.ErrDocumentNotFound)
}

func TestIndexAccessorsOutOfRange(t *testing.T) {
	b := newBuilder(t, nil)
	idx, err := b.Build(catCorpus)
	require.NoError(t, err)

	for _, id := range []int{-1, len(catCorpus), len(catCorpus) + 10} {
		assert.NotPanics(t, func() {
			assert.Equal(t, 0, idx.DocLength(id), "doc %d", id)
			assert.Equal(t, 0, idx.TermFrequency("cat", id), "doc %d", id)
			assert.Nil(t, idx.Tokens(id), "doc %d", id)
			assert.Empty(t, idx.Document(id), "doc %d", id)
		})
		_, err := idx.RawText(id)
		assert.True(t, errors.Is(err, apperrors.ErrDocumentNotFound), "doc %d", id)
	}
	assert.Equal(t, 1, idx.TermFrequency("cat", 0))
}

func TestBuildEmptyCorpus(t *testing.T) {
	b := newBuilder(t, nil)

	idx, err := b.Build(nil)
	assert.Nil(t, idx)
	assert.ErrorIs(t, err, apperrors.ErrEmptyCorpus)
	assert.Nil(t, b.Index())

	_, err = b.BuildPostings()
	assert.ErrorIs(t, err, apperrors.ErrEmptyCorpus)
	assert.Nil(t, b.Index())
}

func TestNormalizeQueryDoesNotMutateDocuments(t *testing.T) {
	b := newBuilder(t, nil)
	docs := b.Normalize(catCorpus, false)
	assert.Equal(t, []string{"cat sat", "dog ran fast", "cat dog"}, docs)

	q := b.Normalize([]string{"the cats"}, true)
	assert.Equal(t, []string{"the cat"}, q)

	idx, err := b.BuildPostings()
	require.NoError(t, err)
	assert.Equal(t, 3, idx.DocCount())
	assert.Equal(t, "dog ran fast", idx.Document(1))
}

func TestPersistRestoreRoundTrip(t *testing.T) {
	backends := map[string]func(t *testing.T) store.Store{
		"file": func(t *testing.T) store.Store {
			return store.NewFileStore(filepath.Join(t.TempDir(), "ir.idx"))
		},
		"bolt": func(t *testing.T) store.Store {
			st, err := store.OpenBoltStore(filepath.Join(t.TempDir(), "ir.db"))
			require.NoError(t, err)
			return st
		},
	}
	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			st := open(t)
			defer st.Close()

			built := newBuilder(t, st)
			want, err := built.Build(newsCorpus())
			require.NoError(t, err)
			require.NoError(t, built.Persist(ctx))

			restorer := newBuilder(t, st)
			got, err := restorer.Restore(ctx)
			require.NoError(t, err)

			assertEquivalent(t, want, got)
			assert.Same(t, got, restorer.Index())
		})
	}
}

func TestRestoreMatchesFreshRebuild(t *testing.T) {
	ctx := context.Background()
	st := store.NewFileStore(filepath.Join(t.TempDir(), "ir.idx"))
	b := newBuilder(t, st)
	_, err := b.Build(catCorpus)
	require.NoError(t, err)
	require.NoError(t, b.Persist(ctx))

	restored, err := newBuilder(t, st).Restore(ctx)
	require.NoError(t, err)
	rebuilt, err := newBuilder(t, nil).Build(catCorpus)
	require.NoError(t, err)

	assertEquivalent(t, rebuilt, restored)
	assert.Equal(t, []string{"the cat"}, restored.Normalizer().Normalize([]string{"The cats"}, true))
}

func TestRestoreReplacesState(t *testing.T) {
	ctx := context.Background()
	st := store.NewFileStore(filepath.Join(t.TempDir(), "ir.idx"))
	persisted := newBuilder(t, st)
	_, err := persisted.Build(catCorpus)
	require.NoError(t, err)
	require.NoError(t, persisted.Persist(ctx))

	b := newBuilder(t, st)
	_, err = b.Build(newsCorpus())
	require.NoError(t, err)

	idx, err := b.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, idx.DocCount())

	// the builder's documents are the restored ones, not a merge
	rebuilt, err := b.BuildPostings()
	require.NoError(t, err)
	assert.Equal(t, 3, rebuilt.DocCount())
}

func TestRestoreMissingBlob(t *testing.T) {
	st := store.NewFileStore(filepath.Join(t.TempDir(), "missing.idx"))
	b := newBuilder(t, st)

	_, err := b.Restore(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrCorruptIndex)
	assert.ErrorIs(t, err, apperrors.ErrIndexNotFound)
	assert.Nil(t, b.Index())
}

func TestRestoreGarbageBlob(t *testing.T) {
	ctx := context.Background()
	st := store.NewFileStore(filepath.Join(t.TempDir(), "ir.idx"))
	require.NoError(t, st.Save(ctx, []byte("definitely not an index")))

	_, err := newBuilder(t, st).Restore(ctx)
	assert.ErrorIs(t, err, apperrors.ErrCorruptIndex)
	assert.False(t, errors.Is(err, apperrors.ErrIndexNotFound))
}

func TestRestoreKeepsStoreErrors(t *testing.T) {
	st := store.NewFileStore(filepath.Join(t.TempDir(), "ir.idx"))
	b := newBuilder(t, st)
	_, err := b.Build(catCorpus)
	require.NoError(t, err)
	require.NoError(t, b.Persist(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = newBuilder(t, st).Restore(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, apperrors.ErrCorruptIndex))

	_, err = newBuilder(t, st).Open(ctx, func(context.Context) ([]string, error) {
		t.Fatal("loader must not run when the store could not be read")
		return nil, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, apperrors.ErrCorruptIndex))
}

func TestRestoreUsesPersistedLemmatizer(t *testing.T) {
	ctx := context.Background()
	st := store.NewFileStore(filepath.Join(t.TempDir(), "ir.idx"))
	b := newBuilder(t, st)
	_, err := b.Build(catCorpus)
	require.NoError(t, err)
	require.NoError(t, b.Persist(ctx))

	none, err := tokenizer.Lookup("none")
	require.NoError(t, err)
	other := NewBuilder(tokenizer.New(tokenizer.NewStopwords(), none), st)
	idx, err := other.Restore(ctx)
	require.NoError(t, err)

	assert.Equal(t, "snowball", idx.Stats().Lemmatizer)
	assert.Equal(t, []string{"cat"}, idx.QueryTerms("cats"))
}

func TestPersistWithoutIndex(t *testing.T) {
	st := store.NewFileStore(filepath.Join(t.TempDir(), "ir.idx"))
	err := newBuilder(t, st).Persist(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrEmptyIndex)
}

func TestOpenBuildsThenRestores(t *testing.T) {
	ctx := context.Background()
	st := store.NewFileStore(filepath.Join(t.TempDir(), "ir.idx"))
	loads := 0
	load := func(context.Context) ([]string, error) {
		loads++
		return catCorpus, nil
	}

	first, err := newBuilder(t, st).Open(ctx, load)
	require.NoError(t, err)
	second, err := newBuilder(t, st).Open(ctx, load)
	require.NoError(t, err)

	assert.Equal(t, 1, loads)
	assertEquivalent(t, first, second)
}

func TestOpenPropagatesCorruption(t *testing.T) {
	ctx := context.Background()
	st := store.NewFileStore(filepath.Join(t.TempDir(), "ir.idx"))
	require.NoError(t, st.Save(ctx, []byte{1, 2, 3}))

	_, err := newBuilder(t, st).Open(ctx, func(context.Context) ([]string, error) {
		t.Fatal("loader must not run for a corrupt index")
		return nil, nil
	})
	assert.ErrorIs(t, err, apperrors.ErrCorruptIndex)
}

func TestNewBuilderFromConfig(t *testing.T) {
	cfg := config.Default().Index
	cfg.ExtraStopwords = []string{"cnn"}
	b, err := NewBuilderFromConfig(cfg, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"report"}, b.Normalize([]string{"CNN reports"}, false))

	cfg.Lemmatizer = "wordnet"
	_, err = NewBuilderFromConfig(cfg, nil)
	assert.Error(t, err)
}

func assertEquivalent(t *testing.T, want, got *index.Index) {
	t.Helper()
	require.Equal(t, want.DocCount(), got.DocCount())
	assert.Equal(t, want.Terms(), got.Terms())
	assert.False(t, math.IsNaN(got.AvgDL()))
	assert.Equal(t, want.AvgDL(), got.AvgDL())
	for _, term := range want.Terms() {
		assert.Equal(t, want.Postings(term), got.Postings(term), term)
	}
	for d := 0; d < want.DocCount(); d++ {
		assert.Equal(t, want.Document(d), got.Document(d))
		w, _ := want.RawText(d)
		g, _ := got.RawText(d)
		assert.Equal(t, w, g)
	}
	assert.Equal(t, want.Normalizer().Stopwords().Words(), got.Normalizer().Stopwords().Words())
	assert.Equal(t, want.Fingerprint(), got.Fingerprint())
}

func TestFingerprintTracksContent(t *testing.T) {
	a, err := newBuilder(t, nil).Build(catCorpus)
	require.NoError(t, err)
	b, err := newBuilder(t, nil).Build(catCorpus)
	require.NoError(t, err)
	c, err := newBuilder(t, nil).Build(append([]string{"a mouse"}, catCorpus...))
	require.NoError(t, err)

	assert.NotEmpty(t, a.Fingerprint())
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}
