// Package index holds the immutable in-memory inverted index: vocabulary,
// postings, normalized documents, raw document references and corpus
// statistics. An Index is never modified after it is built or restored, so it
// can be shared by concurrent readers without locking.
package index

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/bm25-news-search/pkg/errors"
)

type Index struct {
	termToID map[string]uint32
	idToTerm []string
	postings map[string][]int

	docs     []string
	tokens   [][]string
	termFreq []map[string]int
	raw      []string

	totalTokens int
	avgdl       float64
	fingerprint string

	normalizer *tokenizer.Normalizer
}

// Stats summarises an index for logs, metrics and the stats endpoint.
type Stats struct {
	Documents   int     `json:"documents"`
	Terms       int     `json:"terms"`
	TotalTokens int     `json:"total_tokens"`
	AvgDL       float64 `json:"avgdl"`
	Stopwords   int     `json:"stopwords"`
	Lemmatizer  string  `json:"lemmatizer"`
}

// Build creates an index from normalized documents (one space-joined term
// string per document) and the raw texts they were produced from. Document
// ids follow slice order. Term ids are assigned in order of first occurrence.
func Build(normalized []string, raw []string, normalizer *tokenizer.Normalizer) (*Index, error) {
	if len(normalized) == 0 {
		return nil, apperrors.New(apperrors.ErrEmptyCorpus, http.StatusUnprocessableEntity, "cannot build an index from zero documents")
	}
	if len(raw) != len(normalized) {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest,
			"%d normalized documents but %d raw documents", len(normalized), len(raw))
	}
	idx := &Index{
		termToID:   make(map[string]uint32),
		postings:   make(map[string][]int),
		docs:       normalized,
		tokens:     make([][]string, len(normalized)),
		termFreq:   make([]map[string]int, len(normalized)),
		raw:        raw,
		normalizer: normalizer,
	}
	for docID, doc := range normalized {
		terms := strings.Fields(doc)
		tf := make(map[string]int, len(terms))
		for _, term := range terms {
			if _, seen := idx.termToID[term]; !seen {
				idx.termToID[term] = uint32(len(idx.idToTerm))
				idx.idToTerm = append(idx.idToTerm, term)
			}
			if tf[term] == 0 {
				idx.postings[term] = append(idx.postings[term], docID)
			}
			tf[term]++
		}
		idx.tokens[docID] = terms
		idx.termFreq[docID] = tf
		idx.totalTokens += len(terms)
	}
	idx.avgdl = float64(idx.totalTokens) / float64(len(normalized))
	idx.fingerprint = fingerprint(normalized, normalizer)
	return idx, nil
}

// fingerprint hashes the normalized documents and the normalization settings.
// Two indexes with the same fingerprint rank every query identically.
func fingerprint(normalized []string, normalizer *tokenizer.Normalizer) string {
	d := xxhash.New()
	d.WriteString(normalizer.Lemmatizer().Name())
	for _, w := range normalizer.Stopwords().Words() {
		d.WriteString("\x00")
		d.WriteString(w)
	}
	for _, doc := range normalized {
		d.WriteString("\x01")
		d.WriteString(doc)
	}
	return strconv.FormatUint(d.Sum64(), 16)
}

func (x *Index) DocCount() int {
	return len(x.docs)
}

// AvgDL is the mean normalized document length.
func (x *Index) AvgDL() float64 {
	return x.avgdl
}

func (x *Index) TotalTokens() int {
	return x.totalTokens
}

// Postings returns the ascending doc ids containing term. The slice is shared
// and must not be modified.
func (x *Index) Postings(term string) []int {
	return x.postings[term]
}

func (x *Index) DocumentFrequency(term string) int {
	return len(x.postings[term])
}

func (x *Index) VocabularySize() int {
	return len(x.idToTerm)
}

// Terms returns the vocabulary in id order.
func (x *Index) Terms() []string {
	out := make([]string, len(x.idToTerm))
	copy(out, x.idToTerm)
	return out
}

func (x *Index) TermID(term string) (uint32, bool) {
	id, ok := x.termToID[term]
	return id, ok
}

func (x *Index) TermByID(id uint32) (string, bool) {
	if int(id) >= len(x.idToTerm) {
		return "", false
	}
	return x.idToTerm[id], true
}

func (x *Index) hasDoc(docID int) bool {
	return docID >= 0 && docID < len(x.tokens)
}

// DocLength returns the token count of a document, or 0 when docID is out
// of range.
func (x *Index) DocLength(docID int) int {
	if !x.hasDoc(docID) {
		return 0
	}
	return len(x.tokens[docID])
}

// TermFrequency returns how often term occurs in a document, or 0 when
// docID is out of range.
func (x *Index) TermFrequency(term string, docID int) int {
	if !x.hasDoc(docID) {
		return 0
	}
	return x.termFreq[docID][term]
}

// Tokens returns the normalized token sequence of a document, or nil when
// docID is out of range. The slice is shared and must not be modified.
func (x *Index) Tokens(docID int) []string {
	if !x.hasDoc(docID) {
		return nil
	}
	return x.tokens[docID]
}

// Document returns the normalized text of a document, or "" when docID is
// out of range.
func (x *Index) Document(docID int) string {
	if !x.hasDoc(docID) {
		return ""
	}
	return x.docs[docID]
}

// RawText returns the original text of a document, or ErrDocumentNotFound
// when docID is out of range.
func (x *Index) RawText(docID int) (string, error) {
	if docID < 0 || docID >= len(x.raw) {
		return "", apperrors.Newf(apperrors.ErrDocumentNotFound, http.StatusNotFound, "doc %d not in index of %d documents", docID, len(x.raw))
	}
	return x.raw[docID], nil
}

// Fingerprint identifies the index content; see fingerprint.
func (x *Index) Fingerprint() string {
	return x.fingerprint
}

func (x *Index) Normalizer() *tokenizer.Normalizer {
	return x.normalizer
}

// QueryTerms normalizes a raw query the same way documents were normalized,
// except that stopwords are kept. Repeated terms are preserved.
func (x *Index) QueryTerms(query string) []string {
	normalized := x.normalizer.Normalize([]string{query}, true)
	return strings.Fields(normalized[0])
}

func (x *Index) Stats() Stats {
	return Stats{
		Documents:   x.DocCount(),
		Terms:       x.VocabularySize(),
		TotalTokens: x.totalTokens,
		AvgDL:       x.avgdl,
		Stopwords:   x.normalizer.Stopwords().Len(),
		Lemmatizer:  x.normalizer.Lemmatizer().Name(),
	}
}
