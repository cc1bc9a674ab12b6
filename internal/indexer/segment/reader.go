package segment

import (
	"encoding/binary"
	"hash/crc32"
	"math"
	"slices"

	"github.com/fxamacker/cbor/v2"

	apperrors "github.com/Adithya-Monish-Kumar-K/bm25-news-search/pkg/errors"
)

// maxRawLen bounds the decoded snapshot size accepted from a header.
const maxRawLen = 1 << 34

// ReadHeader parses and checks the fixed header of a blob.
func ReadHeader(blob []byte) (Header, error) {
	if len(blob) < HeaderSize {
		return Header{}, apperrors.Corrupt("blob is %d bytes, shorter than the %d byte header", len(blob), HeaderSize)
	}
	h := Header{
		Magic:      binary.LittleEndian.Uint32(blob[0:4]),
		Version:    binary.LittleEndian.Uint32(blob[4:8]),
		Flags:      binary.LittleEndian.Uint32(blob[8:12]),
		Checksum:   binary.LittleEndian.Uint32(blob[12:16]),
		PayloadLen: binary.LittleEndian.Uint64(blob[16:24]),
		RawLen:     binary.LittleEndian.Uint64(blob[24:32]),
	}
	if h.Magic != MagicBytes {
		return h, apperrors.Corrupt("bad magic bytes %x", h.Magic)
	}
	if h.Version != FormatVersion {
		return h, apperrors.Corrupt("unsupported format version %d", h.Version)
	}
	if h.PayloadLen != uint64(len(blob)-HeaderSize) {
		return h, apperrors.Corrupt("payload length %d does not match blob size %d", h.PayloadLen, len(blob)-HeaderSize)
	}
	if h.RawLen > maxRawLen {
		return h, apperrors.Corrupt("raw length %d exceeds limit", h.RawLen)
	}
	return h, nil
}

// Decode verifies a blob and returns its snapshot. Every failure is an
// ErrCorruptIndex.
func Decode(blob []byte) (*Snapshot, error) {
	h, err := ReadHeader(blob)
	if err != nil {
		return nil, err
	}
	payload := blob[HeaderSize:]
	if sum := crc32.ChecksumIEEE(payload); sum != h.Checksum {
		return nil, apperrors.Corrupt("checksum mismatch: header %08x, payload %08x", h.Checksum, sum)
	}

	raw := payload
	if h.Flags&FlagZstd != 0 {
		raw, err = zstdDecoder.DecodeAll(payload, nil)
		if err != nil {
			return nil, apperrors.Corrupt("zstd decompress: %w", err)
		}
	}
	if uint64(len(raw)) != h.RawLen {
		return nil, apperrors.Corrupt("decoded %d bytes, header says %d", len(raw), h.RawLen)
	}

	var fields map[string]cbor.RawMessage
	if err := decMode.Unmarshal(raw, &fields); err != nil {
		return nil, apperrors.Corrupt("parsing snapshot: %w", err)
	}
	for _, name := range requiredFields {
		if _, ok := fields[name]; !ok {
			return nil, apperrors.Corrupt("snapshot is missing field %q", name)
		}
	}
	var snap Snapshot
	if err := decMode.Unmarshal(raw, &snap); err != nil {
		return nil, apperrors.Corrupt("parsing snapshot: %w", err)
	}
	if err := validate(&snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func validate(s *Snapshot) error {
	if s.DocCount <= 0 {
		return apperrors.Corrupt("snapshot holds %d documents", s.DocCount)
	}
	if len(s.Docs) != s.DocCount || len(s.Raw) != s.DocCount {
		return apperrors.Corrupt("doc_count %d disagrees with %d docs and %d raw documents",
			s.DocCount, len(s.Docs), len(s.Raw))
	}
	if math.IsNaN(s.AvgDL) || math.IsInf(s.AvgDL, 0) || s.AvgDL < 0 {
		return apperrors.Corrupt("invalid avgdl %v", s.AvgDL)
	}
	if len(s.TermToID) != len(s.IDToTerm) || len(s.TermToID) != len(s.Postings) {
		return apperrors.Corrupt("vocabulary sizes disagree: tok2idx=%d idx2tok=%d postings=%d",
			len(s.TermToID), len(s.IDToTerm), len(s.Postings))
	}
	for term, id := range s.TermToID {
		if s.IDToTerm[id] != term {
			return apperrors.Corrupt("term %q maps to id %d which maps back to %q", term, id, s.IDToTerm[id])
		}
	}
	for term, docIDs := range s.Postings {
		if _, ok := s.TermToID[term]; !ok {
			return apperrors.Corrupt("postings term %q is not in the vocabulary", term)
		}
		if len(docIDs) == 0 {
			return apperrors.Corrupt("postings for %q are empty", term)
		}
		if !slices.IsSorted(docIDs) {
			return apperrors.Corrupt("postings for %q are not sorted", term)
		}
		for i, id := range docIDs {
			if int(id) >= s.DocCount {
				return apperrors.Corrupt("postings for %q reference doc %d of %d", term, id, s.DocCount)
			}
			if i > 0 && docIDs[i-1] == id {
				return apperrors.Corrupt("postings for %q repeat doc %d", term, id)
			}
		}
	}
	return nil
}
