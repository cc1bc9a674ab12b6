// Package segment defines the on-disk format of a persisted index: a fixed
// little-endian header followed by a deterministic CBOR snapshot, optionally
// zstd-compressed, protected by a CRC-32 checksum.
package segment

import (
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
)

// MagicBytes identifies a persisted index blob ("BM25").
const (
	MagicBytes    uint32 = 0x424D3235
	FormatVersion uint32 = 1
	HeaderSize    int    = 32
)

// FlagZstd marks a zstd-compressed payload.
const FlagZstd uint32 = 1 << 0

// Header is the 32-byte header written at the start of every blob.
type Header struct {
	Magic      uint32
	Version    uint32
	Flags      uint32
	Checksum   uint32
	PayloadLen uint64
	RawLen     uint64
}

// Snapshot is everything needed to reconstruct an index without the raw
// dataset: vocabulary in both directions, postings, normalized documents,
// raw document text, corpus statistics and normalization settings.
type Snapshot struct {
	TermToID   map[string]uint32   `cbor:"tok2idx"`
	IDToTerm   map[uint32]string   `cbor:"idx2tok"`
	Postings   map[string][]uint32 `cbor:"postings"`
	Docs       []string            `cbor:"docs"`
	Raw        []string            `cbor:"raw"`
	AvgDL      float64             `cbor:"avgdl"`
	DocCount   int                 `cbor:"doc_count"`
	Stopwords  []string            `cbor:"stopwords"`
	Lemmatizer string              `cbor:"lemmatizer"`
}

// requiredFields lists the snapshot keys a blob must carry to be restored.
var requiredFields = []string{
	"tok2idx", "idx2tok", "postings", "docs", "raw",
	"avgdl", "doc_count", "stopwords", "lemmatizer",
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode

	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("segment: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("segment: CBOR decoder initialization failed: " + err.Error())
	}
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("segment: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("segment: zstd decoder initialization failed: " + err.Error())
	}
}

func (h Header) String() string {
	return fmt.Sprintf("segment v%d flags=%#x payload=%dB raw=%dB crc=%08x",
		h.Version, h.Flags, h.PayloadLen, h.RawLen, h.Checksum)
}
