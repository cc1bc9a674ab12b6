package segment

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

// Encode serialises a snapshot into a self-describing blob. Encoding the same
// snapshot twice yields identical bytes.
func Encode(snap *Snapshot) ([]byte, error) {
	if snap == nil {
		return nil, fmt.Errorf("cannot encode nil snapshot")
	}
	raw, err := encMode.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("marshaling snapshot: %w", err)
	}

	payload := raw
	var flags uint32
	if compressed := zstdEncoder.EncodeAll(raw, nil); len(compressed) < len(raw) {
		payload = compressed
		flags |= FlagZstd
	}

	blob := make([]byte, HeaderSize+len(payload))
	binary.LittleEndian.PutUint32(blob[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(blob[4:8], FormatVersion)
	binary.LittleEndian.PutUint32(blob[8:12], flags)
	binary.LittleEndian.PutUint32(blob[12:16], crc32.ChecksumIEEE(payload))
	binary.LittleEndian.PutUint64(blob[16:24], uint64(len(payload)))
	binary.LittleEndian.PutUint64(blob[24:32], uint64(len(raw)))
	copy(blob[HeaderSize:], payload)
	return blob, nil
}
