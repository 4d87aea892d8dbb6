package metrics

import (
	"encoding/binary"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"cocochain/internal/storage"
)

// exportVersion is the current export format version.
const exportVersion = 1

// Export serializes the full sample log into a zstd-compressed blob
// for offline analysis. Format after decompression: 1 version byte,
// then for each sample u16 key length + key + u16 value length + value.
func (s *Store) Export() ([]byte, error) {
	raw := []byte{exportVersion}

	err := s.db.IteratePrefix(samplePrefix, func(key, value []byte) error {
		raw = binary.BigEndian.AppendUint16(raw, uint16(len(key)))
		raw = append(raw, key...)
		raw = binary.BigEndian.AppendUint16(raw, uint16(len(value)))
		raw = append(raw, value...)

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterate samples:\n%w", err)
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create encoder:\n%w", err)
	}
	defer encoder.Close()

	return encoder.EncodeAll(raw, nil), nil
}

// Import decompresses an exported sample log and writes all samples
// into db atomically.
func Import(db *storage.Store, data []byte) error {
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return fmt.Errorf("create decoder:\n%w", err)
	}
	defer decoder.Close()

	raw, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return fmt.Errorf("decompress:\n%w", err)
	}

	if len(raw) == 0 {
		return fmt.Errorf("empty export")
	}

	if raw[0] != exportVersion {
		return fmt.Errorf("unsupported export version: %d", raw[0])
	}
	raw = raw[1:]

	var pairs []storage.KeyValue

	for len(raw) > 0 {
		key, rest, err := readChunk(raw)
		if err != nil {
			return fmt.Errorf("read key: %w", err)
		}

		value, rest, err := readChunk(rest)
		if err != nil {
			return fmt.Errorf("read value: %w", err)
		}

		pairs = append(pairs, storage.KeyValue{Key: key, Value: value})
		raw = rest
	}

	return db.SetBatch(pairs)
}

// readChunk consumes one u16-length-prefixed chunk.
func readChunk(data []byte) ([]byte, []byte, error) {
	if len(data) < 2 {
		return nil, nil, fmt.Errorf("truncated length prefix")
	}

	n := int(binary.BigEndian.Uint16(data[:2]))
	data = data[2:]

	if len(data) < n {
		return nil, nil, fmt.Errorf("truncated chunk: want %d bytes, have %d", n, len(data))
	}

	return data[:n], data[n:], nil
}
