// Binary encoding for dictionary word lists.
//
// Words are stored as a compact length-prefixed list instead of JSON: word
// lists can run to hundreds of thousands of entries and the list is the
// dominant blob of every dictionary.
//
// Format (little-endian):
//
//	version:   uint8 (1)
//	wordCount: uint32
//	per word:
//	  len:  uvarint
//	  word: [len]byte
package bbolt

import (
	"encoding/binary"
	"fmt"
)

const wordsVersion = 1

// encodeWords encodes words in order. A single buffer is pre-allocated to
// avoid repeated growth.
func encodeWords(words []string) ([]byte, error) {
	// Header: 1 (version) + 4 (wordCount)
	totalSize := 5
	for _, w := range words {
		totalSize += uvarintLen(uint64(len(w))) + len(w)
	}

	buf := make([]byte, 0, totalSize)
	buf = append(buf, wordsVersion)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(words)))
	for _, w := range words {
		buf = binary.AppendUvarint(buf, uint64(len(w)))
		buf = append(buf, w...)
	}
	if len(buf) != totalSize {
		return nil, fmt.Errorf("encoded %d bytes, expected %d", len(buf), totalSize)
	}
	return buf, nil
}

// decodeWords decodes a word list. Every read is bounds-checked to avoid
// panics on corrupt data.
func decodeWords(data []byte) ([]string, error) {
	if len(data) < 5 {
		return nil, fmt.Errorf("word list too short: %d bytes", len(data))
	}
	if data[0] != wordsVersion {
		return nil, fmt.Errorf("unsupported word list version %d", data[0])
	}
	count := binary.LittleEndian.Uint32(data[1:])
	offset := 5

	// Each word takes at least one byte, which caps a corrupt count.
	if int(count) > len(data)-offset {
		return nil, fmt.Errorf("word count %d exceeds data length", count)
	}

	words := make([]string, count)
	for i := uint32(0); i < count; i++ {
		n, k := binary.Uvarint(data[offset:])
		if k <= 0 {
			return nil, fmt.Errorf("truncated at word %d length (offset %d)", i, offset)
		}
		offset += k
		if n > uint64(len(data)-offset) {
			return nil, fmt.Errorf("truncated at word %d (offset %d, need %d)", i, offset, n)
		}
		words[i] = string(data[offset : offset+int(n)])
		offset += int(n)
	}
	if offset != len(data) {
		return nil, fmt.Errorf("%d trailing bytes after word list", len(data)-offset)
	}
	return words, nil
}

func uvarintLen(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}
