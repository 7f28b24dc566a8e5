package oracle

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrMalformedCleartext = errors.New("malformed cleartext")

// DecodeStrings decodes a cleartext that must hold exactly n positional
// strings, e.g. ["95","log-A","alice"].
func DecodeStrings(cleartext []byte, n int) ([]string, error) {
	var values []string
	if err := json.Unmarshal(cleartext, &values); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCleartext, err)
	}
	if len(values) != n {
		return nil, fmt.Errorf("%w: want %d values, got %d", ErrMalformedCleartext, n, len(values))
	}
	return values, nil
}

// DecodeUint64 decodes a cleartext holding a single unsigned integer, e.g. [7].
func DecodeUint64(cleartext []byte) (uint64, error) {
	var values []uint64
	if err := json.Unmarshal(cleartext, &values); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedCleartext, err)
	}
	if len(values) != 1 {
		return 0, fmt.Errorf("%w: want 1 value, got %d", ErrMalformedCleartext, len(values))
	}
	return values[0], nil
}

// EncodeStrings is the inverse of DecodeStrings; relays and tests use it to
// build cleartexts.
func EncodeStrings(values ...string) []byte {
	b, _ := json.Marshal(values)
	return b
}

func EncodeUint64(v uint64) []byte {
	b, _ := json.Marshal([]uint64{v})
	return b
}
