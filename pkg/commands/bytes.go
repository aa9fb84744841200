package commands

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// ByteSlice is binary data sent by the front-end. It accepts a JSON array of
// byte values, as produced by serializing a Uint8Array, or a base64 string
// (optionally a data URL).
type ByteSlice []byte

// UnmarshalJSON accepts null, a base64 string or an array of numbers 0-255.
func (b *ByteSlice) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*b = nil
		return nil

	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if _, body, ok := strings.Cut(s, ","); ok && strings.HasPrefix(s, "data:") {
			s = body
		}
		decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("invalid base64 data: %w", err)
		}
		*b = decoded
		return nil

	case len(data) > 0 && data[0] == '[':
		var values []int
		if err := json.Unmarshal(data, &values); err != nil {
			return fmt.Errorf("invalid byte array: %w", err)
		}
		out := make([]byte, len(values))
		for i, v := range values {
			if v < 0 || v > 255 {
				return fmt.Errorf("byte value out of range at index %d: %d", i, v)
			}
			out[i] = byte(v)
		}
		*b = out
		return nil
	}

	return fmt.Errorf("expected a byte array or base64 string")
}

// MarshalJSON encodes the data as base64.
func (b ByteSlice) MarshalJSON() ([]byte, error) {
	return json.Marshal(base64.StdEncoding.EncodeToString(b))
}
