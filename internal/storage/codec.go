package storage

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// The stored representation is base64 over JSON. This is a reversible text
// encoding, not encryption: it keeps arbitrary JSON safe inside a flat text
// store and provides no confidentiality whatsoever.

// Encode serializes v to its stored text representation.
// Decode(Encode(v)) yields v for any JSON-serializable value.
func Encode(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode value: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// Decode parses a stored text representation into out. Values written by
// older versions were stored as plain JSON, so when the base64 layer does
// not apply Decode falls back to parsing the input as raw JSON.
func Decode(data string, out any) error {
	if raw, err := base64.StdEncoding.DecodeString(data); err == nil {
		if jsonErr := json.Unmarshal(raw, out); jsonErr == nil {
			return nil
		}
	}
	if err := json.Unmarshal([]byte(data), out); err != nil {
		return fmt.Errorf("decode value: %w", err)
	}
	return nil
}
