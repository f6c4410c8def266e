// Package model defines the core temporal key-value data types.
package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"
)

// Key is the named identity under which a history of values is recorded.
type Key struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ValueRefs []string  `json:"value_refs,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ValueEntry is one immutable, timestamped version of a key's value.
type ValueEntry struct {
	ID        string    `json:"id"`
	KeyID     string    `json:"key_id"`
	Value     Value     `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// Value is an opaque JSON payload. It is passed through unmodified.
type Value json.RawMessage

// NewValue validates b as a single JSON document and returns it as a Value.
func NewValue(b []byte) (Value, error) {
	b = bytes.TrimSpace(b)
	if !json.Valid(b) {
		return nil, errors.New("value is not valid JSON")
	}
	return Value(append([]byte(nil), b...)), nil
}

// MustValue marshals v into a Value, panicking on failure.
func MustValue(v any) Value {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return Value(b)
}

// MarshalJSON returns the raw payload. An empty value encodes as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if len(v) == 0 {
		return []byte("null"), nil
	}
	return v, nil
}

// UnmarshalJSON stores a copy of the raw payload.
func (v *Value) UnmarshalJSON(b []byte) error {
	if v == nil {
		return errors.New("model.Value: UnmarshalJSON on nil pointer")
	}
	*v = append((*v)[:0], b...)
	return nil
}

// Decode unmarshals the payload into dst.
func (v Value) Decode(dst any) error {
	return json.Unmarshal(v, dst)
}

// Equal reports whether two values are byte-identical.
func (v Value) Equal(o Value) bool {
	return bytes.Equal(v, o)
}

func (v Value) String() string { return string(v) }

// ReadResult is the response to a read: the key name and the selected value.
type ReadResult struct {
	Key   string `json:"key"`
	Value Value  `json:"value"`
}

// WriteResult is the acknowledgment of a recorded write.
type WriteResult struct {
	Key       string    `json:"key"`
	Value     Value     `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// HistoryEntry is a value entry annotated with its key name, used for
// history listings and export/import.
type HistoryEntry struct {
	Key       string    `json:"key"`
	Value     Value     `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}
