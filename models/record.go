package models

import (
	"bytes"
	"encoding/json"
)

// Record is an ordered field-name to value mapping. Keys keep the order of
// their first insertion, which mirrors the source column order.
// Values are string, float64 or time.Time.
type Record struct {
	keys   []string
	values map[string]any
}

// NewRecord returns an empty record.
func NewRecord() *Record {
	return &Record{values: make(map[string]any)}
}

// RecordFromPairs zips keys and values positionally, stopping at the shorter
// of the two. A repeated key overwrites the earlier value in place.
func RecordFromPairs(keys []string, values []string) *Record {
	r := NewRecord()
	n := min(len(keys), len(values))
	for i := 0; i < n; i++ {
		r.Set(keys[i], values[i])
	}
	return r
}

// Set stores v under key. An existing key keeps its position.
func (r *Record) Set(key string, v any) {
	if r.values == nil {
		r.values = make(map[string]any)
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = v
}

// Get returns the value for key.
func (r *Record) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// String returns the value for key when it is a string, else "".
func (r *Record) String(key string) string {
	s, _ := r.values[key].(string)
	return s
}

// Float returns the value for key when it is a float64.
func (r *Record) Float(key string) (float64, bool) {
	f, ok := r.values[key].(float64)
	return f, ok
}

// Has reports whether key is present.
func (r *Record) Has(key string) bool {
	_, ok := r.values[key]
	return ok
}

// Keys returns the keys in insertion order.
func (r *Record) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len returns the number of fields.
func (r *Record) Len() int {
	return len(r.keys)
}

// Each calls fn for every field in order.
func (r *Record) Each(fn func(key string, value any)) {
	for _, k := range r.keys {
		fn(k, r.values[k])
	}
}

// MarshalJSON encodes the record as a JSON object in key order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
