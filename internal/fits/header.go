// Package fits reads and patches FITS primary headers: 2880-byte blocks of
// 80-character cards, terminated by an END card. Only header access is
// implemented; pixel data is never interpreted.
package fits

import (
	"fmt"
	"strconv"
)

// Card is one 80-character header record with a typed value.
// Value is one of bool, int64, float64 or string.
type Card struct {
	Key     string
	Value   any
	Comment string
}

// Header is an ordered set of value cards from a primary HDU.
type Header struct {
	cards []Card
	index map[string]int
}

// NewHeader returns an empty header.
func NewHeader() *Header {
	return &Header{index: make(map[string]int)}
}

// Len returns the number of value cards.
func (h *Header) Len() int { return len(h.cards) }

// Keys returns card keys in file order.
func (h *Header) Keys() []string {
	keys := make([]string, len(h.cards))
	for i, c := range h.cards {
		keys[i] = c.Key
	}
	return keys
}

// Get returns the raw value for key.
func (h *Header) Get(key string) (any, bool) {
	i, ok := h.index[key]
	if !ok {
		return nil, false
	}
	return h.cards[i].Value, true
}

// Has reports whether key is present.
func (h *Header) Has(key string) bool {
	_, ok := h.index[key]
	return ok
}

// Float returns the value for key coerced to float64. Integers widen,
// numeric strings parse; anything else reports false.
func (h *Header) Float(key string) (float64, bool) {
	v, ok := h.Get(key)
	if !ok {
		return 0, false
	}
	switch x := v.(type) {
	case float64:
		return x, true
	case int64:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	}
	return 0, false
}

// Int returns the value for key coerced to int64.
func (h *Header) Int(key string) (int64, bool) {
	v, ok := h.Get(key)
	if !ok {
		return 0, false
	}
	switch x := v.(type) {
	case int64:
		return x, true
	case float64:
		return int64(x), true
	case string:
		n, err := strconv.ParseInt(x, 10, 64)
		return n, err == nil
	}
	return 0, false
}

// Str returns the value for key rendered as a string.
func (h *Header) Str(key string) (string, bool) {
	v, ok := h.Get(key)
	if !ok {
		return "", false
	}
	if s, isStr := v.(string); isStr {
		return s, true
	}
	return fmt.Sprint(v), true
}

// Set updates an existing card in place or appends a new one.
func (h *Header) Set(key string, value any, comment string) {
	if i, ok := h.index[key]; ok {
		h.cards[i].Value = value
		if comment != "" {
			h.cards[i].Comment = comment
		}
		return
	}
	h.index[key] = len(h.cards)
	h.cards = append(h.cards, Card{Key: key, Value: value, Comment: comment})
}

// Map returns the header as a plain key/value mapping, losing card order.
func (h *Header) Map() map[string]any {
	m := make(map[string]any, len(h.cards))
	for _, c := range h.cards {
		m[c.Key] = c.Value
	}
	return m
}

// Cards returns the value cards in file order.
func (h *Header) Cards() []Card {
	out := make([]Card, len(h.cards))
	copy(out, h.cards)
	return out
}
