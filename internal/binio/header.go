package binio

import (
	"fmt"
	"strconv"
)

const (
	headerTrue  = "true"
	headerFalse = "false"
)

// Header is an ordered list of (key, value) string pairs written in front of
// every persisted file.
type Header struct {
	keys   []string
	values map[string]string
}

// NewHeader returns an empty header.
func NewHeader() *Header {
	return &Header{values: make(map[string]string)}
}

// Set adds or replaces a key. Insertion order of new keys is kept.
func (h *Header) Set(key, value string) {
	if _, ok := h.values[key]; !ok {
		h.keys = append(h.keys, key)
	}
	h.values[key] = value
}

// SetInt stores an integer value.
func (h *Header) SetInt(key string, v int) {
	h.Set(key, strconv.Itoa(v))
}

// SetBool stores a boolean value.
func (h *Header) SetBool(key string, v bool) {
	if v {
		h.Set(key, headerTrue)
		return
	}
	h.Set(key, headerFalse)
}

// Get returns the value stored under key.
func (h *Header) Get(key string) (string, bool) {
	v, ok := h.values[key]
	return v, ok
}

// Int returns the integer stored under key.
func (h *Header) Int(key string) (int, error) {
	v, ok := h.values[key]
	if !ok {
		return 0, fmt.Errorf("header: missing key %q", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("header: key %q: %w", key, err)
	}
	return n, nil
}

// Bool returns the boolean stored under key.
func (h *Header) Bool(key string) (bool, error) {
	v, ok := h.values[key]
	if !ok {
		return false, fmt.Errorf("header: missing key %q", key)
	}
	switch v {
	case headerTrue:
		return true, nil
	case headerFalse:
		return false, nil
	}
	return false, fmt.Errorf("header: key %q: invalid bool %q", key, v)
}

// Keys returns the keys in insertion order.
func (h *Header) Keys() []string {
	out := make([]string, len(h.keys))
	copy(out, h.keys)
	return out
}

// Len returns the number of entries.
func (h *Header) Len() int { return len(h.keys) }

// Write encodes the header: UInt4 count then ShortString pairs.
func (h *Header) Write(w *Writer) {
	w.UInt4(uint32(len(h.keys)))
	for _, k := range h.keys {
		w.ShortString(k)
		w.ShortString(h.values[k])
	}
}

// maxHeaderEntries guards against reading garbage as a header.
const maxHeaderEntries = 4096

// ReadHeader decodes a header written by Write.
func ReadHeader(r *Reader) (*Header, error) {
	n := r.UInt4()
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	if n > maxHeaderEntries {
		return nil, fmt.Errorf("header: implausible entry count %d", n)
	}
	h := NewHeader()
	for range n {
		k := r.ShortString()
		v := r.ShortString()
		if err := r.Err(); err != nil {
			return nil, fmt.Errorf("header: %w", err)
		}
		h.Set(k, v)
	}
	return h, nil
}
