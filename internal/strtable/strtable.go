// Package strtable interns strings to small integer keys.
//
// Key 0 always maps to the empty string. Keys are stable for the lifetime of
// a Table and are restored exactly by Load, so node payloads that store keys
// stay valid across save/load.
package strtable

import (
	"errors"
	"fmt"
	"sort"

	"github.com/jward/asg/internal/binio"
)

// Key identifies an interned string.
type Key uint32

// Type marks how a string participates in persistence.
type Type uint8

const (
	// TypeDefault strings are saved by SaveAll and SaveSkipTmp.
	TypeDefault Type = iota
	// TypeTmp strings are scratch values never worth persisting.
	TypeTmp
	// TypeToSave strings are referenced by saved nodes.
	TypeToSave
)

func (t Type) String() string {
	switch t {
	case TypeDefault:
		return "default"
	case TypeTmp:
		return "tmp"
	case TypeToSave:
		return "tosave"
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

// SaveMode selects which strings Save writes.
type SaveMode uint8

const (
	SaveAll SaveMode = iota
	SaveSkipTmp
	SaveMarked
)

// Magic opens every serialized string table.
const Magic = "STRTBL"

// ErrCorrupt reports a malformed string table section.
var ErrCorrupt = errors.New("strtable: corrupt section")

type entry struct {
	s    string
	typ  Type
	live bool
}

// Table is a string interning table. It is not safe for concurrent use.
type Table struct {
	entries []entry // index = Key
	index   map[string]Key
	size    int
}

// New returns a table holding only the empty string.
func New() *Table {
	t := &Table{}
	t.reset()
	return t
}

func (t *Table) reset() {
	t.entries = []entry{{live: true}}
	t.index = map[string]Key{"": 0}
	t.size = 1
}

// Set interns s and returns its key.
func (t *Table) Set(s string) Key {
	if k, ok := t.index[s]; ok {
		return k
	}
	k := Key(len(t.entries))
	t.entries = append(t.entries, entry{s: s, live: true})
	t.index[s] = k
	t.size++
	return k
}

// Get returns the string for k.
func (t *Table) Get(k Key) (string, bool) {
	if int(k) >= len(t.entries) || !t.entries[k].live {
		return "", false
	}
	return t.entries[k].s, true
}

// String returns the string for k, or "" when k is unknown.
func (t *Table) String(k Key) string {
	s, _ := t.Get(k)
	return s
}

// Lookup returns the key of s without interning it.
func (t *Table) Lookup(s string) (Key, bool) {
	k, ok := t.index[s]
	return k, ok
}

// Contains reports whether k is a live key.
func (t *Table) Contains(k Key) bool {
	return int(k) < len(t.entries) && t.entries[k].live
}

// SetType marks k. Unknown keys are ignored.
func (t *Table) SetType(k Key, typ Type) {
	if t.Contains(k) {
		t.entries[k].typ = typ
	}
}

// Type returns the mark of k.
func (t *Table) Type(k Key) Type {
	if !t.Contains(k) {
		return TypeDefault
	}
	return t.entries[k].typ
}

// ResetTypes re-marks every string of type from as to.
func (t *Table) ResetTypes(from, to Type) {
	for i := range t.entries {
		if t.entries[i].live && t.entries[i].typ == from {
			t.entries[i].typ = to
		}
	}
}

// Delete removes k. The empty string cannot be deleted. The key is not
// reused by later Set calls.
func (t *Table) Delete(k Key) {
	if k == 0 || !t.Contains(k) {
		return
	}
	delete(t.index, t.entries[k].s)
	t.entries[k] = entry{}
	t.size--
}

// Len returns the number of live strings, the empty string included.
func (t *Table) Len() int { return t.size }

// Keys returns the live keys in ascending order.
func (t *Table) Keys() []Key {
	keys := make([]Key, 0, t.size)
	for i, e := range t.entries {
		if e.live {
			keys = append(keys, Key(i))
		}
	}
	return keys
}

func (t *Table) wanted(e entry, mode SaveMode) bool {
	switch mode {
	case SaveSkipTmp:
		return e.typ != TypeTmp
	case SaveMarked:
		return e.typ == TypeToSave
	}
	return true
}

// Save writes the table section. Key 0 is implicit and never written.
func (t *Table) Save(w *binio.Writer, mode SaveMode) {
	w.ShortString(Magic)
	for i := 1; i < len(t.entries); i++ {
		e := t.entries[i]
		if !e.live || !t.wanted(e, mode) {
			continue
		}
		w.UInt4(uint32(i))
		w.String(e.s)
	}
	w.UInt4(0)
}

// MaxKeys bounds the keys Load accepts.
const MaxKeys = 1 << 26

// Limit returns one past the largest key ever handed out.
func (t *Table) Limit() Key { return Key(len(t.entries)) }

// Load replaces the contents of t with a section written by Save. Loaded
// strings are marked TypeDefault.
func (t *Table) Load(r *binio.Reader) error {
	return t.LoadLimit(r, MaxKeys)
}

// LoadLimit is Load for a section whose keys are all below limit, as
// recorded by the writer. Keys must come in ascending order.
func (t *Table) LoadLimit(r *binio.Reader, limit Key) error {
	limit = min(limit, MaxKeys)
	magic := r.ShortString()
	if err := r.Err(); err != nil {
		return fmt.Errorf("strtable: load: %w", err)
	}
	if magic != Magic {
		return fmt.Errorf("%w: bad magic %q", ErrCorrupt, magic)
	}

	t.reset()
	var last Key
	for {
		k := Key(r.UInt4())
		if err := r.Err(); err != nil {
			return fmt.Errorf("strtable: load: %w", err)
		}
		if k == 0 {
			break
		}
		if k >= limit || k <= last {
			return fmt.Errorf("%w: key %d out of order or above %d", ErrCorrupt, k, limit)
		}
		last = k
		s := r.String()
		if err := r.Err(); err != nil {
			return fmt.Errorf("strtable: load key %d: %w", k, err)
		}
		if err := t.put(k, s); err != nil {
			return err
		}
	}
	return nil
}

// put stores s under an explicit key, growing the entry slice with dead
// gaps as needed.
func (t *Table) put(k Key, s string) error {
	if t.Contains(k) {
		return fmt.Errorf("%w: duplicate key %d", ErrCorrupt, k)
	}
	if old, ok := t.index[s]; ok {
		return fmt.Errorf("%w: %q stored under keys %d and %d", ErrCorrupt, s, old, k)
	}
	for Key(len(t.entries)) <= k {
		t.entries = append(t.entries, entry{})
	}
	t.entries[k] = entry{s: s, live: true}
	t.index[s] = k
	t.size++
	return nil
}

// Strings returns every live string sorted, mostly for diagnostics.
func (t *Table) Strings() []string {
	out := make([]string, 0, t.size)
	for _, e := range t.entries {
		if e.live {
			out = append(out, e.s)
		}
	}
	sort.Strings(out)
	return out
}
