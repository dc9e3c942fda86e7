package asg

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

func (f *Factory) word(r *record, a AttrKind) uint32 {
	off := layouts[r.kind].attrOff[a]
	if off < 0 {
		return 0
	}
	return r.words[off]
}

func (f *Factory) setWord(r *record, a AttrKind, v uint32) {
	off := layouts[r.kind].attrOff[a]
	if off < 0 || r.words[off] == v {
		return
	}
	r.words[off] = v
	f.invalidateHash(r)
}

func (f *Factory) getBool(r *record, a AttrKind) bool { return f.word(r, a) != 0 }

func (f *Factory) setBool(r *record, a AttrKind, v bool) {
	var w uint32
	if v {
		w = 1
	}
	f.setWord(r, a, w)
}

func (f *Factory) getKey(r *record, a AttrKind) Key { return Key(f.word(r, a)) }

func (f *Factory) getString(r *record, a AttrKind) string {
	return f.strs.String(f.getKey(r, a))
}

func (f *Factory) setString(r *record, a AttrKind, s string) {
	f.setWord(r, a, uint32(f.strs.Set(s)))
}

func (f *Factory) getRange(r *record) Range {
	off := layouts[r.kind].attrOff[AttrPosition]
	if off < 0 {
		return Range{}
	}
	w := r.words[off : off+rangeWords]
	return Range{
		Path:        f.strs.String(Key(w[0])),
		Line:        w[1],
		Col:         w[2],
		EndLine:     w[3],
		EndCol:      w[4],
		WideLine:    w[5],
		WideCol:     w[6],
		WideEndLine: w[7],
		WideEndCol:  w[8],
	}
}

func (f *Factory) setRange(r *record, pos Range) {
	off := layouts[r.kind].attrOff[AttrPosition]
	if off < 0 {
		return
	}
	w := r.words[off : off+rangeWords]
	w[0] = uint32(f.strs.Set(pos.Path))
	w[1], w[2], w[3], w[4] = pos.Line, pos.Col, pos.EndLine, pos.EndCol
	w[5], w[6], w[7], w[8] = pos.WideLine, pos.WideCol, pos.WideEndLine, pos.WideEndCol
	f.invalidateHash(r)
}

// keyOffsets lists the word offsets of r that hold string keys, the path
// word of a position included.
func keyOffsets(kind NodeKind) []int {
	l := layouts[kind]
	var offs []int
	for _, a := range l.attrs {
		switch attrTable[a].typ {
		case AttrString, AttrRange:
			offs = append(offs, int(l.attrOff[a]))
		}
	}
	return offs
}

// Value is a dynamically typed attribute value, used by scripting and
// snapshot import/export.
type Value struct {
	Type  AttrType
	Bool  bool
	Enum  uint8
	Str   string
	Range Range
}

// GetAttr returns attribute a of node id.
func (f *Factory) GetAttr(id NodeID, a AttrKind) (Value, error) {
	r, err := f.lookup(id)
	if err != nil {
		return Value{}, err
	}
	if !HasAttr(r.kind, a) {
		return Value{}, fmt.Errorf("asg: %s on %s node %d: %w", a, r.kind, id, ErrInvalidAttr)
	}
	v := Value{Type: a.Type()}
	switch v.Type {
	case AttrBool:
		v.Bool = f.getBool(r, a)
	case AttrEnum:
		v.Enum = uint8(f.word(r, a))
	case AttrString:
		v.Str = f.getString(r, a)
	case AttrRange:
		v.Range = f.getRange(r)
	}
	return v, nil
}

// SetAttr stores v into attribute a of node id. v.Type must match.
func (f *Factory) SetAttr(id NodeID, a AttrKind, v Value) error {
	r, err := f.lookup(id)
	if err != nil {
		return err
	}
	if !HasAttr(r.kind, a) {
		return fmt.Errorf("asg: %s on %s node %d: %w", a, r.kind, id, ErrInvalidAttr)
	}
	if v.Type != a.Type() {
		return fmt.Errorf("asg: %s expects %s, got %s: %w", a, a.Type(), v.Type, ErrInvalidAttr)
	}
	switch v.Type {
	case AttrBool:
		f.setBool(r, a, v.Bool)
	case AttrEnum:
		if names := enumNames(a); int(v.Enum) >= len(names) {
			return fmt.Errorf("asg: %s value %d out of range: %w", a, v.Enum, ErrInvalidAttr)
		}
		f.setWord(r, a, uint32(v.Enum))
	case AttrString:
		f.setString(r, a, v.Str)
	case AttrRange:
		f.setRange(r, v.Range)
	}
	return nil
}

// FormatValue renders v the way ParseValue reads it back.
func FormatValue(a AttrKind, v Value) string {
	switch v.Type {
	case AttrBool:
		return strconv.FormatBool(v.Bool)
	case AttrEnum:
		if names := enumNames(a); int(v.Enum) < len(names) {
			return names[v.Enum]
		}
		return strconv.Itoa(int(v.Enum))
	case AttrString:
		return v.Str
	case AttrRange:
		return FormatRange(v.Range)
	}
	return ""
}

// ParseValue parses s as a value of attribute a.
func ParseValue(a AttrKind, s string) (Value, error) {
	v := Value{Type: a.Type()}
	switch v.Type {
	case AttrBool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return Value{}, fmt.Errorf("asg: %s: %w", a, err)
		}
		v.Bool = b
	case AttrEnum:
		names := enumNames(a)
		for i, n := range names {
			if strings.EqualFold(n, s) {
				v.Enum = uint8(i)
				return v, nil
			}
		}
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 || n >= len(names) {
			return Value{}, fmt.Errorf("asg: %s: unknown value %q: %w", a, s, ErrInvalidAttr)
		}
		v.Enum = uint8(n)
	case AttrString:
		v.Str = s
	case AttrRange:
		r, err := ParseRange(s)
		if err != nil {
			return Value{}, err
		}
		v.Range = r
	default:
		return Value{}, fmt.Errorf("asg: %s: %w", a, ErrInvalidAttr)
	}
	return v, nil
}

// FormatRange renders a Range as "path:line:col-endLine:endCol", followed by
// "|wideLine:wideCol-wideEndLine:wideEndCol" when any wide field is set.
func FormatRange(r Range) string {
	s := fmt.Sprintf("%s:%d:%d-%d:%d", r.Path, r.Line, r.Col, r.EndLine, r.EndCol)
	if r.WideLine|r.WideCol|r.WideEndLine|r.WideEndCol != 0 {
		s += fmt.Sprintf("|%d:%d-%d:%d", r.WideLine, r.WideCol, r.WideEndLine, r.WideEndCol)
	}
	return s
}

// ParseRange reads the FormatRange form.
func ParseRange(s string) (Range, error) {
	var r Range
	main, wide, hasWide := strings.Cut(s, "|")
	// The path may itself contain colons; the numeric part is the last
	// "l:c-l:c" group.
	dash := strings.LastIndex(main, "-")
	if dash < 0 {
		return Range{}, fmt.Errorf("asg: bad range %q", s)
	}
	startPart := main[:dash]
	parts := strings.Split(startPart, ":")
	if len(parts) < 3 {
		return Range{}, fmt.Errorf("asg: bad range %q", s)
	}
	r.Path = strings.Join(parts[:len(parts)-2], ":")
	if _, err := fmt.Sscanf(parts[len(parts)-2]+":"+parts[len(parts)-1]+"-"+main[dash+1:],
		"%d:%d-%d:%d", &r.Line, &r.Col, &r.EndLine, &r.EndCol); err != nil {
		return Range{}, fmt.Errorf("asg: bad range %q: %w", s, err)
	}
	if hasWide {
		if _, err := fmt.Sscanf(wide, "%d:%d-%d:%d", &r.WideLine, &r.WideCol, &r.WideEndLine, &r.WideEndCol); err != nil {
			return Range{}, fmt.Errorf("asg: bad wide range %q: %w", s, err)
		}
	}
	return r, nil
}

// isNil catches typed nil pointers stored in a Node interface.
func isNil(n Node) bool {
	if n == nil {
		return true
	}
	v := reflect.ValueOf(n)
	return v.Kind() == reflect.Pointer && v.IsNil()
}
