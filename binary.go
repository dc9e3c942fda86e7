package asg

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jward/asg/internal/binio"
	"github.com/jward/asg/internal/metrics"
	"github.com/jward/asg/internal/strtable"
)

const (
	// APIVersion identifies the node kind catalogue. Files written against
	// another catalogue are rejected.
	APIVersion = "1.3"
	// BinaryVersion identifies the record layout.
	BinaryVersion = 3

	// maxLoadID bounds the node ids Load accepts.
	maxLoadID = 1 << 26

	fileType = "asg"

	headerType          = "Type"
	headerAPIVersion    = "APIVersion"
	headerBinaryVersion = "BinaryVersion"
	headerCompression   = "Compression"
	headerRoot          = "Root"
	headerMaxID         = "MaxID"
	headerStringLimit   = "StringLimit"

	compressionZstd = "zstd"
	compressionNone = "none"
)

var reservedHeaderKeys = map[string]bool{
	headerType:          true,
	headerAPIVersion:    true,
	headerBinaryVersion: true,
	headerCompression:   true,
	headerRoot:          true,
	headerMaxID:         true,
	headerStringLimit:   true,
}

type saveConfig struct {
	compress bool
	entries  [][2]string
}

// SaveOption configures Save.
type SaveOption func(*saveConfig)

// WithCompression turns zstd compression of the body on or off. It is on by
// default.
func WithCompression(on bool) SaveOption {
	return func(c *saveConfig) { c.compress = on }
}

// WithHeaderEntry adds a user entry to the file header. Reserved keys are
// ignored.
func WithHeaderEntry(key, value string) SaveOption {
	return func(c *saveConfig) {
		if !reservedHeaderKeys[key] {
			c.entries = append(c.entries, [2]string{key, value})
		}
	}
}

// Save writes the ASG to w. Filtered nodes and edges into them are left
// out; the root is always written. Only strings referenced by saved nodes
// are written, and the ToSave marks of the string table are reset for that.
func (f *Factory) Save(w io.Writer, opts ...SaveOption) error {
	start := time.Now()
	cfg := saveConfig{compress: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	hw := binio.NewWriter(w)
	h := binio.NewHeader()
	h.Set(headerType, fileType)
	h.Set(headerAPIVersion, APIVersion)
	h.SetInt(headerBinaryVersion, BinaryVersion)
	if cfg.compress {
		h.Set(headerCompression, compressionZstd)
	} else {
		h.Set(headerCompression, compressionNone)
	}
	h.Set(headerRoot, strconv.FormatUint(uint64(f.root), 10))
	h.SetInt(headerMaxID, int(f.MaxID()))
	h.SetInt(headerStringLimit, int(f.strs.Limit()))
	for _, kv := range cfg.entries {
		h.Set(kv[0], kv[1])
	}
	h.Write(hw)
	if err := hw.Err(); err != nil {
		return fmt.Errorf("asg: save header: %w", err)
	}

	body := w
	var zw io.WriteCloser
	if cfg.compress {
		var err error
		if zw, err = binio.CompressTo(w); err != nil {
			return fmt.Errorf("asg: save: %w", err)
		}
		body = zw
	}
	bw := binio.NewWriter(body)
	f.writeBody(bw)
	if err := bw.Err(); err != nil {
		return fmt.Errorf("asg: save body: %w", err)
	}
	if zw != nil {
		if err := zw.Close(); err != nil {
			return fmt.Errorf("asg: save: flush: %w", err)
		}
	}

	metrics.PersistBytes.WithLabelValues("save").Add(float64(hw.Written() + bw.Written()))
	metrics.PersistDuration.WithLabelValues("save").Observe(time.Since(start).Seconds())
	f.logger.Debug("saved asg")
	return nil
}

// saved reports whether id is written by Save.
func (f *Factory) saved(id NodeID) bool {
	return f.rec(id) != nil && (id == f.root || !f.IsFiltered(id))
}

func (f *Factory) writeBody(w *binio.Writer) {
	strs := f.strs
	strs.ResetTypes(strtable.TypeToSave, strtable.TypeDefault)
	key := func(k uint32) {
		strs.SetType(Key(k), strtable.TypeToSave)
		w.UInt4(k)
	}

	for id := 1; id < len(f.slots); id++ {
		r := f.slots[id].rec
		if r == nil || !f.saved(r.id) {
			continue
		}
		l := layouts[r.kind]
		w.UInt4(uint32(r.id))
		w.UShort2(uint16(r.kind))

		for _, a := range l.attrs {
			off := l.attrOff[a]
			switch attrTable[a].typ {
			case AttrBool, AttrEnum:
				w.UByte1(uint8(r.words[off]))
			case AttrString:
				key(r.words[off])
			case AttrRange:
				key(r.words[off])
				for _, v := range r.words[off+1 : off+rangeWords] {
					w.UInt4(v)
				}
			}
		}

		for i, e := range l.edges {
			targets := r.edges[i]
			switch {
			case !e.IsMany():
				var t NodeID
				if len(targets) > 0 && f.saved(targets[0]) {
					t = targets[0]
				}
				w.UInt4(uint32(t))
			case e.HasPayload():
				for j, t := range targets {
					if f.saved(t) {
						w.UInt4(uint32(t))
						w.UInt4(r.payloads[i][j])
					}
				}
				w.UInt4(0)
			default:
				for _, t := range targets {
					if f.saved(t) {
						w.UInt4(uint32(t))
					}
				}
				w.UInt4(0)
			}
		}
	}
	w.UInt4(0)
	w.UShort2(0)
	strs.Save(w, strtable.SaveMarked)
}

// SaveFile writes the ASG to path through a temporary file in the same
// directory, so a failed save leaves any previous file intact.
func (f *Factory) SaveFile(path string, opts ...SaveOption) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("asg: save %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	bw := bufio.NewWriter(tmp)
	if err := f.Save(bw, opts...); err != nil {
		tmp.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("asg: save %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("asg: save %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("asg: save %s: %w", path, err)
	}
	return nil
}

// ReadHeader reads and checks the header of an ASG file without loading
// the body.
func ReadHeader(r io.Reader) (*binio.Header, error) {
	h, err := binio.ReadHeader(binio.NewReader(r))
	if err != nil {
		return nil, fmt.Errorf("asg: read header: %w: %v", ErrCorruptFile, err)
	}
	if typ, _ := h.Get(headerType); typ != fileType {
		return nil, fmt.Errorf("asg: file type %q: %w", typ, ErrCorruptFile)
	}
	return h, nil
}

func checkVersions(h *binio.Header) error {
	if v, _ := h.Get(headerAPIVersion); v != APIVersion {
		return fmt.Errorf("asg: api version %q, want %q: %w", v, APIVersion, ErrSchemaVersionMismatch)
	}
	if v, err := h.Int(headerBinaryVersion); err != nil || v != BinaryVersion {
		return fmt.Errorf("asg: binary version %d, want %d: %w", v, BinaryVersion, ErrSchemaVersionMismatch)
	}
	return nil
}

// Load reads an ASG written by Save. Factory options apply to the result;
// with WithReverseEdges the index is rebuilt after loading.
func Load(r io.Reader, opts ...Option) (*Factory, error) {
	start := time.Now()
	h, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	if err := checkVersions(h); err != nil {
		return nil, err
	}
	maxID, err := h.Int(headerMaxID)
	if err != nil || maxID < 1 || maxID > maxLoadID {
		return nil, fmt.Errorf("asg: max id %d: %w", maxID, ErrCorruptFile)
	}
	strLimit, err := h.Int(headerStringLimit)
	if err != nil || strLimit < 1 || strLimit > strtable.MaxKeys {
		return nil, fmt.Errorf("asg: string limit %d: %w", strLimit, ErrCorruptFile)
	}
	rootStr, _ := h.Get(headerRoot)
	root, err := strconv.ParseUint(rootStr, 10, 32)
	if err != nil || root == 0 || root > uint64(maxID) {
		return nil, fmt.Errorf("asg: root %q: %w", rootStr, ErrCorruptFile)
	}

	body := r
	switch c, _ := h.Get(headerCompression); c {
	case compressionZstd:
		zr, err := binio.DecompressFrom(r)
		if err != nil {
			return nil, fmt.Errorf("asg: load: %w: %v", ErrCorruptFile, err)
		}
		defer zr.Close()
		body = zr
	case compressionNone:
	default:
		return nil, fmt.Errorf("asg: compression %q: %w", c, ErrCorruptFile)
	}

	f := newFactory(opts...)
	wantReverse := f.reverse != nil
	f.reverse = nil

	br := binio.NewReader(body)
	if err := f.readRecords(br, NodeID(maxID)); err != nil {
		return nil, err
	}
	if err := f.strs.LoadLimit(br, Key(strLimit)); err != nil {
		return nil, fmt.Errorf("asg: load string table: %w: %v", ErrCorruptFile, err)
	}
	f.root = NodeID(root)
	if err := f.linkLoaded(); err != nil {
		return nil, err
	}
	f.rebuildFreeList()
	if wantReverse {
		f.EnableReverseEdges()
	}

	metrics.PersistDuration.WithLabelValues("load").Observe(time.Since(start).Seconds())
	f.logger.Debug("loaded asg")
	return f, nil
}

// readRecords reads records up to the terminator. Ids must ascend and stay
// at or below maxID, so a corrupt id is rejected before the arena grows.
func (f *Factory) readRecords(br *binio.Reader, maxID NodeID) error {
	var last NodeID
	for {
		id := NodeID(br.UInt4())
		kind := NodeKind(br.UShort2())
		if err := br.Err(); err != nil {
			return fmt.Errorf("asg: load: %w: %v", ErrCorruptFile, err)
		}
		if id == 0 && kind == KindNone {
			return nil
		}
		if id == 0 || !kind.valid() || kind.IsAbstract() {
			return fmt.Errorf("asg: load: record %d of kind %d: %w", id, uint16(kind), ErrCorruptFile)
		}
		if id > maxID || id <= last {
			return fmt.Errorf("asg: load: record %d after %d, max %d: %w", id, last, maxID, ErrCorruptFile)
		}
		last = id
		r, err := f.allocAt(id, kind)
		if err != nil {
			return fmt.Errorf("asg: load: %w: %v", ErrCorruptFile, err)
		}
		f.readRecord(br, r)
		if err := br.Err(); err != nil {
			return fmt.Errorf("asg: load node %d: %w: %v", id, ErrCorruptFile, err)
		}
	}
}

func (f *Factory) readRecord(br *binio.Reader, r *record) {
	l := layouts[r.kind]
	for _, a := range l.attrs {
		off := l.attrOff[a]
		switch attrTable[a].typ {
		case AttrBool, AttrEnum:
			r.words[off] = uint32(br.UByte1())
		case AttrString:
			r.words[off] = br.UInt4()
		case AttrRange:
			for i := range rangeWords {
				r.words[int(off)+i] = br.UInt4()
			}
		}
	}
	for i, e := range l.edges {
		switch {
		case !e.IsMany():
			if t := NodeID(br.UInt4()); t != 0 {
				r.edges[i] = append(r.edges[i], t)
			}
		default:
			for br.Err() == nil {
				t := NodeID(br.UInt4())
				if t == 0 {
					break
				}
				r.edges[i] = append(r.edges[i], t)
				if e.HasPayload() {
					r.payloads[i] = append(r.payloads[i], br.UInt4())
				}
			}
		}
	}
}

// linkLoaded validates the loaded records and restores parent pointers.
func (f *Factory) linkLoaded() error {
	rootRec := f.rec(f.root)
	if rootRec == nil || rootRec.kind != KindPackage {
		return fmt.Errorf("asg: load: root %d is not a package: %w", f.root, ErrCorruptFile)
	}

	for id := 1; id < len(f.slots); id++ {
		r := f.slots[id].rec
		if r == nil {
			continue
		}
		for _, off := range keyOffsets(r.kind) {
			if !f.strs.Contains(Key(r.words[off])) {
				return fmt.Errorf("asg: load: node %d references unknown string %d: %w", r.id, r.words[off], ErrCorruptFile)
			}
		}
		for _, a := range layouts[r.kind].attrs {
			if attrTable[a].typ == AttrEnum && int(r.words[layouts[r.kind].attrOff[a]]) >= len(enumNames(a)) {
				return fmt.Errorf("asg: load: node %d %s out of range: %w", r.id, a, ErrCorruptFile)
			}
		}
		for i, e := range layouts[r.kind].edges {
			for j, t := range r.edges[i] {
				if e.HasPayload() && !e.ValidPayload(r.payloads[i][j]) {
					return fmt.Errorf("asg: load: %s of node %d has payload %d: %w", e, r.id, r.payloads[i][j], ErrCorruptFile)
				}
				dst := f.rec(t)
				if dst == nil {
					return fmt.Errorf("asg: load: %s of node %d points to missing node %d: %w", e, r.id, t, ErrCorruptFile)
				}
				if !e.Accepts(dst.kind) {
					return fmt.Errorf("asg: load: %s of node %d points to %s node %d: %w", e, r.id, dst.kind, t, ErrCorruptFile)
				}
				if !e.IsOwnership() {
					continue
				}
				if dst.parent != 0 || dst.id == f.root {
					return fmt.Errorf("asg: load: node %d owned twice: %w", t, ErrCorruptFile)
				}
				dst.parent = r.id
				dst.parentEdge = e
			}
		}
	}

	// Every node must hang below a parentless node; the rest sit on an
	// ownership cycle.
	reached := 0
	for id := 1; id < len(f.slots); id++ {
		if r := f.slots[id].rec; r != nil && r.parent == 0 {
			reached += f.subtreeSize(r)
		}
	}
	if reached != f.live {
		return fmt.Errorf("asg: load: %d nodes on ownership cycles: %w", f.live-reached, ErrCorruptFile)
	}
	return nil
}

// LoadFile opens path and loads it.
func LoadFile(path string, opts ...Option) (*Factory, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("asg: load %s: %w", path, err)
	}
	defer file.Close()

	f, err := Load(bufio.NewReader(file), opts...)
	if err != nil {
		return nil, err
	}
	if st, err := file.Stat(); err == nil {
		metrics.PersistBytes.WithLabelValues("load").Add(float64(st.Size()))
	}
	return f, nil
}
