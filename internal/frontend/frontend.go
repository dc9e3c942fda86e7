// Package frontend builds ASGs from Go, Python, Java and JavaScript sources
// using tree-sitter grammars.
package frontend

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jward/asg"
	"github.com/jward/asg/internal/cache"
	"github.com/jward/asg/internal/metrics"
	"github.com/jward/asg/internal/pathfilter"
)

// headerBases carries the unresolved base names of a cached file graph.
const headerBases = "FrontendBases"

// Frontend turns a source tree into one merged ASG.
type Frontend struct {
	logger  *zap.Logger
	workers int
	include []string
	exclude []string
	cache   *cache.Cache
	filter  *pathfilter.Filter
	reverse bool
}

// Option configures a Frontend.
type Option func(*Frontend)

// WithLogger sets the logger used by the front end and the built Factory.
func WithLogger(l *zap.Logger) Option {
	return func(fe *Frontend) {
		if l != nil {
			fe.logger = l
		}
	}
}

// WithWorkers bounds the number of files parsed at once. Zero means one per
// CPU.
func WithWorkers(n int) Option {
	return func(fe *Frontend) { fe.workers = n }
}

// WithInclude sets the doublestar patterns a relative path must match.
func WithInclude(patterns ...string) Option {
	return func(fe *Frontend) { fe.include = patterns }
}

// WithExclude sets doublestar patterns that drop a path from discovery.
func WithExclude(patterns ...string) Option {
	return func(fe *Frontend) { fe.exclude = patterns }
}

// WithCache reuses per-file graphs stored in c.
func WithCache(c *cache.Cache) Option {
	return func(fe *Frontend) { fe.cache = c }
}

// WithPathFilter marks the packages of paths excluded by pf as filtered.
// Their nodes stay in the graph.
func WithPathFilter(pf *pathfilter.Filter) Option {
	return func(fe *Frontend) { fe.filter = pf }
}

// WithReverseEdges enables the reverse index on the built Factory.
func WithReverseEdges() Option {
	return func(fe *Frontend) { fe.reverse = true }
}

// New returns a Frontend.
func New(opts ...Option) *Frontend {
	fe := &Frontend{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(fe)
	}
	return fe
}

// FileError records a file that could not be built.
type FileError struct {
	Path string `json:"path" yaml:"path"`
	Err  string `json:"error" yaml:"error"`
}

// Result is the outcome of a build.
type Result struct {
	Factory  *asg.Factory `json:"-" yaml:"-"`
	Files    []string     `json:"files" yaml:"files"`
	Cached   int          `json:"cached" yaml:"cached"`
	Filtered int          `json:"filtered" yaml:"filtered"`
	Failed   []FileError  `json:"failed,omitempty" yaml:"failed,omitempty"`
	Resolve  ResolveStats `json:"resolve" yaml:"resolve"`
}

// skipDirs are never descended into.
var skipDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"__pycache__":  true,
}

// Discover lists the supported source files below root, relative to it in
// slash form and sorted. Hidden directories are skipped.
func (fe *Frontend) Discover(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || skipDirs[name]) {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ok := LanguageForFile(path); !ok {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if fe.selected(rel) {
			paths = append(paths, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("frontend: walk %s: %w", root, err)
	}
	sort.Strings(paths)
	return paths, nil
}

func (fe *Frontend) selected(rel string) bool {
	if len(fe.include) > 0 && !matchAny(fe.include, rel) {
		return false
	}
	return !matchAny(fe.exclude, rel)
}

func matchAny(patterns []string, path string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, path); ok {
			return true
		}
	}
	return false
}

// BuildDirectory discovers and builds every source file below root.
func (fe *Frontend) BuildDirectory(ctx context.Context, root string) (*Result, error) {
	paths, err := fe.Discover(root)
	if err != nil {
		return nil, err
	}
	return fe.Build(ctx, root, paths)
}

// workItem holds everything a build worker needs for one file.
type workItem struct {
	rel  string
	lang string
	src  []byte
	key  string
}

// Build builds the given root-relative paths into one Factory using a
// three-phase pipeline:
//
//	Phase A (serial):   read sources and compute cache keys.
//	Phase B (parallel): parse and build one Factory per file, or load it
//	                    from the cache.
//	Phase C (serial):   merge in path order, resolve names, apply the path
//	                    filter.
//
// Files that fail to read or parse are reported in Result.Failed.
func (fe *Frontend) Build(ctx context.Context, root string, paths []string) (*Result, error) {
	res := &Result{}

	// ---- Phase A: Serial file preparation ----
	var items []workItem
	for _, rel := range paths {
		lang, ok := LanguageForFile(rel)
		if !ok {
			continue
		}
		src, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			res.Failed = append(res.Failed, FileError{Path: rel, Err: err.Error()})
			metrics.FrontendFiles.WithLabelValues("failed").Inc()
			continue
		}
		items = append(items, workItem{
			rel:  rel,
			lang: lang,
			src:  src,
			key:  cache.Digest([]byte(lang), []byte(asg.APIVersion), []byte(rel), src),
		})
	}

	// ---- Phase B: Parallel build ----
	workers := fe.workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	results := make([]*fileResult, len(items))
	cached := make([]bool, len(items))
	errs := make([]error, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, item := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i], cached[i], errs[i] = fe.buildItem(gctx, item)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("frontend: %w", err)
	}

	// ---- Phase C: Serial merge ----
	merged := asg.New(asg.WithLogger(fe.logger))
	var bases []baseRef
	for i, item := range items {
		if errs[i] != nil {
			res.Failed = append(res.Failed, FileError{Path: item.rel, Err: errs[i].Error()})
			metrics.FrontendFiles.WithLabelValues("failed").Inc()
			continue
		}
		m, err := asg.Merge(merged, results[i].Factory)
		if err != nil {
			return nil, fmt.Errorf("frontend: merge %s: %w", item.rel, err)
		}
		for _, b := range results[i].Bases {
			bases = append(bases, baseRef{Class: m[b.Class], Name: b.Name})
		}
		res.Files = append(res.Files, item.rel)
		if cached[i] {
			res.Cached++
			metrics.FrontendFiles.WithLabelValues("cached").Inc()
		} else {
			metrics.FrontendFiles.WithLabelValues("parsed").Inc()
		}
	}

	res.Resolve = resolve(merged, bases, fe.logger)

	if fe.filter != nil {
		for _, m := range merged.Root().Members() {
			if pkg, ok := m.(*asg.Package); ok && fe.filter.Excluded(pkg.Name()) {
				if err := merged.Filter().SetFiltered(pkg.ID()); err != nil {
					return nil, err
				}
				res.Filtered++
			}
		}
	}
	if fe.reverse {
		merged.EnableReverseEdges()
	}
	res.Factory = merged
	fe.logger.Info("built graph",
		zap.Int("files", len(res.Files)),
		zap.Int("cached", res.Cached),
		zap.Int("failed", len(res.Failed)),
		zap.Int("nodes", merged.Len()))
	return res, nil
}

// buildItem builds one file, going through the cache when configured.
func (fe *Frontend) buildItem(ctx context.Context, item workItem) (*fileResult, bool, error) {
	if fe.cache != nil {
		blob, ok, err := fe.cache.Get(item.key)
		if err != nil {
			fe.logger.Warn("cache read failed", zap.String("path", item.rel), zap.Error(err))
		}
		if ok {
			r, err := decodeResult(item, blob)
			if err == nil {
				return r, true, nil
			}
			fe.logger.Warn("dropping bad cache entry", zap.String("path", item.rel), zap.Error(err))
		}
	}

	r, err := buildFile(ctx, item.rel, item.lang, item.src, fe.logger)
	if err != nil {
		return nil, false, err
	}
	if fe.cache != nil {
		blob, err := encodeResult(r)
		if err == nil {
			err = fe.cache.Put(item.key, blob)
		}
		if err != nil {
			fe.logger.Warn("cache write failed", zap.String("path", item.rel), zap.Error(err))
		}
	}
	return r, false, nil
}

// encodeResult saves a file graph with its base names in the header.
func encodeResult(r *fileResult) ([]byte, error) {
	var lines []string
	for _, b := range r.Bases {
		lines = append(lines, strconv.FormatUint(uint64(b.Class), 10)+" "+b.Name)
	}
	var buf bytes.Buffer
	err := r.Factory.Save(&buf, asg.WithHeaderEntry(headerBases, strings.Join(lines, "\n")))
	return buf.Bytes(), err
}

func decodeResult(item workItem, blob []byte) (*fileResult, error) {
	h, err := asg.ReadHeader(bytes.NewReader(blob))
	if err != nil {
		return nil, err
	}
	f, err := asg.Load(bytes.NewReader(blob))
	if err != nil {
		return nil, err
	}
	r := &fileResult{Path: item.rel, Language: item.lang, Factory: f}
	v, _ := h.Get(headerBases)
	for _, line := range strings.Split(v, "\n") {
		id, name, ok := strings.Cut(line, " ")
		if !ok {
			continue
		}
		n, err := strconv.ParseUint(id, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("frontend: bad cached base %q: %w", line, err)
		}
		r.Bases = append(r.Bases, baseRef{Class: asg.NodeID(n), Name: name})
	}
	return r, nil
}
