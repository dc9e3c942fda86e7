// Package pathfilter decides which source paths are hidden from an analysis.
//
// A rule file holds one rule per line. "-regex" excludes matching paths,
// "+regex" includes them again, and the last matching rule wins. Blank lines
// and lines starting with '#' are ignored. A path no rule matches is
// included.
package pathfilter

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

type rule struct {
	exclude bool
	re      *regexp.Regexp
}

// Filter is an ordered list of include/exclude rules.
type Filter struct {
	rules []rule
}

// Parse reads rules from r.
func Parse(r io.Reader) (*Filter, error) {
	f := &Filter{}
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		var exclude bool
		switch text[0] {
		case '-':
			exclude = true
		case '+':
		default:
			return nil, fmt.Errorf("pathfilter: line %d: rule must start with '+' or '-'", line)
		}
		re, err := regexp.Compile(text[1:])
		if err != nil {
			return nil, fmt.Errorf("pathfilter: line %d: %w", line, err)
		}
		f.rules = append(f.rules, rule{exclude: exclude, re: re})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("pathfilter: %w", err)
	}
	return f, nil
}

// LoadFile parses the rule file at path.
func LoadFile(path string) (*Filter, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("pathfilter: %w", err)
	}
	defer fh.Close()
	return Parse(fh)
}

// Excluded reports whether path is hidden. Paths are matched in slash form.
// A nil Filter excludes nothing.
func (f *Filter) Excluded(path string) bool {
	if f == nil {
		return false
	}
	path = filepath.ToSlash(path)
	excluded := false
	for _, r := range f.rules {
		if r.re.MatchString(path) {
			excluded = r.exclude
		}
	}
	return excluded
}

// Len returns the number of rules.
func (f *Filter) Len() int {
	if f == nil {
		return 0
	}
	return len(f.rules)
}
