// Package labels lists every qualifying label in a set of files.
//
// Files are matched by doublestar glob patterns. Each file is scanned
// with the same comment- and blank-skipping rules the interactive
// session uses; results can be cached in a SQLite index keyed by
// modification time so unchanged files are not rescanned.
package labels

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/dshills/refwalk/internal/index"
	"github.com/dshills/refwalk/internal/scan"
	"github.com/dshills/refwalk/internal/texdoc"
)

// Errors returned by label listing.
var (
	ErrNoPatterns    = errors.New("no file patterns given")
	ErrUnknownFormat = errors.New("unknown output format")
)

// Entry is one label occurrence in one file.
type Entry struct {
	File       string `json:"file" yaml:"file"`
	Identifier string `json:"identifier" yaml:"identifier"`
	Line       uint32 `json:"line" yaml:"line"`     // 1-based
	Column     uint32 `json:"column" yaml:"column"` // 1-based
}

// Collector scans files for labels.
type Collector struct {
	store *index.Store // optional cache
	log   zerolog.Logger
}

// Option is a functional option for configuring a Collector.
type Option func(*Collector)

// WithStore caches per-file scan results in the given index.
func WithStore(store *index.Store) Option {
	return func(c *Collector) { c.store = store }
}

// WithLogger sets the collector's logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Collector) { c.log = log }
}

// NewCollector creates a Collector.
func NewCollector(opts ...Option) *Collector {
	c := &Collector{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect scans every file matched by the patterns and returns the
// entries ordered by file, then position. Unreadable files are logged
// and skipped.
func (c *Collector) Collect(patterns []string) ([]Entry, error) {
	if len(patterns) == 0 {
		return nil, ErrNoPatterns
	}

	paths, err := expand(patterns)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for _, path := range paths {
		fileEntries, err := c.collectFile(path)
		if err != nil {
			c.log.Warn().Err(err).Str("file", path).Msg("skipping file")
			continue
		}
		entries = append(entries, fileEntries...)
	}
	return entries, nil
}

// expand resolves the glob patterns to a sorted, deduplicated path list.
func expand(patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	var paths []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil || info.IsDir() {
				continue
			}
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			paths = append(paths, m)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// collectFile returns the labels of one file, from the cache when the
// entry is fresh.
func (c *Collector) collectFile(path string) ([]Entry, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	mtime := info.ModTime().Unix()

	if c.store != nil {
		cached, err := c.store.Lookup(path, mtime)
		if err == nil {
			c.log.Debug().Str("file", path).Msg("index hit")
			return toEntries(path, cached), nil
		}
		if !errors.Is(err, index.ErrNotFound) {
			c.log.Warn().Err(err).Str("file", path).Msg("index lookup failed")
		}
	}

	found, err := c.scanFile(path)
	if err != nil {
		return nil, err
	}

	if c.store != nil {
		if err := c.store.Put(path, mtime, found); err != nil {
			c.log.Warn().Err(err).Str("file", path).Msg("index update failed")
		}
	}
	return toEntries(path, found), nil
}

func (c *Collector) scanFile(path string) ([]index.Label, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	doc := texdoc.NewFromString(string(data), texdoc.WithPath(path))
	anchors, err := scan.New(doc, scan.WithLogger(c.log)).All()
	if err != nil {
		return nil, err
	}

	labels := make([]index.Label, 0, len(anchors))
	for _, a := range anchors {
		p := doc.OffsetToPoint(a.Span.Start)
		labels = append(labels, index.Label{
			Identifier: a.Identifier,
			Line:       p.Line + 1,
			Column:     p.Column + 1,
		})
	}
	return labels, nil
}

func toEntries(path string, labels []index.Label) []Entry {
	entries := make([]Entry, 0, len(labels))
	for _, l := range labels {
		entries = append(entries, Entry{
			File:       path,
			Identifier: l.Identifier,
			Line:       l.Line,
			Column:     l.Column,
		})
	}
	return entries
}

// Format renders entries in the given format: "text", "json", or
// "yaml".
func Format(entries []Entry, format string) (string, error) {
	switch format {
	case "text", "":
		var b strings.Builder
		for _, e := range entries {
			fmt.Fprintf(&b, "%s:%d:%d: %s\n", e.File, e.Line, e.Column, e.Identifier)
		}
		return b.String(), nil

	case "json":
		if entries == nil {
			entries = []Entry{}
		}
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal json: %w", err)
		}
		return string(data) + "\n", nil

	case "yaml":
		if entries == nil {
			entries = []Entry{}
		}
		data, err := yaml.Marshal(entries)
		if err != nil {
			return "", fmt.Errorf("marshal yaml: %w", err)
		}
		return string(data), nil

	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
