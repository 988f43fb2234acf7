// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive owns the on-disk output tree for a query:
//
//	<output>/<query-slug>/metadata/results.json
//	<output>/<query-slug>/data/<id>.pdf
//	<output>/harvester.db
//
// The metadata document is fully replaced on each run; artifact files
// are addressed by record id and survive later runs untouched.
package archive

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pdiddy/arxiv-harvester/pkg/types"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	unsafeChars   = regexp.MustCompile(`[^A-Za-z0-9_.-]`)
)

// Slugify converts a query string or record id into a filesystem-safe
// name. Whitespace collapses to underscores, anything outside
// [A-Za-z0-9_.-] becomes an underscore, and leading/trailing separators
// are trimmed. An empty result falls back to "search".
func Slugify(value string) string {
	safe := whitespaceRun.ReplaceAllString(strings.TrimSpace(value), "_")
	safe = unsafeChars.ReplaceAllString(safe, "_")
	safe = strings.Trim(safe, "_.")
	if safe == "" {
		return "search"
	}
	return safe
}

// Layout addresses the output tree for one query.
type Layout struct {
	Root string
	Slug string
}

// NewLayout builds the layout for query under root.
func NewLayout(root, query string) Layout {
	return Layout{Root: root, Slug: Slugify(query)}
}

// BaseDir is the per-query directory.
func (l Layout) BaseDir() string { return filepath.Join(l.Root, l.Slug) }

// MetadataFile is the path of the run metadata document.
func (l Layout) MetadataFile() string {
	return filepath.Join(l.BaseDir(), "metadata", "results.json")
}

// DataDir is the directory holding downloaded artifacts.
func (l Layout) DataDir() string { return filepath.Join(l.BaseDir(), "data") }

// PDFPath is the deterministic artifact location for a record id.
func (l Layout) PDFPath(id string) string {
	return filepath.Join(l.DataDir(), Slugify(id)+".pdf")
}

// Write persists the run metadata document, fully replacing any previous
// file for the query. It creates intermediate directories and writes
// through a temp file so an interrupted run never leaves a truncated
// document. Artifact files under data/ are not touched.
func Write(meta types.RunMetadata, l Layout) error {
	dir := filepath.Dir(l.MetadataFile())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating metadata directory: %w", err)
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling run metadata: %w", err)
	}
	data = append(data, '\n')

	if err := WriteAtomic(l.MetadataFile(), strings.NewReader(string(data))); err != nil {
		return fmt.Errorf("writing %s: %w", l.MetadataFile(), err)
	}
	return nil
}

// WriteAtomic streams r into path via a temp file in the same directory,
// renaming into place on success. A failure leaves no partial file at
// path.
func WriteAtomic(path string, r io.Reader) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".harvest-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, copyErr := io.Copy(tmp, r)
	closeErr := tmp.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing temp file: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
