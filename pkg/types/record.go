// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the arxiv-harvester
// pipeline: the per-paper result record, the per-run metadata document,
// and the configuration values collected before a run starts.
package types

import "time"

// ResultRecord is one search hit harvested from a results page. The
// collection stage fills the identity and URL fields; the download stage
// fills LocalPath or DownloadError afterwards.
type ResultRecord struct {
	// ID is the arXiv identifier (e.g. "2301.07041"), unique within a run.
	ID string `json:"id" yaml:"id"`

	// Title is the paper title with markup whitespace collapsed.
	Title string `json:"title" yaml:"title"`

	// AbstractURL is the absolute URL of the abstract page.
	AbstractURL string `json:"abs_url" yaml:"abs_url"`

	// PDFURL is the absolute URL of the PDF, empty when the listing
	// carried no PDF link.
	PDFURL string `json:"pdf_url,omitempty" yaml:"pdf_url,omitempty"`

	// LocalPath is the on-disk location of the downloaded PDF. Empty
	// until the download succeeds or is satisfied from a prior run.
	LocalPath string `json:"pdf_local_path,omitempty" yaml:"pdf_local_path,omitempty"`

	// DownloadError holds the human-readable cause when the PDF fetch
	// failed. A failed record keeps its place in the run.
	DownloadError string `json:"pdf_download_error,omitempty" yaml:"pdf_download_error,omitempty"`
}

// RunMetadata is the document persisted to metadata/results.json. One
// instance per query; each run fully replaces the previous file.
type RunMetadata struct {
	Params  SearchParams   `json:"metadata" yaml:"metadata"`
	Records []ResultRecord `json:"records" yaml:"records"`
}

// SearchParams is the snapshot of search parameters written alongside
// the records. RetrievedAt and Count are filled by the run writer.
type SearchParams struct {
	Query       string    `json:"query" yaml:"query"`
	Size        int       `json:"size" yaml:"size"`
	Order       string    `json:"order" yaml:"order"`
	SearchType  string    `json:"searchtype" yaml:"searchtype"`
	Abstracts   string    `json:"abstracts" yaml:"abstracts"`
	Source      string    `json:"source" yaml:"source"`
	RetrievedAt time.Time `json:"retrieved_at" yaml:"retrieved_at"`
	Count       int       `json:"count" yaml:"count"`
}

// RunSummary is one row of the run ledger: an audit record of a finished
// (or aborted) collection run. The JSON metadata file remains the source
// of truth for the records themselves.
type RunSummary struct {
	Query      string    `json:"query" yaml:"query"`
	Slug       string    `json:"slug" yaml:"slug"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`
	Pages      int       `json:"pages" yaml:"pages"`
	Records    int       `json:"records" yaml:"records"`
	Downloaded int       `json:"downloaded" yaml:"downloaded"`
	Skipped    int       `json:"skipped" yaml:"skipped"`
	Failed     int       `json:"failed" yaml:"failed"`
	Outcome    string    `json:"outcome" yaml:"outcome"`
}
