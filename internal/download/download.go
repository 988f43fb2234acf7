// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package download retrieves the PDF artifact for each collected record.
// Downloads are idempotent by record id: an artifact already on disk is
// referenced without a network call, and new artifacts are written
// atomically so an interrupted run never leaves a partial file.
package download

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/pdiddy/arxiv-harvester/internal/archive"
	"github.com/pdiddy/arxiv-harvester/internal/progress"
	"github.com/pdiddy/arxiv-harvester/internal/session"
	"github.com/pdiddy/arxiv-harvester/pkg/types"
)

// Result summarizes a download batch.
type Result struct {
	Downloaded int
	Skipped    int
	Failed     int
}

// Total returns the number of records that carried a PDF URL.
func (r Result) Total() int {
	return r.Downloaded + r.Skipped + r.Failed
}

// Downloader fetches PDF artifacts sequentially, replaying the listing
// session's identity headers against the PDF endpoint.
type Downloader struct {
	Client   *resty.Client
	Session  *session.State
	Delay    time.Duration
	Observer progress.Observer
}

// FetchAll downloads the PDF for every record with a pdf_url, mutating
// records in place: LocalPath on success or a prior-run hit,
// DownloadError on failure. A failed record never aborts the batch.
func (d *Downloader) FetchAll(ctx context.Context, records []types.ResultRecord, layout archive.Layout, w io.Writer) (Result, error) {
	obs := d.Observer
	if obs == nil {
		obs = progress.Nop{}
	}
	defer obs.Done()

	if err := os.MkdirAll(layout.DataDir(), 0o755); err != nil {
		return Result{}, fmt.Errorf("creating data directory: %w", err)
	}

	var result Result
	total := int64(len(records))
	for i := range records {
		obs.OnProgress(int64(i), total)
		rec := &records[i]
		if rec.PDFURL == "" || rec.ID == "" {
			continue
		}

		dest := layout.PDFPath(rec.ID)
		if _, err := os.Stat(dest); err == nil {
			rec.LocalPath = dest
			result.Skipped++
			continue
		}

		if result.Downloaded+result.Failed > 0 && d.Delay > 0 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(d.Delay):
			}
		}

		if err := d.fetchOne(ctx, rec, dest); err != nil {
			rec.DownloadError = err.Error()
			result.Failed++
			fmt.Fprintf(w, "failed:  %s (%v)\n", rec.ID, err)
			continue
		}
		rec.LocalPath = dest
		result.Downloaded++
	}
	obs.OnProgress(total, total)

	fmt.Fprintf(w, "\nDownload summary: %d downloaded, %d skipped, %d failed\n",
		result.Downloaded, result.Skipped, result.Failed)
	return result, nil
}

// fetchOne streams one PDF to dest. The request carries the session's
// cookie and user-agent plus the record's abstract page as Referer, the
// same shape the browser sends when a human clicks through to the PDF.
func (d *Downloader) fetchOne(ctx context.Context, rec *types.ResultRecord, dest string) error {
	referer := rec.AbstractURL
	if referer == "" {
		referer = d.Session.Referer()
	}

	req := d.Client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetHeader("User-Agent", d.Session.UserAgent()).
		SetHeader("Referer", referer).
		SetHeader("Sec-Fetch-Site", session.FetchSiteSameOrigin).
		SetHeader("Accept", "application/pdf")
	if cookie := d.Session.Cookie(); cookie != "" {
		req.SetHeader("Cookie", cookie)
	}

	resp, err := req.Get(rec.PDFURL)
	if err != nil {
		return fmt.Errorf("HTTP request: %w", err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() != 200 {
		io.Copy(io.Discard, body)
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode(), rec.PDFURL)
	}

	if err := archive.WriteAtomic(dest, body); err != nil {
		return fmt.Errorf("saving PDF: %w", err)
	}
	return nil
}
