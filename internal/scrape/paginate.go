// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scrape replays a captured browser search session against the
// arXiv listing endpoint and collects result records across pages. Pages
// are fetched in strict offset order because each request depends on
// session header state mutated by the previous one.
package scrape

import (
	"context"
	"time"

	"github.com/pdiddy/arxiv-harvester/internal/progress"
	"github.com/pdiddy/arxiv-harvester/internal/session"
	"github.com/pdiddy/arxiv-harvester/pkg/types"
)

// OffsetCeiling is the hard limit on the result offset arXiv serves for
// a single query. The loop must stop strictly before issuing a request
// past it, whatever the advertised total says.
const OffsetCeiling = 10000

// Reason records why the pagination loop stopped.
type Reason string

const (
	// ReasonExhausted: a page past the first parsed to zero records.
	// Could equally be a late challenge page; the response shape does
	// not let us tell the two apart, so we report position instead of
	// guessing.
	ReasonExhausted Reason = "exhausted"

	// ReasonPossibleChallenge: the first page parsed to zero records.
	// A valid query normally returns something, so this usually means
	// the cookie expired and the endpoint served an interstitial.
	ReasonPossibleChallenge Reason = "possible-challenge"

	// ReasonMaxPages: the configured page cap was reached.
	ReasonMaxPages Reason = "max-pages"

	// ReasonOffsetCeiling: the next offset would cross the platform
	// pagination ceiling.
	ReasonOffsetCeiling Reason = "offset-ceiling"

	// ReasonTotalReached: the next offset would be past the total the
	// listing advertised, so the data is cleanly exhausted.
	ReasonTotalReached Reason = "total-reached"

	// ReasonDryRun: a dry run stops after exactly one fetch+parse cycle.
	ReasonDryRun Reason = "dry-run"

	// ReasonAborted: a page fetch failed. Records merged from earlier
	// pages are preserved alongside the returned error.
	ReasonAborted Reason = "aborted"
)

// loop states
type state int

const (
	stateFetching state = iota
	stateEvaluating
	stateDone
)

// Outcome is the aggregate of one collection run.
type Outcome struct {
	// Records is the deduplicated record set in first-seen order.
	Records []types.ResultRecord

	// Pages counts page fetches issued, including a final failed one.
	Pages int

	// Total is the advertised result total, zero when never seen.
	Total int

	// Reason is why the loop stopped.
	Reason Reason
}

// Controller drives the fetch→parse loop for one query.
type Controller struct {
	Fetcher  *Fetcher
	Session  *session.State
	Config   types.CollectionConfig
	Observer progress.Observer
}

// Collect pages through the search results for params and returns the
// merged record set. On a fetch failure it returns the records merged so
// far together with the error, so the caller can still flush partial
// metadata. With dryRun set it performs exactly one fetch+parse cycle.
func (c *Controller) Collect(ctx context.Context, params types.SearchParams, dryRun bool) (Outcome, error) {
	obs := c.Observer
	if obs == nil {
		obs = progress.Nop{}
	}
	defer obs.Done()

	var out Outcome
	var records []types.ResultRecord
	index := make(map[string]int) // id → position in records

	offset := 0
	var page Page
	st := stateFetching

	for st != stateDone {
		switch st {
		case stateFetching:
			if out.Pages > 0 && c.Config.PageDelay > 0 {
				select {
				case <-ctx.Done():
					out.Reason = ReasonAborted
					out.Records = records
					return out, ctx.Err()
				case <-time.After(c.Config.PageDelay):
				}
			}

			raw, err := c.Fetcher.Fetch(ctx, params, offset)
			out.Pages++
			if err != nil {
				out.Reason = ReasonAborted
				out.Records = records
				return out, err
			}

			c.Session.Observe(raw.URL)
			page = Parse(raw)
			st = stateEvaluating

		case stateEvaluating:
			if out.Total == 0 && page.Total > 0 {
				out.Total = page.Total
			}

			if len(page.Records) == 0 {
				if offset == 0 {
					out.Reason = ReasonPossibleChallenge
				} else {
					out.Reason = ReasonExhausted
				}
				st = stateDone
				continue
			}

			// Merge: dedup by id, last write wins, first-seen position kept.
			for _, rec := range page.Records {
				if pos, ok := index[rec.ID]; ok {
					records[pos] = rec
					continue
				}
				index[rec.ID] = len(records)
				records = append(records, rec)
			}
			obs.OnProgress(int64(len(records)), int64(out.Total))

			next := offset + params.Size
			switch {
			case dryRun:
				out.Reason = ReasonDryRun
				st = stateDone
			case c.Config.MaxPages > 0 && out.Pages >= c.Config.MaxPages:
				out.Reason = ReasonMaxPages
				st = stateDone
			case out.Total > 0 && next >= out.Total:
				out.Reason = ReasonTotalReached
				st = stateDone
			case next > OffsetCeiling-params.Size:
				out.Reason = ReasonOffsetCeiling
				st = stateDone
			default:
				offset = next
				st = stateFetching
			}
		}
	}

	out.Records = records
	return out, nil
}
