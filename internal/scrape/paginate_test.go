// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-resty/resty/v2"

	"github.com/pdiddy/arxiv-harvester/internal/session"
	"github.com/pdiddy/arxiv-harvester/pkg/types"
)

// resultHTML renders a minimal results page. Each entry is id:title;
// total <= 0 omits the summary line.
func resultHTML(total int, entries ...string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	if total > 0 {
		fmt.Fprintf(&b, `<p class="title is-clearfix">Showing 1&ndash;%d of %d results</p>`, len(entries), total)
	}
	b.WriteString("<ol>")
	for _, e := range entries {
		id, title, _ := strings.Cut(e, ":")
		if title == "" {
			title = "Paper " + id
		}
		fmt.Fprintf(&b, `<li class="arxiv-result">
			<p class="list-title">
			  <a href="https://arxiv.org/abs/%[1]s">arXiv:%[1]s</a>
			  <a href="https://arxiv.org/pdf/%[1]s.pdf">pdf</a>
			</p>
			<p class="title is-5">%[2]s</p>
		</li>`, id, title)
	}
	b.WriteString("</ol></body></html>")
	return b.String()
}

// pageRequest captures what the fake endpoint saw for one fetch.
type pageRequest struct {
	start      string
	referer    string
	fetchSite  string
	cookie     string
	requestURI string
}

// fakeEndpoint serves canned pages keyed by the start parameter and
// records every request. Unknown offsets get an empty listing.
type fakeEndpoint struct {
	pages    map[string]string
	statuses map[string]int
	seen     []pageRequest
}

func (f *fakeEndpoint) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := r.URL.Query().Get("start")
		f.seen = append(f.seen, pageRequest{
			start:      start,
			referer:    r.Header.Get("Referer"),
			fetchSite:  r.Header.Get("Sec-Fetch-Site"),
			cookie:     r.Header.Get("Cookie"),
			requestURI: r.URL.RequestURI(),
		})
		if status, ok := f.statuses[start]; ok {
			w.WriteHeader(status)
			return
		}
		body, ok := f.pages[start]
		if !ok {
			body = resultHTML(0)
		}
		fmt.Fprint(w, body)
	}
}

func newTestController(t *testing.T, endpoint *fakeEndpoint, cfg types.CollectionConfig) *Controller {
	t.Helper()

	srv := httptest.NewServer(endpoint.handler())
	t.Cleanup(srv.Close)

	sess := session.New(types.SessionConfig{
		Cookie:    "session=abc",
		UserAgent: "test-agent/1.0",
		Referer:   "https://seed.example/",
		FetchSite: session.FetchSiteCrossSite,
	})
	return &Controller{
		Fetcher: &Fetcher{Client: resty.New(), Session: sess, BaseURL: srv.URL + "/search/"},
		Session: sess,
		Config:  cfg,
	}
}

func testParams(size int) types.SearchParams {
	return types.SearchParams{
		Query:      "blackhole",
		Size:       size,
		Order:      "-announced_date_first",
		SearchType: "all",
		Abstracts:  "show",
		Source:     "header",
	}
}

func recordIDs(records []types.ResultRecord) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return ids
}

func TestCollectPaginatesInOffsetOrder(t *testing.T) {
	ep := &fakeEndpoint{pages: map[string]string{
		"":  resultHTML(0, "2301.00001", "2301.00002"),
		"2": resultHTML(0, "2301.00003", "2301.00004"),
		// start=4 falls through to an empty listing.
	}}
	c := newTestController(t, ep, types.CollectionConfig{})

	out, err := c.Collect(context.Background(), testParams(2), false)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	if got := recordIDs(out.Records); strings.Join(got, ",") != "2301.00001,2301.00002,2301.00003,2301.00004" {
		t.Errorf("records = %v", got)
	}
	if out.Pages != 3 {
		t.Errorf("Pages = %d, want 3", out.Pages)
	}
	if out.Reason != ReasonExhausted {
		t.Errorf("Reason = %q, want %q", out.Reason, ReasonExhausted)
	}

	if len(ep.seen) != 3 {
		t.Fatalf("endpoint saw %d requests, want 3", len(ep.seen))
	}
	for i, wantStart := range []string{"", "2", "4"} {
		if ep.seen[i].start != wantStart {
			t.Errorf("request %d start = %q, want %q", i, ep.seen[i].start, wantStart)
		}
	}
}

func TestCollectEvolvesSessionHeaders(t *testing.T) {
	ep := &fakeEndpoint{pages: map[string]string{
		"": resultHTML(0, "2301.00001", "2301.00002"),
	}}
	c := newTestController(t, ep, types.CollectionConfig{})

	if _, err := c.Collect(context.Background(), testParams(2), false); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(ep.seen) < 2 {
		t.Fatalf("endpoint saw %d requests, want at least 2", len(ep.seen))
	}

	first, second := ep.seen[0], ep.seen[1]
	if first.fetchSite != session.FetchSiteCrossSite {
		t.Errorf("first Sec-Fetch-Site = %q, want cross-site", first.fetchSite)
	}
	if first.referer != "https://seed.example/" {
		t.Errorf("first Referer = %q, want the seed", first.referer)
	}
	if second.fetchSite != session.FetchSiteSameOrigin {
		t.Errorf("second Sec-Fetch-Site = %q, want same-origin", second.fetchSite)
	}
	if !strings.HasSuffix(second.referer, first.requestURI) {
		t.Errorf("second Referer = %q, want the first page URL (%s)", second.referer, first.requestURI)
	}
	for i, req := range ep.seen {
		if req.cookie != "session=abc" {
			t.Errorf("request %d Cookie = %q, want the captured cookie", i, req.cookie)
		}
	}
}

func TestCollectZeroFirstPageIsPossibleChallenge(t *testing.T) {
	ep := &fakeEndpoint{}
	c := newTestController(t, ep, types.CollectionConfig{})

	out, err := c.Collect(context.Background(), testParams(50), false)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if out.Reason != ReasonPossibleChallenge {
		t.Errorf("Reason = %q, want %q", out.Reason, ReasonPossibleChallenge)
	}
	if out.Pages != 1 {
		t.Errorf("Pages = %d, want exactly 1", out.Pages)
	}
	if len(out.Records) != 0 {
		t.Errorf("records = %v, want none", out.Records)
	}
}

func TestCollectMaxPagesCapsFetches(t *testing.T) {
	ep := &fakeEndpoint{pages: map[string]string{
		"":  resultHTML(0, "a1", "a2"),
		"2": resultHTML(0, "b1", "b2"),
		"4": resultHTML(0, "c1", "c2"),
		"6": resultHTML(0, "d1", "d2"),
	}}
	c := newTestController(t, ep, types.CollectionConfig{MaxPages: 3})

	out, err := c.Collect(context.Background(), testParams(2), false)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if out.Pages != 3 {
		t.Errorf("Pages = %d, want 3", out.Pages)
	}
	if len(ep.seen) != 3 {
		t.Errorf("endpoint saw %d requests, want at most --max-pages", len(ep.seen))
	}
	if out.Reason != ReasonMaxPages {
		t.Errorf("Reason = %q, want %q", out.Reason, ReasonMaxPages)
	}
	if len(out.Records) != 6 {
		t.Errorf("records = %d, want 6", len(out.Records))
	}
}

func TestCollectStopsBeforeOffsetCeiling(t *testing.T) {
	// size 4000: offsets 0 and 4000 are legal, 8000 would serve
	// results past 10000.
	ep := &fakeEndpoint{pages: map[string]string{
		"":     resultHTML(0, "p1", "p2"),
		"4000": resultHTML(0, "p3", "p4"),
		"8000": resultHTML(0, "p5", "p6"),
	}}
	c := newTestController(t, ep, types.CollectionConfig{})

	out, err := c.Collect(context.Background(), testParams(4000), false)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if out.Reason != ReasonOffsetCeiling {
		t.Errorf("Reason = %q, want %q", out.Reason, ReasonOffsetCeiling)
	}
	if out.Pages != 2 {
		t.Errorf("Pages = %d, want 2", out.Pages)
	}
	for i, req := range ep.seen {
		if req.start == "8000" {
			t.Errorf("request %d crossed the pagination ceiling (start=8000)", i)
		}
	}
}

func TestCollectStopsAtAdvertisedTotal(t *testing.T) {
	ep := &fakeEndpoint{pages: map[string]string{
		"":  resultHTML(3, "t1", "t2"),
		"2": resultHTML(3, "t3"),
	}}
	c := newTestController(t, ep, types.CollectionConfig{})

	out, err := c.Collect(context.Background(), testParams(2), false)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if out.Reason != ReasonTotalReached {
		t.Errorf("Reason = %q, want %q", out.Reason, ReasonTotalReached)
	}
	if out.Total != 3 {
		t.Errorf("Total = %d, want 3", out.Total)
	}
	if len(out.Records) != 3 {
		t.Errorf("records = %d, want 3", len(out.Records))
	}
	if out.Pages != 2 {
		t.Errorf("Pages = %d, want 2 (no extra fetch past the total)", out.Pages)
	}
}

func TestCollectAbortsOnFetchFailureKeepingPartialRecords(t *testing.T) {
	ep := &fakeEndpoint{
		pages:    map[string]string{"": resultHTML(0, "2301.00001", "2301.00002")},
		statuses: map[string]int{"2": http.StatusInternalServerError},
	}
	c := newTestController(t, ep, types.CollectionConfig{})

	out, err := c.Collect(context.Background(), testParams(2), false)
	if err == nil {
		t.Fatal("Collect returned nil error, want fetch failure")
	}
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("error %T, want *FetchError", err)
	}
	if fetchErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d, want 500", fetchErr.StatusCode)
	}
	if out.Reason != ReasonAborted {
		t.Errorf("Reason = %q, want %q", out.Reason, ReasonAborted)
	}
	if len(out.Records) != 2 {
		t.Errorf("partial records = %d, want the first page's 2", len(out.Records))
	}
}

func TestCollectDryRunStopsAfterOneCycle(t *testing.T) {
	ep := &fakeEndpoint{pages: map[string]string{
		"":  resultHTML(100, "d1", "d2"),
		"2": resultHTML(100, "d3", "d4"),
	}}
	c := newTestController(t, ep, types.CollectionConfig{})

	out, err := c.Collect(context.Background(), testParams(2), true)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(ep.seen) != 1 {
		t.Errorf("endpoint saw %d requests during dry run, want exactly 1", len(ep.seen))
	}
	if out.Reason != ReasonDryRun {
		t.Errorf("Reason = %q, want %q", out.Reason, ReasonDryRun)
	}
	if got := recordIDs(out.Records); strings.Join(got, ",") != "d1,d2" {
		t.Errorf("records = %v, want the first page only", got)
	}
}

func TestCollectDedupsLastWriteWins(t *testing.T) {
	ep := &fakeEndpoint{pages: map[string]string{
		"":  resultHTML(0, "dup:Old Title", "only-a"),
		"2": resultHTML(0, "dup:New Title", "only-b"),
	}}
	c := newTestController(t, ep, types.CollectionConfig{})

	out, err := c.Collect(context.Background(), testParams(2), false)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	if got := recordIDs(out.Records); strings.Join(got, ",") != "dup,only-a,only-b" {
		t.Fatalf("records = %v, want dedup keeping first-seen order", got)
	}
	if out.Records[0].Title != "New Title" {
		t.Errorf("dup title = %q, want the later page's value", out.Records[0].Title)
	}
}
