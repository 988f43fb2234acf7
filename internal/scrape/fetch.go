// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-resty/resty/v2"

	"github.com/pdiddy/arxiv-harvester/internal/session"
	"github.com/pdiddy/arxiv-harvester/pkg/types"
)

// searchBase is the arXiv search listing endpoint.
const searchBase = "https://arxiv.org/search/"

// FetchError reports a failed page fetch: a transport error (StatusCode
// zero) or a non-2xx response. The pagination loop aborts on either; it
// never retries a page.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// RawPage is one fetched page, uninterpreted. A challenge interstitial
// and a genuine results page look identical at this layer; telling them
// apart is the parser's job.
type RawPage struct {
	StatusCode int
	Body       []byte
	URL        string
}

// Fetcher issues one search-page request per offset using the current
// session header state.
type Fetcher struct {
	Client  *resty.Client
	Session *session.State

	// BaseURL overrides the search endpoint when set (ARXIV_SEARCH_URL).
	BaseURL string
}

// Fetch requests the results page starting at offset. The captured
// browser request omits the start parameter on the first page, so an
// offset of zero sends none.
func (f *Fetcher) Fetch(ctx context.Context, params types.SearchParams, offset int) (RawPage, error) {
	base := f.BaseURL
	if base == "" {
		base = searchBase
	}

	req := f.Session.Apply(f.Client.R().SetContext(ctx))
	req.SetQueryParams(map[string]string{
		"query":      params.Query,
		"searchtype": params.SearchType,
		"abstracts":  params.Abstracts,
		"order":      params.Order,
		"size":       strconv.Itoa(params.Size),
		"source":     params.Source,
	})
	if offset > 0 {
		req.SetQueryParam("start", strconv.Itoa(offset))
	}

	resp, err := req.Get(base)
	if err != nil {
		return RawPage{}, &FetchError{URL: base, Err: err}
	}
	if !resp.IsSuccess() {
		return RawPage{}, &FetchError{
			URL:        finalURL(resp),
			StatusCode: resp.StatusCode(),
			Err:        fmt.Errorf("unexpected status %s", resp.Status()),
		}
	}

	return RawPage{
		StatusCode: resp.StatusCode(),
		Body:       resp.Body(),
		URL:        finalURL(resp),
	}, nil
}

// finalURL returns the URL the response was actually served from, after
// redirects. The next request's Referer must name this page, not the one
// we asked for.
func finalURL(resp *resty.Response) string {
	if resp.RawResponse != nil && resp.RawResponse.Request != nil && resp.RawResponse.Request.URL != nil {
		return resp.RawResponse.Request.URL.String()
	}
	return resp.Request.URL
}
