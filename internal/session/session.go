// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package session owns the evolving browser-replay header state. A search
// session must look like a human paging through results: the Referer
// follows the previously fetched page and Sec-Fetch-Site transitions from
// cross-site to same-origin after the first navigation. The holder is the
// only place that state mutates; fetchers receive it by reference and
// decorate requests through Apply.
package session

import (
	browser "github.com/EDDYCJY/fake-useragent"
	"github.com/go-resty/resty/v2"

	"github.com/pdiddy/arxiv-harvester/pkg/types"
)

// Fetch-site marker values, per the Sec-Fetch-Site header.
const (
	FetchSiteCrossSite  = "cross-site"
	FetchSiteSameOrigin = "same-origin"
)

// State holds the mutable header set for one search session. Not safe for
// concurrent use; pages are fetched in strict offset order anyway.
type State struct {
	cookie    string
	userAgent string
	referer   string
	fetchSite string

	static map[string]string
}

// New seeds session state from configuration. An empty UserAgent gets a
// realistic generated one, an empty FetchSite starts cross-site.
func New(cfg types.SessionConfig) *State {
	ua := cfg.UserAgent
	if ua == "" {
		ua = browser.Chrome()
	}
	fetchSite := cfg.FetchSite
	if fetchSite == "" {
		fetchSite = FetchSiteCrossSite
	}

	static := map[string]string{
		"Accept":                    cfg.Accept,
		"Accept-Language":           cfg.AcceptLanguage,
		"Cache-Control":             cfg.CacheControl,
		"Priority":                  cfg.Priority,
		"Sec-CH-UA":                 cfg.SecCHUA,
		"Sec-CH-UA-Mobile":          cfg.SecCHUAMobile,
		"Sec-CH-UA-Platform":        cfg.SecCHUAPlatform,
		"Sec-Fetch-Dest":            cfg.SecFetchDest,
		"Sec-Fetch-Mode":            cfg.SecFetchMode,
		"Sec-Fetch-User":            cfg.SecFetchUser,
		"Sec-GPC":                   cfg.SecGPC,
		"Upgrade-Insecure-Requests": cfg.UpgradeInsecureRequests,
	}
	for k, v := range static {
		if v == "" {
			delete(static, k)
		}
	}

	return &State{
		cookie:    cfg.Cookie,
		userAgent: ua,
		referer:   cfg.Referer,
		fetchSite: fetchSite,
		static:    static,
	}
}

// Apply decorates an outgoing request with the current header set. The
// cookie is set as a raw header to preserve the captured formatting.
func (s *State) Apply(req *resty.Request) *resty.Request {
	for k, v := range s.static {
		req.SetHeader(k, v)
	}
	req.SetHeader("User-Agent", s.userAgent)
	if s.cookie != "" {
		req.SetHeader("Cookie", s.cookie)
	}
	if s.referer != "" {
		req.SetHeader("Referer", s.referer)
	}
	req.SetHeader("Sec-Fetch-Site", s.fetchSite)
	return req
}

// Observe records a successfully fetched page. The Referer for the next
// request becomes that page's URL and the fetch-site marker flips to
// same-origin. The flip is one-way: once the session navigates within
// the site it never looks cross-site again.
func (s *State) Observe(pageURL string) {
	if pageURL != "" {
		s.referer = pageURL
	}
	s.fetchSite = FetchSiteSameOrigin
}

// Referer returns the current Referer value. Exposed for the downloader,
// which replays the listing session against the PDF endpoint.
func (s *State) Referer() string { return s.referer }

// UserAgent returns the session User-Agent.
func (s *State) UserAgent() string { return s.userAgent }

// Cookie returns the raw captured cookie header.
func (s *State) Cookie() string { return s.cookie }
