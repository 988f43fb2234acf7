// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// SessionConfig seeds the browser-replay header set. Values come from the
// environment (ARXIV_*), a .env file, or the secrets directory, and are
// collected once before the run starts; nothing reads the environment
// mid-run.
type SessionConfig struct {
	// Cookie is the full captured Cookie header. Required: without it
	// the search endpoint serves a challenge page instead of results.
	Cookie string `json:"-" yaml:"-"`

	// UserAgent is the browser User-Agent to replay. When empty a
	// realistic one is generated.
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// Referer seeds the Referer header for the first request only;
	// later requests use the previously fetched page URL.
	Referer string `json:"referer" yaml:"referer"`

	// FetchSite seeds the Sec-Fetch-Site header (default "cross-site").
	// It flips to "same-origin" after the first successful page.
	FetchSite string `json:"fetch_site" yaml:"fetch_site"`

	// Static headers from the captured request. Each has a browser
	// default and an ARXIV_* override.
	Accept                  string `json:"accept" yaml:"accept"`
	AcceptLanguage          string `json:"accept_language" yaml:"accept_language"`
	CacheControl            string `json:"cache_control" yaml:"cache_control"`
	Priority                string `json:"priority" yaml:"priority"`
	SecCHUA                 string `json:"sec_ch_ua" yaml:"sec_ch_ua"`
	SecCHUAMobile           string `json:"sec_ch_ua_mobile" yaml:"sec_ch_ua_mobile"`
	SecCHUAPlatform         string `json:"sec_ch_ua_platform" yaml:"sec_ch_ua_platform"`
	SecFetchDest            string `json:"sec_fetch_dest" yaml:"sec_fetch_dest"`
	SecFetchMode            string `json:"sec_fetch_mode" yaml:"sec_fetch_mode"`
	SecFetchUser            string `json:"sec_fetch_user" yaml:"sec_fetch_user"`
	SecGPC                  string `json:"sec_gpc" yaml:"sec_gpc"`
	UpgradeInsecureRequests string `json:"upgrade_insecure_requests" yaml:"upgrade_insecure_requests"`
}

// HTTPConfig holds shared HTTP settings for the collection and download
// stages.
type HTTPConfig struct {
	// Timeout bounds a single search-page request.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// DownloadTimeout bounds a single PDF request. PDFs are larger
	// than listing pages, so the bound is separate.
	DownloadTimeout time.Duration `json:"download_timeout" yaml:"download_timeout"`
}

// CollectionConfig holds settings for the pagination loop.
type CollectionConfig struct {
	// MaxPages caps the number of page fetches. Zero means no cap
	// beyond the platform offset ceiling.
	MaxPages int `json:"max_pages" yaml:"max_pages"`

	// PageDelay is the politeness delay between consecutive page
	// fetches.
	PageDelay time.Duration `json:"page_delay" yaml:"page_delay"`
}

// DownloadConfig holds settings for the PDF download stage.
type DownloadConfig struct {
	// Delay is the politeness delay between consecutive downloads.
	Delay time.Duration `json:"delay" yaml:"delay"`
}

// Config groups everything a run needs, assembled once by the CLI from
// flags, environment, and the secrets directory.
type Config struct {
	Session    SessionConfig    `json:"session" yaml:"session"`
	HTTP       HTTPConfig       `json:"http" yaml:"http"`
	Collection CollectionConfig `json:"collection" yaml:"collection"`
	Download   DownloadConfig   `json:"download" yaml:"download"`

	// OutputRoot is the base directory of the output tree.
	OutputRoot string `json:"output_root" yaml:"output_root"`
}
