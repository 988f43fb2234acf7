// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across stages.
package httputil

import (
	"net/http/cookiejar"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
)

// NewClient builds the resty client shared by the collection and download
// stages: cookie jar for Set-Cookie responses on top of the replayed raw
// cookie, a browser-fingerprint transport so TLS and header ordering do
// not trip the anti-bot layer, and a bounded timeout.
func NewClient(timeout time.Duration) (*resty.Client, error) {
	client := resty.New()

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)

	inner := client.GetClient()
	inner.Transport = cloudflarebp.AddCloudFlareByPass(inner.Transport)

	client.SetTimeout(timeout)
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))
	return client, nil
}
