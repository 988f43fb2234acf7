// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

import (
	"bytes"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/arxiv-harvester/pkg/types"
)

const (
	absURLPrefix = "https://arxiv.org/abs/"
	pdfURLPrefix = "https://arxiv.org/pdf/"
)

// resultCountPattern matches the listing summary, e.g.
// "Showing 1–50 of 1,024 results".
var resultCountPattern = regexp.MustCompile(
	`(?i)Showing\s+\d+\s*(?:&ndash;|–|-)\s*\d+\s+of\s+([\d,]+)\s+results`)

// Page is the parsed form of one results page.
type Page struct {
	// Records are the entries extracted from the listing, in page order.
	Records []types.ResultRecord

	// Total is the result count advertised by the listing summary, or
	// zero when the page carries none.
	Total int
}

// Parse extracts structured records from a results page. An unparseable
// body, a challenge interstitial, and a genuinely empty listing all
// yield zero records; the pagination loop decides what that means based
// on where in the sequence it happened. Individual malformed entries are
// skipped with a warning, never fatal to the page.
func Parse(raw RawPage) Page {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw.Body))
	if err != nil {
		slog.Warn("results page is not parseable markup", "url", raw.URL, "err", err)
		return Page{}
	}

	var page Page
	doc.Find("li.arxiv-result").Each(func(i int, item *goquery.Selection) {
		rec, ok := parseResult(item)
		if !ok {
			slog.Warn("skipping result entry without an abstract link", "url", raw.URL, "index", i)
			return
		}
		page.Records = append(page.Records, rec)
	})

	page.Total = parseTotal(doc)
	return page
}

// parseResult extracts one record from an li.arxiv-result element.
func parseResult(item *goquery.Selection) (types.ResultRecord, bool) {
	abs := item.Find(`p.list-title a[href^="` + absURLPrefix + `"]`).First()
	if abs.Length() == 0 {
		return types.ResultRecord{}, false
	}
	absURL := strings.TrimSpace(abs.AttrOr("href", ""))

	id := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(abs.Text()), "arXiv:"))
	if id == "" {
		// Fall back to the path under /abs/ when the anchor text is bare.
		id = strings.Trim(strings.TrimPrefix(absURL, absURLPrefix), "/")
	}
	if id == "" {
		return types.ResultRecord{}, false
	}

	title := strings.Join(strings.Fields(item.Find("p.title.is-5").Text()), " ")

	pdfURL := ""
	if pdf := item.Find(`p.list-title a[href^="` + pdfURLPrefix + `"]`).First(); pdf.Length() > 0 {
		pdfURL = strings.TrimSpace(pdf.AttrOr("href", ""))
		// Listing links sometimes carry tracking parameters.
		if pdfURL != "" && !strings.HasSuffix(pdfURL, ".pdf") {
			pdfURL = strings.SplitN(pdfURL, "?", 2)[0]
		}
	}

	return types.ResultRecord{
		ID:          id,
		Title:       title,
		AbstractURL: absURL,
		PDFURL:      pdfURL,
	}, true
}

// parseTotal pulls the advertised result total out of the summary line.
func parseTotal(doc *goquery.Document) int {
	total := 0
	doc.Find("p.title.is-clearfix, p").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.TrimSpace(sel.Text())
		if !strings.Contains(text, "Showing") || !strings.Contains(text, "results") {
			return true
		}
		m := resultCountPattern.FindStringSubmatch(text)
		if m == nil {
			return true
		}
		n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
		if err != nil {
			return true
		}
		total = n
		return false
	})
	return total
}
