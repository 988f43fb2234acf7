package main

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/arxiv-harvester/internal/archive"
	"github.com/pdiddy/arxiv-harvester/internal/download"
	"github.com/pdiddy/arxiv-harvester/internal/httputil"
	"github.com/pdiddy/arxiv-harvester/internal/progress"
	"github.com/pdiddy/arxiv-harvester/internal/scrape"
	"github.com/pdiddy/arxiv-harvester/internal/session"
	"github.com/pdiddy/arxiv-harvester/pkg/types"
)

const (
	defaultSize       = 50
	defaultOrder      = "-announced_date_first"
	defaultSearchType = "all"
	defaultAbstracts  = "show"
	defaultSource     = "header"
	defaultOutput     = "/output"

	defaultTimeout         = 30 * time.Second
	defaultDownloadTimeout = 120 * time.Second
	defaultDownloadDelay   = 1 * time.Second

	defaultAccept = "text/html,application/xhtml+xml,application/xml;q=0.9," +
		"image/avif,image/webp,image/apng,*/*;q=0.8"
	defaultSecCHUA = `"Chromium";v="142", "Brave";v="142", "Not_A Brand";v="99"`
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect search results, metadata, and PDFs for a query",
	Long: `Pages through the arXiv search results for a query, replaying the
captured browser session headers, then downloads each result's PDF and
writes the metadata document. Re-running the same query skips PDFs that are
already on disk and fully replaces the metadata file.`,
	RunE: runCollect,
}

func init() {
	collectCmd.Flags().String("query", "", "query string to search for (required)")
	collectCmd.Flags().Int("size", defaultSize, "number of results per page")
	collectCmd.Flags().String("order", defaultOrder, "sort order")
	collectCmd.Flags().String("searchtype", defaultSearchType, "arXiv search type")
	collectCmd.Flags().String("abstracts", defaultAbstracts, "whether to include abstracts (show or hide)")
	collectCmd.Flags().String("source", defaultSource, "value for the source query parameter")
	collectCmd.Flags().Int("max-pages", 0, "optional cap on number of pages to fetch")
	collectCmd.Flags().String("output", defaultOutput, "base directory for the output tree")
	collectCmd.Flags().Bool("dry-run", false, "fetch a single page and print it without writing output")
	collectCmd.Flags().Duration("timeout", defaultTimeout, "HTTP timeout for a search page request")
	collectCmd.Flags().Duration("download-timeout", defaultDownloadTimeout, "HTTP timeout for a PDF request")
	collectCmd.Flags().Duration("page-delay", 0, "delay between consecutive page fetches")
	collectCmd.Flags().Duration("delay", defaultDownloadDelay, "delay between consecutive PDF downloads")
	collectCmd.Flags().Bool("show-config", false, "print the effective configuration as YAML and exit")
	collectCmd.Flags().Bool("no-progress", false, "disable progress bars")

	rootCmd.AddCommand(collectCmd)
}

func runCollect(cmd *cobra.Command, args []string) error {
	query, _ := cmd.Flags().GetString("query")
	if query == "" {
		return fmt.Errorf("--query is required: supply --query <your search> to collect results")
	}

	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	params := buildParams(cmd, query)

	if show, _ := cmd.Flags().GetBool("show-config"); show {
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshaling config: %w", err)
		}
		cmd.OutOrStdout().Write(data)
		return nil
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	noProgress, _ := cmd.Flags().GetBool("no-progress")
	out := cmd.OutOrStdout()
	errw := cmd.ErrOrStderr()

	client, err := httputil.NewClient(cfg.HTTP.Timeout)
	if err != nil {
		return err
	}
	sess := session.New(cfg.Session)

	var collectObs progress.Observer = progress.Nop{}
	if !dryRun && !noProgress {
		collectObs = progress.NewTracker("Collecting records", errw)
	}

	controller := &scrape.Controller{
		Fetcher: &scrape.Fetcher{
			Client:  client,
			Session: sess,
			BaseURL: sessionValue("search_url", ""),
		},
		Session:  sess,
		Config:   cfg.Collection,
		Observer: collectObs,
	}

	started := time.Now().UTC()
	res, collectErr := controller.Collect(cmd.Context(), params, dryRun)

	if res.Reason == scrape.ReasonPossibleChallenge {
		fmt.Fprintln(errw, "warning: the first page returned no parseable results."+
			" The session cookie has likely expired and arXiv served a challenge page;"+
			" refresh ARXIV_COOKIE from a logged-in browser session and retry.")
	}

	if dryRun {
		if collectErr != nil {
			return collectErr
		}
		printDryRun(out, res)
		return nil
	}

	layout := archive.NewLayout(cfg.OutputRoot, query)

	var dl download.Result
	var dlErr error
	if collectErr == nil && len(res.Records) > 0 {
		// Same client as the listing fetches, so cookie state picked up
		// during pagination rides along to the PDF endpoint.
		client.SetTimeout(cfg.HTTP.DownloadTimeout)
		var dlObs progress.Observer = progress.Nop{}
		if !noProgress {
			dlObs = progress.NewTracker("Downloading PDFs", errw)
		}
		downloader := &download.Downloader{
			Client:   client,
			Session:  sess,
			Delay:    cfg.Download.Delay,
			Observer: dlObs,
		}
		dl, dlErr = downloader.FetchAll(cmd.Context(), res.Records, layout, out)
	}

	// Flush metadata even after an aborted run or interrupted downloads,
	// as long as a page was merged; a first-page failure must not clobber
	// a prior good file. The records carry whatever download bookkeeping
	// happened before the interruption.
	if collectErr == nil || len(res.Records) > 0 {
		records := res.Records
		if records == nil {
			records = []types.ResultRecord{}
		}
		meta := types.RunMetadata{Params: params, Records: records}
		meta.Params.RetrievedAt = time.Now().UTC()
		meta.Params.Count = len(records)
		if err := archive.Write(meta, layout); err != nil {
			return err
		}
	}

	recordRun(errw, cfg.OutputRoot, types.RunSummary{
		Query:      query,
		Slug:       layout.Slug,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
		Pages:      res.Pages,
		Records:    len(res.Records),
		Downloaded: dl.Downloaded,
		Skipped:    dl.Skipped,
		Failed:     dl.Failed,
		Outcome:    string(res.Reason),
	})

	if collectErr != nil {
		fmt.Fprintf(out, "Flushed %d record(s) collected before the failure.\n", len(res.Records))
		return fmt.Errorf("collection aborted after %d page(s): %w", res.Pages, collectErr)
	}
	if dlErr != nil {
		return fmt.Errorf("downloads interrupted after %d artifact(s): %w", dl.Total(), dlErr)
	}

	fmt.Fprintf(out, "Archived %d records under %s\n", len(res.Records), layout.BaseDir())
	return nil
}

// buildConfig collects flags, environment, and secrets into one immutable
// configuration value; nothing reads the environment after this point.
func buildConfig(cmd *cobra.Command) (types.Config, error) {
	cookie := sessionValue("cookie", loadedSecrets.Get("arxiv-cookie", ""))
	if cookie == "" {
		return types.Config{}, fmt.Errorf("missing ARXIV_COOKIE: capture the Cookie header from a" +
			" browser session and export it, add it to .env, or place it in .secrets/arxiv-cookie")
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	downloadTimeout, _ := cmd.Flags().GetDuration("download-timeout")
	pageDelay, _ := cmd.Flags().GetDuration("page-delay")
	delay, _ := cmd.Flags().GetDuration("delay")
	maxPages, _ := cmd.Flags().GetInt("max-pages")
	output, _ := cmd.Flags().GetString("output")

	return types.Config{
		Session: types.SessionConfig{
			Cookie:                  cookie,
			UserAgent:               sessionValue("user_agent", loadedSecrets.Get("arxiv-user-agent", "")),
			Referer:                 sessionValue("referer", loadedSecrets.Get("arxiv-referer", "")),
			FetchSite:               sessionValue("sec_fetch_site", session.FetchSiteCrossSite),
			Accept:                  sessionValue("accept", defaultAccept),
			AcceptLanguage:          sessionValue("accept_language", "en-US,en;q=0.9"),
			CacheControl:            sessionValue("cache_control", "max-age=0"),
			Priority:                sessionValue("priority", "u=0, i"),
			SecCHUA:                 sessionValue("sec_ch_ua", defaultSecCHUA),
			SecCHUAMobile:           sessionValue("sec_ch_ua_mobile", "?0"),
			SecCHUAPlatform:         sessionValue("sec_ch_ua_platform", `"Linux"`),
			SecFetchDest:            sessionValue("sec_fetch_dest", "document"),
			SecFetchMode:            sessionValue("sec_fetch_mode", "navigate"),
			SecFetchUser:            sessionValue("sec_fetch_user", "?1"),
			SecGPC:                  sessionValue("sec_gpc", "1"),
			UpgradeInsecureRequests: sessionValue("upgrade_insecure_requests", "1"),
		},
		HTTP: types.HTTPConfig{
			Timeout:         timeout,
			DownloadTimeout: downloadTimeout,
		},
		Collection: types.CollectionConfig{
			MaxPages:  maxPages,
			PageDelay: pageDelay,
		},
		Download: types.DownloadConfig{
			Delay: delay,
		},
		OutputRoot: output,
	}, nil
}

func buildParams(cmd *cobra.Command, query string) types.SearchParams {
	size, _ := cmd.Flags().GetInt("size")
	if size <= 0 {
		size = defaultSize
	}
	order, _ := cmd.Flags().GetString("order")
	searchType, _ := cmd.Flags().GetString("searchtype")
	abstracts, _ := cmd.Flags().GetString("abstracts")
	source, _ := cmd.Flags().GetString("source")

	return types.SearchParams{
		Query:      query,
		Size:       size,
		Order:      order,
		SearchType: searchType,
		Abstracts:  abstracts,
		Source:     source,
	}
}

func printDryRun(w io.Writer, res scrape.Outcome) {
	fmt.Fprintf(w, "Collected %d record(s) from the first page (dry run, nothing written).\n", len(res.Records))
	if res.Total > 0 {
		fmt.Fprintf(w, "The listing advertises %d total result(s).\n", res.Total)
	}
	if len(res.Records) == 0 {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"ID", "Title", "PDF"})
	for _, rec := range res.Records {
		title := rec.Title
		if len(title) > 70 {
			title = title[:67] + "..."
		}
		pdf := "yes"
		if rec.PDFURL == "" {
			pdf = "no"
		}
		t.AppendRow(table.Row{rec.ID, title, pdf})
	}
	t.Render()
}

// recordRun appends a summary row to the run ledger. Ledger trouble is
// reported but never fails the run; the metadata file is the source of
// truth.
func recordRun(errw io.Writer, root string, summary types.RunSummary) {
	ledger, err := archive.OpenLedger(root)
	if err != nil {
		fmt.Fprintf(errw, "warning: could not open run ledger: %v\n", err)
		return
	}
	defer ledger.Close()

	if err := ledger.Record(summary); err != nil {
		fmt.Fprintf(errw, "warning: could not record run: %v\n", err)
	}
}
