package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/pdiddy/arxiv-harvester/internal/archive"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List past collection runs",
	Long: `Runs prints the ledger of past collection runs under an output root:
when each ran, how many pages and records it collected, download counts,
and why the pagination loop stopped.`,
	RunE: runRuns,
}

func init() {
	runsCmd.Flags().String("output", defaultOutput, "base directory for the output tree")
	runsCmd.Flags().Bool("json", false, "output runs as JSON")

	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	root, _ := cmd.Flags().GetString("output")

	ledger, err := archive.OpenLedger(root)
	if err != nil {
		return err
	}
	defer ledger.Close()

	summaries, err := ledger.Runs()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	}

	if len(summaries) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"When", "Query", "Pages", "Records", "Downloaded", "Skipped", "Failed", "Outcome"})
	for _, s := range summaries {
		t.AppendRow(table.Row{
			s.StartedAt.Local().Format(time.DateTime),
			s.Query, s.Pages, s.Records, s.Downloaded, s.Skipped, s.Failed, s.Outcome,
		})
	}
	t.Render()
	return nil
}
