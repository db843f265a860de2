package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/oss-sentinel/sentinel/internal/config"
	"github.com/oss-sentinel/sentinel/internal/domain"
	"github.com/oss-sentinel/sentinel/internal/history"
	"github.com/oss-sentinel/sentinel/internal/query"
)

const usage = `Usage: sentinelctl [-db path] <command> [-limit n]

Commands:
  logs      Show recent probe outcomes across all services.
  summary   Show each service's most recent outcome.
  failures  Show recent FAILURE outcomes.
`

func main() {
	dbPath := flag.String("db", "monitor.db", "Path to the history database")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}
	cmd := flag.Arg(0)

	sub := flag.NewFlagSet(cmd, flag.ExitOnError)
	limit := sub.Int("limit", config.DefaultQueryLimit, "Number of rows to show")
	_ = sub.Parse(flag.Args()[1:])

	store, err := history.OpenRead(*dbPath)
	if err != nil {
		if errors.Is(err, history.ErrNotInitialized) {
			fmt.Fprintf(os.Stderr, "Error: database %q not found.\n", *dbPath)
			fmt.Fprintln(os.Stderr, "Run the sentinel monitor first to generate monitoring data.")
		} else {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
	defer store.Close()

	q := query.New(store, config.DefaultQueryLimit)
	ctx := context.Background()

	switch cmd {
	case "logs":
		rows, err := q.Logs(ctx, *limit)
		exitOn(err)
		renderLogs(rows)
	case "summary":
		rows, err := q.Summary(ctx)
		exitOn(err)
		renderSummary(rows)
	case "failures":
		rows, err := q.Failures(ctx, *limit)
		exitOn(err)
		renderFailures(rows)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q.\n\n", cmd)
		flag.Usage()
		os.Exit(2)
	}
}

func exitOn(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "Query error:", err)
		os.Exit(1)
	}
}

func renderLogs(rows []domain.ProbeOutcome) {
	if len(rows) == 0 {
		fmt.Println("No log entries found.")
		return
	}
	w := newTable()
	fmt.Fprintln(w, "TIMESTAMP\tSERVICE\tSTATUS\tCODE\tRESPONSE (s)\tDETAILS")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			formatTime(r.Timestamp), r.ServiceName, r.Status,
			formatCode(r.StatusCode), formatSeconds(r.ResponseTime), r.Details)
	}
	w.Flush()
}

func renderSummary(rows []domain.ProbeOutcome) {
	if len(rows) == 0 {
		fmt.Println("No services have been checked yet.")
		return
	}
	w := newTable()
	fmt.Fprintln(w, "SERVICE\tSTATUS\tLAST CHECK\tRESPONSE (s)")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			r.ServiceName, r.Status, formatTime(r.Timestamp), formatSeconds(r.ResponseTime))
	}
	w.Flush()
}

func renderFailures(rows []domain.ProbeOutcome) {
	if len(rows) == 0 {
		fmt.Println("No failures in the recent records.")
		return
	}
	w := newTable()
	fmt.Fprintln(w, "TIMESTAMP\tSERVICE\tDETAILS")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\n", formatTime(r.Timestamp), r.ServiceName, r.Details)
	}
	w.Flush()
}

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
}

// formatTime drops sub-second noise for display.
func formatTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04:05")
}

func formatCode(code *int) string {
	if code == nil {
		return "-"
	}
	return strconv.Itoa(*code)
}

func formatSeconds(rt *float64) string {
	if rt == nil {
		return "-"
	}
	return fmt.Sprintf("%.4f", *rt)
}
