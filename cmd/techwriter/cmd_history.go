package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"techwriter/internal/store"
	"techwriter/internal/ui"
)

const (
	formatText = "text"
	formatJSON = "json"
)

func (a *app) historyCmd() *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect logged pipeline runs",
	}

	var (
		limit  int
		offset int
		format string
	)
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.historyList(cmd, limit, offset, format)
		},
	}
	listCmd.Flags().IntVar(&limit, "limit", store.DefaultListLimit, "Maximum number of runs")
	listCmd.Flags().IntVar(&offset, "offset", 0, "Number of runs to skip")
	listCmd.Flags().StringVar(&format, "format", formatText, "Output format: text or json")

	var showFormat string
	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one run with all stage prompts and results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.historyShow(cmd, args[0], showFormat)
		},
	}
	showCmd.Flags().StringVar(&showFormat, "format", formatText, "Output format: text or json")

	countCmd := &cobra.Command{
		Use:   "count",
		Short: "Print the number of logged runs",
		Args:  cobra.NoArgs,
		RunE:  a.historyCount,
	}

	historyCmd.AddCommand(listCmd, showCmd, countCmd)
	return historyCmd
}

func checkFormat(format string) error {
	if format != formatText && format != formatJSON {
		return fmt.Errorf("unknown format %q (want text or json)", format)
	}
	return nil
}

func (a *app) historyList(cmd *cobra.Command, limit, offset int, format string) error {
	if err := checkFormat(format); err != nil {
		return err
	}
	cmd.SilenceUsage = true
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	s, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	records, err := s.FindAll(ctx, limit, offset)
	if err != nil {
		return err
	}

	if format == formatJSON {
		return a.writeJSON(records)
	}
	if len(records) == 0 {
		fmt.Fprintln(a.stdout, "No runs logged yet.")
		return nil
	}

	table := ui.NewTable(fmt.Sprintf("Runs (%d)", len(records)), "ID", "Created", "Stages", "Article")
	for _, r := range records {
		table.AddRow(
			strconv.FormatInt(r.ID, 10),
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%d/3", completedStages(r)),
			ui.Preview(firstLine(r.OriginalContent), 60),
		)
	}
	fmt.Fprint(a.stdout, table.View(ui.DefaultStyles()))
	return nil
}

func (a *app) historyShow(cmd *cobra.Command, rawID, format string) error {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid run id %q", rawID)
	}
	if err := checkFormat(format); err != nil {
		return err
	}
	cmd.SilenceUsage = true
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	s, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	rec, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("run %d not found", id)
	}

	if format == formatJSON {
		return a.writeJSON(rec)
	}
	console := ui.NewConsole(a.stdout)
	console.Print(console.Styles().Title.Render(fmt.Sprintf("Run %d, %s", rec.ID, rec.CreatedAt.Local().Format("2006-01-02 15:04:05"))))
	console.Markdown(recordMarkdown(rec))
	return nil
}

func (a *app) historyCount(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	s, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	n, err := s.Count(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, n)
	return nil
}

func (a *app) writeJSON(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func completedStages(r store.Record) int {
	n := 0
	for _, result := range []string{r.AnalystResult, r.ArchitectResult, r.WriterResult} {
		if result != "" {
			n++
		}
	}
	return n
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// recordMarkdown lays a stored run out as one markdown document.
func recordMarkdown(r *store.Record) string {
	var sb strings.Builder
	section := func(title, body string) {
		if body == "" {
			return
		}
		fmt.Fprintf(&sb, "## %s\n\n%s\n\n", title, body)
	}
	section("Original Article", r.OriginalContent)
	section("Analyst Result", r.AnalystResult)
	section("Architect Result", r.ArchitectResult)
	section("Writer Result", r.WriterResult)
	section("Evaluation", r.Evaluation)
	return strings.TrimRight(sb.String(), "\n")
}
