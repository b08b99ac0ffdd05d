package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sadopc/studytrack/internal/export"
	"github.com/sadopc/studytrack/internal/httpapi"
	"github.com/sadopc/studytrack/internal/stats"
	"github.com/sadopc/studytrack/internal/store"
)

// ============================================================
// event
// ============================================================

func newEventCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "event",
		Aliases: []string{"events"},
		Short:   "Manage calendar events",
	}

	var addColor string
	add := &cobra.Command{
		Use:   "add <date> <title>...",
		Short: "Add a calendar event",
		Args:  cobra.MinimumNArgs(2),
		RunE: withEnv(opts, openUser, func(cmd *cobra.Command, rt *cliEnv, args []string) error {
			date, err := parseDate(args[0])
			if err != nil {
				return err
			}
			e, err := rt.store.CreateEvent(rt.user.ID, date, strings.Join(args[1:], " "), addColor)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added event %d: %s on %s\n", e.ID, e.Title, e.Date.Format(stats.DateLayout))
			return nil
		}),
	}
	add.Flags().StringVar(&addColor, "color", store.EventColors[0], "One of "+strings.Join(store.EventColors, ", "))

	var listMonth string
	list := &cobra.Command{
		Use:   "list",
		Short: "List a month's calendar events",
		Args:  cobra.NoArgs,
		RunE: withEnv(opts, openUser, func(cmd *cobra.Command, rt *cliEnv, _ []string) error {
			month := rt.today()
			if listMonth != "" {
				m, err := time.Parse("2006-01", listMonth)
				if err != nil {
					return fmt.Errorf("invalid month %q, want YYYY-MM", listMonth)
				}
				month = m
			}
			events, err := rt.store.ListEvents(rt.user.ID, month)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(events) == 0 {
				fmt.Fprintf(out, "No events in %s\n", month.Format("January 2006"))
				return nil
			}
			rows := make([][]string, 0, len(events))
			for _, e := range events {
				rows = append(rows, []string{strconv.FormatInt(e.ID, 10), e.Date.Format(stats.DateLayout), e.Color, e.Title})
			}
			renderTable(out, []string{"ID", "Date", "Color", "Title"}, rows)
			return nil
		}),
	}
	list.Flags().StringVar(&listMonth, "month", "", "Month to list (YYYY-MM, default this month)")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a calendar event",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(opts, openUser, func(cmd *cobra.Command, rt *cliEnv, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := rt.store.DeleteEvent(rt.user.ID, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted event %d\n", id)
			return nil
		}),
	}

	cmd.AddCommand(add, list, del)
	return cmd
}

// ============================================================
// stats
// ============================================================

func newStatsCmd(opts *globalOptions) *cobra.Command {
	var asJSON, asMarkdown bool
	var from, to string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show streaks, goals and totals",
		Long: `Show the statistics report for the current user.

With --from and/or --to only a summary of that date range is shown.`,
		Args: cobra.NoArgs,
		RunE: withEnv(opts, openUser, func(cmd *cobra.Command, rt *cliEnv, _ []string) error {
			if asJSON && asMarkdown {
				return fmt.Errorf("--json and --markdown are mutually exclusive")
			}
			out := cmd.OutOrStdout()

			if from != "" || to != "" {
				r, err := parseRange(from, to)
				if err != nil {
					return err
				}
				sum, err := rt.svc.Summary(cmd.Context(), rt.user.ID, r)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(out, sum)
				}
				printSummary(out, "Range", sum)
				return nil
			}

			report, err := rt.svc.Report(cmd.Context(), rt.user.ID)
			if err != nil {
				return err
			}
			switch {
			case asJSON:
				return writeJSON(out, report)
			case asMarkdown:
				_, err := io.WriteString(out, renderMarkdown(out, export.Markdown(rt.user.Name, report)))
				return err
			}
			printReport(out, rt.user.Name, report)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	cmd.Flags().BoolVar(&asMarkdown, "markdown", false, "Print the report as Markdown")
	cmd.Flags().StringVar(&from, "from", "", "Summarize from this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Summarize up to this date (YYYY-MM-DD)")
	return cmd
}

func parseRange(from, to string) (stats.Range, error) {
	var r stats.Range
	if from != "" {
		d, err := parseDate(from)
		if err != nil {
			return r, err
		}
		r.Start = &d
	}
	if to != "" {
		d, err := parseDate(to)
		if err != nil {
			return r, err
		}
		r.End = &d
	}
	if r.Start != nil && r.End != nil && r.End.Before(*r.Start) {
		return r, fmt.Errorf("--to is before --from")
	}
	return r, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderMarkdown styles md with glamour when w is a terminal and returns it
// unchanged otherwise.
func renderMarkdown(w io.Writer, md string) string {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return md
	}
	width := 80
	if tw, _, err := term.GetSize(int(f.Fd())); err == nil && tw > 0 {
		width = tw
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width))
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

func printReport(w io.Writer, user string, r stats.Report) {
	fmt.Fprintf(w, "Statistics for %s on %s\n\n", user, r.Date)
	fmt.Fprintf(w, "Today:          %s in %d session(s)\n", stats.FormatMinutes(r.TodayMinutes), r.TodaySessions)
	fmt.Fprintf(w, "Current streak: %d day(s)\n", r.CurrentStreak)
	fmt.Fprintf(w, "Longest streak: %d day(s) (min %s/day)\n", r.LongestStreak, stats.FormatMinutes(r.StreakMinMinutes))
	fmt.Fprintf(w, "Last %d days:   %s\n", r.ShortWindowDays, stats.FormatMinutes(r.ShortWindow))
	fmt.Fprintf(w, "Last %d days:  %s\n", r.LongWindowDays, stats.FormatMinutes(r.LongWindow))

	fmt.Fprintln(w, "\nGoals")
	for _, g := range r.Goals {
		fmt.Fprintf(w, "  %-8s %s / %s (%d%%)\n", g.Name, stats.FormatMinutes(g.Minutes), stats.FormatMinutes(g.GoalMinutes), g.Percent)
	}

	fmt.Fprintln(w)
	printSummary(w, "All time", r.AllTime)

	if len(r.Subjects) > 0 {
		fmt.Fprintln(w, "\nSubjects")
		for _, s := range r.Subjects {
			fmt.Fprintf(w, "  %-24s %8s  %d session(s)\n", s.Subject, stats.FormatMinutes(s.Minutes), s.Sessions)
		}
	}

	fmt.Fprintln(w, "\nAchievements")
	for _, a := range r.Achievements {
		mark := " "
		if a.Earned {
			mark = "x"
		}
		fmt.Fprintf(w, "  [%s] %s: %s\n", mark, a.Title, a.Description)
	}

	t := r.Todos
	fmt.Fprintf(w, "\nTodos: %d pending, %d completed (%d today), %d important\n",
		t.Pending, t.Completed, t.CompletedToday, t.Important)
}

func printSummary(w io.Writer, title string, s stats.Summary) {
	span := "no sessions"
	if s.From != nil && s.To != nil {
		span = *s.From + " to " + *s.To
	}
	fmt.Fprintf(w, "%s (%s)\n", title, span)
	fmt.Fprintf(w, "  Total:      %s in %d session(s)\n", stats.FormatMinutes(s.TotalMinutes), s.SessionCount)
	fmt.Fprintf(w, "  Days:       %d active of %d\n", s.ActiveDays, s.CalendarDays)
	fmt.Fprintf(w, "  Average:    %s per active day, %s per calendar day\n",
		stats.FormatMinutes(s.AvgPerActiveDay), stats.FormatMinutes(s.AvgPerCalendarDay))
	if s.LongestSession != nil {
		ls := s.LongestSession
		fmt.Fprintf(w, "  Longest:    %s of %s on %s\n", stats.FormatMinutes(ls.Minutes), ls.Subject, ls.Date)
	}
}

// ============================================================
// export
// ============================================================

func newExportCmd(opts *globalOptions) *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export sessions and statistics",
		Args:  cobra.NoArgs,
		RunE: withEnv(opts, openUser, func(cmd *cobra.Command, rt *cliEnv, _ []string) error {
			sessions, err := rt.store.ListSessions(rt.user.ID)
			if err != nil {
				return err
			}

			format = strings.ToLower(format)
			var report stats.Report
			if format != "csv" {
				if report, err = rt.svc.Report(cmd.Context(), rt.user.ID); err != nil {
					return err
				}
			}

			if output == "" || output == "-" {
				out := cmd.OutOrStdout()
				switch format {
				case "csv":
					return export.WriteCSV(out, sessions)
				case "json":
					return export.WriteJSON(out, rt.user.Name, sessions, report, rt.clock())
				case "markdown", "md":
					_, err := io.WriteString(out, export.Markdown(rt.user.Name, report))
					return err
				}
				return fmt.Errorf("unknown format %q, want csv, json or markdown", format)
			}

			switch format {
			case "csv":
				err = export.ToCSV(sessions, output)
			case "json":
				err = export.ToJSON(rt.user.Name, sessions, report, output)
			case "markdown", "md":
				err = export.ToMarkdown(rt.user.Name, report, output)
			default:
				return fmt.Errorf("unknown format %q, want csv, json or markdown", format)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", output)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "csv, json or markdown")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	return cmd
}

// ============================================================
// serve
// ============================================================

func newServeCmd(opts *globalOptions) *cobra.Command {
	var addr string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		Args:  cobra.NoArgs,
		RunE: withEnv(opts, openUser, func(cmd *cobra.Command, rt *cliEnv, _ []string) error {
			if addr == "" {
				addr = rt.cfg.HTTP.Addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			h := httpapi.NewHandler(rt.store, rt.svc, httpapi.NewAdapter(timeout), rt.log)
			return httpapi.Serve(ctx, addr, h, rt.log)
		}),
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Per-request timeout")
	return cmd
}
