package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/iksnae/cursor-chatlog/internal"
	"github.com/iksnae/cursor-chatlog/internal/export"
	"github.com/iksnae/cursor-chatlog/internal/transcript"
	"github.com/spf13/cobra"
)

var (
	format       string
	outputPath   string
	sessionIDs   []string
	repoDir      string
	sinceFlag    string
	untilFlag    string
	leadPadding  time.Duration
	trailPadding time.Duration
	noReport     bool
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract [rev]",
	Short: "Extract the chat transcript behind a commit",
	Long: `Extract the ordered chat transcript that led to a commit.

The window runs from the previous commit's time to the commit's time
(rev defaults to HEAD), widened by the configured padding. --since and
--until override either side; with both set git is not consulted.

Sessions default to those listed by the Cursor workspace opened on --repo.
The transcript goes to stdout (or --out) and the extraction report to stderr.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exporter, err := export.NewExporter(format)
		if err != nil {
			return err
		}

		cfg, paths, err := loadSettings()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		rev := "HEAD"
		if len(args) == 1 {
			rev = args[0]
		}
		window, commitHash, err := commitWindow(ctx, cmd, cfg, rev)
		if err != nil {
			return err
		}

		reader := newReader()
		stores, active, err := transcript.ProjectStores(ctx, reader, paths, repoDir, cfg.Workspace.Match)
		if err != nil {
			return fmt.Errorf("failed to locate stores: %w", err)
		}
		ids := sessionIDs
		if len(ids) == 0 {
			ids = active
		}
		if len(ids) == 0 {
			internal.PrintWarning("No sessions given and none found for this workspace")
		}

		engine := transcript.New(reader, stores,
			transcript.WithConcurrency(cfg.Scan.Concurrency),
			transcript.WithScanTimeout(cfg.Scan.Timeout),
		)

		var (
			tr     *transcript.Transcript
			report *transcript.Report
		)
		if err := internal.ShowProgress(ctx, "Reconstructing transcript", func() error {
			tr, report = engine.Extract(ctx, ids, window)
			return nil
		}); err != nil {
			return err
		}

		lower, upper := window.Bounds()
		doc := &export.Document{
			Commit:      commitHash,
			WindowStart: lower,
			WindowEnd:   upper,
			Transcript:  tr,
			Report:      report,
		}

		out := cmd.OutOrStdout()
		dest := outputFile(outputPath, commitHash, exporter.Extension())
		if dest != "" {
			f, err := os.Create(dest)
			if err != nil {
				return &internal.ExportError{Format: format, Path: dest, Err: err}
			}
			defer f.Close()
			out = f
		}
		if err := exporter.Export(doc, out); err != nil {
			return &internal.ExportError{Format: format, Path: dest, Err: err}
		}

		if !noReport {
			renderReport(cmd.ErrOrStderr(), report)
		}
		if dest != "" {
			internal.PrintSuccess(fmt.Sprintf("Wrote %d message(s) to %s", len(tr.ContentMessages()), dest))
		}
		return nil
	},
}

// commitWindow builds the extraction window for rev. Explicit --since and
// --until win over the commit times; padding flags win over config.
func commitWindow(ctx context.Context, cmd *cobra.Command, cfg *internal.Config, rev string) (transcript.Window, string, error) {
	w := transcript.Window{
		LeadPadding:  cfg.Window.LeadPadding,
		TrailPadding: cfg.Window.TrailPadding,
	}
	if cmd.Flags().Changed("lead") {
		w.LeadPadding = leadPadding
	}
	if cmd.Flags().Changed("trail") {
		w.TrailPadding = trailPadding
	}
	if w.LeadPadding < 0 || w.TrailPadding < 0 {
		return w, "", fmt.Errorf("padding must not be negative")
	}

	var hash string
	if sinceFlag == "" || untilFlag == "" {
		info, err := internal.CommitWindow(ctx, repoDir, rev)
		if err != nil {
			return w, "", fmt.Errorf("failed to read commit window: %w", err)
		}
		w.Start, w.End = info.PreviousCommit, info.CommittedAt
		hash = info.Hash
	}

	var err error
	if sinceFlag != "" {
		if w.Start, err = parseBound("since", sinceFlag); err != nil {
			return w, "", err
		}
	}
	if untilFlag != "" {
		if w.End, err = parseBound("until", untilFlag); err != nil {
			return w, "", err
		}
	}
	if !w.Start.IsZero() && !w.End.IsZero() && w.End.Before(w.Start) {
		return w, "", fmt.Errorf("--until %s is before --since %s", untilFlag, sinceFlag)
	}
	return w, hash, nil
}

// outputFile maps --out to a file path. An existing directory gets a file
// named after the commit (or "window" without one).
func outputFile(out, commitHash, ext string) string {
	if out == "" {
		return ""
	}
	info, err := os.Stat(out)
	if err != nil || !info.IsDir() {
		return out
	}
	name := "window"
	if commitHash != "" {
		name = shortHash(commitHash)
	}
	return filepath.Join(out, "chat-"+name+"."+ext)
}

func parseBound(name, value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s %q (want RFC3339): %w", name, value, err)
	}
	return t, nil
}

// renderReport prints the extraction report in the same styles the
// healthcheck uses.
func renderReport(w io.Writer, r *transcript.Report) {
	status := successStyle.Render("complete")
	if !r.Complete {
		status = warningStyle.Render("possibly incomplete")
	}
	fmt.Fprintf(w, "%s %s\n", sectionStyle.Render("Extraction report"), status)
	fmt.Fprintf(w, "  run:        %s\n", r.RunID)
	fmt.Fprintf(w, "  sessions:   %d\n", len(r.Sessions))
	fmt.Fprintf(w, "  messages:   %d of %d in window\n", r.WindowedMessages, r.AssembledMessages)

	counters := []struct {
		label string
		n     int
	}{
		{"skipped unparsable", r.SkippedUnparsable},
		{"empty fragments", r.EmptyFragments},
		{"unverified positions", r.UnverifiedPositions},
		{"fallback ordered", r.FallbackOrdered},
		{"missing fragments", r.MissingFragments},
		{"unknown roles", r.UnknownRoles},
		{"untimed messages", r.UntimedMessages},
	}
	for _, c := range counters {
		if c.n > 0 {
			fmt.Fprintf(w, "  %s %s: %d\n", warningStyle.Render("!"), c.label, c.n)
		}
	}
	if len(r.SessionsNotFound) > 0 {
		fmt.Fprintf(w, "  %s sessions not found: %s\n", errorStyle.Render("✗"), strings.Join(r.SessionsNotFound, ", "))
	}
	for _, path := range r.UnavailableStores {
		fmt.Fprintf(w, "  %s store unavailable: %s\n", errorStyle.Render("✗"), path)
	}
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().StringVarP(&format, "format", "f", "jsonl", "Export format ("+strings.Join(export.Formats, ", ")+")")
	extractCmd.Flags().StringVarP(&outputPath, "out", "o", "", "Output file or directory (default: stdout)")
	extractCmd.Flags().StringSliceVarP(&sessionIDs, "session", "s", nil, "Logical session id (repeatable; default: the workspace's sessions)")
	extractCmd.Flags().StringVar(&repoDir, "repo", ".", "Project directory (git repository and workspace folder)")
	extractCmd.Flags().StringVar(&sinceFlag, "since", "", "Window start, RFC3339 (default: previous commit time)")
	extractCmd.Flags().StringVar(&untilFlag, "until", "", "Window end, RFC3339 (default: commit time)")
	extractCmd.Flags().DurationVar(&leadPadding, "lead", 0, "Padding before the window start (default from config)")
	extractCmd.Flags().DurationVar(&trailPadding, "trail", 0, "Padding after the window end (default from config)")
	extractCmd.Flags().BoolVar(&noReport, "no-report", false, "Do not print the extraction report")
}
