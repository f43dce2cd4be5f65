package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/cursor-chatlog/internal/transcript"
	"github.com/spf13/cobra"
)

var (
	limit int
	since string
)

var (
	sessionHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("212")).
				Padding(0, 1).
				MarginBottom(1)

	userMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true).
				Padding(0, 1)

	assistantMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("135")).
				Bold(true).
				Padding(0, 1)

	otherMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("243")).
				Bold(true).
				Padding(0, 1)

	messageContentStyle = lipgloss.NewStyle().
				Padding(0, 2).
				MarginBottom(1)

	timestampStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show <logical-id>...",
	Short: "Show the full transcript of one or more sessions",
	Long: `Display the assembled transcript of logical sessions, with no commit
window applied. Use extract to bound it to a commit.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var sinceTime time.Time
		if since != "" {
			t, err := parseBound("since", since)
			if err != nil {
				return err
			}
			sinceTime = t
		}

		cfg, paths, err := loadSettings()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		reader := newReader()
		stores, _, err := transcript.ProjectStores(ctx, reader, paths, ".", cfg.Workspace.Match)
		if err != nil {
			return fmt.Errorf("failed to locate stores: %w", err)
		}
		engine := transcript.New(reader, stores,
			transcript.WithConcurrency(cfg.Scan.Concurrency),
			transcript.WithScanTimeout(cfg.Scan.Timeout),
		)

		tr, report := engine.Extract(ctx, args, transcript.Window{Start: sinceTime})
		printTranscript(cmd.OutOrStdout(), tr, report)
		return nil
	},
}

func printTranscript(out io.Writer, tr *transcript.Transcript, report *transcript.Report) {
	title := fmt.Sprintf("%d session segment(s)", len(report.Sessions))
	if len(report.Sessions) > 0 && report.Sessions[0].Name != "" {
		title = report.Sessions[0].Name
	}
	fmt.Fprintln(out, sessionHeaderStyle.Render(title))

	messages := tr.ContentMessages()
	if limit > 0 && len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	if len(messages) == 0 {
		fmt.Fprintln(out, "No messages.")
	}

	for _, msg := range messages {
		style := otherMessageStyle
		switch msg.Role {
		case transcript.RoleUser:
			style = userMessageStyle
		case transcript.RoleAssistant:
			style = assistantMessageStyle
		}
		header := style.Render(string(msg.Role))
		if msg.Kind == transcript.KindReasoning {
			header += timestampStyle.Render(" thinking")
		}
		if !msg.Timestamp.IsZero() {
			header += " " + timestampStyle.Render(msg.Timestamp.Local().Format("2006-01-02 15:04:05"))
		}
		fmt.Fprintln(out, header)
		fmt.Fprintln(out, messageContentStyle.Render(msg.Content))
	}

	for _, id := range report.SessionsNotFound {
		fmt.Fprintf(out, "%s session %s not found\n", warningStyle.Render("!"), id)
	}
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show only the last n messages")
	showCmd.Flags().StringVar(&since, "since", "", "Show messages since timestamp (RFC3339)")
}
