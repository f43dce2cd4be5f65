package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/cursor-chatlog/internal"
	"github.com/iksnae/cursor-chatlog/internal/transcript"
	"github.com/spf13/cobra"
)

var (
	healthcheckRepo string
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)
)

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check that the Cursor stores can be found and read",
	Long: `Check the health of cursor-chatlog by verifying:
  • Storage path detection
  • Global store availability and session metadata
  • Workspace stores opened on the project directory
  • Git commit metadata for the project

Run with --verbose to see the paths involved.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		return runHealthcheck(ctx, cmd.OutOrStdout())
	},
}

func runHealthcheck(ctx context.Context, out io.Writer) error {
	fmt.Fprintln(out, sectionStyle.Render("Cursor Chatlog Health Check"))
	fmt.Fprintln(out)

	fmt.Fprintln(out, infoStyle.Render("Step 1: Resolving storage paths..."))
	cfg, paths, err := loadSettings()
	if err != nil {
		fmt.Fprintln(out, errorStyle.Render("✗ Failed to resolve storage paths:"), err)
		return err
	}
	fmt.Fprintln(out, successStyle.Render("✓ Storage paths resolved"))
	if verbose {
		fmt.Fprintf(out, "   Base path: %s\n", paths.BasePath)
		fmt.Fprintf(out, "   Global store: %s\n", paths.GetGlobalStorageDBPath())
		fmt.Fprintf(out, "   Workspace storage: %s\n", paths.WorkspaceStorage)
	}
	fmt.Fprintln(out)

	reader := newReader()

	fmt.Fprintln(out, infoStyle.Render("Step 2: Reading the global store..."))
	globalPath := paths.GetGlobalStorageDBPath()
	res, err := reader.Scan(ctx, globalPath, "composerData:")
	if err != nil {
		fmt.Fprintln(out, errorStyle.Render("✗ Global store unavailable:"), err)
		return err
	}
	fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✓ Found %d session segment(s)", len(res.Records))))
	if len(res.Unparsable) > 0 {
		fmt.Fprintln(out, warningStyle.Render(fmt.Sprintf("⚠ %d unparsable session record(s)", len(res.Unparsable))))
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, infoStyle.Render("Step 3: Matching workspace stores..."))
	stores, active, err := transcript.ProjectStores(ctx, reader, paths, healthcheckRepo, cfg.Workspace.Match)
	if err != nil {
		fmt.Fprintln(out, warningStyle.Render("⚠ Workspace detection failed:"), err)
	} else if len(stores.Workspace) == 0 {
		fmt.Fprintln(out, warningStyle.Render("⚠ No workspace store matches this project"))
		fmt.Fprintln(out, "   Pass --session ids explicitly, or --workspace / --workspace-db")
	} else {
		fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✓ %d workspace store(s), %d active session(s)", len(stores.Workspace), len(active))))
		if verbose {
			for _, path := range stores.Workspace {
				fmt.Fprintf(out, "   %s\n", path)
			}
		}
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, infoStyle.Render("Step 4: Reading git metadata..."))
	if info, err := internal.CommitWindow(ctx, healthcheckRepo, "HEAD"); err != nil {
		fmt.Fprintln(out, warningStyle.Render("⚠ No commit window available:"), err)
	} else {
		fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✓ HEAD %s committed %s", shortHash(info.Hash), info.CommittedAt.Local().Format("2006-01-02 15:04:05"))))
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, successStyle.Render("✓ Health check passed"))
	return nil
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
	healthcheckCmd.Flags().StringVar(&healthcheckRepo, "repo", ".", "Project directory to check")
}
