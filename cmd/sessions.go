package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/cursor-chatlog/internal"
	"github.com/iksnae/cursor-chatlog/internal/transcript"
	"github.com/spf13/cobra"
)

var (
	sessionsRepo string
	sessionsJSON bool
)

var (
	logicalIDStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	handleMetaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

// sessionsCmd represents the sessions command
var sessionsCmd = &cobra.Command{
	Use:   "sessions [logical-id...]",
	Short: "List the storage segments behind logical sessions",
	Long: `Resolve logical session ids to their storage segments in creation order.

Without ids, the sessions listed by the Cursor workspace opened on --repo
are resolved. A logical session can span several segments when Cursor
continued it under a new storage id.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, paths, err := loadSettings()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		reader := newReader()
		stores, active, err := transcript.ProjectStores(ctx, reader, paths, sessionsRepo, cfg.Workspace.Match)
		if err != nil {
			return fmt.Errorf("failed to locate stores: %w", err)
		}
		ids := args
		if len(ids) == 0 {
			ids = active
		}

		res := transcript.New(reader, stores).Resolve(ctx, ids)

		out := cmd.OutOrStdout()
		if sessionsJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}

		if len(res.Handles) == 0 {
			fmt.Fprintln(out, "No sessions found.")
		}
		var last string
		for _, h := range res.Handles {
			if h.LogicalID != last {
				fmt.Fprintln(out, logicalIDStyle.Render(h.LogicalID))
				last = h.LogicalID
			}
			created := "unknown"
			if !h.CreatedAt.IsZero() {
				created = h.CreatedAt.Local().Format("2006-01-02 15:04:05")
			}
			fmt.Fprintf(out, "  %s  %s\n", h.StorageID, handleMetaStyle.Render(fmt.Sprintf("%s  %s  %s", created, h.Origin, h.Name)))
		}
		for _, id := range res.NotFound {
			internal.PrintWarning(fmt.Sprintf("Session %s not found", id))
		}
		for _, path := range res.UnavailableStores {
			internal.PrintWarning(fmt.Sprintf("Store unavailable: %s", path))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.Flags().StringVar(&sessionsRepo, "repo", ".", "Project directory whose workspace lists the sessions")
	sessionsCmd.Flags().BoolVar(&sessionsJSON, "json", false, "Print the resolution as JSON")
}
