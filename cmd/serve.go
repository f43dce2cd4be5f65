package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/iksnae/cursor-chatlog/internal"
	"github.com/iksnae/cursor-chatlog/internal/api"
	"github.com/spf13/cobra"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve chat context over MCP on stdio",
	Long: `Run an MCP server on stdin/stdout exposing two tools:

  extract_chat_context   transcript pairs and report for a commit window
  list_chat_sessions     storage segments behind logical session ids

Logs go to stderr so they never corrupt the protocol stream.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, paths, err := loadSettings()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		s := api.NewMCPServer(api.MCPDeps{
			Reader:  newReader(),
			Paths:   paths,
			Config:  cfg,
			Version: version,
		})
		internal.LogInfo("MCP server listening on stdio")
		return api.ServeStdio(ctx, s)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
