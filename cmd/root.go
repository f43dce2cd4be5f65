package cmd

import (
	"fmt"
	"os"

	"github.com/iksnae/cursor-chatlog/internal"
	"github.com/iksnae/cursor-chatlog/internal/store"
	"github.com/spf13/cobra"
)

var (
	verbose        bool
	configPath     string
	storagePath    string
	globalDB       string
	workspaceDB    string
	workspaceMatch string
	version        string = "dev"
	commit         string = "unknown"
	date           string = "unknown"
)

// newReader is swapped in tests.
var newReader = func() store.Reader { return store.NewSQLiteReader() }

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cursor-chatlog",
	Short: "Recover the Cursor chat behind a git commit",
	Long: `Reconstruct ordered Cursor IDE chat transcripts and bound them to the
time window of a git commit.

Sessions are read straight from Cursor's state.vscdb stores (global and
workspace). Every extraction comes with a report of what could not be
ordered, decoded or found, and whether the transcript is complete.

Quick Start:
  cursor-chatlog extract                 # chat behind HEAD, as JSONL
  cursor-chatlog extract HEAD~1 -f md    # previous commit, as Markdown
  cursor-chatlog sessions                # sessions of this workspace
  cursor-chatlog serve                   # MCP server on stdio`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		internal.PrintError(err.Error())
		os.Exit(1)
	}
}

// loadSettings merges the config files with the persistent flag overrides
// and resolves the Cursor storage locations.
func loadSettings() (*internal.Config, internal.StoragePaths, error) {
	cfg, err := internal.LoadConfig(configPath)
	if err != nil {
		return nil, internal.StoragePaths{}, err
	}

	if storagePath != "" {
		cfg.Storage.BasePath = storagePath
	}
	if globalDB != "" {
		cfg.Storage.GlobalDB = globalDB
	}
	if workspaceDB != "" {
		cfg.Storage.WorkspaceDB = workspaceDB
	}
	if workspaceMatch != "" {
		cfg.Workspace.Match = workspaceMatch
	}
	if cfg.Log.Verbose && !verbose {
		internal.SetVerbose(true)
	}
	if err := internal.SetLogFormat(cfg.Log.Format); err != nil {
		return nil, internal.StoragePaths{}, err
	}

	paths, err := internal.ResolveStoragePaths(cfg.Storage)
	if err != nil {
		return nil, internal.StoragePaths{}, fmt.Errorf("failed to get storage paths: %w", err)
	}
	return cfg, paths, nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ~/.cursor-chatlog/config.yaml, then ./.cursor-chatlog.yaml)")
	rootCmd.PersistentFlags().StringVar(&storagePath, "storage", "", "Cursor User directory (contains globalStorage and workspaceStorage)")
	rootCmd.PersistentFlags().StringVar(&globalDB, "global-db", "", "Path to the global state.vscdb")
	rootCmd.PersistentFlags().StringVar(&workspaceDB, "workspace-db", "", "Path to a workspace state.vscdb, skips workspace detection")
	rootCmd.PersistentFlags().StringVar(&workspaceMatch, "workspace", "", "Glob over workspace folder paths (default: the project directory)")

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
