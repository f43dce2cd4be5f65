package cmd

import (
	"strings"
	"testing"
)

func TestRootCommand(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{name: "version flag", args: []string{"--version"}},
		{name: "help flag", args: []string{"--help"}},
		{name: "nonexistent command", args: []string{"nonexistent-command"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := runCmd(t, tt.args...)
			if (err != nil) != tt.wantErr {
				t.Errorf("rootCmd.Execute() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRootCommand_Subcommands(t *testing.T) {
	want := []string{"extract", "sessions", "show", "inspect", "healthcheck", "serve", "config"}
	registered := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		registered[c.Name()] = true
	}
	for _, name := range want {
		if !registered[name] {
			t.Errorf("%s command not registered", name)
		}
	}
}

func TestLoadSettings_FlagOverrides(t *testing.T) {
	resetFlags(rootCmd)
	t.Cleanup(func() { resetFlags(rootCmd) })

	globalDB = "/tmp/global.vscdb"
	workspaceDB = "/tmp/ws.vscdb"
	workspaceMatch = "**/journal"

	cfg, paths, err := loadSettings()
	if err != nil {
		t.Fatalf("loadSettings() error = %v", err)
	}
	if paths.GetGlobalStorageDBPath() != "/tmp/global.vscdb" {
		t.Errorf("global db = %q", paths.GetGlobalStorageDBPath())
	}
	if paths.WorkspaceDB != "/tmp/ws.vscdb" {
		t.Errorf("WorkspaceDB = %q", paths.WorkspaceDB)
	}
	if cfg.Workspace.Match != "**/journal" {
		t.Errorf("Workspace.Match = %q", cfg.Workspace.Match)
	}
}

func TestConfigShow(t *testing.T) {
	out, _, err := runCmd(t, "config", "show", "--global-db", "/tmp/global.vscdb")
	if err != nil {
		t.Fatalf("config show error = %v", err)
	}
	for _, want := range []string{"lead_padding: 5m0s", "global_db: /tmp/global.vscdb", "concurrency:"} {
		if !strings.Contains(out, want) {
			t.Errorf("config show output missing %q:\n%s", want, out)
		}
	}
}
