package cmd

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/iksnae/cursor-chatlog/testutil"
)

var fixtureEpoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func fixtureMs(d time.Duration) int64 { return fixtureEpoch.Add(d).UnixMilli() }

// resetFlags puts every flag of cmd and its children back to its default,
// since rootCmd is shared between tests.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, child := range cmd.Commands() {
		resetFlags(child)
	}
}

func runCmd(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)
	t.Cleanup(func() { resetFlags(rootCmd) })

	var stdout, stderr bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

// createStores writes a global store holding one logical session "L" split
// over two segments, and a workspace store that lists it as active.
func createStores(t *testing.T) (globalPath, workspacePath string) {
	t.Helper()
	dir := t.TempDir()
	globalPath = filepath.Join(dir, "globalStorage", "state.vscdb")
	workspacePath = filepath.Join(dir, "workspaceStorage", "abc", "state.vscdb")

	global := testutil.CreateKVStore(t, globalPath)
	testutil.InsertComposer(t, global, "S1", "L", fixtureMs(-4*time.Hour), "a", "b")
	testutil.InsertComposer(t, global, "S2", "L", fixtureMs(-time.Hour), "c", "d")

	testutil.InsertBubble(t, global, "S1", "a", map[string]interface{}{"type": 1, "text": "start the parser", "createdAt": fixtureMs(-4 * time.Hour)})
	testutil.InsertBubble(t, global, "S1", "b", map[string]interface{}{"type": 2, "text": "parser scaffolded", "createdAt": fixtureMs(-4*time.Hour + time.Minute)})
	testutil.InsertBubble(t, global, "S2", "c", map[string]interface{}{"type": 1, "text": "fix the tokenizer", "createdAt": fixtureMs(-30 * time.Minute)})
	testutil.InsertBubble(t, global, "S2", "d", map[string]interface{}{"type": 2, "text": "tokenizer fixed", "createdAt": fixtureMs(-25 * time.Minute)})
	testutil.InsertKV(t, global, "bubbleId:S2:e", []byte{0x00, 0x01, 0x02})

	ws := testutil.CreateKVStore(t, workspacePath)
	testutil.InsertItem(t, ws, "composer.composerData", `{"allComposers":[{"composerId":"L"}]}`)
	return globalPath, workspacePath
}
