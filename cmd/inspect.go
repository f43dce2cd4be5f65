package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

var (
	inspectStore  string
	inspectJSON   bool
	inspectSample int
)

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect <key-prefix>",
	Short: "Dump raw records under a key prefix",
	Long: `Scan one store for keys starting with a prefix and dump what the reader
decoded, plus the keys whose values were not structured data.

The prefix match is exact and case-sensitive.

Examples:
  cursor-chatlog inspect composerData:                  # session metadata in the global store
  cursor-chatlog inspect bubbleId:<storage-id>: -n 0    # every fragment of one segment
  cursor-chatlog inspect composer. --store ws.vscdb     # a workspace store`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		storePath := inspectStore
		if storePath == "" {
			_, paths, err := loadSettings()
			if err != nil {
				return err
			}
			storePath = paths.GetGlobalStorageDBPath()
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		return inspectPrefix(ctx, cmd.OutOrStdout(), storePath, args[0])
	},
}

func inspectPrefix(ctx context.Context, out io.Writer, storePath, prefix string) error {
	res, err := newReader().Scan(ctx, storePath, prefix)
	if err != nil {
		return err
	}

	if inspectJSON {
		records := make([]map[string]json.RawMessage, 0, len(res.Records))
		for _, rec := range res.Records {
			key, _ := json.Marshal(rec.Key)
			records = append(records, map[string]json.RawMessage{"key": key, "value": rec.Value})
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{
			"store":      storePath,
			"prefix":     prefix,
			"records":    records,
			"unparsable": res.Unparsable,
		})
	}

	fmt.Fprintf(out, "%s %s\n", sectionStyle.Render("Store"), storePath)
	fmt.Fprintf(out, "%d record(s) under %q, %d unparsable\n\n", len(res.Records), prefix, len(res.Unparsable))
	for i, rec := range res.Records {
		if inspectSample > 0 && i >= inspectSample {
			fmt.Fprintf(out, "... and %d more\n", len(res.Records)-i)
			break
		}
		value := string(rec.Value)
		if len(value) > 200 {
			value = value[:200] + "..."
		}
		if strings.Contains(value, "\n") {
			value = strings.Split(value, "\n")[0] + "..."
		}
		fmt.Fprintf(out, "%s\n  %s\n", infoStyle.Render(rec.Key), value)
	}
	for _, key := range res.Unparsable {
		fmt.Fprintf(out, "%s %s\n", warningStyle.Render("unparsable"), key)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVar(&inspectStore, "store", "", "Store to scan (default: the global store)")
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "Print records as JSON")
	inspectCmd.Flags().IntVarP(&inspectSample, "limit", "n", 20, "Show at most this many records (0 for all)")
}
