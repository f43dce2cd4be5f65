// Package api exposes transcript extraction as MCP tools so an assistant
// can pull the chat context behind a commit on demand.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/iksnae/cursor-chatlog/internal"
	"github.com/iksnae/cursor-chatlog/internal/store"
	"github.com/iksnae/cursor-chatlog/internal/transcript"
)

// CommitLookup returns commit timing for rev in repoDir.
type CommitLookup func(ctx context.Context, repoDir, rev string) (*internal.CommitInfo, error)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Reader  store.Reader
	Paths   internal.StoragePaths
	Config  *internal.Config
	Commits CommitLookup // defaults to internal.CommitWindow
	Version string
}

// NewMCPServer creates an MCP server with the chat context tools registered.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	if deps.Commits == nil {
		deps.Commits = internal.CommitWindow
	}
	if deps.Config == nil {
		deps.Config = internal.DefaultConfig()
	}
	version := deps.Version
	if version == "" {
		version = "dev"
	}

	s := server.NewMCPServer(
		"cursor-chatlog",
		version,
		server.WithToolCapabilities(true),
		server.WithInstructions("cursor-chatlog: ordered Cursor chat transcripts bounded to a git commit window."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("extract_chat_context",
			mcp.WithDescription("Reconstruct the Cursor chat transcript around a commit. Returns role/content pairs and a completeness report."),
			mcp.WithArray("session_ids", mcp.Description("Logical session (composer) ids; defaults to the sessions listed by the repo's workspace"), mcp.WithStringItems()),
			mcp.WithString("repo", mcp.Description("Project directory (default: current directory)")),
			mcp.WithString("commit", mcp.Description("Git revision whose window to use; the previous commit bounds the start")),
			mcp.WithString("since", mcp.Description("Window start, RFC3339; overrides the commit's previous commit time")),
			mcp.WithString("until", mcp.Description("Window end, RFC3339; overrides the commit time")),
			mcp.WithString("lead_padding", mcp.Description("Duration added before the window start, e.g. 5m")),
			mcp.WithString("trail_padding", mcp.Description("Duration added after the window end, e.g. 5m")),
		),
		mcpExtractChatContext(deps),
	)

	s.AddTool(
		mcp.NewTool("list_chat_sessions",
			mcp.WithDescription("Resolve logical session ids to their storage segments in creation order."),
			mcp.WithArray("session_ids", mcp.Description("Logical session ids; defaults to the repo's workspace sessions"), mcp.WithStringItems()),
			mcp.WithString("repo", mcp.Description("Project directory (default: current directory)")),
		),
		mcpListChatSessions(deps),
	)

	return s
}

// ServeStdio runs the MCP server over stdin/stdout until ctx is done.
func ServeStdio(ctx context.Context, s *server.MCPServer) error {
	return server.NewStdioServer(s).Listen(ctx, os.Stdin, os.Stdout)
}

func newEngine(ctx context.Context, deps MCPDeps, repo string) (*transcript.Engine, []string, error) {
	stores, active, err := transcript.ProjectStores(ctx, deps.Reader, deps.Paths, repo, deps.Config.Workspace.Match)
	if err != nil {
		return nil, nil, err
	}
	engine := transcript.New(deps.Reader, stores,
		transcript.WithConcurrency(deps.Config.Scan.Concurrency),
		transcript.WithScanTimeout(deps.Config.Scan.Timeout),
	)
	return engine, active, nil
}

func mcpExtractChatContext(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		repo := req.GetString("repo", ".")

		engine, active, err := newEngine(ctx, deps, repo)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to locate stores: %v", err)), nil
		}
		ids := req.GetStringSlice("session_ids", nil)
		if len(ids) == 0 {
			ids = active
		}

		window, commit, err := windowFromRequest(ctx, deps, req, repo)
		if err != nil {
			return mcpError(err.Error()), nil
		}

		tr, report := engine.Extract(ctx, ids, window)
		return mcpJSON(map[string]interface{}{
			"commit":   commit,
			"messages": tr.Pairs(),
			"report":   report,
		})
	}
}

func mcpListChatSessions(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		engine, active, err := newEngine(ctx, deps, req.GetString("repo", "."))
		if err != nil {
			return mcpError(fmt.Sprintf("failed to locate stores: %v", err)), nil
		}
		ids := req.GetStringSlice("session_ids", nil)
		if len(ids) == 0 {
			ids = active
		}

		res := engine.Resolve(ctx, ids)
		return mcpJSON(map[string]interface{}{
			"sessions":           res.Handles,
			"sessions_not_found": res.NotFound,
			"unavailable_stores": res.UnavailableStores,
		})
	}
}

// windowFromRequest builds the window from the commit, then applies the
// explicit since/until and padding arguments on top.
func windowFromRequest(ctx context.Context, deps MCPDeps, req mcp.CallToolRequest, repo string) (transcript.Window, string, error) {
	w := transcript.Window{
		LeadPadding:  deps.Config.Window.LeadPadding,
		TrailPadding: deps.Config.Window.TrailPadding,
	}

	var commit string
	if rev := req.GetString("commit", ""); rev != "" {
		info, err := deps.Commits(ctx, repo, rev)
		if err != nil {
			return w, "", fmt.Errorf("failed to read commit %s: %w", rev, err)
		}
		w.Start, w.End = info.PreviousCommit, info.CommittedAt
		commit = info.Hash
	}

	for _, bound := range []struct {
		key string
		dst *time.Time
	}{{"since", &w.Start}, {"until", &w.End}} {
		if v := req.GetString(bound.key, ""); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return w, "", fmt.Errorf("invalid %s %q: %w", bound.key, v, err)
			}
			*bound.dst = t
		}
	}

	for _, pad := range []struct {
		key string
		dst *time.Duration
	}{{"lead_padding", &w.LeadPadding}, {"trail_padding", &w.TrailPadding}} {
		if v := req.GetString(pad.key, ""); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil || d < 0 {
				return w, "", fmt.Errorf("invalid %s %q", pad.key, v)
			}
			*pad.dst = d
		}
	}
	return w, commit, nil
}

func mcpJSON(v interface{}) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcpText(string(b)), nil
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
