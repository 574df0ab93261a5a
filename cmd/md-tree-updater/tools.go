package main

import (
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/caffetsong/md-tree-updater/internal/logger"
	"github.com/caffetsong/md-tree-updater/internal/treesync"
	"github.com/caffetsong/md-tree-updater/internal/types"
)

var (
	treeService *treesync.Service
	serverLog   *logger.ConsoleLogger
)

type (
	// RenderInput takes no parameters.
	RenderInput struct{}

	// RenderOutput contains the rendered tree block.
	RenderOutput struct {
		Tree string `json:"tree"`
	}

	// SyncInput contains parameters for a synchronization run.
	SyncInput struct {
		DryRun bool `json:"dryRun,omitempty" jsonschema:"Report changes without writing any file (default: false)"`
	}

	// SyncOutput contains the result of a synchronization run.
	SyncOutput struct {
		Added         []string              `json:"added"`
		Archived      []types.ArchivedEntry `json:"archived"`
		Updated       bool                  `json:"updated"`
		RerunRequired bool                  `json:"rerunRequired,omitempty"`
	}

	// DescribeInput contains parameters for describing a path.
	DescribeInput struct {
		Path        string `json:"path" jsonschema:"Path relative to the documented root; directories may omit the trailing slash"`
		Description string `json:"description" jsonschema:"Description shown next to the path in the tree; empty clears it"`
	}

	// DescribeOutput contains the result of describing a path.
	DescribeOutput struct {
		Success bool   `json:"success"`
		Path    string `json:"path"`
	}

	// SearchInput contains parameters for searching descriptions.
	SearchInput struct {
		Query         string `json:"query" jsonschema:"Search query (plain text or regex if useRegex=true)"`
		UseRegex      bool   `json:"useRegex,omitempty" jsonschema:"Treat query as regex pattern (default: false)"`
		CaseSensitive bool   `json:"caseSensitive,omitempty" jsonschema:"Case sensitive search (default: false)"`
		Limit         int    `json:"limit,omitempty" jsonschema:"Maximum results (default: 15)"`
	}

	// SearchResultItem is one matching description entry.
	SearchResultItem struct {
		Path        string `json:"path"`
		Description string `json:"description"`
	}

	// SearchOutput contains search results.
	SearchOutput struct {
		Results []SearchResultItem `json:"results"`
		Total   int                `json:"total"`
	}
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run an MCP server over stdio",
		Long: `serve exposes the tree over the Model Context Protocol so an MCP-compatible
AI harness can render the tree, run a sync, describe paths and search
descriptions. Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: runServer,
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, log, missing, err := loadConfig(cmd, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if missing {
		log.Debugf("No config file at %s, using defaults", configFile)
	}

	serverLog = log
	treeService, err = newService(cfg, log)
	if err != nil {
		return err
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "md-tree-updater",
		Version: version,
	}, nil)

	registerTools(server)

	if err := server.Run(cmd.Context(), &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("error running server: %w", err)
	}

	return nil
}

func registerTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "render_tree",
		Description: "Render the annotated directory tree as a fenced code block. Writes nothing.",
	}, handleRenderTree)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "sync_tree",
		Description: "Synchronize the description file with the filesystem and rewrite the tree between the markers of the target document. Use dryRun=true to only report changes.",
	}, handleSyncTree)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "describe_path",
		Description: "Set the description of a file or directory that is currently in the tree. Run sync_tree afterwards to update the document.",
	}, handleDescribePath)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_descriptions",
		Description: "Search description entries by path or description text. Supports regex and case-insensitive search. Results are sorted by path.",
	}, handleSearchDescriptions)
}
