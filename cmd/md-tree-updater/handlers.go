package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/caffetsong/md-tree-updater/internal/search"
	"github.com/caffetsong/md-tree-updater/internal/treesync"
	"github.com/caffetsong/md-tree-updater/internal/types"
)

func handleRenderTree(ctx context.Context, req *mcp.CallToolRequest, input RenderInput) (*mcp.CallToolResult, RenderOutput, error) {
	tree, err := treeService.Render(ctx)
	if err != nil {
		return toolError("render_tree", err), RenderOutput{}, err
	}
	return nil, RenderOutput{Tree: tree}, nil
}

func handleSyncTree(ctx context.Context, req *mcp.CallToolRequest, input SyncInput) (*mcp.CallToolResult, SyncOutput, error) {
	result, err := treeService.Run(ctx, treesync.Options{DryRun: input.DryRun})
	if err != nil {
		return toolError("sync_tree", err), SyncOutput{}, err
	}

	out := SyncOutput{
		Added:         []string{},
		Archived:      []types.ArchivedEntry{},
		Updated:       result.Updated,
		RerunRequired: result.RerunRequired,
	}
	out.Added = append(out.Added, result.Added...)
	out.Archived = append(out.Archived, result.Archived...)

	return nil, out, nil
}

func handleDescribePath(ctx context.Context, req *mcp.CallToolRequest, input DescribeInput) (*mcp.CallToolResult, DescribeOutput, error) {
	path := strings.TrimSpace(input.Path)
	if path == "" {
		path = "./"
	}

	key, err := treeService.Describe(ctx, types.DescribeParams{
		Path:        path,
		Description: input.Description,
	})
	if err != nil {
		return toolError("describe_path", err), DescribeOutput{Success: false, Path: path}, err
	}

	return nil, DescribeOutput{Success: true, Path: key}, nil
}

func handleSearchDescriptions(ctx context.Context, req *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	query := strings.TrimSpace(input.Query)
	if query == "" {
		err := fmt.Errorf("query cannot be empty")
		return toolError("search_descriptions", err), SearchOutput{}, err
	}

	mapping, err := treeService.Descriptions()
	if err != nil {
		return toolError("search_descriptions", err), SearchOutput{}, err
	}

	results, err := search.New(mapping).Search(types.SearchParams{
		Query:         query,
		UseRegex:      input.UseRegex,
		CaseSensitive: input.CaseSensitive,
		Limit:         input.Limit,
	})
	if err != nil {
		return toolError("search_descriptions", err), SearchOutput{}, err
	}

	items := []SearchResultItem{}
	for _, r := range results {
		items = append(items, SearchResultItem{
			Path:        r.Path,
			Description: r.Description,
		})
	}

	return nil, SearchOutput{Results: items, Total: len(items)}, nil
}

// toolError logs a failed tool call and marks the result as an error.
func toolError(tool string, err error) *mcp.CallToolResult {
	if serverLog != nil {
		serverLog.Errorf("%s: %v", tool, err)
	}
	return &mcp.CallToolResult{IsError: true}
}
