package server

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// oracleResultLimit caps how much grep output goes back to the client.
const oracleResultLimit = 4000

// handleSearchOracle greps the knowledge base on the oracle host.
func (ms *MCPServer) handleSearchOracle(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	category := request.GetString("category", "all")

	path := ms.kbPath
	if category != "all" {
		path = ms.kbPath + "/" + category
	}

	// Single quotes in the query would break out of the shell quoting.
	safeQuery := strings.ReplaceAll(query, "'", `'\''`)
	command := fmt.Sprintf("grep -r -i -n -C 2 --color=never '%s' %s 2>/dev/null || true", safeQuery, path)

	result, err := ms.oracle.Execute(ctx, command, 0)
	if err != nil {
		return errorResult(err), nil
	}

	if strings.TrimSpace(result.Stdout) == "" {
		return mcp.NewToolResultText(fmt.Sprintf("No results found for '%s' in %s.", query, category)), nil
	}

	output := result.Stdout
	if len(output) > oracleResultLimit {
		output = output[:oracleResultLimit] +
			fmt.Sprintf("\n\n[... truncated, %d total chars]", len(result.Stdout))
	}

	return mcp.NewToolResultText(fmt.Sprintf("Oracle results for '%s':\n\n%s", query, output)), nil
}
