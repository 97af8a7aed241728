package server

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/charterstone/planner-mcp/internal/graph"
)

// handleUpdateChecklistItem checks or unchecks a checklist item found by
// partial title match, preserving every other entry.
func (ms *MCPServer) handleUpdateChecklistItem(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID, err := request.RequireString("task_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	itemTitle, err := request.RequireString("item_title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	isChecked, err := request.RequireBool("is_checked")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var foundTitle string
	_, err = ms.planner.MutateTaskDetails(ctx, taskID, func(d *graph.TaskDetails) error {
		id, item, ok := findChecklistItem(d.Checklist, itemTitle)
		if !ok {
			return graph.NewNotFoundError(
				fmt.Sprintf("checklist item not found: %s", itemTitle),
				checklistTitles(d.Checklist),
			)
		}
		foundTitle = item.Title
		item.IsChecked = isChecked
		d.Checklist[id] = item
		return nil
	})
	if err != nil {
		return errorResult(err), nil
	}

	state := "checked"
	if !isChecked {
		state = "unchecked"
	}
	return mcp.NewToolResultText(fmt.Sprintf("Checklist item %s: %s", state, foundTitle)), nil
}

// handleAddChecklistItem appends a new unchecked item with a fresh id.
func (ms *MCPServer) handleAddChecklistItem(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID, err := request.RequireString("task_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	itemTitle, err := request.RequireString("item_title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	itemID := uuid.NewString()[:8]
	_, err = ms.planner.MutateTaskDetails(ctx, taskID, func(d *graph.TaskDetails) error {
		if d.Checklist == nil {
			d.Checklist = map[string]graph.ChecklistItem{}
		}
		d.Checklist[itemID] = graph.ChecklistItem{Title: itemTitle}
		return nil
	})
	if err != nil {
		return errorResult(err), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Checklist item added: %s", itemTitle)), nil
}

// findChecklistItem matches by case-insensitive substring, first hit wins.
func findChecklistItem(checklist map[string]graph.ChecklistItem, title string) (string, graph.ChecklistItem, bool) {
	lower := strings.ToLower(title)
	for _, id := range sortedChecklistIDs(checklist) {
		item := checklist[id]
		if strings.Contains(strings.ToLower(item.Title), lower) {
			return id, item, true
		}
	}
	return "", graph.ChecklistItem{}, false
}

func checklistTitles(checklist map[string]graph.ChecklistItem) []string {
	titles := make([]string, 0, len(checklist))
	for _, id := range sortedChecklistIDs(checklist) {
		titles = append(titles, checklist[id].Title)
	}
	return titles
}
