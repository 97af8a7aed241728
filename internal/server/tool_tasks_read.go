package server

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/charterstone/planner-mcp/internal/graph"
)

// descriptionLimit caps the rendered task description.
const descriptionLimit = 2000

// handleListBuckets renders the bucket mapping for the working plan.
func (ms *MCPServer) handleListBuckets(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	buckets, err := ms.resolver.Buckets(ctx)
	if err != nil {
		return errorResult(err), nil
	}

	names := make([]string, 0, len(buckets))
	for name := range buckets {
		names = append(names, name)
	}
	sort.Strings(names)

	return mcp.NewToolResultText("Available buckets:\n\n" + bulletList(names)), nil
}

// handleListTasks lists plan tasks with optional bucket and completion
// filters.
func (ms *MCPServer) handleListTasks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	bucketName := request.GetString("bucket_name", "")
	includeCompleted := request.GetBool("include_completed", false)

	planID, err := ms.resolver.PlanID(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	tasks, err := ms.planner.ListTasks(ctx, planID)
	if err != nil {
		return errorResult(err), nil
	}

	if bucketName != "" {
		bucketID, err := ms.resolver.BucketID(ctx, bucketName)
		if err != nil {
			return errorResult(err), nil
		}
		tasks = filterTasks(tasks, func(t graph.Task) bool { return t.BucketID == bucketID })
	}
	if !includeCompleted {
		tasks = filterTasks(tasks, func(t graph.Task) bool { return t.PercentComplete < 100 })
	}

	if len(tasks) == 0 {
		if bucketName != "" {
			return mcp.NewToolResultText(fmt.Sprintf("No tasks found in '%s'.", bucketName)), nil
		}
		return mcp.NewToolResultText("No tasks found."), nil
	}

	var b strings.Builder
	if bucketName != "" {
		fmt.Fprintf(&b, "Tasks in '%s' (%d items):\n\n", bucketName, len(tasks))
	} else {
		fmt.Fprintf(&b, "All tasks (%d items):\n\n", len(tasks))
	}
	for _, task := range tasks {
		status := "[ ]"
		if task.PercentComplete >= 100 {
			status = "[x]"
		}
		fmt.Fprintf(&b, "%s [%s] %s\n", status, graph.IntToPriority(task.Priority), task.Title)
		fmt.Fprintf(&b, "    ID: %s | Due: %s\n\n", task.ID, formatDue(task.DueDateTime))
	}

	return mcp.NewToolResultText(strings.TrimRight(b.String(), "\n")), nil
}

// handleGetTaskDetails renders a task with its description and checklist.
func (ms *MCPServer) handleGetTaskDetails(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID, err := request.RequireString("task_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	task, err := ms.planner.GetTask(ctx, taskID)
	if err != nil {
		return errorResult(err), nil
	}
	details, err := ms.planner.GetTaskDetails(ctx, taskID)
	if err != nil {
		return errorResult(err), nil
	}
	bucketName, err := ms.resolver.BucketName(ctx, task.BucketID)
	if err != nil {
		return errorResult(err), nil
	}

	description := details.Description
	if description == "" {
		description = "(No description)"
	}
	if len(description) > descriptionLimit {
		description = description[:descriptionLimit]
	}

	var b strings.Builder
	b.WriteString("Task details\n")
	b.WriteString(strings.Repeat("=", 50) + "\n")
	fmt.Fprintf(&b, "Title: %s\n", task.Title)
	fmt.Fprintf(&b, "ID: %s\n", taskID)
	fmt.Fprintf(&b, "Bucket: %s\n", bucketName)
	fmt.Fprintf(&b, "Priority: %s\n", graph.IntToPriority(task.Priority))
	fmt.Fprintf(&b, "Progress: %d%%\n", task.PercentComplete)
	fmt.Fprintf(&b, "Due: %s\n", formatDue(task.DueDateTime))
	fmt.Fprintf(&b, "\nDescription:\n%s\n", description)

	if len(details.Checklist) > 0 {
		b.WriteString("\nChecklist:\n")
		for _, id := range sortedChecklistIDs(details.Checklist) {
			item := details.Checklist[id]
			check := "[ ]"
			if item.IsChecked {
				check = "[x]"
			}
			fmt.Fprintf(&b, "  %s %s\n", check, item.Title)
		}
	}

	return mcp.NewToolResultText(strings.TrimRight(b.String(), "\n")), nil
}

func filterTasks(tasks []graph.Task, keep func(graph.Task) bool) []graph.Task {
	filtered := tasks[:0:0]
	for _, task := range tasks {
		if keep(task) {
			filtered = append(filtered, task)
		}
	}
	return filtered
}

func formatDue(due string) string {
	if due == "" {
		return "No due date"
	}
	if len(due) > 10 {
		return due[:10]
	}
	return due
}

func sortedChecklistIDs(checklist map[string]graph.ChecklistItem) []string {
	ids := make([]string, 0, len(checklist))
	for id := range checklist {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
