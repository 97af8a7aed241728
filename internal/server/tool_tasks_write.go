package server

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/charterstone/planner-mcp/internal/graph"
)

// handleCreateTask creates a task, setting the description through the
// details resource when provided.
func (ms *MCPServer) handleCreateTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := request.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	bucketName, err := request.RequireString("bucket_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	description := request.GetString("description", "")
	priority := request.GetString("priority", "medium")
	dueDate := request.GetString("due_date", "")

	planID, err := ms.resolver.PlanID(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	bucketID, err := ms.resolver.BucketID(ctx, bucketName)
	if err != nil {
		return errorResult(err), nil
	}

	newTask := graph.NewTask{
		PlanID:   planID,
		BucketID: bucketID,
		Title:    title,
		Priority: graph.PriorityToInt(priority),
	}
	if dueDate != "" {
		newTask.DueDateTime = dueDate + "T00:00:00Z"
	}

	created, err := ms.planner.CreateTask(ctx, newTask)
	if err != nil {
		return errorResult(err), nil
	}

	if description != "" {
		_, err = ms.planner.MutateTaskDetails(ctx, created.ID, func(d *graph.TaskDetails) error {
			d.Description = description
			return nil
		})
		if err != nil {
			return errorResult(err), nil
		}
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Task created:\n   Title: %s\n   Bucket: %s\n   Priority: %s\n   ID: %s",
		title, bucketName, priority, created.ID,
	)), nil
}

// handleUpdateTask patches the fields present in the request; the
// description lives on the details resource and goes through its own
// guard.
func (ms *MCPServer) handleUpdateTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID, err := request.RequireString("task_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	args := request.GetArguments()

	_, hasTitle := args["title"]
	_, hasPriority := args["priority"]
	_, hasDueDate := args["due_date"]
	_, hasDescription := args["description"]

	if hasTitle || hasPriority || hasDueDate {
		_, err = ms.planner.MutateTask(ctx, taskID, func(task *graph.Task) error {
			if hasTitle {
				task.Title = request.GetString("title", task.Title)
			}
			if hasPriority {
				task.Priority = graph.PriorityToInt(request.GetString("priority", ""))
			}
			if hasDueDate {
				task.DueDateTime = request.GetString("due_date", "") + "T00:00:00Z"
			}
			return nil
		})
		if err != nil {
			return errorResult(err), nil
		}
	}

	if hasDescription {
		_, err = ms.planner.MutateTaskDetails(ctx, taskID, func(d *graph.TaskDetails) error {
			d.Description = request.GetString("description", "")
			return nil
		})
		if err != nil {
			return errorResult(err), nil
		}
	}

	return mcp.NewToolResultText(fmt.Sprintf("Task %s updated.", taskID)), nil
}

// handleCompleteTask sets progress to 100%.
func (ms *MCPServer) handleCompleteTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID, err := request.RequireString("task_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	updated, err := ms.planner.MutateTask(ctx, taskID, func(task *graph.Task) error {
		task.PercentComplete = 100
		return nil
	})
	if err != nil {
		return errorResult(err), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Task marked complete: %s", updated.Title)), nil
}

// handleMoveTask reassigns the task's bucket.
func (ms *MCPServer) handleMoveTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID, err := request.RequireString("task_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	bucketName, err := request.RequireString("bucket_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	bucketID, err := ms.resolver.BucketID(ctx, bucketName)
	if err != nil {
		return errorResult(err), nil
	}

	updated, err := ms.planner.MutateTask(ctx, taskID, func(task *graph.Task) error {
		task.BucketID = bucketID
		return nil
	})
	if err != nil {
		return errorResult(err), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Task moved to '%s': %s", bucketName, updated.Title)), nil
}
