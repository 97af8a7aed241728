package server

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// Tool names as announced to clients.
const (
	toolSearchOracle        = "search_oracle"
	toolListBuckets         = "list_buckets"
	toolListTasks           = "list_tasks"
	toolGetTaskDetails      = "get_task_details"
	toolCreateTask          = "create_task"
	toolUpdateTask          = "update_task"
	toolCompleteTask        = "complete_task"
	toolMoveTask            = "move_task"
	toolUpdateChecklistItem = "update_checklist_item"
	toolAddChecklistItem    = "add_checklist_item"
)

// registerTools declares the tool surface and binds handlers.
func (ms *MCPServer) registerTools() {
	ms.server.AddTool(mcp.NewTool(toolSearchOracle,
		mcp.WithDescription("Search the Charter & Stone knowledge base on the oracle host."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search terms"),
		),
		mcp.WithString("category",
			mcp.Description("Category to search within"),
			mcp.Enum("signals", "docs", "prospects", "intelligence", "all"),
			mcp.DefaultString("all"),
		),
	), ms.handleSearchOracle)

	ms.server.AddTool(mcp.NewTool(toolListBuckets,
		mcp.WithDescription("List all available Planner buckets."),
	), ms.handleListBuckets)

	ms.server.AddTool(mcp.NewTool(toolListTasks,
		mcp.WithDescription("List Planner tasks, optionally filtered by bucket."),
		mcp.WithString("bucket_name",
			mcp.Description("Filter to a specific bucket (e.g. 'Strategy & Intel')"),
		),
		mcp.WithBoolean("include_completed",
			mcp.Description("Include completed tasks"),
			mcp.DefaultBool(false),
		),
	), ms.handleListTasks)

	ms.server.AddTool(mcp.NewTool(toolGetTaskDetails,
		mcp.WithDescription("Get full details of a Planner task including description and checklist."),
		mcp.WithString("task_id",
			mcp.Required(),
			mcp.Description("The Planner task ID"),
		),
	), ms.handleGetTaskDetails)

	ms.server.AddTool(mcp.NewTool(toolCreateTask,
		mcp.WithDescription("Create a new Planner task."),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Task title"),
		),
		mcp.WithString("bucket_name",
			mcp.Required(),
			mcp.Description("Target bucket name"),
		),
		mcp.WithString("description",
			mcp.Description("Task notes/description"),
		),
		mcp.WithString("priority",
			mcp.Enum("urgent", "important", "medium", "low"),
			mcp.DefaultString("medium"),
		),
		mcp.WithString("due_date",
			mcp.Description("Due date (ISO format: YYYY-MM-DD)"),
		),
	), ms.handleCreateTask)

	ms.server.AddTool(mcp.NewTool(toolUpdateTask,
		mcp.WithDescription("Update an existing Planner task."),
		mcp.WithString("task_id",
			mcp.Required(),
		),
		mcp.WithString("title",
			mcp.Description("New title"),
		),
		mcp.WithString("priority",
			mcp.Enum("urgent", "important", "medium", "low"),
		),
		mcp.WithString("due_date",
			mcp.Description("New due date (ISO format)"),
		),
		mcp.WithString("description",
			mcp.Description("New description/notes"),
		),
	), ms.handleUpdateTask)

	ms.server.AddTool(mcp.NewTool(toolCompleteTask,
		mcp.WithDescription("Mark a Planner task as complete."),
		mcp.WithString("task_id",
			mcp.Required(),
		),
	), ms.handleCompleteTask)

	ms.server.AddTool(mcp.NewTool(toolMoveTask,
		mcp.WithDescription("Move a task to a different bucket."),
		mcp.WithString("task_id",
			mcp.Required(),
		),
		mcp.WithString("bucket_name",
			mcp.Required(),
			mcp.Description("Target bucket name"),
		),
	), ms.handleMoveTask)

	ms.server.AddTool(mcp.NewTool(toolUpdateChecklistItem,
		mcp.WithDescription("Check or uncheck a checklist item on a Planner task."),
		mcp.WithString("task_id",
			mcp.Required(),
			mcp.Description("The Planner task ID"),
		),
		mcp.WithString("item_title",
			mcp.Required(),
			mcp.Description("The checklist item title (partial match supported)"),
		),
		mcp.WithBoolean("is_checked",
			mcp.Required(),
			mcp.Description("True to check, false to uncheck"),
		),
	), ms.handleUpdateChecklistItem)

	ms.server.AddTool(mcp.NewTool(toolAddChecklistItem,
		mcp.WithDescription("Add a new checklist item to a Planner task."),
		mcp.WithString("task_id",
			mcp.Required(),
			mcp.Description("The Planner task ID"),
		),
		mcp.WithString("item_title",
			mcp.Required(),
			mcp.Description("The checklist item text"),
		),
	), ms.handleAddChecklistItem)
}
