package graph

import (
	"context"
	"fmt"
	"net/http"

	"github.com/charterstone/planner-mcp/internal/retry"
)

// Planner exposes typed operations over Planner tasks and their details.
// All writes go through the conditional-update protocol in mutate.go.
type Planner struct {
	client    *Client
	conflicts retry.Policy
}

// NewPlanner creates a Planner service using the conflict retry policy.
func NewPlanner(client *Client) *Planner {
	return &Planner{
		client:    client,
		conflicts: retry.ConflictPolicy(),
	}
}

// NewTask describes a task to create.
type NewTask struct {
	PlanID      string `json:"planId"`
	BucketID    string `json:"bucketId"`
	Title       string `json:"title"`
	Priority    int    `json:"priority"`
	DueDateTime string `json:"dueDateTime,omitempty"`
}

// ListTasks returns every task in the plan. Zero tasks is a successful
// empty result.
func (p *Planner) ListTasks(ctx context.Context, planID string) ([]Task, error) {
	var tasks listEnvelope[Task]
	if err := p.client.Get(ctx, fmt.Sprintf("/planner/plans/%s/tasks", planID), &tasks); err != nil {
		return nil, err
	}
	return tasks.Value, nil
}

// GetTask fetches a single task with its current version token.
func (p *Planner) GetTask(ctx context.Context, taskID string) (*Task, error) {
	if taskID == "" {
		return nil, NewValidationError("task id is required")
	}
	var task Task
	if err := p.client.Get(ctx, "/planner/tasks/"+taskID, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// GetTaskDetails fetches the details resource (description + checklist)
// with its current version token.
func (p *Planner) GetTaskDetails(ctx context.Context, taskID string) (*TaskDetails, error) {
	if taskID == "" {
		return nil, NewValidationError("task id is required")
	}
	var details TaskDetails
	if err := p.client.Get(ctx, "/planner/tasks/"+taskID+"/details", &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// CreateTask creates a task and returns the service's representation.
func (p *Planner) CreateTask(ctx context.Context, task NewTask) (*Task, error) {
	if task.Title == "" {
		return nil, NewValidationError("task title is required")
	}
	if task.PlanID == "" || task.BucketID == "" {
		return nil, NewValidationError("plan id and bucket id are required")
	}

	payload, err := p.client.Do(ctx, http.MethodPost, "/planner/tasks", task)
	if err != nil {
		return nil, err
	}
	var created Task
	if err := decode(payload, &created); err != nil {
		return nil, err
	}
	return &created, nil
}
