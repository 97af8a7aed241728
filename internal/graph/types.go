package graph

import (
	"encoding/json"
	"strings"
)

// checklistItemODataType is the discriminator the Planner schema requires
// on every checklist entry written back to the service.
const checklistItemODataType = "#microsoft.graph.plannerChecklistItem"

// Plan is a Planner plan.
type Plan struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Bucket is a named task container inside a plan.
type Bucket struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	PlanID string `json:"planId"`
}

// Task is a Planner task. ETag is the opaque version token used for
// conditional updates; it is compared for equality only, never parsed.
type Task struct {
	ID              string `json:"id"`
	ETag            string `json:"@odata.etag"`
	Title           string `json:"title"`
	PlanID          string `json:"planId"`
	BucketID        string `json:"bucketId"`
	Priority        int    `json:"priority"`
	PercentComplete int    `json:"percentComplete"`
	DueDateTime     string `json:"dueDateTime,omitempty"`
}

// TaskDetails carries the description and checklist of a task. The
// checklist is keyed by an opaque item id.
type TaskDetails struct {
	ID          string                   `json:"id"`
	ETag        string                   `json:"@odata.etag"`
	Description string                   `json:"description"`
	PreviewType string                   `json:"previewType,omitempty"`
	Checklist   map[string]ChecklistItem `json:"checklist"`
}

// ChecklistItem is a single checklist entry. The remote schema's type
// discriminator is added and stripped at the JSON boundary so the rest
// of the code never sees it.
type ChecklistItem struct {
	Title     string `json:"title"`
	IsChecked bool   `json:"isChecked"`
}

type checklistItemWire struct {
	ODataType string `json:"@odata.type"`
	Title     string `json:"title"`
	IsChecked bool   `json:"isChecked"`
}

// MarshalJSON writes the wire form with the schema discriminator.
func (c ChecklistItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(checklistItemWire{
		ODataType: checklistItemODataType,
		Title:     c.Title,
		IsChecked: c.IsChecked,
	})
}

// UnmarshalJSON accepts the wire form and drops the discriminator along
// with any read-only fields the service includes.
func (c *ChecklistItem) UnmarshalJSON(data []byte) error {
	var wire checklistItemWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	c.Title = wire.Title
	c.IsChecked = wire.IsChecked
	return nil
}

// CloneChecklist copies every entry of a checklist. Planner replaces the
// whole collection on update, so mutations must start from a full copy;
// an omitted entry would be deleted server-side.
func CloneChecklist(src map[string]ChecklistItem) map[string]ChecklistItem {
	dst := make(map[string]ChecklistItem, len(src))
	for id, item := range src {
		dst[id] = item
	}
	return dst
}

// Priority labels used by the tool surface.
const (
	PriorityUrgent    = "urgent"
	PriorityImportant = "important"
	PriorityMedium    = "medium"
	PriorityLow       = "low"
)

// PriorityToInt converts a priority label to the Planner integer scale.
// Unknown labels map to medium.
func PriorityToInt(priority string) int {
	switch strings.ToLower(priority) {
	case PriorityUrgent:
		return 1
	case PriorityImportant:
		return 3
	case PriorityLow:
		return 9
	default:
		return 5
	}
}

// IntToPriority converts a Planner priority integer to a display label.
func IntToPriority(value int) string {
	switch {
	case value <= 1:
		return "Urgent"
	case value <= 3:
		return "Important"
	case value <= 5:
		return "Medium"
	default:
		return "Low"
	}
}

type listEnvelope[T any] struct {
	Value []T `json:"value"`
}
