package graph

import (
	"context"
	"fmt"
	"maps"
	"net/http"
)

// The mutate methods implement optimistic concurrency against Planner's
// version tokens: fetch the resource, apply the caller's transform to a
// copy, submit a conditional PATCH with If-Match, and on a version
// conflict refetch and retry from scratch. Planner has no field-level
// patch for nested collections, so a stale write would silently discard
// concurrent edits; the precondition turns that race into a retriable
// conflict instead.

// MutateTask applies transform to the current task state and submits a
// conditional update. transform must only change writable fields; the
// PATCH carries exactly the fields that differ from the fetched state.
func (p *Planner) MutateTask(ctx context.Context, taskID string, transform func(*Task) error) (*Task, error) {
	if taskID == "" {
		return nil, NewValidationError("task id is required")
	}

	var updated *Task
	err := p.conflicts.Run(ctx, func(attempt int) error {
		current, err := p.GetTask(ctx, taskID)
		if err != nil {
			return err
		}

		desired := *current
		if err := transform(&desired); err != nil {
			return err
		}

		patch := taskPatch(current, &desired)
		if len(patch) == 0 {
			updated = current
			return nil
		}

		_, err = p.client.DoWithHeaders(ctx, http.MethodPatch, "/planner/tasks/"+taskID, patch,
			map[string]string{"If-Match": current.ETag})
		if err != nil {
			return err
		}

		// The update endpoint answers 204; return the locally computed state.
		updated = &desired
		return nil
	}, IsConflict)
	if err != nil {
		return nil, wrapExhaustedConflict(err, taskID, p.conflicts.MaxAttempts)
	}
	return updated, nil
}

// MutateTaskDetails applies transform to the current details state and
// submits a conditional update. The checklist round-trips in full: the
// transform receives a deep copy of every existing entry, and the PATCH
// carries the whole collection whenever any entry changed.
func (p *Planner) MutateTaskDetails(ctx context.Context, taskID string, transform func(*TaskDetails) error) (*TaskDetails, error) {
	if taskID == "" {
		return nil, NewValidationError("task id is required")
	}

	var updated *TaskDetails
	err := p.conflicts.Run(ctx, func(attempt int) error {
		current, err := p.GetTaskDetails(ctx, taskID)
		if err != nil {
			return err
		}

		desired := *current
		desired.Checklist = CloneChecklist(current.Checklist)
		if err := transform(&desired); err != nil {
			return err
		}

		patch := detailsPatch(current, &desired)
		if len(patch) == 0 {
			updated = current
			return nil
		}

		_, err = p.client.DoWithHeaders(ctx, http.MethodPatch, "/planner/tasks/"+taskID+"/details", patch,
			map[string]string{"If-Match": current.ETag})
		if err != nil {
			return err
		}

		updated = &desired
		return nil
	}, IsConflict)
	if err != nil {
		return nil, wrapExhaustedConflict(err, taskID, p.conflicts.MaxAttempts)
	}
	return updated, nil
}

func wrapExhaustedConflict(err error, taskID string, attempts int) error {
	if !IsConflict(err) {
		return err
	}
	return NewConflictError(
		fmt.Sprintf("task %s: version conflict persisted after %d attempts", taskID, attempts),
		err,
	)
}

func taskPatch(current, desired *Task) map[string]any {
	patch := map[string]any{}
	if desired.Title != current.Title {
		patch["title"] = desired.Title
	}
	if desired.BucketID != current.BucketID {
		patch["bucketId"] = desired.BucketID
	}
	if desired.Priority != current.Priority {
		patch["priority"] = desired.Priority
	}
	if desired.PercentComplete != current.PercentComplete {
		patch["percentComplete"] = desired.PercentComplete
	}
	if desired.DueDateTime != current.DueDateTime {
		patch["dueDateTime"] = desired.DueDateTime
	}
	return patch
}

func detailsPatch(current, desired *TaskDetails) map[string]any {
	patch := map[string]any{}
	if desired.Description != current.Description {
		patch["description"] = desired.Description
		patch["previewType"] = "description"
	}
	if !maps.Equal(desired.Checklist, current.Checklist) {
		patch["checklist"] = desired.Checklist
	}
	return patch
}
