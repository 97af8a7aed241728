package graph

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Resolver translates display names to stable Planner identifiers. The
// enumeration backing each lookup is fetched once and cached for the
// process lifetime; containers added externally after that are not seen
// until restart. That staleness is accepted, not a bug.
type Resolver struct {
	client *Client

	// Explicit plan id wins over name lookup when configured.
	planID   string
	planName string

	mu      sync.Mutex
	plan    string            // resolved plan id
	buckets map[string]string // bucket name -> id
}

// NewResolver creates a resolver. planID may be empty, in which case the
// plan is found by planName among the caller's plans, falling back to the
// first plan enumerated.
func NewResolver(client *Client, planID, planName string) *Resolver {
	return &Resolver{
		client:   client,
		planID:   planID,
		planName: planName,
	}
}

// PlanID resolves the working plan id.
func (r *Resolver) PlanID(ctx context.Context) (string, error) {
	if r.planID != "" {
		return r.planID, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.plan != "" {
		return r.plan, nil
	}

	var plans listEnvelope[Plan]
	if err := r.client.Get(ctx, "/me/planner/plans", &plans); err != nil {
		return "", err
	}

	for _, plan := range plans.Value {
		if plan.Title == r.planName {
			r.plan = plan.ID
			return r.plan, nil
		}
	}

	// Fall back to the first plan
	if len(plans.Value) > 0 {
		r.plan = plans.Value[0].ID
		return r.plan, nil
	}

	return "", NewNotFoundError("no Planner plans found", nil)
}

// Buckets returns the bucket name -> id mapping for the working plan,
// enumerating it on first call.
func (r *Resolver) Buckets(ctx context.Context) (map[string]string, error) {
	planID, err := r.PlanID(ctx)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.buckets != nil {
		return r.buckets, nil
	}

	var buckets listEnvelope[Bucket]
	if err := r.client.Get(ctx, fmt.Sprintf("/planner/plans/%s/buckets", planID), &buckets); err != nil {
		return nil, err
	}

	mapping := make(map[string]string, len(buckets.Value))
	for _, bucket := range buckets.Value {
		mapping[bucket.Name] = bucket.ID
	}
	r.buckets = mapping
	return r.buckets, nil
}

// BucketID resolves a bucket display name to its id. Matching tiers, first
// hit wins: exact, case-insensitive exact, case-insensitive substring
// (name contained in a candidate).
func (r *Resolver) BucketID(ctx context.Context, name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", NewValidationError("bucket name is required")
	}

	buckets, err := r.Buckets(ctx)
	if err != nil {
		return "", err
	}

	if id, ok := buckets[name]; ok {
		return id, nil
	}

	lower := strings.ToLower(name)
	for candidate, id := range buckets {
		if strings.ToLower(candidate) == lower {
			return id, nil
		}
	}

	for candidate, id := range buckets {
		if strings.Contains(strings.ToLower(candidate), lower) {
			return id, nil
		}
	}

	return "", NewNotFoundError(
		fmt.Sprintf("bucket not found: %s", name),
		sortedNames(buckets),
	)
}

// BucketName back-resolves a bucket id to its display name, for rendering.
// Returns "Unknown" when the id is not in the cached enumeration.
func (r *Resolver) BucketName(ctx context.Context, id string) (string, error) {
	buckets, err := r.Buckets(ctx)
	if err != nil {
		return "", err
	}
	for name, bucketID := range buckets {
		if bucketID == id {
			return name, nil
		}
	}
	return "Unknown", nil
}

func sortedNames(buckets map[string]string) []string {
	names := make([]string, 0, len(buckets))
	for name := range buckets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
