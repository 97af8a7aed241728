package graph

import (
	"context"
	"net/http"
	"strings"
	"testing"
)

func bucketFixtureDoer(t *testing.T) *fakeDoer {
	t.Helper()
	return &fakeDoer{handler: func(req *http.Request) (*http.Response, error) {
		switch {
		case strings.HasSuffix(req.URL.Path, "/buckets"):
			return jsonResponse(200, `{"value":[
				{"id":"b-strategy","name":"Strategy & Intel","planId":"p1"},
				{"id":"b-inbox","name":"Watchdog Inbox","planId":"p1"},
				{"id":"b-ops","name":"strategy","planId":"p1"}
			]}`), nil
		case strings.HasSuffix(req.URL.Path, "/me/planner/plans"):
			return jsonResponse(200, `{"value":[
				{"id":"p1","title":"Launch Operations"},
				{"id":"p2","title":"Secondary"}
			]}`), nil
		default:
			t.Fatalf("unexpected request: %s %s", req.Method, req.URL.Path)
			return nil, nil
		}
	}}
}

func TestBucketIDExactMatchWinsOverLooserTiers(t *testing.T) {
	resolver := NewResolver(newTestClient(bucketFixtureDoer(t)), "p1", "")

	// "strategy" matches bucket b-ops exactly, even though "Strategy & Intel"
	// would match case-insensitively by substring.
	id, err := resolver.BucketID(context.Background(), "strategy")
	if err != nil {
		t.Fatalf("BucketID returned error: %v", err)
	}
	if id != "b-ops" {
		t.Errorf("BucketID = %q, want exact-match winner b-ops", id)
	}
}

func TestBucketIDCaseInsensitiveTier(t *testing.T) {
	resolver := NewResolver(newTestClient(bucketFixtureDoer(t)), "p1", "")

	id, err := resolver.BucketID(context.Background(), "watchdog inbox")
	if err != nil {
		t.Fatalf("BucketID returned error: %v", err)
	}
	if id != "b-inbox" {
		t.Errorf("BucketID = %q, want b-inbox", id)
	}
}

func TestBucketIDSubstringTier(t *testing.T) {
	doer := &fakeDoer{handler: func(req *http.Request) (*http.Response, error) {
		return jsonResponse(200, `{"value":[
			{"id":"b-strategy","name":"Strategy & Intel","planId":"p1"},
			{"id":"b-inbox","name":"Watchdog Inbox","planId":"p1"}
		]}`), nil
	}}
	resolver := NewResolver(newTestClient(doer), "p1", "")

	// No exact or case-insensitive exact match exists; the substring tier
	// must find "Strategy & Intel".
	id, err := resolver.BucketID(context.Background(), "strategy")
	if err != nil {
		t.Fatalf("BucketID returned error: %v", err)
	}
	if id != "b-strategy" {
		t.Errorf("BucketID = %q, want b-strategy via substring tier", id)
	}
}

func TestBucketIDMissListsAvailableNames(t *testing.T) {
	resolver := NewResolver(newTestClient(bucketFixtureDoer(t)), "p1", "")

	_, err := resolver.BucketID(context.Background(), "nonexistent")
	if !IsNotFound(err) {
		t.Fatalf("expected not-found error, got %v", err)
	}

	names := AvailableNames(err)
	if len(names) != 3 {
		t.Fatalf("expected 3 available names, got %v", names)
	}
	if names[0] != "Strategy & Intel" {
		t.Errorf("expected sorted names, got %v", names)
	}
}

func TestBucketEnumerationIsCachedForProcessLifetime(t *testing.T) {
	doer := bucketFixtureDoer(t)
	resolver := NewResolver(newTestClient(doer), "p1", "")

	if _, err := resolver.BucketID(context.Background(), "Watchdog Inbox"); err != nil {
		t.Fatalf("first lookup failed: %v", err)
	}
	if _, err := resolver.BucketID(context.Background(), "Strategy & Intel"); err != nil {
		t.Fatalf("second lookup failed: %v", err)
	}

	if doer.calls != 1 {
		t.Errorf("expected a single enumeration call, got %d", doer.calls)
	}
}

func TestPlanIDPrefersConfiguredID(t *testing.T) {
	doer := &fakeDoer{handler: func(req *http.Request) (*http.Response, error) {
		t.Fatal("no request expected when plan id is configured")
		return nil, nil
	}}
	resolver := NewResolver(newTestClient(doer), "p-configured", "ignored")

	id, err := resolver.PlanID(context.Background())
	if err != nil {
		t.Fatalf("PlanID returned error: %v", err)
	}
	if id != "p-configured" {
		t.Errorf("PlanID = %q", id)
	}
}

func TestPlanIDFindsConfiguredName(t *testing.T) {
	resolver := NewResolver(newTestClient(bucketFixtureDoer(t)), "", "Secondary")

	id, err := resolver.PlanID(context.Background())
	if err != nil {
		t.Fatalf("PlanID returned error: %v", err)
	}
	if id != "p2" {
		t.Errorf("PlanID = %q, want p2", id)
	}
}

func TestPlanIDFallsBackToFirstPlan(t *testing.T) {
	resolver := NewResolver(newTestClient(bucketFixtureDoer(t)), "", "No Such Plan")

	id, err := resolver.PlanID(context.Background())
	if err != nil {
		t.Fatalf("PlanID returned error: %v", err)
	}
	if id != "p1" {
		t.Errorf("PlanID = %q, want first plan p1", id)
	}
}

func TestPlanIDNoPlansIsNotFound(t *testing.T) {
	doer := &fakeDoer{handler: func(req *http.Request) (*http.Response, error) {
		return jsonResponse(200, `{"value":[]}`), nil
	}}
	resolver := NewResolver(newTestClient(doer), "", "Anything")

	_, err := resolver.PlanID(context.Background())
	if !IsNotFound(err) {
		t.Errorf("expected not-found, got %v", err)
	}
}

func TestBucketNameBackResolution(t *testing.T) {
	resolver := NewResolver(newTestClient(bucketFixtureDoer(t)), "p1", "")

	name, err := resolver.BucketName(context.Background(), "b-inbox")
	if err != nil {
		t.Fatalf("BucketName returned error: %v", err)
	}
	if name != "Watchdog Inbox" {
		t.Errorf("BucketName = %q", name)
	}

	unknown, err := resolver.BucketName(context.Background(), "b-missing")
	if err != nil {
		t.Fatalf("BucketName returned error: %v", err)
	}
	if unknown != "Unknown" {
		t.Errorf("BucketName for missing id = %q, want Unknown", unknown)
	}
}
