package watchdog

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mmcdole/gofeed"

	"github.com/charterstone/planner-mcp/internal/graph"
)

type fakeParser struct {
	feeds map[string]*gofeed.Feed
	errs  map[string]error
}

func (f *fakeParser) ParseURLWithContext(url string, ctx context.Context) (*gofeed.Feed, error) {
	if err := f.errs[url]; err != nil {
		return nil, err
	}
	return f.feeds[url], nil
}

type fakeTaskPlanner struct {
	created      []graph.NewTask
	descriptions map[string]string
	createErr    error
}

func (f *fakeTaskPlanner) CreateTask(ctx context.Context, task graph.NewTask) (*graph.Task, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, task)
	return &graph.Task{ID: "task-" + task.Title, Title: task.Title}, nil
}

func (f *fakeTaskPlanner) MutateTaskDetails(ctx context.Context, taskID string, transform func(*graph.TaskDetails) error) (*graph.TaskDetails, error) {
	details := &graph.TaskDetails{ID: taskID}
	if err := transform(details); err != nil {
		return nil, err
	}
	if f.descriptions == nil {
		f.descriptions = map[string]string{}
	}
	f.descriptions[taskID] = details.Description
	return details, nil
}

type fakeInboxResolver struct{}

func (fakeInboxResolver) PlanID(ctx context.Context) (string, error) { return "plan-1", nil }

func (fakeInboxResolver) BucketID(ctx context.Context, name string) (string, error) {
	if name != "Watchdog Inbox" {
		return "", graph.NewNotFoundError("bucket not found: "+name, nil)
	}
	return "b-inbox", nil
}

func feedWith(items ...*gofeed.Item) *gofeed.Feed {
	return &gofeed.Feed{Items: items}
}

func newTestScanner(t *testing.T, parser *fakeParser, planner *fakeTaskPlanner, feeds ...string) (*Scanner, *History) {
	t.Helper()
	history, err := LoadHistory(filepath.Join(t.TempDir(), "history.json"))
	if err != nil {
		t.Fatal(err)
	}
	notifier := NewNotifier("", nil, nil)
	scanner := NewScanner(feeds, "Watchdog Inbox", parser, history, notifier, planner, fakeInboxResolver{}, nil)
	return scanner, history
}

func TestClassifyDistressBeatsOpportunity(t *testing.T) {
	// Both keyword lists match; distress wins because it is checked first.
	signal, ok := classify("President resigns amid strategic plan approved fallout", "https://x")
	if !ok {
		t.Fatal("expected a signal")
	}
	if signal.Type != SignalDistress || signal.Keyword != "resigns" {
		t.Errorf("signal = %+v", signal)
	}
	if signal.Priority != 1 {
		t.Errorf("Priority = %d, want 1", signal.Priority)
	}
}

func TestClassifyTable(t *testing.T) {
	tests := []struct {
		title    string
		wantType SignalType
		wantHit  bool
	}{
		{"University faces budget cuts after enrollment drop", SignalDistress, true},
		{"Board of Regents: master plan approved for 2030", SignalForecast, true},
		{"Trustees issue RFP for enrollment consulting", SignalForecast, true},
		{"Commencement ceremony draws record crowd", "", false},
	}

	for _, test := range tests {
		signal, ok := classify(test.title, "https://example.com/a")
		if ok != test.wantHit {
			t.Errorf("classify(%q) hit = %v, want %v", test.title, ok, test.wantHit)
			continue
		}
		if ok && signal.Type != test.wantType {
			t.Errorf("classify(%q) type = %s, want %s", test.title, signal.Type, test.wantType)
		}
	}
}

func TestScanFilesTasksForNewSignals(t *testing.T) {
	parser := &fakeParser{feeds: map[string]*gofeed.Feed{
		"feed-1": feedWith(
			&gofeed.Item{Title: "Provost stepping down at Lakeside College", Link: "https://news/1"},
			&gofeed.Item{Title: "Homecoming week schedule announced", Link: "https://news/2"},
		),
	}}
	planner := &fakeTaskPlanner{}
	scanner, history := newTestScanner(t, parser, planner, "feed-1")

	if err := scanner.Scan(context.Background()); err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}

	if len(planner.created) != 1 {
		t.Fatalf("created = %v", planner.created)
	}
	task := planner.created[0]
	if !strings.HasPrefix(task.Title, "[DISTRESS] ") {
		t.Errorf("Title = %q", task.Title)
	}
	if task.Priority != 1 || task.PlanID != "plan-1" || task.BucketID != "b-inbox" {
		t.Errorf("task = %+v", task)
	}

	description := planner.descriptions["task-"+task.Title]
	if !strings.Contains(description, "stepping down") || !strings.Contains(description, "https://news/1") {
		t.Errorf("description = %q", description)
	}

	if !history.Seen("https://news/1") {
		t.Error("processed link not recorded")
	}
	if history.Seen("https://news/2") {
		t.Error("non-signal link should not be recorded")
	}
}

func TestScanSkipsSeenLinks(t *testing.T) {
	parser := &fakeParser{feeds: map[string]*gofeed.Feed{
		"feed-1": feedWith(
			&gofeed.Item{Title: "University announces layoffs", Link: "https://news/1"},
		),
	}}
	planner := &fakeTaskPlanner{}
	scanner, _ := newTestScanner(t, parser, planner, "feed-1")

	if err := scanner.Scan(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := scanner.Scan(context.Background()); err != nil {
		t.Fatal(err)
	}

	if len(planner.created) != 1 {
		t.Errorf("duplicate link produced %d tasks", len(planner.created))
	}
}

func TestScanTruncatesLongTitles(t *testing.T) {
	long := strings.Repeat("deficit and more words ", 5)
	parser := &fakeParser{feeds: map[string]*gofeed.Feed{
		"feed-1": feedWith(&gofeed.Item{Title: long, Link: "https://news/long"}),
	}}
	planner := &fakeTaskPlanner{}
	scanner, _ := newTestScanner(t, parser, planner, "feed-1")

	if err := scanner.Scan(context.Background()); err != nil {
		t.Fatal(err)
	}
	title := planner.created[0].Title
	if !strings.HasSuffix(title, "...") {
		t.Errorf("long title not truncated: %q", title)
	}
	if len(title) > len("[DISTRESS] ")+titleLimit+3 {
		t.Errorf("title too long: %d chars", len(title))
	}
}

func TestScanContinuesPastDeadFeeds(t *testing.T) {
	parser := &fakeParser{
		feeds: map[string]*gofeed.Feed{
			"feed-2": feedWith(&gofeed.Item{Title: "College merger announced", Link: "https://news/3"}),
		},
		errs: map[string]error{"feed-1": errors.New("connection refused")},
	}
	planner := &fakeTaskPlanner{}
	scanner, _ := newTestScanner(t, parser, planner, "feed-1", "feed-2")

	if err := scanner.Scan(context.Background()); err != nil {
		t.Fatalf("dead feed should not abort the pass: %v", err)
	}
	if len(planner.created) != 1 {
		t.Errorf("created = %v", planner.created)
	}
}

func TestScanStopsOnTaskCreationFailure(t *testing.T) {
	parser := &fakeParser{feeds: map[string]*gofeed.Feed{
		"feed-1": feedWith(&gofeed.Item{Title: "Budget deficit widens", Link: "https://news/4"}),
	}}
	planner := &fakeTaskPlanner{createErr: graph.NewAuthError("device authorization timed out", nil)}
	scanner, history := newTestScanner(t, parser, planner, "feed-1")

	if err := scanner.Scan(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if history.Seen("https://news/4") {
		t.Error("failed signal must stay unrecorded so the next pass retries it")
	}
}
