package watchdog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/charterstone/planner-mcp/internal/graph"
)

// titleLimit caps how much of the headline goes into the task title.
const titleLimit = 50

// FeedParser fetches and parses one feed. Satisfied by *gofeed.Parser.
type FeedParser interface {
	ParseURLWithContext(url string, ctx context.Context) (*gofeed.Feed, error)
}

// TaskPlanner is the slice of the planner surface the scanner writes
// through. Satisfied by *graph.Planner.
type TaskPlanner interface {
	CreateTask(ctx context.Context, task graph.NewTask) (*graph.Task, error)
	MutateTaskDetails(ctx context.Context, taskID string, transform func(*graph.TaskDetails) error) (*graph.TaskDetails, error)
}

// InboxResolver locates the plan and inbox bucket for signal tasks.
// Satisfied by *graph.Resolver.
type InboxResolver interface {
	PlanID(ctx context.Context) (string, error)
	BucketID(ctx context.Context, name string) (string, error)
}

// Scanner runs one feed pass: classify new headlines, alert, and file a
// task per signal in the inbox bucket.
type Scanner struct {
	feeds      []string
	bucketName string
	parser     FeedParser
	history    *History
	notifier   *Notifier
	planner    TaskPlanner
	resolver   InboxResolver
	logger     *slog.Logger
	now        func() time.Time
}

// NewScanner wires a scanner. parser may be nil, in which case a gofeed
// parser is used.
func NewScanner(feeds []string, bucketName string, parser FeedParser, history *History, notifier *Notifier, planner TaskPlanner, resolver InboxResolver, logger *slog.Logger) *Scanner {
	if parser == nil {
		parser = gofeed.NewParser()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{
		feeds:      feeds,
		bucketName: bucketName,
		parser:     parser,
		history:    history,
		notifier:   notifier,
		planner:    planner,
		resolver:   resolver,
		logger:     logger,
		now:        time.Now,
	}
}

// Scan walks every feed once. Feed fetch failures are logged and skipped
// so one dead feed does not stop the pass; the first task-creation error
// aborts the pass since later creations would likely fail the same way.
func (s *Scanner) Scan(ctx context.Context) error {
	s.logger.Info("watchdog scan starting", "feeds", len(s.feeds))

	var matched int
	for _, feedURL := range s.feeds {
		feed, err := s.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			s.logger.Warn("feed fetch failed", "url", feedURL, "error", err)
			continue
		}

		for _, item := range feed.Items {
			if item.Link == "" || s.history.Seen(item.Link) {
				continue
			}

			signal, ok := classify(item.Title, item.Link)
			if !ok {
				continue
			}
			matched++
			s.logger.Info("signal found",
				"type", signal.Type,
				"keyword", signal.Keyword,
				"title", signal.Title,
			)

			if err := s.notifier.Notify(ctx, signal); err != nil {
				s.logger.Warn("teams alert failed", "error", err)
			}
			if err := s.fileTask(ctx, signal); err != nil {
				return fmt.Errorf("file task for %q: %w", signal.Title, err)
			}
			if err := s.history.Add(signal.Link); err != nil {
				return err
			}
		}
	}

	s.logger.Info("watchdog scan complete", "signals", matched)
	return nil
}

// fileTask creates the signal task and sets its description through the
// conditional-update guard.
func (s *Scanner) fileTask(ctx context.Context, signal Signal) error {
	planID, err := s.resolver.PlanID(ctx)
	if err != nil {
		return err
	}
	bucketID, err := s.resolver.BucketID(ctx, s.bucketName)
	if err != nil {
		return err
	}

	title := signal.Title
	if len(title) > titleLimit {
		title = title[:titleLimit] + "..."
	}

	created, err := s.planner.CreateTask(ctx, graph.NewTask{
		PlanID:      planID,
		BucketID:    bucketID,
		Title:       fmt.Sprintf("[%s] %s", signal.Type, title),
		Priority:    signal.Priority,
		DueDateTime: s.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	description := fmt.Sprintf(
		"Triggered by watchdog.\nType: %s\nKeyword: %s\nSource: %s",
		signal.Type, signal.Keyword, signal.Link,
	)
	_, err = s.planner.MutateTaskDetails(ctx, created.ID, func(d *graph.TaskDetails) error {
		d.Description = description
		return nil
	})
	return err
}
