package oracle

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charterstone/planner-mcp/internal/graph"
)

type fakeChannel struct {
	runResults []ExecResult
	runErrs    []error
	pingErr    error

	runs   int
	pings  int
	closed bool
}

func (c *fakeChannel) Run(ctx context.Context, command string, timeout time.Duration) (ExecResult, error) {
	idx := c.runs
	c.runs++
	if idx < len(c.runErrs) && c.runErrs[idx] != nil {
		return ExecResult{}, c.runErrs[idx]
	}
	if idx < len(c.runResults) {
		return c.runResults[idx], nil
	}
	return ExecResult{Stdout: "ok"}, nil
}

func (c *fakeChannel) Ping() error {
	c.pings++
	return c.pingErr
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

type fakeDialer struct {
	channels []*fakeChannel
	dialErrs []error
	dials    int
}

func (d *fakeDialer) Dial(ctx context.Context) (Channel, error) {
	idx := d.dials
	d.dials++
	if idx < len(d.dialErrs) && d.dialErrs[idx] != nil {
		return nil, d.dialErrs[idx]
	}
	if idx < len(d.channels) {
		return d.channels[idx], nil
	}
	return &fakeChannel{}, nil
}

func newTestManager(dialer *fakeDialer) *Manager {
	return newManager(Config{Host: "oracle.local", User: "pi"}, dialer, nil)
}

func TestExecuteConnectsLazily(t *testing.T) {
	channel := &fakeChannel{runResults: []ExecResult{{Stdout: "hello\n"}}}
	dialer := &fakeDialer{channels: []*fakeChannel{channel}}
	manager := newTestManager(dialer)

	result, err := manager.Execute(context.Background(), "echo hello", 0)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if result.Stdout != "hello\n" {
		t.Errorf("Stdout = %q", result.Stdout)
	}
	if dialer.dials != 1 {
		t.Errorf("dials = %d, want 1", dialer.dials)
	}
}

func TestHealthWindowSkipsProbe(t *testing.T) {
	channel := &fakeChannel{}
	dialer := &fakeDialer{channels: []*fakeChannel{channel}}
	manager := newTestManager(dialer)

	now := time.Now()
	manager.now = func() time.Time { return now }

	if err := manager.EnsureConnected(context.Background()); err != nil {
		t.Fatalf("EnsureConnected returned error: %v", err)
	}

	// Within the window the channel is presumed healthy.
	now = now.Add(29 * time.Second)
	if err := manager.EnsureConnected(context.Background()); err != nil {
		t.Fatalf("EnsureConnected returned error: %v", err)
	}
	if channel.pings != 0 {
		t.Errorf("pings = %d, want 0 within health window", channel.pings)
	}

	// Past the window a probe is required.
	now = now.Add(2 * time.Second)
	if err := manager.EnsureConnected(context.Background()); err != nil {
		t.Fatalf("EnsureConnected returned error: %v", err)
	}
	if channel.pings != 1 {
		t.Errorf("pings = %d, want 1 past health window", channel.pings)
	}
	if dialer.dials != 1 {
		t.Errorf("healthy probe should not redial, dials = %d", dialer.dials)
	}
}

func TestSuccessfulProbeResetsWindow(t *testing.T) {
	channel := &fakeChannel{}
	dialer := &fakeDialer{channels: []*fakeChannel{channel}}
	manager := newTestManager(dialer)

	now := time.Now()
	manager.now = func() time.Time { return now }

	if err := manager.EnsureConnected(context.Background()); err != nil {
		t.Fatal(err)
	}

	now = now.Add(31 * time.Second)
	if err := manager.EnsureConnected(context.Background()); err != nil {
		t.Fatal(err)
	}
	now = now.Add(10 * time.Second)
	if err := manager.EnsureConnected(context.Background()); err != nil {
		t.Fatal(err)
	}
	if channel.pings != 1 {
		t.Errorf("pings = %d, probe should have reset the window", channel.pings)
	}
}

func TestFailedProbeForcesReconnect(t *testing.T) {
	dead := &fakeChannel{pingErr: errors.New("transport closed")}
	fresh := &fakeChannel{}
	dialer := &fakeDialer{channels: []*fakeChannel{dead, fresh}}
	manager := newTestManager(dialer)

	now := time.Now()
	manager.now = func() time.Time { return now }

	if err := manager.EnsureConnected(context.Background()); err != nil {
		t.Fatal(err)
	}

	now = now.Add(31 * time.Second)
	if err := manager.EnsureConnected(context.Background()); err != nil {
		t.Fatalf("EnsureConnected returned error: %v", err)
	}
	if !dead.closed {
		t.Error("dead channel not closed before redial")
	}
	if dialer.dials != 2 {
		t.Errorf("dials = %d, want 2", dialer.dials)
	}
}

func TestExecuteRetriesOnceOnFreshChannel(t *testing.T) {
	flaky := &fakeChannel{runErrs: []error{errors.New("broken pipe")}}
	fresh := &fakeChannel{runResults: []ExecResult{{Stdout: "recovered"}}}
	dialer := &fakeDialer{channels: []*fakeChannel{flaky, fresh}}
	manager := newTestManager(dialer)

	result, err := manager.Execute(context.Background(), "uptime", 0)
	if err != nil {
		t.Fatalf("expected recovery on second attempt, got %v", err)
	}
	if result.Stdout != "recovered" {
		t.Errorf("Stdout = %q", result.Stdout)
	}
	if !flaky.closed {
		t.Error("failed channel not closed before retry")
	}
	if dialer.dials != 2 {
		t.Errorf("dials = %d, want 2", dialer.dials)
	}
}

func TestExecuteReportsBothFailures(t *testing.T) {
	first := &fakeChannel{runErrs: []error{errors.New("broken pipe")}}
	second := &fakeChannel{runErrs: []error{errors.New("connection reset")}}
	dialer := &fakeDialer{channels: []*fakeChannel{first, second}}
	manager := newTestManager(dialer)

	_, err := manager.Execute(context.Background(), "uptime", 0)
	if err == nil {
		t.Fatal("expected error after two failed attempts")
	}
	if graph.IsConflict(err) || graph.IsNotFound(err) {
		t.Errorf("misclassified error: %v", err)
	}
	msg := err.Error()
	if !strings.Contains(msg, "broken pipe") || !strings.Contains(msg, "connection reset") {
		t.Errorf("error should carry both attempt failures: %v", err)
	}
	if dialer.dials != 2 {
		t.Errorf("dials = %d, want exactly 2 (retry once)", dialer.dials)
	}
}

func TestExecuteDialFailureIsConnectionError(t *testing.T) {
	dialer := &fakeDialer{dialErrs: []error{
		errors.New("no route to host"),
		errors.New("no route to host"),
	}}
	manager := newTestManager(dialer)

	_, err := manager.Execute(context.Background(), "uptime", 0)
	if err == nil {
		t.Fatal("expected connection error")
	}
	if dialer.dials != 2 {
		t.Errorf("dials = %d, want 2", dialer.dials)
	}
}

func TestExecuteValidatesCommand(t *testing.T) {
	dialer := &fakeDialer{}
	manager := newTestManager(dialer)

	_, err := manager.Execute(context.Background(), "", 0)
	if !graph.IsBadInput(err) {
		t.Errorf("expected validation error, got %v", err)
	}
	if dialer.dials != 0 {
		t.Error("empty command must not dial")
	}
}

func TestCloseDropsChannel(t *testing.T) {
	channel := &fakeChannel{}
	dialer := &fakeDialer{channels: []*fakeChannel{channel}}
	manager := newTestManager(dialer)

	if err := manager.EnsureConnected(context.Background()); err != nil {
		t.Fatal(err)
	}
	manager.Close()

	if !channel.closed {
		t.Error("Close did not close the channel")
	}
	if err := manager.EnsureConnected(context.Background()); err != nil {
		t.Fatal(err)
	}
	if dialer.dials != 2 {
		t.Errorf("dials = %d, want redial after Close", dialer.dials)
	}
}
