package oracle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/charterstone/planner-mcp/internal/graph"
	"github.com/charterstone/planner-mcp/internal/retry"
)

const (
	// DefaultHealthWindow is how long a verified channel is presumed
	// healthy before the next probe.
	DefaultHealthWindow = 30 * time.Second

	// DefaultCommandTimeout bounds a single remote command.
	DefaultCommandTimeout = 30 * time.Second

	dialTimeout = 10 * time.Second
)

// ExecResult is the outcome of one remote command.
type ExecResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Channel is one live remote session. Run executes a command, Ping
// verifies the transport is still alive.
type Channel interface {
	Run(ctx context.Context, command string, timeout time.Duration) (ExecResult, error)
	Ping() error
	Close() error
}

// Dialer establishes a fresh channel to the remote host.
type Dialer interface {
	Dial(ctx context.Context) (Channel, error)
}

// Config holds the remote endpoint and credentials. KeyPath is tried
// first; Password is the fallback. At least one must be set.
type Config struct {
	Host     string
	Port     int
	User     string
	KeyPath  string
	Password string

	HealthWindow   time.Duration
	CommandTimeout time.Duration
}

func (c Config) healthWindow() time.Duration {
	if c.HealthWindow > 0 {
		return c.HealthWindow
	}
	return DefaultHealthWindow
}

func (c Config) commandTimeout() time.Duration {
	if c.CommandTimeout > 0 {
		return c.CommandTimeout
	}
	return DefaultCommandTimeout
}

// Manager maintains a single remote session with lazy reconnection.
// Commands run through Execute, which retries exactly once on a fresh
// channel when the first attempt fails.
type Manager struct {
	dialer       Dialer
	reconnects   retry.Policy
	healthWindow time.Duration
	cmdTimeout   time.Duration
	logger       *slog.Logger
	now          func() time.Time

	mu           sync.Mutex
	channel      Channel
	lastVerified time.Time
}

// NewManager creates a session manager dialing per cfg.
func NewManager(cfg Config, logger *slog.Logger) *Manager {
	return newManager(cfg, &sshDialer{cfg: cfg}, logger)
}

func newManager(cfg Config, dialer Dialer, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		dialer:       dialer,
		reconnects:   retry.ReconnectPolicy(),
		healthWindow: cfg.healthWindow(),
		cmdTimeout:   cfg.commandTimeout(),
		logger:       logger,
		now:          time.Now,
	}
}

// EnsureConnected makes sure a healthy channel exists, dialing a fresh
// one when the current channel is absent, stale, or dead. It is a no-op
// when the channel was verified within the health window.
func (m *Manager) EnsureConnected(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ensureLocked(ctx)
}

func (m *Manager) ensureLocked(ctx context.Context) error {
	if m.channel != nil {
		if m.now().Sub(m.lastVerified) < m.healthWindow {
			return nil
		}
		if err := m.channel.Ping(); err == nil {
			m.lastVerified = m.now()
			return nil
		}
		m.logger.Info("remote channel failed probe, reconnecting")
		m.closeLocked()
	}

	channel, err := m.dialer.Dial(ctx)
	if err != nil {
		return graph.NewConnectionError("connect to oracle host", err)
	}
	m.channel = channel
	m.lastVerified = m.now()
	m.logger.Info("remote channel established")
	return nil
}

// Execute runs a command on the remote host. A zero timeout uses the
// configured default. Any failure forces a reconnect and one retry;
// when the retry also fails, both errors are reported together.
func (m *Manager) Execute(ctx context.Context, command string, timeout time.Duration) (ExecResult, error) {
	if command == "" {
		return ExecResult{}, graph.NewValidationError("command must not be empty")
	}
	if timeout <= 0 {
		timeout = m.cmdTimeout
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var result ExecResult
	var attemptErrs []error

	err := m.reconnects.Run(ctx, func(attempt int) error {
		if attempt > 1 {
			m.logger.Warn("remote command failed, retrying on fresh channel",
				"error", attemptErrs[len(attemptErrs)-1],
			)
			m.closeLocked()
		}
		if err := m.ensureLocked(ctx); err != nil {
			attemptErrs = append(attemptErrs, err)
			return err
		}

		res, err := m.channel.Run(ctx, command, timeout)
		if err != nil {
			attemptErrs = append(attemptErrs, err)
			return err
		}
		result = res
		return nil
	}, func(error) bool { return true })

	if err != nil {
		return ExecResult{}, graph.NewConnectionError(
			"remote command failed after reconnect", errors.Join(attemptErrs...))
	}
	return result, nil
}

// Close tears down the current channel, if any.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeLocked()
}

func (m *Manager) closeLocked() {
	if m.channel != nil {
		_ = m.channel.Close()
		m.channel = nil
		m.lastVerified = time.Time{}
	}
}

// sshDialer opens SSH channels with key auth first, password second.
type sshDialer struct {
	cfg Config
}

func (d *sshDialer) Dial(ctx context.Context) (Channel, error) {
	methods, err := d.authMethods()
	if err != nil {
		return nil, err
	}

	clientCfg := &ssh.ClientConfig{
		User:            d.cfg.User,
		Auth:            methods,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         dialTimeout,
	}

	port := d.cfg.Port
	if port == 0 {
		port = 22
	}
	addr := fmt.Sprintf("%s:%d", d.cfg.Host, port)

	client, err := ssh.Dial("tcp", addr, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return &sshChannel{client: client}, nil
}

func (d *sshDialer) authMethods() ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod

	if d.cfg.KeyPath != "" {
		key, err := os.ReadFile(d.cfg.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("read ssh key %s: %w", d.cfg.KeyPath, err)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("parse ssh key %s: %w", d.cfg.KeyPath, err)
		}
		methods = append(methods, ssh.PublicKeys(signer))
	}
	if d.cfg.Password != "" {
		methods = append(methods, ssh.Password(d.cfg.Password))
	}
	if len(methods) == 0 {
		return nil, errors.New("no ssh auth configured: need a key path or password")
	}
	return methods, nil
}

// sshChannel wraps one ssh.Client; each Run opens a fresh session on the
// shared transport.
type sshChannel struct {
	client *ssh.Client
}

func (c *sshChannel) Run(ctx context.Context, command string, timeout time.Duration) (ExecResult, error) {
	session, err := c.client.NewSession()
	if err != nil {
		return ExecResult{}, fmt.Errorf("open session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := session.Start(command); err != nil {
		return ExecResult{}, fmt.Errorf("start command: %w", err)
	}

	done := make(chan error, 1)
	go func() { done <- session.Wait() }()

	select {
	case <-runCtx.Done():
		_ = session.Signal(ssh.SIGKILL)
		return ExecResult{}, fmt.Errorf("command timed out after %s", timeout)
	case err = <-done:
	}

	result := ExecResult{Stdout: stdout.String(), Stderr: stderr.String()}
	var exitErr *ssh.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		// Non-zero exit is a result, not a transport failure.
		result.ExitCode = exitErr.ExitStatus()
	default:
		return ExecResult{}, fmt.Errorf("run command: %w", err)
	}
	return result, nil
}

func (c *sshChannel) Ping() error {
	_, _, err := c.client.SendRequest("keepalive@openssh.com", true, nil)
	return err
}

func (c *sshChannel) Close() error {
	return c.client.Close()
}
