package server

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/charterstone/planner-mcp/internal/graph"
	"github.com/charterstone/planner-mcp/internal/oracle"
)

// Default server identity reported during the MCP handshake.
const (
	DefaultName    = "charter-stone-mcp"
	DefaultVersion = "2.6.1"
)

// PlannerService is the task operations surface the handlers need.
// Satisfied by *graph.Planner.
type PlannerService interface {
	ListTasks(ctx context.Context, planID string) ([]graph.Task, error)
	GetTask(ctx context.Context, taskID string) (*graph.Task, error)
	GetTaskDetails(ctx context.Context, taskID string) (*graph.TaskDetails, error)
	CreateTask(ctx context.Context, task graph.NewTask) (*graph.Task, error)
	MutateTask(ctx context.Context, taskID string, transform func(*graph.Task) error) (*graph.Task, error)
	MutateTaskDetails(ctx context.Context, taskID string, transform func(*graph.TaskDetails) error) (*graph.TaskDetails, error)
}

// BucketResolver is the name resolution surface the handlers need.
// Satisfied by *graph.Resolver.
type BucketResolver interface {
	PlanID(ctx context.Context) (string, error)
	Buckets(ctx context.Context) (map[string]string, error)
	BucketID(ctx context.Context, name string) (string, error)
	BucketName(ctx context.Context, id string) (string, error)
}

// CommandRunner executes commands on the knowledge-base host.
// Satisfied by *oracle.Manager.
type CommandRunner interface {
	Execute(ctx context.Context, command string, timeout time.Duration) (oracle.ExecResult, error)
}

// Config holds server identity and tool settings.
type Config struct {
	Name    string
	Version string
	// KnowledgeBasePath is the remote directory searched by search_oracle.
	KnowledgeBasePath string
}

// MCPServer wires the tool surface over the planner, resolver, and
// oracle services.
type MCPServer struct {
	server   *server.MCPServer
	planner  PlannerService
	resolver BucketResolver
	oracle   CommandRunner
	kbPath   string
	logger   *slog.Logger
}

// NewMCPServer creates the MCP server and registers all tools.
func NewMCPServer(cfg Config, planner PlannerService, resolver BucketResolver, runner CommandRunner, logger *slog.Logger) *MCPServer {
	if cfg.Name == "" {
		cfg.Name = DefaultName
	}
	if cfg.Version == "" {
		cfg.Version = DefaultVersion
	}
	if logger == nil {
		logger = slog.Default()
	}

	mcpServer := server.NewMCPServer(
		cfg.Name,
		cfg.Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	ms := &MCPServer{
		server:   mcpServer,
		planner:  planner,
		resolver: resolver,
		oracle:   runner,
		kbPath:   cfg.KnowledgeBasePath,
		logger:   logger,
	}
	ms.registerTools()
	return ms
}

// Serve runs the server over stdio until the client disconnects.
func (ms *MCPServer) Serve() error {
	return server.ServeStdio(ms.server)
}

// errorResult renders a failure as a tool error, keeping the failure
// class visible to the model.
func errorResult(err error) *mcp.CallToolResult {
	switch {
	case graph.ErrorStatus(err) != 0:
		return mcp.NewToolResultError(fmt.Sprintf("Graph API error (%d): %v", graph.ErrorStatus(err), err))
	case graph.IsAuth(err):
		return mcp.NewToolResultError(fmt.Sprintf("Authentication error: %v", err))
	case graph.IsConflict(err):
		return mcp.NewToolResultError(fmt.Sprintf("Update conflict, the task changed underneath us: %v", err))
	case graph.IsNotFound(err):
		msg := fmt.Sprintf("Not found: %v", err)
		if names := graph.AvailableNames(err); len(names) > 0 {
			msg += "\n\nAvailable:\n" + bulletList(names)
		}
		return mcp.NewToolResultError(msg)
	case graph.IsBadInput(err):
		return mcp.NewToolResultError(fmt.Sprintf("Invalid input: %v", err))
	case graph.IsConnection(err):
		return mcp.NewToolResultError(fmt.Sprintf("Connection error: %v", err))
	default:
		return mcp.NewToolResultError(fmt.Sprintf("Error: %v", err))
	}
}

func bulletList(items []string) string {
	var b strings.Builder
	for _, item := range items {
		fmt.Fprintf(&b, "  - %s\n", item)
	}
	return strings.TrimRight(b.String(), "\n")
}
