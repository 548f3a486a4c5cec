package tools

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/olgasafonova/devops-tools-api/internal/store"
	"github.com/olgasafonova/devops-tools-api/internal/validation"
	"github.com/olgasafonova/devops-tools-api/metrics"
	"github.com/olgasafonova/devops-tools-api/tracing"
)

// Server identity reported to MCP clients.
const (
	ServerName   = "devops-tools-api"
	Instructions = `DevOps Tools MCP endpoint manages a catalog of DevOps tools.

Available tools:
- devops_list_tools: List every tool in the catalog
- devops_get_tool: Get one tool by ID
- devops_create_tool: Add a tool (name and category required)
- devops_update_tool: Replace a tool's fields by ID
- devops_delete_tool: Remove a tool by ID

The catalog is shared with the HTTP API under /tools and lives in memory only.`
)

// argumentsLoc prefixes validation errors raised from tool arguments.
const argumentsLoc = "arguments"

// ToolStore is the catalog surface the MCP handlers depend on.
type ToolStore interface {
	List() []store.Record
	Get(id int) (store.Tool, error)
	Create(t store.Tool) store.Record
	Update(id int, t store.Tool) (store.Record, error)
	Delete(id int) error
}

// HandlerRegistry binds tool specs to catalog operations.
type HandlerRegistry struct {
	store     ToolStore
	validator *validation.Validator
	logger    *slog.Logger
}

// NewHandlerRegistry creates a new handler registry.
func NewHandlerRegistry(st ToolStore, validator *validation.Validator, logger *slog.Logger) *HandlerRegistry {
	return &HandlerRegistry{
		store:     st,
		validator: validator,
		logger:    logger,
	}
}

// NewServer builds an MCP server with every catalog tool registered.
func NewServer(h *HandlerRegistry, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Version: version,
	}, &mcp.ServerOptions{
		Logger:       h.logger,
		Instructions: Instructions,
	})
	h.RegisterAll(server)
	return server
}

// NewHTTPHandler serves server over the streamable HTTP transport.
func NewHTTPHandler(server *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, &mcp.StreamableHTTPOptions{JSONResponse: true})
}

// RegisterAll registers all tools with the MCP server.
func (h *HandlerRegistry) RegisterAll(server *mcp.Server) {
	for _, spec := range AllTools {
		h.registerByName(server, spec)
	}
	h.logger.Info("Registered all tools", "count", len(AllTools))
}

// registerByName dispatches to the correct typed registration function.
func (h *HandlerRegistry) registerByName(server *mcp.Server, spec ToolSpec) {
	tool := h.buildTool(spec)

	switch spec.Method {
	case "ListTools":
		register(h, server, tool, spec, h.ListTools)
	case "GetTool":
		register(h, server, tool, spec, h.GetTool)
	case "CreateTool":
		register(h, server, tool, spec, h.CreateTool)
	case "UpdateTool":
		register(h, server, tool, spec, h.UpdateTool)
	case "DeleteTool":
		register(h, server, tool, spec, h.DeleteTool)
	default:
		h.logger.Error("Unknown method, tool not registered", "method", spec.Method, "tool", spec.Name)
	}
}

// buildTool creates an mcp.Tool from a ToolSpec.
func (h *HandlerRegistry) buildTool(spec ToolSpec) *mcp.Tool {
	annotations := &mcp.ToolAnnotations{
		Title:          spec.Title,
		ReadOnlyHint:   spec.ReadOnly,
		IdempotentHint: spec.Idempotent,
		// The catalog is local; no tool reaches outside the process.
		OpenWorldHint: ptr(false),
	}
	if spec.Destructive {
		annotations.DestructiveHint = ptr(true)
	} else {
		annotations.DestructiveHint = ptr(false)
	}

	return &mcp.Tool{
		Name:        spec.Name,
		Description: spec.Description,
		Annotations: annotations,
	}
}

// register is a generic helper that registers a tool with the MCP server.
// It wraps the handler method with panic recovery, metrics, tracing, and logging.
func register[Args, Result any](
	h *HandlerRegistry,
	server *mcp.Server,
	tool *mcp.Tool,
	spec ToolSpec,
	method func(context.Context, Args) (Result, error),
) {
	mcp.AddTool(server, tool, func(ctx context.Context, req *mcp.CallToolRequest, args Args) (res *mcp.CallToolResult, out Result, err error) {
		defer h.recoverPanic(spec.Name, &err)

		ctx, span := tracing.StartSpan(ctx, "mcp.tool."+spec.Name)
		defer span.End()

		tracing.AddToolAttributes(span, spec.Name, spec.Category)
		span.SetAttributes(attribute.Bool("mcp.tool.readonly", spec.ReadOnly))

		start := time.Now()
		result, err := method(ctx, args)
		duration := time.Since(start).Seconds()

		span.SetAttributes(attribute.Float64("mcp.tool.duration_seconds", duration))

		if err != nil {
			tracing.RecordError(span, err)
			metrics.RecordToolCall(spec.Name, duration, false)
			h.logger.Warn("Tool failed", "tool", spec.Name, "error", err)
			var zero Result
			return nil, zero, fmt.Errorf("%s failed: %w", spec.Name, err)
		}

		span.SetStatus(codes.Ok, "")
		metrics.RecordToolCall(spec.Name, duration, true)
		h.logExecution(spec, args, result)
		return nil, result, nil
	})
}

// recoverPanic recovers from panics in tool handlers and reports them as
// tool errors.
func (h *HandlerRegistry) recoverPanic(toolName string, errp *error) {
	if rec := recover(); rec != nil {
		metrics.PanicsRecovered.WithLabelValues(toolName).Inc()
		h.logger.Error("Panic recovered",
			"tool", toolName,
			"panic", rec,
			"stack", string(debug.Stack()))
		*errp = fmt.Errorf("%s failed: internal error", toolName)
	}
}

// logExecution logs tool execution details.
func (h *HandlerRegistry) logExecution(spec ToolSpec, args, result any) {
	attrs := []any{"tool", spec.Name, "category", spec.Category}

	switch a := args.(type) {
	case GetToolArgs:
		attrs = append(attrs, "id", a.ID)
	case CreateToolArgs:
		attrs = append(attrs, "name", a.Name)
	case UpdateToolArgs:
		attrs = append(attrs, "id", a.ID, "name", a.Name)
	case DeleteToolArgs:
		attrs = append(attrs, "id", a.ID)
	}

	switch r := result.(type) {
	case ListToolsResult:
		attrs = append(attrs, "count", r.Count)
	case ToolResult:
		attrs = append(attrs, "result_id", r.ID)
	}

	h.logger.Info("Tool executed", attrs...)
}

// ListTools returns the whole catalog.
func (h *HandlerRegistry) ListTools(ctx context.Context, args ListToolsArgs) (ListToolsResult, error) {
	tracing.AddStoreAttributes(trace.SpanFromContext(ctx), "list", 0)
	records := h.store.List()
	out := ListToolsResult{Tools: make([]ToolResult, 0, len(records)), Count: len(records)}
	for _, rec := range records {
		out.Tools = append(out.Tools, toResult(rec))
	}
	return out, nil
}

// GetTool returns one tool by ID.
func (h *HandlerRegistry) GetTool(ctx context.Context, args GetToolArgs) (ToolResult, error) {
	tracing.AddStoreAttributes(trace.SpanFromContext(ctx), "get", args.ID)
	tool, err := h.store.Get(args.ID)
	if err != nil {
		return ToolResult{}, err
	}
	return toResult(store.Record{ID: args.ID, Tool: tool}), nil
}

// CreateTool validates and stores a new tool.
func (h *HandlerRegistry) CreateTool(ctx context.Context, args CreateToolArgs) (ToolResult, error) {
	res := h.validator.ValidateTool(store.Tool{
		Name:         args.Name,
		Description:  args.Description,
		Category:     args.Category,
		IsOpenSource: args.IsOpenSource,
	}, argumentsLoc)
	if err := res.Err(); err != nil {
		metrics.RecordValidationFailure("mcp")
		return ToolResult{}, err
	}
	rec := h.store.Create(res.Tool)
	tracing.AddStoreAttributes(trace.SpanFromContext(ctx), "create", rec.ID)
	return toResult(rec), nil
}

// UpdateTool validates and replaces an existing tool.
func (h *HandlerRegistry) UpdateTool(ctx context.Context, args UpdateToolArgs) (ToolResult, error) {
	res := h.validator.ValidateTool(store.Tool{
		Name:         args.Name,
		Description:  args.Description,
		Category:     args.Category,
		IsOpenSource: args.IsOpenSource,
	}, argumentsLoc)
	if err := res.Err(); err != nil {
		metrics.RecordValidationFailure("mcp")
		return ToolResult{}, err
	}
	tracing.AddStoreAttributes(trace.SpanFromContext(ctx), "update", args.ID)
	rec, err := h.store.Update(args.ID, res.Tool)
	if err != nil {
		return ToolResult{}, err
	}
	return toResult(rec), nil
}

// DeleteTool removes a tool by ID.
func (h *HandlerRegistry) DeleteTool(ctx context.Context, args DeleteToolArgs) (DeleteToolResult, error) {
	tracing.AddStoreAttributes(trace.SpanFromContext(ctx), "delete", args.ID)
	if err := h.store.Delete(args.ID); err != nil {
		return DeleteToolResult{}, err
	}
	return DeleteToolResult{
		ID:      args.ID,
		Message: fmt.Sprintf("Tool with ID %d has been deleted.", args.ID),
	}, nil
}
