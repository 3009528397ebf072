package tools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/alexschlessinger/pollytool/messages"
	ptools "github.com/alexschlessinger/pollytool/tools"
	"go.uber.org/zap"

	"rangedesk/concierge/internal/core"
)

// Executor runs model-requested tool calls against the registry. It never
// lets a fault escape: backend errors, unknown tool names, malformed
// arguments and panics all come back as failed Results the conversation can
// absorb.
type Executor struct {
	registry *ptools.ToolRegistry
	logger   *zap.SugaredLogger
}

func NewExecutor(registry *ptools.ToolRegistry, logger *zap.SugaredLogger) *Executor {
	return &Executor{registry: registry, logger: logger}
}

// Registry exposes the underlying registry for completion requests.
func (e *Executor) Registry() *ptools.ToolRegistry {
	return e.registry
}

// Execute runs one tool call to a Result.
func (e *Executor) Execute(ctx context.Context, call messages.ChatMessageToolCall) (result *Result) {
	logger := core.WithTool(e.logger, call.Name, nil)

	defer func() {
		if r := recover(); r != nil {
			logger.Errorw("Tool panicked", "panic", r)
			result = Failf("the %s tool hit an internal problem, please try again", call.Name)
		}
	}()

	args := map[string]any{}
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			logger.Warnw("Failed to parse tool arguments", "error", err)
			return Failf("the arguments for %s could not be parsed, try the call again", call.Name)
		}
	}

	tool, exists := e.registry.Get(call.Name)
	if !exists {
		logger.Warn("Unknown tool requested")
		return Failf("unknown tool %q", call.Name)
	}

	start := time.Now()
	logger.Infow("Executing tool", "args", args)

	out, err := tool.Execute(ctx, args)
	duration := time.Since(start)
	if err != nil {
		logger.Errorw("Tool execution failed", "duration_ms", duration.Milliseconds(), "error", err)
		return Failf("the %s tool failed, please try again", call.Name)
	}

	logger.Infow("Tool execution completed", "duration_ms", duration.Milliseconds(), "result_size", len(out))

	if r, ok := ParseResult(out); ok {
		return r
	}
	// Tools in this repo always return serialized Results; tolerate plain
	// text anyway.
	return &Result{Success: true, Display: out}
}
