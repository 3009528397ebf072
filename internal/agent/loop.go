// Package agent drives the tool-augmented conversation loop: stream a
// completion, forward text as it arrives, run any requested tools, feed the
// results back, and repeat until the model stops asking for tools or the
// round ceiling is hit. Every stream ends with exactly one terminal event.
package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexschlessinger/pollytool/messages"
	"github.com/alexschlessinger/pollytool/sessions"
	"go.uber.org/zap"

	"rangedesk/concierge/internal/config"
	"rangedesk/concierge/internal/events"
	"rangedesk/concierge/internal/llm"
	"rangedesk/concierge/internal/tools"
)

// maxRounds caps completion round-trips per request. A model stuck in a
// tool-calling cycle ends gracefully with whatever text it produced.
const maxRounds = 5

// errClientGone marks an emitter failure: the client hung up and nothing
// more may be written to the stream.
var errClientGone = errors.New("client closed the stream")

// Emitter delivers one event to the output stream. A non-nil error means
// the stream is gone and the loop must stop writing.
type Emitter func(events.Event) error

// Loop holds the injected collaborators. It carries no per-request state;
// one Loop serves concurrent requests.
type Loop struct {
	client   llm.Client
	executor *tools.Executor
	store    sessions.SessionStore
	cfg      *config.Configuration
	logger   *zap.SugaredLogger
}

func New(client llm.Client, executor *tools.Executor, store sessions.SessionStore, cfg *config.Configuration, logger *zap.SugaredLogger) *Loop {
	return &Loop{
		client:   client,
		executor: executor,
		store:    store,
		cfg:      cfg,
		logger:   logger,
	}
}

// Run drives one conversation request to its terminal event: done on
// success or ceiling exhaustion, error on a completion-level fault. Tool
// faults never terminate the stream; they return to the model as data.
func (l *Loop) Run(ctx context.Context, requestID string, history []messages.ChatMessage, emit Emitter) {
	err := l.run(ctx, requestID, history, emit)
	switch {
	case err == nil:
		_ = emit(events.Done{})
	case errors.Is(err, errClientGone), errors.Is(err, context.Canceled):
		// The client is gone; the terminal event has nowhere to go.
		l.logger.Debugw("Request abandoned by client", "request_id", requestID)
	default:
		apiErr := llm.Classify(err)
		l.logger.Errorw("Request failed",
			"request_id", requestID,
			"kind", apiErr.Kind.String(),
			"error", err,
		)
		_ = emit(events.Error{Message: apiErr.UserMessage()})
	}
}

func (l *Loop) run(ctx context.Context, requestID string, history []messages.ChatMessage, emit Emitter) error {
	// Sessions are request-scoped: the store seeds each new one with the
	// system prompt, the caller's history is layered on top, and nothing
	// survives the request.
	session, err := l.store.Get(requestID)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	for _, m := range history {
		session.AddMessage(m)
	}

	for round := 0; round < maxRounds; round++ {
		req := llm.NewCompletionRequest(l.cfg, session, l.executor.Registry().All())

		callCtx, cancel := context.WithTimeout(ctx, l.cfg.API.Timeout)
		final, err := l.streamRound(callCtx, req, emit)
		cancel()
		if err != nil {
			return err
		}

		session.AddMessage(*final)

		if len(final.ToolCalls) == 0 {
			return nil
		}
		if round == maxRounds-1 {
			// No completion call left to consume tool results.
			l.logger.Warnw("Round ceiling reached with tools still pending",
				"request_id", requestID,
				"pending", len(final.ToolCalls),
			)
			return nil
		}
		if err := l.runTools(ctx, final.ToolCalls, session, emit); err != nil {
			return err
		}
	}
	return nil
}

// streamRound consumes one completion stream, forwarding text deltas in
// arrival order and returning the finalized assistant message. Tool calls
// are only trusted from the terminal Complete event; mid-stream fragments
// carry unfinished arguments.
func (l *Loop) streamRound(ctx context.Context, req *llm.CompletionRequest, emit Emitter) (*messages.ChatMessage, error) {
	eventChan := l.client.Stream(ctx, req)

	var final *messages.ChatMessage
	for event := range eventChan {
		switch event.Type {
		case messages.EventTypeContent:
			if event.Content == "" {
				continue
			}
			if err := emit(events.Text{Content: event.Content}); err != nil {
				return nil, errClientGone
			}
		case messages.EventTypeToolCall:
			// Finalized calls arrive on the Complete event.
		case messages.EventTypeComplete:
			final = event.Message
		case messages.EventTypeError:
			if event.Error != nil {
				return nil, event.Error
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if final == nil {
		return nil, errors.New("provider stream closed without completing the turn")
	}
	return final, nil
}

// runTools executes one turn's tool calls. Calls share no state and run
// concurrently, but events are emitted strictly in request order so the
// invocation/result pairing the provider requires stays unambiguous.
func (l *Loop) runTools(ctx context.Context, calls []messages.ChatMessageToolCall, session sessions.Session, emit Emitter) error {
	results := make([]chan *tools.Result, len(calls))
	for i, call := range calls {
		// Buffered so an abandoned execution parks its result and exits
		// instead of leaking.
		results[i] = make(chan *tools.Result, 1)
		go func(ch chan<- *tools.Result, call messages.ChatMessageToolCall) {
			ch <- l.executor.Execute(ctx, call)
		}(results[i], call)
	}

	for i, call := range calls {
		if err := emit(events.ToolStart{Tool: call.Name}); err != nil {
			return errClientGone
		}

		var result *tools.Result
		select {
		case result = <-results[i]:
		case <-ctx.Done():
			return ctx.Err()
		}

		display := result.Display
		if display == "" {
			display = result.Error
		}
		if err := emit(events.ToolResult{Tool: call.Name, Display: display, Data: result.Data}); err != nil {
			return errClientGone
		}

		// The tool-result turn must pair with the invocation id for the
		// next completion call to be a valid conversation.
		session.AddMessage(messages.ChatMessage{
			Role:       messages.MessageRoleTool,
			Content:    result.JSON(),
			ToolCallID: call.ID,
		})
	}
	return nil
}
