// Package llm wraps pollytool's multi-provider completion client behind a
// small streaming interface. The wrapper performs no retries and no business
// logic; it checks credentials up front and hands back pollytool's event
// stream untouched. Tool calls only ever appear on the terminal Complete
// event, once the provider has finalized their arguments.
package llm

import (
	"context"
	"fmt"
	"strings"

	pollyllm "github.com/alexschlessinger/pollytool/llm"
	"github.com/alexschlessinger/pollytool/messages"
	"github.com/alexschlessinger/pollytool/sessions"
	"github.com/alexschlessinger/pollytool/tools"
	"go.uber.org/zap"

	"rangedesk/concierge/internal/config"
)

// CompletionRequest is re-exported so callers don't import pollytool
// directly for the common case.
type CompletionRequest = pollyllm.CompletionRequest

// Client is the streaming completion interface the agent loop consumes.
// Implementations yield provider events as they arrive; the caller drives
// consumption.
type Client interface {
	Stream(ctx context.Context, req *CompletionRequest) <-chan *messages.StreamEvent
}

// Polly is the production Client over pollytool's MultiPass. It is built
// once in main and injected wherever needed; per-call state lives in the
// request, so one handle is safe across concurrent requests.
type Polly struct {
	client *pollyllm.MultiPass
	proc   *messages.StreamProcessor
	keys   map[string]string
	logger *zap.SugaredLogger
}

var _ Client = (*Polly)(nil)

func NewPolly(cfg *config.APIConfig, logger *zap.SugaredLogger) *Polly {
	apiKeys := map[string]string{
		"openai":    cfg.OpenAIKey,
		"anthropic": cfg.AnthropicKey,
		"gemini":    cfg.GeminiKey,
		"ollama":    cfg.OllamaKey,
	}
	return &Polly{
		client: pollyllm.NewMultiPass(apiKeys),
		proc:   messages.NewStreamProcessor(),
		keys:   apiKeys,
		logger: logger,
	}
}

// HasCredentials reports whether the provider prefix of model has an API
// key configured. Ollama is local and needs none.
func (p *Polly) HasCredentials(model string) bool {
	provider, _, ok := strings.Cut(model, "/")
	if !ok || provider == "ollama" {
		return true
	}
	return p.keys[provider] != ""
}

func (p *Polly) Stream(ctx context.Context, req *CompletionRequest) <-chan *messages.StreamEvent {
	if !p.HasCredentials(req.Model) {
		p.logger.Errorw("No credentials configured for model", "model", req.Model)
		ch := make(chan *messages.StreamEvent, 1)
		ch <- &messages.StreamEvent{
			Type: messages.EventTypeError,
			Error: &APIError{
				Kind: ErrKindMissingCredentials,
				Err:  fmt.Errorf("no API key configured for model %q", req.Model),
			},
		}
		close(ch)
		return ch
	}
	return p.client.ChatCompletionStream(ctx, req, p.proc)
}

// NewCompletionRequest builds the per-round request from configuration and
// the session-held conversation history.
func NewCompletionRequest(cfg *config.Configuration, session sessions.Session, toolset []tools.Tool) *CompletionRequest {
	return &CompletionRequest{
		BaseURL:     cfg.API.OpenAIURL,
		Timeout:     cfg.API.Timeout,
		Model:       cfg.Model.Model,
		MaxTokens:   cfg.Model.MaxTokens,
		Messages:    session.GetHistory(),
		Temperature: cfg.Model.Temperature,
		Tools:       toolset,
	}
}
