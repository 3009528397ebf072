package testing

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/alexschlessinger/pollytool/messages"

	"rangedesk/concierge/internal/llm"
)

// Turn scripts one completion round for MockLLM. Chunks stream as content
// deltas; the turn then ends with either an error event or a complete
// event carrying Message. A nil Message synthesizes an assistant message
// from the joined chunks.
type Turn struct {
	Chunks  []string
	Message *messages.ChatMessage
	Err     error
}

// MockLLM implements llm.Client by replaying scripted turns, one per
// Stream call. Calls beyond the script replay an empty turn.
type MockLLM struct {
	Turns []Turn
	Delay time.Duration // Delay between chunks (0 = immediate)

	mu       sync.Mutex
	calls    int
	Requests []*llm.CompletionRequest // Recorded for assertions
}

// Stream implements llm.Client
func (m *MockLLM) Stream(ctx context.Context, req *llm.CompletionRequest) <-chan *messages.StreamEvent {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	var turn Turn
	if m.calls < len(m.Turns) {
		turn = m.Turns[m.calls]
	}
	m.calls++
	m.mu.Unlock()

	ch := make(chan *messages.StreamEvent, len(turn.Chunks)+1)
	go func() {
		defer close(ch)
		for _, chunk := range turn.Chunks {
			if m.Delay > 0 {
				select {
				case <-time.After(m.Delay):
				case <-ctx.Done():
					return
				}
			}
			select {
			case <-ctx.Done():
				return
			case ch <- &messages.StreamEvent{Type: messages.EventTypeContent, Content: chunk}:
			}
		}
		if turn.Err != nil {
			ch <- &messages.StreamEvent{Type: messages.EventTypeError, Error: turn.Err}
			return
		}
		msg := turn.Message
		if msg == nil {
			msg = &messages.ChatMessage{
				Role:    messages.MessageRoleAssistant,
				Content: strings.Join(turn.Chunks, ""),
			}
		}
		ch <- &messages.StreamEvent{Type: messages.EventTypeComplete, Message: msg}
	}()
	return ch
}

// Calls reports how many times Stream was invoked.
func (m *MockLLM) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Verify MockLLM implements llm.Client
var _ llm.Client = (*MockLLM)(nil)
