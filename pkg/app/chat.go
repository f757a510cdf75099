package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"tableflip.dev/daypilot/pkg/calendar"
	"tableflip.dev/daypilot/pkg/gateway"
	"tableflip.dev/daypilot/pkg/logging"
)

const thinking = "Thinking…"

// ErrEmptyMessage is returned when a chat message has no text.
var ErrEmptyMessage = errors.New("app: message required")

// ChatLog is the append-only conversation of one assistant session. Only the
// pending placeholder is ever rewritten.
type ChatLog struct {
	mu       sync.Mutex
	messages []calendar.ChatMessage
	changed  chan struct{}
}

// NewChatLog returns an empty log.
func NewChatLog() *ChatLog {
	return &ChatLog{changed: make(chan struct{}, 1)}
}

// Messages returns a copy of the log in order.
func (l *ChatLog) Messages() []calendar.ChatMessage {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]calendar.ChatMessage, len(l.messages))
	copy(out, l.messages)
	return out
}

// Len is the number of messages.
func (l *ChatLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.messages)
}

// Changed fires after the log changes. Bursts coalesce.
func (l *ChatLog) Changed() <-chan struct{} {
	return l.changed
}

func (l *ChatLog) append(m calendar.ChatMessage) calendar.ChatMessage {
	l.mu.Lock()
	l.messages = append(l.messages, m)
	l.mu.Unlock()
	l.notify()
	return m
}

// resolve replaces the placeholder id with final content.
func (l *ChatLog) resolve(id, content string) {
	l.mu.Lock()
	for i := range l.messages {
		if l.messages[i].ID == id {
			l.messages[i].Content = content
			l.messages[i].Pending = false
			break
		}
	}
	l.mu.Unlock()
	l.notify()
}

// seed puts history before anything said in this session.
func (l *ChatLog) seed(history []calendar.ChatMessage) {
	if len(history) == 0 {
		return
	}
	l.mu.Lock()
	known := make(map[string]struct{}, len(l.messages))
	for _, m := range l.messages {
		known[m.ID] = struct{}{}
	}
	merged := make([]calendar.ChatMessage, 0, len(history)+len(l.messages))
	for _, m := range history {
		if _, ok := known[m.ID]; !ok {
			merged = append(merged, m)
		}
	}
	l.messages = append(merged, l.messages...)
	l.mu.Unlock()
	l.notify()
}

func (l *ChatLog) notify() {
	select {
	case l.changed <- struct{}{}:
	default:
	}
}

// Chat returns the session's conversation.
func (o *Orchestrator) Chat() *ChatLog {
	return o.chat
}

// LoadChatHistory seeds the conversation with up to limit earlier messages.
// Failures are returned but not recorded in the store.
func (o *Orchestrator) LoadChatHistory(ctx context.Context, limit int) error {
	history, err := o.remote.FetchChatHistory(ctx, limit)
	if err != nil {
		o.log.Warn("chat history unavailable", logging.FieldOp, "chat-history", "err", err)
		return err
	}
	o.chat.seed(history)
	return nil
}

// AssistantChat sends message to the assistant. The log gains the user
// message and a placeholder which is then replaced by the formatted answer.
// Replies that changed the calendar trigger a reload. Assistant failures,
// including transport errors, become assistant messages rather than store
// errors.
func (o *Orchestrator) AssistantChat(ctx context.Context, message string) (gateway.Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	log := o.log.With(logging.FieldOp, "assistant-chat")

	o.chat.append(calendar.NewChatMessage(calendar.RoleUser, message))
	placeholder := calendar.NewChatMessage(calendar.RoleAssistant, thinking)
	placeholder.Pending = true
	o.chat.append(placeholder)

	reply, err := o.assistant.Converse(ctx, message, o.store.Snapshot().Routine)
	if err != nil {
		log.Warn("assistant failed", "err", err)
		o.chat.resolve(placeholder.ID, FormatChatError(err))
		return nil, err
	}

	o.chat.resolve(placeholder.ID, FormatReply(reply))
	log.Info("assistant replied", "reply", fmt.Sprintf("%T", reply), "mutates", reply.Mutates())
	if reply.Mutates() {
		if err := o.Reload(ctx); err != nil {
			return reply, err
		}
	}
	return reply, nil
}
