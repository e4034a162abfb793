// Conversation history store.
//
// The dispatch loop exclusively owns the per-user conversation transcript.
// Entries are append-only during normal operation and the whole transcript
// is reset wholesale on explicit reset. A turn that gets suspended for
// authentication leaves no trace here: the model must never see an
// unresolved tool invocation.
package chat

import (
	"fmt"
	"sync"
	"time"

	"github.com/SameedHusayn/staffsync-ai/internal/llm"
)

// systemPrompt introduces the assistant persona. The current date is
// interpolated so relative leave dates resolve sensibly.
const systemPrompt = "You are Avy, an HR assistant for StaffSync.AI. You help employees with leave requests, balance inquiries, and HR policy questions. You can also search HR policy documents for relevant information. Today's date is %s."

type historyStore struct {
	mu      sync.Mutex
	byUser  map[string][]llm.Message
	nowFunc func() time.Time
}

func newHistoryStore() *historyStore {
	return &historyStore{
		byUser:  make(map[string][]llm.Message),
		nowFunc: time.Now,
	}
}

func (h *historyStore) systemMessage() llm.Message {
	return llm.Message{
		Role:    llm.RoleSystem,
		Content: fmt.Sprintf(systemPrompt, h.nowFunc().Format("2006-01-02")),
	}
}

// get returns a copy of the user's transcript, seeding the system prompt
// on first use. The copy keeps callers from mutating shared state while a
// turn is in flight.
func (h *historyStore) get(userID string) []llm.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	msgs, ok := h.byUser[userID]
	if !ok {
		msgs = []llm.Message{h.systemMessage()}
		h.byUser[userID] = msgs
	}
	out := make([]llm.Message, len(msgs))
	copy(out, msgs)
	return out
}

// append adds entries to the user's transcript.
func (h *historyStore) append(userID string, msgs ...llm.Message) {
	h.mu.Lock()
	h.byUser[userID] = append(h.byUser[userID], msgs...)
	h.mu.Unlock()
}

// reset drops the transcript back to a fresh system prompt.
func (h *historyStore) reset(userID string) {
	h.mu.Lock()
	h.byUser[userID] = []llm.Message{h.systemMessage()}
	h.mu.Unlock()
}
