// Pending-call storage.
//
// While an OTP challenge is outstanding the original tool invocation is
// parked here, one slot per user, and replayed verbatim once the challenge
// is passed.
package auth

import (
	"sync"

	"github.com/SameedHusayn/staffsync-ai/internal/domain"
)

// PendingCalls holds at most one suspended tool call per user. Put
// overwrites: the most recent blocked request wins. Safe for concurrent use.
type PendingCalls struct {
	mu    sync.Mutex
	calls map[string]*domain.ToolCall // user id -> suspended call
}

// NewPendingCalls returns an empty store.
func NewPendingCalls() *PendingCalls {
	return &PendingCalls{calls: make(map[string]*domain.ToolCall)}
}

// Put parks call for userID, replacing any previously parked call.
func (p *PendingCalls) Put(userID string, call *domain.ToolCall) {
	p.mu.Lock()
	p.calls[userID] = call
	p.mu.Unlock()
}

// Get returns the parked call for userID, or nil.
func (p *PendingCalls) Get(userID string) *domain.ToolCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[userID]
}

// Clear removes the parked call for userID.
func (p *PendingCalls) Clear(userID string) {
	p.mu.Lock()
	delete(p.calls, userID)
	p.mu.Unlock()
}
