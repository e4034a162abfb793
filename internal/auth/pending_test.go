package auth

import (
	"testing"

	"github.com/SameedHusayn/staffsync-ai/internal/domain"
)

func TestPendingCalls_LastWriterWins(t *testing.T) {
	p := NewPendingCalls()

	if p.Get("user-a") != nil {
		t.Fatalf("fresh store should be empty")
	}

	first := &domain.ToolCall{Name: domain.ToolGetEmployeeBalance}
	second := &domain.ToolCall{Name: domain.ToolGetEmployeeLogs}

	p.Put("user-a", first)
	p.Put("user-a", second)

	if got := p.Get("user-a"); got != second {
		t.Fatalf("expected the most recent call to win, got %+v", got)
	}

	// Slots are per user.
	p.Put("user-b", first)
	if p.Get("user-b") != first {
		t.Fatalf("user-b slot clobbered")
	}

	p.Clear("user-a")
	if p.Get("user-a") != nil {
		t.Fatalf("clear failed")
	}
	if p.Get("user-b") != first {
		t.Fatalf("clear of user-a must not touch user-b")
	}
}
