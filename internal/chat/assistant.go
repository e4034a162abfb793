// Package chat drives the model-interaction cycle: send the conversation,
// inspect the model's decision (plain reply vs. tool invocation), run the
// authentication gate, execute the tool, fold the result back into the
// conversation, and repeat until a plain reply is produced or an
// authentication challenge suspends the turn.
//
// Two entry points exist per user: Process for chat messages and SubmitOTP
// for the dedicated verification path. A bare 6-digit code typed into chat
// while a challenge is outstanding is routed to the verification path too.
package chat

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/SameedHusayn/staffsync-ai/internal/auth"
	"github.com/SameedHusayn/staffsync-ai/internal/domain"
	"github.com/SameedHusayn/staffsync-ai/internal/llm"
	"github.com/SameedHusayn/staffsync-ai/internal/mailer"
	"github.com/SameedHusayn/staffsync-ai/internal/otp"
	"github.com/SameedHusayn/staffsync-ai/internal/search"
)

const (
	// defaultRepairMax bounds the self-repair cycle for malformed tool
	// calls. A fixed budget, not backoff: each retry is a synchronous
	// foreground generation.
	defaultRepairMax = 3

	// maxToolRounds bounds retrieval round trips within one turn so a model
	// that keeps calling tools cannot loop forever. Counted separately from
	// the repair budget: a malformed call consumes a repair, not a round.
	maxToolRounds = 5

	genericFailure = "I apologize, but I'm having trouble processing your request. Could you please rephrase or try again?"
)

var otpPattern = regexp.MustCompile(`\b\d{6}\b`)

// Reply is the outcome of one chat turn. RequireAuth tells the UI to show
// the OTP input.
type Reply struct {
	Message     string `json:"message"`
	RequireAuth bool   `json:"require_auth"`
}

// OTPResult is the outcome of an OTP submission.
type OTPResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Assistant owns the tool-call dispatch loop and the conversation history.
// All collaborators are injected; the zero value is not usable.
type Assistant struct {
	llm    llm.Client
	gate   *auth.Gate
	db     *gorm.DB
	index  search.Index
	mailer mailer.Mailer
	tools  []llm.Tool

	repairMax int
	threshold float64
	history   *historyStore
}

// Option configures an Assistant.
type Option func(*Assistant)

// WithRepairBudget overrides the malformed-tool-call retry budget.
func WithRepairBudget(n int) Option {
	return func(a *Assistant) {
		if n > 0 {
			a.repairMax = n
		}
	}
}

// WithSearchThreshold drops policy passages scoring below t from tool
// results.
func WithSearchThreshold(t float64) Option {
	return func(a *Assistant) { a.threshold = t }
}

// New wires an Assistant.
func New(client llm.Client, gate *auth.Gate, db *gorm.DB, index search.Index, m mailer.Mailer, opts ...Option) *Assistant {
	a := &Assistant{
		llm:       client,
		gate:      gate,
		db:        db,
		index:     index,
		mailer:    m,
		tools:     llm.DefaultTools(),
		repairMax: defaultRepairMax,
		history:   newHistoryStore(),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Process handles one chat message for userID and returns the reply plus
// whether the UI should prompt for an OTP.
func (a *Assistant) Process(ctx context.Context, userID, message string) Reply {
	message = strings.TrimSpace(message)

	switch message {
	case "debug_auth":
		return a.debugAuth(userID)
	case "reset_all":
		a.Reset(userID)
		return Reply{Message: "All session data has been reset."}
	}

	// A bare code while a challenge is outstanding short-circuits the model
	// entirely; the suspended call resumes on success.
	if _, pending := a.gate.PendingChallenge(userID); pending {
		if code := otpPattern.FindString(message); code != "" {
			res := a.SubmitOTP(ctx, userID, code)
			return Reply{Message: res.Message}
		}
	}

	a.history.append(userID, llm.Message{Role: llm.RoleUser, Content: message})

	repairs := 0
	rounds := 0
	for {
		turn, err := a.llm.Complete(ctx, a.history.get(userID), a.tools)
		if err != nil {
			log.Error().Err(err).Msg("model completion failed")
			return Reply{Message: genericFailure}
		}

		// Plain reply: terminal for this turn.
		if turn.Call == nil {
			a.history.append(userID, llm.Message{Role: llm.RoleAssistant, Content: turn.Text})
			return Reply{Message: turn.Text}
		}

		call, err := domain.ParseToolCall(turn.Call.Name, turn.Call.ID, turn.Call.Arguments)
		if err != nil {
			repairs++
			if repairs >= a.repairMax {
				log.Warn().Err(err).Int("attempts", repairs).Msg("repair budget exhausted")
				return Reply{Message: genericFailure}
			}
			a.appendRepair(userID, turn.Call, err)
			continue
		}

		res := a.gate.Authorize(ctx, userID, call)
		switch res.Decision {
		case auth.Denied:
			// Hard stop, shown verbatim, never retried.
			a.history.append(userID, llm.Message{Role: llm.RoleAssistant, Content: res.Message})
			return Reply{Message: res.Message}
		case auth.ChallengeIssued:
			// The call is parked; nothing enters history, so the model will
			// not see this turn as completed.
			return Reply{Message: res.Message, RequireAuth: true}
		case auth.MissingTarget, auth.Unavailable:
			return Reply{Message: res.Message}
		}

		out := a.execute(ctx, userID, call)
		if call.Name == domain.ToolFileSearch {
			// Retrieval results feed a follow-up model turn; record the
			// invocation and its result so the model can reason over them.
			m := marker(turn.Call, rounds)
			a.history.append(userID,
				llm.Message{Role: llm.RoleAssistant, ToolCall: m},
				llm.Message{Role: llm.RoleTool, Content: out.message, ToolCallID: m.ID},
			)
			rounds++
			if rounds >= maxToolRounds {
				break
			}
			continue
		}

		// Terminal action: the result is itself the user-facing answer.
		a.history.append(userID, llm.Message{Role: llm.RoleAssistant, Content: out.message})
		return Reply{Message: out.message}
	}

	log.Warn().Str("user", shortID(userID)).Msg("tool round budget exhausted")
	return Reply{Message: genericFailure}
}

// SubmitOTP handles the dedicated verification path: verify the code for
// whichever challenge this user owns and, on success, drain and execute
// the suspended call.
func (a *Assistant) SubmitOTP(ctx context.Context, userID, code string) OTPResult {
	code = strings.TrimSpace(code)
	if len(code) != otp.CodeLength {
		return OTPResult{Message: "Please enter a valid 6-digit OTP."}
	}

	outcome, empID := a.gate.CompleteChallenge(userID, code)
	switch outcome {
	case otp.NoChallenge:
		return OTPResult{Message: "No authentication process was initiated. Please try your request again."}
	case otp.WrongOwner:
		// Another user superseded this challenge; fail closed.
		return OTPResult{Message: "This code is no longer valid for your session. Please try your request again."}
	case otp.Expired:
		return OTPResult{Message: "OTP has expired. Please try your request again."}
	case otp.Mismatch:
		return OTPResult{Message: "Incorrect OTP. Please try again."}
	}

	log.Info().Str("employee_id", empID).Msg("OTP verified, resuming suspended call")

	call := a.gate.PendingCall(userID)
	if call == nil {
		// Bare "log me in" flow: nothing to resume.
		return OTPResult{Success: true, Message: "Authentication successful!"}
	}

	out := a.execute(ctx, userID, call)
	a.gate.ClearPending(userID)
	a.history.append(userID, llm.Message{Role: llm.RoleAssistant, Content: out.message})

	return OTPResult{Success: out.ok, Message: out.message}
}

// Reset wipes everything known about the user: transcript, authentication,
// suspended call, and any live challenge.
func (a *Assistant) Reset(userID string) {
	a.gate.Reset(userID)
	a.history.reset(userID)
}

func (a *Assistant) debugAuth(userID string) Reply {
	emp, ok := a.gate.AuthenticatedEmployee(userID)
	if !ok {
		emp = "None"
	}
	return Reply{Message: fmt.Sprintf("User: %s...\nAuthenticated as Employee: %s", shortID(userID), emp)}
}

// appendRepair records the malformed attempt and corrective instructions
// so the next completion can self-repair.
func (a *Assistant) appendRepair(userID string, raw *llm.RawToolCall, cause error) {
	repair := fmt.Sprintf(`Your previous reply contained a tool call that did not follow the required schema.

Error details:
%s

Please note:
1. Employee ID must be an actual ID, not a placeholder like "your_employee_id"
2. If you don't have the employee ID, you should ASK the user for it first, don't call the function

Please reply again with exactly one valid tool call that satisfies the schema you were given, or respond with a normal text message if a tool call is not needed or information is missing.`, cause)

	a.history.append(userID,
		llm.Message{Role: llm.RoleAssistant, Content: fmt.Sprintf("%s(%s)", raw.Name, raw.Arguments)},
		llm.Message{Role: llm.RoleSystem, Content: repair},
	)
}

// marker normalizes a tool-call entry for history. Local backends omit the
// call id, which the chat API requires, so one is synthesized.
func marker(raw *llm.RawToolCall, round int) *llm.RawToolCall {
	m := *raw
	if m.ID == "" {
		m.ID = fmt.Sprintf("call_%d", round)
	}
	return &m
}

func shortID(userID string) string {
	if len(userID) > 8 {
		return userID[:8]
	}
	return userID
}
