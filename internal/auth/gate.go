// Package auth implements the authentication gate that sits between the
// tool-call dispatch loop and any function touching personal data. The gate
// owns two pieces of per-user state: the mapping of users to the employee
// identity they have proven control over, and the single-slot store of tool
// calls suspended behind an outstanding OTP challenge.
//
// Authorization is strict equality: a user authenticated as employee E may
// only invoke employee-scoped tools with employee_id == E. There is no
// role hierarchy and no admin override.
package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/SameedHusayn/staffsync-ai/internal/domain"
	"github.com/SameedHusayn/staffsync-ai/internal/otp"
)

// Decision is the kind of a gate result.
type Decision int

// Gate decisions.
const (
	// Allowed: execute the call.
	Allowed Decision = iota
	// Denied: cross-employee access; hard stop, no challenge.
	Denied
	// ChallengeIssued: the call is parked and an OTP is on its way.
	ChallengeIssued
	// MissingTarget: the call names no employee id to authenticate against,
	// or names one the directory does not know.
	MissingTarget
	// Unavailable: a backing store failed; nothing was parked or issued and
	// the user should simply retry.
	Unavailable
)

// Result is the gate's answer for one tool call. Message is user-facing
// text for every decision except Allowed.
type Result struct {
	Decision Decision
	Message  string
}

// Directory is the slice of the employee store the gate needs: resolving an
// employee id to the email that receives the OTP.
type Directory interface {
	EmployeeEmail(ctx context.Context, employeeID string) (string, bool, error)
}

// OTPSender delivers a code out of band. Implementations must not block on
// delivery failures; a failed send still leaves a verifiable challenge.
type OTPSender interface {
	SendOTP(ctx context.Context, email, code string) bool
}

// Gate decides whether a tool call may execute for the calling user.
type Gate struct {
	directory Directory
	ledger    *otp.Ledger
	pending   *PendingCalls
	sender    OTPSender

	mu            sync.Mutex
	authenticated map[string]string // user id -> employee id
}

// NewGate wires a gate from its collaborators.
func NewGate(directory Directory, ledger *otp.Ledger, pending *PendingCalls, sender OTPSender) *Gate {
	return &Gate{
		directory:     directory,
		ledger:        ledger,
		pending:       pending,
		sender:        sender,
		authenticated: make(map[string]string),
	}
}

// allowlisted reports whether the function runs without authentication.
// Only the policy search is exempt: it reads shared documents, never
// personal data.
func allowlisted(name domain.ToolName) bool {
	return name == domain.ToolFileSearch
}

// Authorize applies the gate to one parsed tool call.
//
// The outcomes map one-to-one onto the caller's behavior: Allowed executes,
// Denied is shown verbatim and never retried, ChallengeIssued suspends the
// call and prompts for the OTP, MissingTarget asks the user for a usable
// employee id, and Unavailable reports a transient backend failure.
func (g *Gate) Authorize(ctx context.Context, userID string, call *domain.ToolCall) Result {
	if allowlisted(call.Name) {
		return Result{Decision: Allowed}
	}

	target, scoped := call.EmployeeTarget()
	if !scoped || target == "" {
		return Result{
			Decision: MissingTarget,
			Message:  "Please provide your employee ID to proceed.",
		}
	}

	if emp, ok := g.AuthenticatedEmployee(userID); ok {
		if emp == target {
			return Result{Decision: Allowed}
		}
		log.Warn().
			Str("authenticated_as", emp).
			Str("requested", target).
			Str("tool", string(call.Name)).
			Msg("cross-employee access denied")
		return Result{
			Decision: Denied,
			Message: fmt.Sprintf(
				"Access denied: you are authenticated as employee %s and cannot access records for employee %s.",
				emp, target),
		}
	}

	email, found, err := g.directory.EmployeeEmail(ctx, target)
	if err != nil {
		log.Error().Err(err).Str("employee_id", target).Msg("directory lookup failed")
		return Result{
			Decision: Unavailable,
			Message:  "I couldn't look up that employee ID right now. Please try again in a moment.",
		}
	}
	if !found {
		return Result{
			Decision: MissingTarget,
			Message: fmt.Sprintf(
				"No email found for employee ID %s. Please check your ID and try again.", target),
		}
	}

	// Park the call, then mint the challenge. Last blocked request wins:
	// whatever challenge this user already owns, for any employee, dies here
	// so exactly one code is ever verifiable per user.
	if prev, ok := g.ledger.PendingEmployeeFor(userID); ok {
		g.ledger.Drop(prev)
	}
	g.pending.Put(userID, call)

	ch, err := g.ledger.Issue(target, userID)
	if err != nil {
		g.pending.Clear(userID)
		log.Error().Err(err).Msg("issuing OTP challenge failed")
		return Result{
			Decision: Unavailable,
			Message:  "Something went wrong starting authentication. Please try again.",
		}
	}

	// Delivery happens outside every store lock; a failed send is logged by
	// the sender and the challenge stays verifiable.
	g.sender.SendOTP(ctx, email, ch.Code)

	return Result{
		Decision: ChallengeIssued,
		Message: fmt.Sprintf(
			"Please check your email (%s) for your one-time password (OTP) and enter it here to continue.",
			MaskEmail(email)),
	}
}

// CompleteChallenge verifies code for whichever challenge this user owns.
// On Verified the user becomes authenticated as that employee. The employee
// id is returned for logging; outcome NoChallenge also covers the case
// where the user owns no challenge at all.
func (g *Gate) CompleteChallenge(userID, code string) (otp.Outcome, string) {
	empID, ok := g.ledger.PendingEmployeeFor(userID)
	if !ok {
		return otp.NoChallenge, ""
	}
	out := g.ledger.Verify(userID, empID, code)
	if out == otp.Verified {
		g.mu.Lock()
		g.authenticated[userID] = empID
		g.mu.Unlock()
		log.Info().Str("employee_id", empID).Msg("user authenticated")
	}
	return out, empID
}

// PendingChallenge returns the employee id of the challenge this user
// owns, if one is outstanding.
func (g *Gate) PendingChallenge(userID string) (string, bool) {
	return g.ledger.PendingEmployeeFor(userID)
}

// AuthenticatedEmployee returns the employee id this user has proven
// control over, if any.
func (g *Gate) AuthenticatedEmployee(userID string) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	emp, ok := g.authenticated[userID]
	return emp, ok
}

// PendingCall returns this user's suspended call, or nil.
func (g *Gate) PendingCall(userID string) *domain.ToolCall {
	return g.pending.Get(userID)
}

// ClearPending drops this user's suspended call.
func (g *Gate) ClearPending(userID string) {
	g.pending.Clear(userID)
}

// Reset clears everything the gate knows about the user: authentication,
// suspended call, and every challenge the user owns.
func (g *Gate) Reset(userID string) {
	for {
		empID, ok := g.ledger.PendingEmployeeFor(userID)
		if !ok {
			break
		}
		g.ledger.Drop(empID)
	}
	g.pending.Clear(userID)
	g.mu.Lock()
	delete(g.authenticated, userID)
	g.mu.Unlock()
}

// MaskEmail hides most of the local part of an address for user-facing
// text: "abcdef@example.com" becomes "abc***@example.com". Full addresses
// never appear in chat output or logs.
func MaskEmail(email string) string {
	at := strings.IndexByte(email, '@')
	if at <= 0 {
		return "***"
	}
	local, dom := email[:at], email[at+1:]
	keep := 3
	if keep > len(local) {
		keep = len(local)
	}
	return local[:keep] + strings.Repeat("*", len(local)-keep) + "@" + dom
}
