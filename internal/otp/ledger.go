// Package otp implements the one-time-password ledger used to step up
// authentication before employee-scoped tool calls run. Challenges are
// keyed by employee id, owned by the requesting user, and expire after a
// fixed window. The ledger only mints and verifies codes; delivering them
// (email) is the caller's problem and never blocks verification.
package otp

import (
	"crypto/rand"
	"math/big"
	"sync"
	"time"
)

// DefaultTTL is how long an issued code stays verifiable.
const DefaultTTL = 10 * time.Minute

// CodeLength is the number of digits in a challenge code.
const CodeLength = 6

// Outcome classifies the result of a verification attempt.
type Outcome int

// Verification outcomes. Only Verified authorizes progression.
const (
	// NoChallenge: no live challenge exists for the employee id.
	NoChallenge Outcome = iota
	// WrongOwner: the challenge belongs to a different user. The challenge
	// stays live for its owner.
	WrongOwner
	// Expired: the challenge outlived its TTL and has been removed.
	Expired
	// Mismatch: wrong code; the challenge stays live for a retry.
	Mismatch
	// Verified: correct code; the challenge has been consumed.
	Verified
)

// String returns a short label for logging.
func (o Outcome) String() string {
	switch o {
	case NoChallenge:
		return "no_challenge"
	case WrongOwner:
		return "wrong_owner"
	case Expired:
		return "expired"
	case Mismatch:
		return "mismatch"
	case Verified:
		return "verified"
	default:
		return "unknown"
	}
}

// Challenge is one live OTP entry.
type Challenge struct {
	EmployeeID string
	Code       string
	UserID     string
	ExpiresAt  time.Time
}

// Ledger stores at most one live challenge per employee id. Issuing a new
// challenge for the same employee silently supersedes the old one; the
// ownership check at verification makes a superseded code fail closed.
// All methods are safe for concurrent use.
type Ledger struct {
	mu      sync.Mutex
	pending map[string]Challenge // employee id -> challenge
	ttl     time.Duration
	now     func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithTTL overrides the challenge lifetime.
func WithTTL(d time.Duration) Option {
	return func(l *Ledger) {
		if d > 0 {
			l.ttl = d
		}
	}
}

// WithClock injects a time source (tests).
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// NewLedger returns an empty ledger with the default 10-minute TTL.
func NewLedger(opts ...Option) *Ledger {
	l := &Ledger{
		pending: make(map[string]Challenge),
		ttl:     DefaultTTL,
		now:     time.Now,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Issue mints a fresh challenge for employeeID owned by userID, replacing
// any prior challenge for the same employee. The returned challenge carries
// the code for out-of-band delivery.
func (l *Ledger) Issue(employeeID, userID string) (Challenge, error) {
	code, err := generateCode()
	if err != nil {
		return Challenge{}, err
	}

	ch := Challenge{
		EmployeeID: employeeID,
		Code:       code,
		UserID:     userID,
		ExpiresAt:  l.now().Add(l.ttl),
	}

	l.mu.Lock()
	l.pending[employeeID] = ch
	l.mu.Unlock()

	return ch, nil
}

// Verify checks code against the live challenge for employeeID on behalf of
// userID. An expired challenge is deleted as a side effect no matter who
// attempts it. A Verified outcome consumes the challenge; a Mismatch
// leaves it in place for retry.
func (l *Ledger) Verify(userID, employeeID, code string) Outcome {
	l.mu.Lock()
	defer l.mu.Unlock()

	ch, ok := l.pending[employeeID]
	if !ok {
		return NoChallenge
	}
	if l.now().After(ch.ExpiresAt) {
		delete(l.pending, employeeID)
		return Expired
	}
	if ch.UserID != userID {
		return WrongOwner
	}
	if ch.Code != code {
		return Mismatch
	}
	delete(l.pending, employeeID)
	return Verified
}

// PendingEmployeeFor returns the employee id of the challenge owned by
// userID, if any. The OTP re-entry path uses this to resolve which employee
// a bare 6-digit code is meant for.
func (l *Ledger) PendingEmployeeFor(userID string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for empID, ch := range l.pending {
		if ch.UserID == userID {
			return empID, true
		}
	}
	return "", false
}

// Drop removes any live challenge for employeeID. Used by session resets.
func (l *Ledger) Drop(employeeID string) {
	l.mu.Lock()
	delete(l.pending, employeeID)
	l.mu.Unlock()
}

// generateCode draws a uniform 6-digit code from crypto/rand. Predictable
// codes would defeat the whole control, so math/rand is not acceptable here.
func generateCode() (string, error) {
	const digits = "0123456789"
	buf := make([]byte, CodeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
		if err != nil {
			return "", err
		}
		buf[i] = digits[n.Int64()]
	}
	return string(buf), nil
}
