// Package permissions tracks whether the process holds foreground/background
// location authorization. The Gate is the single source of truth for "can we
// read position": the position source consults it before every read and
// stream start.
package permissions

import (
	"context"
	"errors"
	"sync"
)

// ErrDenied is returned when the host (or the user behind it) refuses
// location access. It is surfaced to callers and never retried automatically.
var ErrDenied = errors.New("location permission denied")

// Status is the authorization state for one scope.
type Status string

const (
	StatusUnknown   Status = "unknown"
	StatusRequested Status = "requested"
	StatusGranted   Status = "granted"
	StatusDenied    Status = "denied"
)

// Scope distinguishes foreground (app in use) from background authorization.
type Scope string

const (
	ScopeForeground Scope = "foreground"
	ScopeBackground Scope = "background"
)

// Prompter is the host environment that can show a permission prompt to the
// user. Prompt blocks until the user responds or ctx is done — the caller's
// timeout governs, not the Gate's. Implementations must honor cancellation.
type Prompter interface {
	Prompt(ctx context.Context, scope Scope) (bool, error)
}

// AutoGrant is a Prompter that always grants. Used by server builds where no
// interactive host exists, and by tests.
type AutoGrant struct{}

func (AutoGrant) Prompt(ctx context.Context, scope Scope) (bool, error) {
	return true, nil
}

// Gate holds per-scope permission state. Reads are safe from any goroutine;
// requests are serialized so two simultaneous callers cannot trigger
// inconsistent host-side prompts.
type Gate struct {
	prompter Prompter

	// promptMu serializes prompts; mu guards the state fields. Two mutexes
	// so Status stays readable while a prompt is pending.
	promptMu sync.Mutex
	mu       sync.RWMutex

	foreground Status
	background Status
}

// NewGate creates a Gate in the Unknown state for both scopes.
func NewGate(prompter Prompter) *Gate {
	return &Gate{
		prompter:   prompter,
		foreground: StatusUnknown,
		background: StatusUnknown,
	}
}

// Status returns the current state for a scope. Idempotent and side-effect
// free.
func (g *Gate) Status(scope Scope) Status {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if scope == ScopeBackground {
		return g.background
	}
	return g.foreground
}

// ForegroundGranted reports whether position reads are currently allowed.
func (g *Gate) ForegroundGranted() bool {
	return g.Status(ScopeForeground) == StatusGranted
}

// RequestForeground prompts the host for foreground authorization. Allowed
// from any state, including after a previous Denied (the host may have
// changed out-of-band), but it never re-prompts on its own — the caller
// decides whether to ask again. A ctx error leaves the state as Requested and
// is returned as-is so an abandoned prompt does not record a denial.
func (g *Gate) RequestForeground(ctx context.Context) (bool, error) {
	return g.request(ctx, ScopeForeground)
}

// RequestBackground prompts for background authorization. Background without
// a foreground grant is invalid and reports Denied without prompting.
func (g *Gate) RequestBackground(ctx context.Context) (bool, error) {
	if !g.ForegroundGranted() {
		g.setStatus(ScopeBackground, StatusDenied)
		return false, nil
	}
	return g.request(ctx, ScopeBackground)
}

func (g *Gate) request(ctx context.Context, scope Scope) (bool, error) {
	g.promptMu.Lock()
	defer g.promptMu.Unlock()

	g.setStatus(scope, StatusRequested)

	granted, err := g.prompter.Prompt(ctx, scope)
	if err != nil {
		// Abandoned or failed prompt: not a denial, leave Requested.
		return false, err
	}

	if granted {
		g.setStatus(scope, StatusGranted)
		return true, nil
	}
	g.setStatus(scope, StatusDenied)
	return false, nil
}

func (g *Gate) setStatus(scope Scope, s Status) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if scope == ScopeBackground {
		g.background = s
		return
	}
	g.foreground = s
}
