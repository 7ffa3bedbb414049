package digest

import "sync"

// State represents a user's position in the summary-offer flow.
type State string

const (
	CaughtUp             State = "CAUGHT_UP"
	EligibleForPrompt    State = "ELIGIBLE_FOR_PROMPT"
	AwaitingConfirmation State = "AWAITING_CONFIRMATION"
	Throttled            State = "THROTTLED"
)

// GateInput carries everything the eligibility decision needs, so the
// gate can be exercised with no transport or storage behind it.
type GateInput struct {
	UnreadCount     int
	Threshold       int
	HasPriorSummary bool
	// NewSinceSummary counts messages newer than the summary cutoff
	// (max of last_summary and now-window). Only meaningful when
	// HasPriorSummary is true.
	NewSinceSummary int
	// AwaitingConfirmation is true while a Yes/No prompt for this user
	// is unresolved; it suppresses duplicate prompts.
	AwaitingConfirmation bool
}

// Evaluate returns the gate state for one interaction. A prior summary
// throttles before the unread threshold is considered: a repeat offer
// needs enough new material since the last summary, not just a large
// unread backlog. THROTTLED means some new material exists but not
// enough; with zero new messages since the summary the user is simply
// CAUGHT_UP. Both suppress the prompt, the split only affects which
// notice a caller renders.
func Evaluate(in GateInput) State {
	if in.AwaitingConfirmation {
		return AwaitingConfirmation
	}
	if in.HasPriorSummary && in.NewSinceSummary < in.Threshold {
		if in.NewSinceSummary > 0 {
			return Throttled
		}
		return CaughtUp
	}
	if in.UnreadCount > in.Threshold {
		return EligibleForPrompt
	}
	return CaughtUp
}

// promptTracker remembers which users have an unresolved Yes/No prompt.
// In-memory only: a restart drops pending prompts, which at worst means
// one extra offer.
type promptTracker struct {
	mu      sync.Mutex
	pending map[int64]struct{}
}

func newPromptTracker() *promptTracker {
	return &promptTracker{pending: make(map[int64]struct{})}
}

func (p *promptTracker) mark(userID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending[userID] = struct{}{}
}

func (p *promptTracker) clear(userID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.pending, userID)
}

func (p *promptTracker) isPending(userID int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.pending[userID]
	return ok
}
