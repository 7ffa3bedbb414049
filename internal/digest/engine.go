package digest

import (
	"context"
	"fmt"
	"time"

	"github.com/matheus3301/chatzip/internal/bus"
	"github.com/matheus3301/chatzip/internal/logging"
	"github.com/matheus3301/chatzip/internal/sanitize"
	"github.com/matheus3301/chatzip/internal/store"
	"go.uber.org/zap"
)

// SummaryUnavailable is the fixed user-visible reply when the
// summarization service fails.
const SummaryUnavailable = "Sorry, I couldn't generate a summary at this time."

// Summarizer condenses formatted chat lines into prose.
type Summarizer interface {
	Summarize(ctx context.Context, lines []string) (string, error)
}

// Inbound is one observed chat message before sanitization.
type Inbound struct {
	MessageID int64
	ChatID    int64
	UserID    int64
	Username  string
	FirstName string
	Text      string
	At        time.Time
}

// CheckResult is the gate outcome for a message or explicit request.
type CheckResult struct {
	State       State
	UnreadCount int
}

// ConfirmResult is the outcome of a "Yes" confirmation. Delivered
// means Summary holds the reply text (real summary or the fixed
// apology); false means the user was caught up by the time they
// confirmed.
type ConfirmResult struct {
	Delivered bool
	Summary   string
	Count     int
}

// Engine is the summarization-eligibility engine: it reconciles the
// ledger, the cutoffs and the threshold into one of the four gate
// states, and drives summary generation on confirmation.
type Engine struct {
	db         *store.DB
	summarizer Summarizer
	bus        *bus.Bus
	logger     *zap.Logger
	prompts    *promptTracker

	threshold int
	window    time.Duration
}

// NewEngine creates the eligibility engine.
func NewEngine(db *store.DB, s Summarizer, b *bus.Bus, logger *zap.Logger, threshold int, window time.Duration) *Engine {
	return &Engine{
		db:         db,
		summarizer: s,
		bus:        b,
		logger:     logger,
		prompts:    newPromptTracker(),
		threshold:  threshold,
		window:     window,
	}
}

// ObserveMessage sanitizes and persists an incoming message, advances
// the sender's ledger, and returns the gate state for the sender. The
// whole sequence runs in one transaction. Storage failures are
// fail-open: logged and reported as CaughtUp with zero unread.
func (e *Engine) ObserveMessage(ctx context.Context, in Inbound) CheckResult {
	userID, username, firstName, err := sanitize.UserData(in.UserID, in.Username, in.FirstName)
	if err != nil {
		e.logger.Warn("rejecting message with invalid sender",
			zap.Int64("user_id", in.UserID),
			zap.String("correlation_id", logging.CorrelationID(ctx)))
		return CheckResult{State: CaughtUp}
	}
	body := sanitize.Text(in.Text)
	now := in.At
	if now.IsZero() {
		now = time.Now()
	}

	var res CheckResult
	err = e.db.WithTx(func(tx *store.Tx) error {
		if err := tx.InsertMessage(&store.Message{
			MessageID: in.MessageID,
			ChatID:    in.ChatID,
			UserID:    userID,
			Username:  username,
			FirstName: firstName,
			Body:      body,
			Timestamp: now.UnixMilli(),
		}); err != nil {
			return fmt.Errorf("insert message: %w", err)
		}

		var err error
		res, err = e.check(tx, userID, now)
		if err != nil {
			return err
		}

		if err := tx.RecordActivity(&store.Activity{
			UserID:        userID,
			Username:      username,
			FirstName:     firstName,
			LastSeen:      now.UnixMilli(),
			LastMessageID: in.MessageID,
		}, 0); err != nil {
			return fmt.Errorf("record activity: %w", err)
		}
		return nil
	})
	if err != nil {
		e.failOpen(ctx, "observe message", userID, err)
		return CheckResult{State: CaughtUp}
	}
	return res
}

// CheckRequest evaluates the gate for an explicit /chatzip request
// without mutating any state.
func (e *Engine) CheckRequest(ctx context.Context, userID int64) CheckResult {
	var res CheckResult
	err := e.db.WithTx(func(tx *store.Tx) error {
		var err error
		res, err = e.check(tx, userID, time.Now())
		return err
	})
	if err != nil {
		e.failOpen(ctx, "check request", userID, err)
		return CheckResult{State: CaughtUp}
	}
	return res
}

func (e *Engine) check(tx *store.Tx, userID int64, now time.Time) (CheckResult, error) {
	activity, err := tx.GetActivity(userID)
	if err != nil {
		return CheckResult{}, fmt.Errorf("get activity: %w", err)
	}

	cutoff := ResolveCutoff(activity, e.window, now)
	unread, err := tx.CountUnreadSince(userID, cutoff)
	if err != nil {
		return CheckResult{}, fmt.Errorf("count unread: %w", err)
	}

	in := GateInput{
		UnreadCount:          unread,
		Threshold:            e.threshold,
		AwaitingConfirmation: e.prompts.isPending(userID),
	}
	if activity != nil && activity.LastSummaryTS > 0 {
		in.HasPriorSummary = true
		since := SummaryCutoff(activity, e.window, now)
		fresh, err := tx.CountUnreadSince(userID, since)
		if err != nil {
			return CheckResult{}, fmt.Errorf("count since summary: %w", err)
		}
		in.NewSinceSummary = fresh
	}

	return CheckResult{State: Evaluate(in), UnreadCount: unread}, nil
}

// MarkPrompted records that a Yes/No prompt went out, so further
// implicit triggers don't double-prompt.
func (e *Engine) MarkPrompted(userID int64) {
	e.prompts.mark(userID)
	e.bus.Publish(bus.Event{Kind: "digest.prompted", Timestamp: time.Now(), Payload: userID})
}

// Decline resolves a pending prompt without a summary.
func (e *Engine) Decline(userID int64) {
	e.prompts.clear(userID)
}

// Confirm resolves a pending prompt with "Yes". It re-checks how much
// new material exists since the last summary; enough material yields a
// summary and advances the ledger, otherwise the user is caught up (a
// race with slow confirmation). A failing summarization service yields
// the fixed apology text without advancing the ledger.
func (e *Engine) Confirm(ctx context.Context, userID int64, messageID int64) ConfirmResult {
	e.prompts.clear(userID)
	now := time.Now()

	var (
		lines    []string
		activity *store.Activity
	)
	err := e.db.WithTx(func(tx *store.Tx) error {
		var err error
		activity, err = tx.GetActivity(userID)
		if err != nil {
			return fmt.Errorf("get activity: %w", err)
		}
		since := SummaryCutoff(activity, e.window, now)
		msgs, err := tx.UnreadSince(userID, since)
		if err != nil {
			return fmt.Errorf("fetch unread: %w", err)
		}
		lines = FormatLines(msgs)
		return nil
	})
	if err != nil {
		e.failOpen(ctx, "confirm", userID, err)
		return ConfirmResult{}
	}

	if len(lines) < e.threshold {
		return ConfirmResult{Count: len(lines)}
	}

	summary, err := e.summarizer.Summarize(ctx, lines)
	if err != nil {
		e.logger.Error("summarization failed",
			zap.Error(err),
			zap.Int64("user_id", userID),
			zap.String("correlation_id", logging.CorrelationID(ctx)))
		return ConfirmResult{Delivered: true, Summary: SummaryUnavailable, Count: len(lines)}
	}

	record := store.Activity{
		UserID:        userID,
		LastSeen:      now.UnixMilli(),
		LastMessageID: messageID,
	}
	if activity != nil {
		record.Username = activity.Username
		record.FirstName = activity.FirstName
	}
	if err := e.db.RecordActivity(&record, now.UnixMilli()); err != nil {
		e.failOpen(ctx, "record summary", userID, err)
	}

	e.bus.Publish(bus.Event{Kind: "digest.delivered", Timestamp: now, Payload: userID})
	return ConfirmResult{Delivered: true, Summary: summary, Count: len(lines)}
}

// FormatLines renders messages as attributable lines, oldest first:
// [timestamp] displayName: text.
func FormatLines(msgs []store.Message) []string {
	lines := make([]string, 0, len(msgs))
	for i := range msgs {
		m := &msgs[i]
		ts := time.UnixMilli(m.Timestamp).UTC().Format(time.RFC3339)
		lines = append(lines, fmt.Sprintf("[%s] %s: %s", ts, m.DisplayName(), m.Body))
	}
	return lines
}

func (e *Engine) failOpen(ctx context.Context, op string, userID int64, err error) {
	e.logger.Error("storage error, failing open",
		zap.String("op", op),
		zap.Error(err),
		zap.Int64("user_id", userID),
		zap.String("correlation_id", logging.CorrelationID(ctx)))
}
