package bot

import (
	"context"
	"sync"
	"time"

	"github.com/matheus3301/chatzip/internal/bus"
	"github.com/matheus3301/chatzip/internal/digest"
	"github.com/matheus3301/chatzip/internal/store"
	"go.uber.org/zap"
)

const (
	// deleteDelay is how long a self-destructing reply stays visible.
	deleteDelay = 10 * time.Second

	sweepInterval = time.Second
	purgeInterval = time.Hour
)

type deletion struct {
	chatID    int64
	messageID int64
	due       time.Time
}

// Janitor runs the background cleanup loops: draining scheduled
// message deletions and purging stored messages past the retention
// ceiling. Deletions are best-effort; a message the user already
// removed is not an error worth surfacing.
type Janitor struct {
	transport Transport
	db        *store.DB
	bus       *bus.Bus
	logger    *zap.Logger

	mu      sync.Mutex
	pending []deletion

	cancel context.CancelFunc
	done   chan struct{}
}

// NewJanitor creates the cleanup loop.
func NewJanitor(transport Transport, db *store.DB, b *bus.Bus, logger *zap.Logger) *Janitor {
	return &Janitor{
		transport: transport,
		db:        db,
		bus:       b,
		logger:    logger,
	}
}

// Schedule queues a message for deletion after the self-destruct delay.
func (j *Janitor) Schedule(chatID, messageID int64) {
	j.mu.Lock()
	j.pending = append(j.pending, deletion{
		chatID:    chatID,
		messageID: messageID,
		due:       time.Now().Add(deleteDelay),
	})
	j.mu.Unlock()
}

// Start begins the cleanup loops in the background.
func (j *Janitor) Start(ctx context.Context) {
	ctx, j.cancel = context.WithCancel(ctx)
	j.done = make(chan struct{})
	go j.loop(ctx)
}

// Stop stops the loops and waits for them to exit.
func (j *Janitor) Stop() {
	if j.cancel != nil {
		j.cancel()
		<-j.done
	}
}

func (j *Janitor) loop(ctx context.Context) {
	defer close(j.done)

	sweep := time.NewTicker(sweepInterval)
	defer sweep.Stop()
	purge := time.NewTicker(purgeInterval)
	defer purge.Stop()

	// Purge once at startup so a long-stopped daemon catches up.
	j.purge()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sweep.C:
			j.drainDue(ctx, time.Now())
		case <-purge.C:
			j.purge()
		}
	}
}

func (j *Janitor) drainDue(ctx context.Context, now time.Time) {
	j.mu.Lock()
	var due, rest []deletion
	for _, d := range j.pending {
		if !d.due.After(now) {
			due = append(due, d)
		} else {
			rest = append(rest, d)
		}
	}
	j.pending = rest
	j.mu.Unlock()

	for _, d := range due {
		if err := j.transport.DeleteMessage(ctx, d.chatID, d.messageID); err != nil {
			j.logger.Debug("scheduled delete failed",
				zap.Int64("chat_id", d.chatID),
				zap.Int64("message_id", d.messageID),
				zap.Error(err))
			continue
		}
		j.bus.Publish(bus.Event{Kind: "janitor.deleted", Timestamp: now, Payload: d.messageID})
	}
}

func (j *Janitor) purge() {
	cutoff := time.Now().Add(-digest.MaxRetention).UnixMilli()
	n, err := j.db.PruneMessagesBefore(cutoff)
	if err != nil {
		j.logger.Error("retention purge failed", zap.Error(err))
		return
	}
	if n > 0 {
		j.logger.Info("retention purge removed messages", zap.Int64("count", n))
	}
}
