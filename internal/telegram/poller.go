package telegram

import (
	"context"
	"strings"
	"time"

	"github.com/matheus3301/chatzip/internal/bus"
	"go.uber.org/zap"
)

// Poller drives the getUpdates long poll and publishes parsed updates
// on the bus: "tg.command" for slash commands, "tg.message" for plain
// text, "tg.callback" for button presses.
type Poller struct {
	client *Client
	bus    *bus.Bus
	logger *zap.Logger
	cancel context.CancelFunc
}

// NewPoller creates the update poller.
func NewPoller(client *Client, b *bus.Bus, logger *zap.Logger) *Poller {
	return &Poller{
		client: client,
		bus:    b,
		logger: logger,
	}
}

// Start begins polling in the background.
func (p *Poller) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	go p.loop(ctx)
}

// Stop stops the poll loop.
func (p *Poller) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
}

func (p *Poller) loop(ctx context.Context) {
	var offset int64
	for {
		if ctx.Err() != nil {
			return
		}

		updates, err := p.client.GetUpdates(ctx, offset, 30*time.Second)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Warn("getUpdates failed, backing off", zap.Error(err))
			select {
			case <-time.After(3 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		for i := range updates {
			u := &updates[i]
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			p.publish(u)
		}
	}
}

func (p *Poller) publish(u *Update) {
	now := time.Now()
	switch {
	case u.CallbackQuery != nil:
		p.bus.Publish(bus.Event{Kind: "tg.callback", Timestamp: now, Payload: u.CallbackQuery})
	case u.Message != nil && strings.HasPrefix(u.Message.Text, "/"):
		p.bus.Publish(bus.Event{Kind: "tg.command", Timestamp: now, Payload: u.Message})
	case u.Message != nil && u.Message.Text != "":
		p.bus.Publish(bus.Event{Kind: "tg.message", Timestamp: now, Payload: u.Message})
	}
}
