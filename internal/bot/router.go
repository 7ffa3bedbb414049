// Package bot routes inbound Telegram events to the digest engine and
// the trending-stories client, and renders the replies.
package bot

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/matheus3301/chatzip/internal/bus"
	"github.com/matheus3301/chatzip/internal/config"
	"github.com/matheus3301/chatzip/internal/digest"
	"github.com/matheus3301/chatzip/internal/logging"
	"github.com/matheus3301/chatzip/internal/stories"
	"github.com/matheus3301/chatzip/internal/telegram"
	"go.uber.org/zap"
)

// Transport is the outbound side of the Telegram client, narrowed so
// tests can substitute a fake.
type Transport interface {
	SendMessage(ctx context.Context, chatID int64, text string, markup *telegram.InlineKeyboardMarkup) (*telegram.Message, error)
	DeleteMessage(ctx context.Context, chatID, messageID int64) error
	AnswerCallbackQuery(ctx context.Context, callbackID string) error
}

// Router consumes tg.* bus events and dispatches them: plain messages
// feed the engine's ledger, commands and button presses drive replies.
type Router struct {
	cfg       *config.Config
	engine    *digest.Engine
	transport Transport
	stories   stories.Extractor
	janitor   *Janitor
	bus       *bus.Bus
	logger    *zap.Logger

	unsub func()
	done  chan struct{}
}

// NewRouter creates the event router.
func NewRouter(cfg *config.Config, engine *digest.Engine, transport Transport, extractor stories.Extractor, janitor *Janitor, b *bus.Bus, logger *zap.Logger) *Router {
	return &Router{
		cfg:       cfg,
		engine:    engine,
		transport: transport,
		stories:   extractor,
		janitor:   janitor,
		bus:       b,
		logger:    logger,
	}
}

// Start subscribes to tg.* events and begins dispatching.
func (r *Router) Start(ctx context.Context) {
	ch, unsub := r.bus.Subscribe("tg.", 64)
	r.unsub = unsub
	r.done = make(chan struct{})

	go func() {
		defer close(r.done)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-ch:
				if !ok {
					return
				}
				r.handleEvent(ctx, evt)
			}
		}
	}()
}

// Stop unsubscribes and waits for in-flight dispatch to finish.
func (r *Router) Stop() {
	if r.unsub != nil {
		r.unsub()
	}
	if r.done != nil {
		<-r.done
	}
}

func (r *Router) handleEvent(ctx context.Context, evt bus.Event) {
	ctx = logging.WithCorrelationID(ctx, uuid.NewString())

	switch evt.Kind {
	case "tg.message":
		if msg, ok := evt.Payload.(*telegram.Message); ok {
			r.handleMessage(ctx, msg)
		}
	case "tg.command":
		if msg, ok := evt.Payload.(*telegram.Message); ok {
			r.handleCommand(ctx, msg)
		}
	case "tg.callback":
		if cb, ok := evt.Payload.(*telegram.CallbackQuery); ok {
			r.handleCallback(ctx, cb)
		}
	}
}

func (r *Router) handleMessage(ctx context.Context, msg *telegram.Message) {
	if msg.From == nil {
		return
	}
	if !r.cfg.ChatAllowed(msg.Chat.ID) {
		r.logger.Debug("dropping message from unauthorized chat",
			zap.Int64("chat_id", msg.Chat.ID),
			zap.String("correlation_id", logging.CorrelationID(ctx)))
		return
	}

	res := r.engine.ObserveMessage(ctx, digest.Inbound{
		MessageID: msg.MessageID,
		ChatID:    msg.Chat.ID,
		UserID:    msg.From.ID,
		Username:  msg.From.Username,
		FirstName: msg.From.FirstName,
		Text:      msg.Text,
		At:        time.Unix(msg.Date, 0),
	})
	if res.State == digest.EligibleForPrompt {
		r.promptUser(ctx, msg.From, msg.Chat.ID)
	}
}

func (r *Router) handleCommand(ctx context.Context, msg *telegram.Message) {
	if msg.From == nil {
		return
	}
	switch commandName(msg.Text) {
	case "start":
		r.reply(ctx, msg.Chat, welcomeText(r.cfg.MessageLimit))
	case "chatzip":
		r.handleChatzip(ctx, msg)
	case "whatshot":
		r.handleWhatsHot(ctx, msg)
	default:
		r.reply(ctx, msg.Chat, unknownCommandText)
	}
}

func (r *Router) handleChatzip(ctx context.Context, msg *telegram.Message) {
	if !r.cfg.ChatAllowed(msg.Chat.ID) {
		r.logger.Info("rejecting /chatzip from unauthorized chat",
			zap.Int64("chat_id", msg.Chat.ID),
			zap.String("correlation_id", logging.CorrelationID(ctx)))
		r.reply(ctx, msg.Chat, restrictedText)
		return
	}

	res := r.engine.CheckRequest(ctx, msg.From.ID)
	switch res.State {
	case digest.EligibleForPrompt, digest.AwaitingConfirmation:
		// An explicit request re-sends the prompt even when one is
		// already pending; only implicit triggers are suppressed.
		r.promptUser(ctx, msg.From, msg.Chat.ID)
	case digest.Throttled:
		r.reply(ctx, msg.Chat, alreadyCaughtUpText)
	default:
		r.reply(ctx, msg.Chat, caughtUpText(res.UnreadCount))
	}
}

func (r *Router) handleWhatsHot(ctx context.Context, msg *telegram.Message) {
	if !r.cfg.ChatAllowed(msg.Chat.ID) {
		r.reply(ctx, msg.Chat, restrictedText)
		return
	}

	top, err := r.stories.TopStories(ctx)
	if err != nil {
		r.logger.Error("story extraction failed",
			zap.Error(err),
			zap.String("correlation_id", logging.CorrelationID(ctx)))
		r.send(ctx, msg.Chat.ID, stories.Unavailable, nil)
		return
	}
	r.send(ctx, msg.Chat.ID, stories.FormatDigest(top), nil)
}

func (r *Router) handleCallback(ctx context.Context, cb *telegram.CallbackQuery) {
	if err := r.transport.AnswerCallbackQuery(ctx, cb.ID); err != nil {
		r.logger.Debug("answer callback failed", zap.Error(err))
	}

	var keyboardMessageID int64
	if cb.Message != nil {
		keyboardMessageID = cb.Message.MessageID
	}

	switch cb.Data {
	case "summary_yes":
		res := r.engine.Confirm(ctx, cb.From.ID, keyboardMessageID)
		if res.Delivered {
			r.send(ctx, cb.From.ID, summaryText(res.Summary), nil)
		} else {
			r.send(ctx, cb.From.ID, alreadyCaughtUpText, nil)
		}
	case "summary_no":
		r.engine.Decline(cb.From.ID)
		r.send(ctx, cb.From.ID, declineText, nil)
	}

	// Clean up the Yes/No keyboard message.
	if cb.Message != nil {
		if err := r.transport.DeleteMessage(ctx, cb.Message.Chat.ID, keyboardMessageID); err != nil {
			r.logger.Debug("keyboard cleanup failed", zap.Error(err))
		}
	}
}

// promptUser marks the prompt pending, posts the self-destructing
// group notice when triggered from a group, and sends the Yes/No
// keyboard in the user's DMs.
func (r *Router) promptUser(ctx context.Context, user *telegram.User, chatID int64) {
	r.engine.MarkPrompted(user.ID)

	if chatID != user.ID {
		name := user.FirstName
		if name == "" {
			name = user.Username
		}
		notice, err := r.transport.SendMessage(ctx, chatID, dmNoticeText(name), nil)
		if err != nil {
			r.logger.Warn("group notice failed", zap.Error(err),
				zap.String("correlation_id", logging.CorrelationID(ctx)))
		} else {
			r.janitor.Schedule(chatID, notice.MessageID)
		}
	}

	r.send(ctx, user.ID, promptText(r.cfg.MessageLimit), telegram.YesNoKeyboard("summary_yes", "summary_no"))
}

// reply sends to the originating chat and self-destructs in groups.
func (r *Router) reply(ctx context.Context, chat telegram.Chat, text string) {
	msg, err := r.transport.SendMessage(ctx, chat.ID, text, nil)
	if err != nil {
		r.logger.Warn("send failed", zap.Error(err),
			zap.Int64("chat_id", chat.ID),
			zap.String("correlation_id", logging.CorrelationID(ctx)))
		return
	}
	if !chat.IsPrivate() {
		r.janitor.Schedule(chat.ID, msg.MessageID)
	}
}

func (r *Router) send(ctx context.Context, chatID int64, text string, markup *telegram.InlineKeyboardMarkup) {
	if _, err := r.transport.SendMessage(ctx, chatID, text, markup); err != nil {
		r.logger.Warn("send failed", zap.Error(err),
			zap.Int64("chat_id", chatID),
			zap.String("correlation_id", logging.CorrelationID(ctx)))
	}
}

// commandName extracts the bare command from "/cmd@botname args".
func commandName(text string) string {
	cmd, _, _ := strings.Cut(strings.TrimPrefix(text, "/"), " ")
	cmd, _, _ = strings.Cut(cmd, "@")
	return cmd
}
