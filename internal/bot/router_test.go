package bot

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matheus3301/chatzip/internal/bus"
	"github.com/matheus3301/chatzip/internal/config"
	"github.com/matheus3301/chatzip/internal/digest"
	"github.com/matheus3301/chatzip/internal/stories"
	"github.com/matheus3301/chatzip/internal/store"
	"github.com/matheus3301/chatzip/internal/telegram"
	"go.uber.org/zap"
)

const testChatID = -100

type sentMessage struct {
	chatID int64
	text   string
	markup *telegram.InlineKeyboardMarkup
}

type fakeTransport struct {
	mu       sync.Mutex
	sent     []sentMessage
	deleted  []int64
	answered []string
	nextID   int64
}

func (f *fakeTransport) SendMessage(_ context.Context, chatID int64, text string, markup *telegram.InlineKeyboardMarkup) (*telegram.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text, markup: markup})
	f.nextID++
	return &telegram.Message{MessageID: f.nextID, Chat: telegram.Chat{ID: chatID}}, nil
}

func (f *fakeTransport) DeleteMessage(_ context.Context, _, messageID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakeTransport) AnswerCallbackQuery(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answered = append(f.answered, id)
	return nil
}

type fakeExtractor struct {
	stories []stories.Story
	err     error
}

func (f *fakeExtractor) TopStories(context.Context) ([]stories.Story, error) {
	return f.stories, f.err
}

type fakeSummarizer struct{ out string }

func (f *fakeSummarizer) Summarize(context.Context, []string) (string, error) {
	return f.out, nil
}

func testRouter(t *testing.T, threshold int, extractor stories.Extractor) (*Router, *fakeTransport, *Janitor) {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	cfg := &config.Config{
		MessageLimit:    threshold,
		TimeWindowHours: 24,
		AllowedChatIDs:  []int64{testChatID},
	}
	b := bus.New()
	logger := zap.NewNop()
	transport := &fakeTransport{}
	engine := digest.NewEngine(db, &fakeSummarizer{out: "the summary"}, b, logger, threshold, cfg.TimeWindow())
	janitor := NewJanitor(transport, db, b, logger)
	if extractor == nil {
		extractor = &fakeExtractor{}
	}
	return NewRouter(cfg, engine, transport, extractor, janitor, b, logger), transport, janitor
}

func groupMessage(id, userID int64, text string) *telegram.Message {
	return &telegram.Message{
		MessageID: id,
		From:      &telegram.User{ID: userID, Username: "user", FirstName: "User"},
		Chat:      telegram.Chat{ID: testChatID, Type: "supergroup"},
		Date:      time.Now().Unix(),
		Text:      text,
	}
}

func TestStartCommandSelfDestructsInGroups(t *testing.T) {
	r, transport, janitor := testRouter(t, 3, nil)

	r.handleEvent(context.Background(), bus.Event{Kind: "tg.command", Payload: groupMessage(1, 7, "/start")})

	if len(transport.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(transport.sent))
	}
	if !strings.Contains(transport.sent[0].text, "catch up on group chats") {
		t.Errorf("unexpected welcome text: %q", transport.sent[0].text)
	}
	janitor.mu.Lock()
	pending := len(janitor.pending)
	janitor.mu.Unlock()
	if pending != 1 {
		t.Errorf("pending deletions = %d, want 1", pending)
	}
}

func TestUnauthorizedChatMessageDropped(t *testing.T) {
	r, transport, _ := testRouter(t, 3, nil)

	msg := groupMessage(1, 7, "hello")
	msg.Chat.ID = -999
	r.handleEvent(context.Background(), bus.Event{Kind: "tg.message", Payload: msg})

	if len(transport.sent) != 0 {
		t.Errorf("sent %d messages, want 0", len(transport.sent))
	}
}

func TestUnauthorizedChatzipRejected(t *testing.T) {
	r, transport, _ := testRouter(t, 3, nil)

	msg := groupMessage(1, 7, "/chatzip")
	msg.Chat.ID = -999
	r.handleEvent(context.Background(), bus.Event{Kind: "tg.command", Payload: msg})

	if len(transport.sent) != 1 || transport.sent[0].text != restrictedText {
		t.Errorf("sent = %+v, want restricted text", transport.sent)
	}
}

func TestThresholdCrossingPromptsInDM(t *testing.T) {
	r, transport, _ := testRouter(t, 3, nil)
	ctx := context.Background()

	// Four messages from sender 8, then one from user 7: 4 unread > 3.
	for i := int64(0); i < 4; i++ {
		m := groupMessage(10+i, 8, "chatter")
		r.handleEvent(ctx, bus.Event{Kind: "tg.message", Payload: m})
	}
	r.handleEvent(ctx, bus.Event{Kind: "tg.message", Payload: groupMessage(20, 7, "hi")})

	var notice, prompt *sentMessage
	for i := range transport.sent {
		s := &transport.sent[i]
		switch s.chatID {
		case testChatID:
			notice = s
		case 7:
			prompt = s
		}
	}
	if notice == nil || !strings.Contains(notice.text, "check your DMs") {
		t.Errorf("group notice missing or wrong: %+v", notice)
	}
	if prompt == nil || prompt.markup == nil {
		t.Fatalf("DM prompt with keyboard missing: %+v", prompt)
	}
	if !strings.Contains(prompt.text, "Would you like a summary?") {
		t.Errorf("prompt text = %q", prompt.text)
	}
}

func TestChatzipBelowThresholdReportsCount(t *testing.T) {
	r, transport, _ := testRouter(t, 10, nil)
	ctx := context.Background()

	for i := int64(0); i < 2; i++ {
		r.handleEvent(ctx, bus.Event{Kind: "tg.message", Payload: groupMessage(10+i, 8, "chatter")})
	}
	r.handleEvent(ctx, bus.Event{Kind: "tg.command", Payload: groupMessage(20, 7, "/chatzip")})

	last := transport.sent[len(transport.sent)-1]
	if last.text != caughtUpText(2) {
		t.Errorf("reply = %q, want %q", last.text, caughtUpText(2))
	}
}

func TestCallbackYesDeliversSummary(t *testing.T) {
	r, transport, _ := testRouter(t, 3, nil)
	ctx := context.Background()

	for i := int64(0); i < 5; i++ {
		r.handleEvent(ctx, bus.Event{Kind: "tg.message", Payload: groupMessage(10+i, 8, "chatter")})
	}

	cb := &telegram.CallbackQuery{
		ID:   "cb1",
		From: telegram.User{ID: 7, Username: "user", FirstName: "User"},
		Message: &telegram.Message{
			MessageID: 99,
			Chat:      telegram.Chat{ID: 7, Type: "private"},
		},
		Data: "summary_yes",
	}
	r.handleEvent(ctx, bus.Event{Kind: "tg.callback", Payload: cb})

	if len(transport.answered) != 1 || transport.answered[0] != "cb1" {
		t.Errorf("answered = %v", transport.answered)
	}
	last := transport.sent[len(transport.sent)-1]
	if last.chatID != 7 || !strings.Contains(last.text, "the summary") {
		t.Errorf("summary reply = %+v", last)
	}
	if len(transport.deleted) != 1 || transport.deleted[0] != 99 {
		t.Errorf("keyboard delete = %v, want [99]", transport.deleted)
	}
}

func TestCallbackYesWhenCaughtUp(t *testing.T) {
	r, transport, _ := testRouter(t, 3, nil)

	cb := &telegram.CallbackQuery{
		ID:      "cb2",
		From:    telegram.User{ID: 7},
		Message: &telegram.Message{MessageID: 99, Chat: telegram.Chat{ID: 7, Type: "private"}},
		Data:    "summary_yes",
	}
	r.handleEvent(context.Background(), bus.Event{Kind: "tg.callback", Payload: cb})

	last := transport.sent[len(transport.sent)-1]
	if last.text != alreadyCaughtUpText {
		t.Errorf("reply = %q, want caught-up text", last.text)
	}
}

func TestCallbackNoDeclines(t *testing.T) {
	r, transport, _ := testRouter(t, 3, nil)

	cb := &telegram.CallbackQuery{
		ID:      "cb3",
		From:    telegram.User{ID: 7},
		Message: &telegram.Message{MessageID: 99, Chat: telegram.Chat{ID: 7, Type: "private"}},
		Data:    "summary_no",
	}
	r.handleEvent(context.Background(), bus.Event{Kind: "tg.callback", Payload: cb})

	last := transport.sent[len(transport.sent)-1]
	if last.text != declineText {
		t.Errorf("reply = %q, want decline text", last.text)
	}
	if len(transport.deleted) != 1 {
		t.Errorf("deleted = %v, want keyboard cleanup", transport.deleted)
	}
}

func TestWhatsHotFormatsDigest(t *testing.T) {
	extractor := &fakeExtractor{stories: []stories.Story{
		{Title: "Big news", URL: "https://example.com", Summary: "it happened"},
	}}
	r, transport, _ := testRouter(t, 3, extractor)

	r.handleEvent(context.Background(), bus.Event{Kind: "tg.command", Payload: groupMessage(1, 7, "/whatshot")})

	last := transport.sent[len(transport.sent)-1]
	if !strings.Contains(last.text, "Big news") {
		t.Errorf("digest = %q", last.text)
	}
}

func TestWhatsHotExtractionFailure(t *testing.T) {
	r, transport, _ := testRouter(t, 3, &fakeExtractor{err: context.DeadlineExceeded})

	r.handleEvent(context.Background(), bus.Event{Kind: "tg.command", Payload: groupMessage(1, 7, "/whatshot")})

	last := transport.sent[len(transport.sent)-1]
	if last.text != stories.Unavailable {
		t.Errorf("reply = %q, want unavailable text", last.text)
	}
}

func TestUnknownCommandHelp(t *testing.T) {
	r, transport, _ := testRouter(t, 3, nil)

	r.handleEvent(context.Background(), bus.Event{Kind: "tg.command", Payload: groupMessage(1, 7, "/bogus")})

	last := transport.sent[len(transport.sent)-1]
	if !strings.Contains(last.text, "don't recognize that command") {
		t.Errorf("reply = %q", last.text)
	}
}

func TestCommandName(t *testing.T) {
	cases := map[string]string{
		"/start":            "start",
		"/chatzip@SomeBot":  "chatzip",
		"/whatshot now":     "whatshot",
		"/chatzip@Bot args": "chatzip",
	}
	for in, want := range cases {
		if got := commandName(in); got != want {
			t.Errorf("commandName(%q) = %q, want %q", in, got, want)
		}
	}
}
