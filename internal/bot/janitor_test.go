package bot

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/matheus3301/chatzip/internal/bus"
	"github.com/matheus3301/chatzip/internal/digest"
	"github.com/matheus3301/chatzip/internal/store"
	"go.uber.org/zap"
)

func testJanitor(t *testing.T) (*Janitor, *fakeTransport, *store.DB) {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	transport := &fakeTransport{}
	return NewJanitor(transport, db, bus.New(), zap.NewNop()), transport, db
}

func TestDrainDueDeletesOnlyDue(t *testing.T) {
	j, transport, _ := testJanitor(t)

	j.Schedule(-100, 1)
	j.Schedule(-100, 2)

	// Nothing is due yet.
	j.drainDue(context.Background(), time.Now())
	if len(transport.deleted) != 0 {
		t.Fatalf("deleted = %v, want none before delay", transport.deleted)
	}

	j.drainDue(context.Background(), time.Now().Add(deleteDelay+time.Second))
	if len(transport.deleted) != 2 {
		t.Errorf("deleted = %v, want both after delay", transport.deleted)
	}

	j.mu.Lock()
	pending := len(j.pending)
	j.mu.Unlock()
	if pending != 0 {
		t.Errorf("pending = %d, want 0", pending)
	}
}

func TestPurgeRemovesOnlyExpiredMessages(t *testing.T) {
	j, _, db := testJanitor(t)
	now := time.Now()

	old := now.Add(-digest.MaxRetention - time.Hour).UnixMilli()
	fresh := now.Add(-time.Hour).UnixMilli()
	for i, ts := range []int64{old, fresh} {
		err := db.InsertMessage(&store.Message{
			MessageID: int64(i + 1), ChatID: -100, UserID: 8,
			Username: "u", FirstName: "U", Body: "x", Timestamp: ts,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	j.purge()

	count, err := db.CountUnreadSince(999, 0)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("remaining messages = %d, want 1", count)
	}
}
