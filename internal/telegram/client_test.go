package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("test-token", srv.URL)
}

func TestSendMessageWithKeyboard(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bottest-token/sendMessage" {
			t.Errorf("path = %q", r.URL.Path)
		}

		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		if body["chat_id"].(float64) != 42 {
			t.Errorf("chat_id = %v", body["chat_id"])
		}
		if _, ok := body["reply_markup"]; !ok {
			t.Error("reply_markup missing")
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":     true,
			"result": map[string]any{"message_id": 7, "chat": map[string]any{"id": 42}},
		})
	})

	msg, err := c.SendMessage(context.Background(), 42, "pick one", YesNoKeyboard("summary_yes", "summary_no"))
	if err != nil {
		t.Fatal(err)
	}
	if msg.MessageID != 7 {
		t.Errorf("message_id = %d, want 7", msg.MessageID)
	}
}

func TestSendMessageAPIError(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "description": "chat not found"})
	})

	if _, err := c.SendMessage(context.Background(), 42, "x", nil); err == nil {
		t.Error("expected error for ok=false response")
	}
}

func TestGetUpdatesAdvancesOffset(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["offset"].(float64) != 5 {
			t.Errorf("offset = %v, want 5", body["offset"])
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok": true,
			"result": []map[string]any{
				{"update_id": 5, "message": map[string]any{"message_id": 1, "text": "hi", "chat": map[string]any{"id": -100}}},
			},
		})
	})

	updates, err := c.GetUpdates(context.Background(), 5, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if len(updates) != 1 || updates[0].UpdateID != 5 {
		t.Errorf("updates = %+v", updates)
	}
}

func TestDeleteMessage(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bottest-token/deleteMessage" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": true})
	})

	if err := c.DeleteMessage(context.Background(), 42, 7); err != nil {
		t.Fatal(err)
	}
}
