package session

import (
	"context"
	"testing"

	"github.com/emojikey/emojikey-server/internal/store"
)

func TestStartMintsUniqueConversationIDs(t *testing.T) {
	mock := store.NewMock()
	m := NewManager(mock, "model-1")

	a := m.Start(context.Background(), "u1")
	b := m.Start(context.Background(), "u1")
	if a.ConversationID == "" || b.ConversationID == "" {
		t.Fatalf("conversation ID should not be empty")
	}
	if a.ConversationID == b.ConversationID {
		t.Fatalf("conversation IDs collide: %q", a.ConversationID)
	}
}

func TestStartWithNoHistoryHasNoBaseline(t *testing.T) {
	mock := store.NewMock()
	m := NewManager(mock, "model-1")

	sess := m.Start(context.Background(), "u1")
	if sess.BaselineKey != "" {
		t.Fatalf("BaselineKey = %q, want empty", sess.BaselineKey)
	}
	if len(mock.Stored()) != 0 {
		t.Fatalf("no seed record expected for empty history, got %d", len(mock.Stored()))
	}
}

func TestStartSeedsNewConversationWithLatestKey(t *testing.T) {
	mock := store.NewMock()
	ctx := context.Background()
	if _, err := mock.Insert(ctx, store.Record{
		UserID:         "u1",
		ModelID:        "model-1",
		ConversationID: "old-conversation",
		Emojikey:       "[ME|🧠🎨8∠45]",
	}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	m := NewManager(mock, "model-1")
	sess := m.Start(ctx, "u1")
	if sess.BaselineKey != "[ME|🧠🎨8∠45]" {
		t.Fatalf("BaselineKey = %q, want prior key", sess.BaselineKey)
	}

	seeded, err := mock.Latest(ctx, "u1", "model-1", sess.ConversationID)
	if err != nil {
		t.Fatalf("Latest(new conversation) error = %v", err)
	}
	if seeded.Emojikey != "[ME|🧠🎨8∠45]" {
		t.Fatalf("seed record = %q, want baseline key", seeded.Emojikey)
	}
}

func TestStartSwallowsSeedFailure(t *testing.T) {
	mock := store.NewMock()
	ctx := context.Background()
	if _, err := mock.Insert(ctx, store.Record{
		UserID:   "u1",
		ModelID:  "model-1",
		Emojikey: "baseline",
	}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	mock.FailAllInserts = true

	m := NewManager(mock, "model-1")
	sess := m.Start(ctx, "u1")
	if sess.ConversationID == "" {
		t.Fatalf("Start() must succeed even when seeding fails")
	}
	if sess.BaselineKey != "baseline" {
		t.Fatalf("BaselineKey = %q, want baseline", sess.BaselineKey)
	}
}
