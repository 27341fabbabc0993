package rollup

import (
	"context"
	"errors"
	"testing"

	"github.com/emojikey/emojikey-server/internal/emojikey"
	"github.com/emojikey/emojikey-server/internal/store"
)

func insertNormals(t *testing.T, mock *store.Mock, n int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		if _, err := mock.Insert(ctx, store.Record{
			UserID:   "u1",
			ModelID:  "m1",
			Emojikey: "[ME|🧠🎨8∠45]",
		}); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}
}

func TestCountBelowThresholdNotDue(t *testing.T) {
	mock := store.NewMock()
	insertNormals(t, mock, Threshold-1)

	result, err := NewPolicy(mock).CountSinceLastRollup(context.Background(), "u1", "m1")
	if err != nil {
		t.Fatalf("CountSinceLastRollup() error = %v", err)
	}
	if result.Count != Threshold-1 || result.Due {
		t.Fatalf("result = %+v, want count %d and not due", result, Threshold-1)
	}
}

func TestCountAtThresholdIsDue(t *testing.T) {
	mock := store.NewMock()
	insertNormals(t, mock, Threshold)

	result, err := NewPolicy(mock).CountSinceLastRollup(context.Background(), "u1", "m1")
	if err != nil {
		t.Fatalf("CountSinceLastRollup() error = %v", err)
	}
	if result.Count != Threshold || !result.Due {
		t.Fatalf("result = %+v, want count %d and due", result, Threshold)
	}
}

func TestCountResetsAfterRollup(t *testing.T) {
	mock := store.NewMock()
	policy := NewPolicy(mock)
	ctx := context.Background()

	insertNormals(t, mock, Threshold)
	if _, err := policy.CreateRollup(ctx, "u1", "m1", "", "[ME|🧠🎨8∠45]"); err != nil {
		t.Fatalf("CreateRollup() error = %v", err)
	}

	result, err := policy.CountSinceLastRollup(ctx, "u1", "m1")
	if err != nil {
		t.Fatalf("CountSinceLastRollup() error = %v", err)
	}
	if result.Count != 0 || result.Due {
		t.Fatalf("result after rollup = %+v, want count 0", result)
	}

	insertNormals(t, mock, 2)
	result, err = policy.CountSinceLastRollup(ctx, "u1", "m1")
	if err != nil {
		t.Fatalf("CountSinceLastRollup() error = %v", err)
	}
	if result.Count != 2 {
		t.Fatalf("count after two more normals = %d, want 2", result.Count)
	}
}

func TestCreateRollupWrapsAndMarksSuper(t *testing.T) {
	mock := store.NewMock()
	record, err := NewPolicy(mock).CreateRollup(context.Background(), "u1", "m1", "c1", "[ME|🧠🎨8∠45]")
	if err != nil {
		t.Fatalf("CreateRollup() error = %v", err)
	}
	if record.KeyType != emojikey.KeyTypeSuper {
		t.Fatalf("KeyType = %q, want super", record.KeyType)
	}
	if emojikey.Classify(record.Emojikey) != emojikey.KeyTypeSuper {
		t.Fatalf("stored payload not rollup-wrapped: %q", record.Emojikey)
	}
	// Already-wrapped payloads pass through unchanged.
	again, err := NewPolicy(mock).CreateRollup(context.Background(), "u1", "m1", "c1", record.Emojikey)
	if err != nil {
		t.Fatalf("CreateRollup(wrapped) error = %v", err)
	}
	if again.Emojikey != record.Emojikey {
		t.Fatalf("double wrap: %q vs %q", again.Emojikey, record.Emojikey)
	}
}

func TestCreateRollupRejectsInvalidPayload(t *testing.T) {
	mock := store.NewMock()
	_, err := NewPolicy(mock).CreateRollup(context.Background(), "u1", "m1", "", "[ME|🧠🎨8∠999]")
	if !errors.Is(err, emojikey.ErrInvalid) {
		t.Fatalf("CreateRollup(invalid) error = %v, want ErrInvalid", err)
	}
	if len(mock.Stored()) != 0 {
		t.Fatalf("invalid rollup was persisted")
	}
}
