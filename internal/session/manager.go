// Package session mints conversation identities and bootstraps a new
// conversation from the most recent relationship state. Sessions are
// ephemeral: only the conversation ID and the seed record outlive the
// initializing call, and every later operation carries the conversation
// ID explicitly instead of relying on session affinity.
package session

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"

	"github.com/emojikey/emojikey-server/internal/store"
)

// Session is the in-memory result of starting a conversation.
type Session struct {
	ConversationID string `json:"conversation_id"`
	// BaselineKey is the most recent key across all prior conversations
	// for this user and model, or "" for a brand-new relationship.
	BaselineKey string `json:"baseline_key,omitempty"`
}

type Manager struct {
	store   store.Store
	modelID string
}

func NewManager(s store.Store, modelID string) *Manager {
	return &Manager{store: s, modelID: modelID}
}

// Start mints a fresh conversation ID, resolves the baseline key, and
// best-effort seeds the new conversation with it. Seeding failures are
// logged and swallowed: a conversation that starts with an empty history
// beats one that fails to start at all.
func (m *Manager) Start(ctx context.Context, userID string) Session {
	conversationID := uuid.NewString()
	baseline := m.lookupBaseline(ctx, userID)

	if baseline != "" {
		_, err := m.store.Insert(ctx, store.Record{
			UserID:         userID,
			ModelID:        m.modelID,
			ConversationID: conversationID,
			Emojikey:       baseline,
		})
		if err != nil {
			log.Printf("session: seeding conversation %s failed: %v", conversationID, err)
		}
	}

	return Session{ConversationID: conversationID, BaselineKey: baseline}
}

// lookupBaseline prefers the newest key across all conversations and
// falls back to the lifetime aggregate when no recent key exists.
func (m *Manager) lookupBaseline(ctx context.Context, userID string) string {
	record, err := m.store.Latest(ctx, userID, m.modelID, "")
	if err == nil {
		return record.Emojikey
	}
	if !errors.Is(err, store.ErrNotFound) {
		log.Printf("session: baseline lookup failed for user %s: %v", userID, err)
	}

	aggs, err := m.store.Aggregates(ctx, userID, m.modelID, []string{"lifetime"})
	if err != nil {
		log.Printf("session: lifetime baseline lookup failed for user %s: %v", userID, err)
		return ""
	}
	for _, agg := range aggs {
		if agg.PeriodType == "lifetime" {
			return agg.FullKey
		}
	}
	return ""
}
