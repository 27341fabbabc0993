package store

import (
	"context"
	"errors"
	"time"

	"github.com/emojikey/emojikey-server/internal/emojikey"
)

// Record is one persisted emojikey observation.
type Record struct {
	ID             string           `json:"id"`
	UserID         string           `json:"user_id"`
	ModelID        string           `json:"model_id"`
	ConversationID string           `json:"conversation_id,omitempty"`
	Emojikey       string           `json:"emojikey"`
	KeyType        emojikey.KeyType `json:"key_type"`
	CreatedAt      time.Time        `json:"created_at"`
}

// AggregateKey is a precomputed per-period rollup summary. Aggregates
// feed response text only and are never load-bearing for correctness.
type AggregateKey struct {
	PeriodType string `json:"period_type"`
	FullKey    string `json:"full_key"`
}

// Periods lists the aggregate windows in presentation order.
var Periods = []string{"lifetime", "90d", "30d", "7d", "24h"}

var (
	ErrNotFound      = errors.New("emojikey not found")
	ErrInvalidAPIKey = errors.New("invalid api key")
)

// Store persists and retrieves emojikey records. A conversationID of ""
// widens Latest and History to the whole (userID, modelID) scope.
type Store interface {
	ResolveUser(ctx context.Context, apiKey string) (string, error)
	Insert(ctx context.Context, record Record) (Record, error)
	Latest(ctx context.Context, userID, modelID, conversationID string) (Record, error)
	History(ctx context.Context, userID, modelID, conversationID string, limit int) ([]Record, error)
	Aggregates(ctx context.Context, userID, modelID string, periods []string) ([]AggregateKey, error)
	Close() error
}
