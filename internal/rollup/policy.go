// Package rollup decides when the accumulated normal keys should be
// compressed into a superkey and formats the rollup records themselves.
package rollup

import (
	"context"
	"fmt"

	"github.com/emojikey/emojikey-server/internal/emojikey"
	"github.com/emojikey/emojikey-server/internal/store"
)

// Threshold is the number of normal keys after which a rollup is due.
const Threshold = 10

// rollupScanLimit caps how far back the counter scans. Anything beyond
// it is older than a full rollup cycle by a wide margin.
const rollupScanLimit = 100

// CountResult reports the rolling count of normal keys since the last
// rollup. The due flag is advisory: concurrent writers may both observe
// count == Threshold-1, and the system tolerates the resulting drift
// rather than serializing writes.
type CountResult struct {
	Count int  `json:"count"`
	Due   bool `json:"is_rollup_due"`
}

type Policy struct {
	store store.Store
}

func NewPolicy(s store.Store) *Policy {
	return &Policy{store: s}
}

// CountSinceLastRollup scans history newest-first and counts the normal
// keys created after the most recent superkey, or all normals when no
// superkey exists yet.
func (p *Policy) CountSinceLastRollup(ctx context.Context, userID, modelID string) (CountResult, error) {
	records, err := p.store.History(ctx, userID, modelID, "", rollupScanLimit)
	if err != nil {
		return CountResult{}, fmt.Errorf("count since last rollup: %w", err)
	}

	count := 0
	for _, record := range records {
		if record.KeyType == emojikey.KeyTypeSuper {
			break
		}
		count++
	}
	return CountResult{Count: count, Due: count >= Threshold}, nil
}

// CreateRollup persists a superkey. The payload is wrapped in the rollup
// marker if the caller omitted it, and validated before the write. The
// normals it summarizes stay in place; the count resets because the
// counter anchors on the newest superkey.
func (p *Policy) CreateRollup(ctx context.Context, userID, modelID, conversationID, payload string) (store.Record, error) {
	wrapped := emojikey.FormatAsRollup(payload)
	if err := emojikey.Validate(wrapped); err != nil {
		return store.Record{}, err
	}
	record, err := p.store.Insert(ctx, store.Record{
		UserID:         userID,
		ModelID:        modelID,
		ConversationID: conversationID,
		Emojikey:       wrapped,
		KeyType:        emojikey.KeyTypeSuper,
	})
	if err != nil {
		return store.Record{}, fmt.Errorf("create rollup: %w", err)
	}
	return record, nil
}
