package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/emojikey/emojikey-server/internal/emojikey"
)

// ErrMockUnavailable is the failure injected by Mock toggles.
var ErrMockUnavailable = errors.New("store unavailable")

// Mock is an in-memory Store for tests with deterministic timestamps
// and per-path failure injection. FailConversationScoped makes every
// conversation-scoped call fail, which simulates the rich backend path
// being unreachable while the user/model-scoped legacy path still works.
type Mock struct {
	mu      sync.Mutex
	users   map[string]string
	records []Record
	clock   time.Time

	FailResolve            bool
	FailConversationScoped bool
	FailAllInserts         bool
	FailAggregates         bool

	InsertCalls int
}

func NewMock() *Mock {
	return &Mock{
		users: make(map[string]string),
		clock: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (m *Mock) AddUser(apiKey, userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[apiKey] = userID
}

// Stored returns a snapshot of all inserted records in insertion order.
func (m *Mock) Stored() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, len(m.records))
	copy(out, m.records)
	return out
}

func (m *Mock) ResolveUser(_ context.Context, apiKey string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailResolve {
		return "", ErrMockUnavailable
	}
	userID, ok := m.users[apiKey]
	if !ok {
		return "", ErrInvalidAPIKey
	}
	return userID, nil
}

func (m *Mock) Insert(_ context.Context, record Record) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InsertCalls++
	if m.FailAllInserts {
		return Record{}, ErrMockUnavailable
	}
	if m.FailConversationScoped && record.ConversationID != "" {
		return Record{}, ErrMockUnavailable
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.KeyType == "" {
		record.KeyType = emojikey.KeyTypeNormal
	}
	if record.CreatedAt.IsZero() {
		m.clock = m.clock.Add(time.Second)
		record.CreatedAt = m.clock
	}
	m.records = append(m.records, record)
	return record, nil
}

func (m *Mock) Latest(_ context.Context, userID, modelID, conversationID string) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailConversationScoped && conversationID != "" {
		return Record{}, ErrMockUnavailable
	}
	for i := len(m.records) - 1; i >= 0; i-- {
		r := m.records[i]
		if r.UserID != userID || r.ModelID != modelID {
			continue
		}
		if conversationID == "" || r.ConversationID == conversationID {
			return r, nil
		}
	}
	return Record{}, ErrNotFound
}

func (m *Mock) History(_ context.Context, userID, modelID, conversationID string, limit int) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailConversationScoped && conversationID != "" {
		return nil, ErrMockUnavailable
	}
	if limit <= 0 {
		limit = 10
	}
	out := make([]Record, 0, limit)
	for i := len(m.records) - 1; i >= 0 && len(out) < limit; i-- {
		r := m.records[i]
		if r.UserID != userID || r.ModelID != modelID {
			continue
		}
		if conversationID == "" || r.ConversationID == conversationID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *Mock) Aggregates(_ context.Context, userID, modelID string, periods []string) ([]AggregateKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAggregates {
		return nil, ErrMockUnavailable
	}
	var latest *Record
	for i := len(m.records) - 1; i >= 0; i-- {
		r := m.records[i]
		if r.UserID == userID && r.ModelID == modelID {
			latest = &r
			break
		}
	}
	if latest == nil {
		return nil, nil
	}
	out := make([]AggregateKey, 0, len(periods))
	for _, period := range periods {
		out = append(out, AggregateKey{PeriodType: period, FullKey: latest.Emojikey})
	}
	return out, nil
}

func (m *Mock) Close() error { return nil }
