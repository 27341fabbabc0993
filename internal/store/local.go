package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/emojikey/emojikey-server/internal/emojikey"
)

// LocalStore is the flat-file fallback used when no database is
// configured. Each (userID, modelID) scope owns one JSON file holding an
// append-only record list; every write rewrites the file in full.
type LocalStore struct {
	mu      sync.Mutex
	dataDir string
}

func NewLocalStore(dataDir string) (*LocalStore, error) {
	if strings.TrimSpace(dataDir) == "" {
		dataDir = ".emojikey"
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &LocalStore{dataDir: dataDir}, nil
}

// ResolveUser treats the API key itself as the user identity in local
// mode; there is no key registry to look it up in.
func (s *LocalStore) ResolveUser(_ context.Context, apiKey string) (string, error) {
	if strings.TrimSpace(apiKey) == "" {
		return "", ErrInvalidAPIKey
	}
	return apiKey, nil
}

func (s *LocalStore) Insert(_ context.Context, record Record) (Record, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	if record.KeyType == "" {
		record.KeyType = emojikey.KeyTypeNormal
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readRecords(record.UserID, record.ModelID)
	if err != nil {
		return Record{}, err
	}
	records = append(records, record)
	if err := s.writeRecords(record.UserID, record.ModelID, records); err != nil {
		return Record{}, err
	}
	return record, nil
}

func (s *LocalStore) Latest(_ context.Context, userID, modelID, conversationID string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readRecords(userID, modelID)
	if err != nil {
		return Record{}, err
	}
	// Files are append-only, so the newest match is the last one.
	for i := len(records) - 1; i >= 0; i-- {
		if conversationID == "" || records[i].ConversationID == conversationID {
			return records[i], nil
		}
	}
	return Record{}, ErrNotFound
}

func (s *LocalStore) History(_ context.Context, userID, modelID, conversationID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 10
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readRecords(userID, modelID)
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, limit)
	for i := len(records) - 1; i >= 0 && len(out) < limit; i-- {
		if conversationID == "" || records[i].ConversationID == conversationID {
			out = append(out, records[i])
		}
	}
	return out, nil
}

// Aggregates synthesizes per-period summaries from the raw records: the
// newest key inside each window. The remote store serves precomputed
// aggregates instead; callers cannot tell the difference.
func (s *LocalStore) Aggregates(_ context.Context, userID, modelID string, periods []string) ([]AggregateKey, error) {
	if len(periods) == 0 {
		periods = Periods
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readRecords(userID, modelID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	now := time.Now().UTC()
	requested := make(map[string]bool, len(periods))
	for _, p := range periods {
		requested[p] = true
	}

	out := make([]AggregateKey, 0, len(periods))
	for _, period := range Periods {
		if !requested[period] {
			continue
		}
		cutoff, ok := periodCutoff(now, period)
		for i := len(records) - 1; i >= 0; i-- {
			if !ok || !records[i].CreatedAt.Before(cutoff) {
				out = append(out, AggregateKey{PeriodType: period, FullKey: records[i].Emojikey})
				break
			}
		}
	}
	return out, nil
}

func periodCutoff(now time.Time, period string) (time.Time, bool) {
	switch period {
	case "90d":
		return now.Add(-90 * 24 * time.Hour), true
	case "30d":
		return now.Add(-30 * 24 * time.Hour), true
	case "7d":
		return now.Add(-7 * 24 * time.Hour), true
	case "24h":
		return now.Add(-24 * time.Hour), true
	default: // lifetime
		return time.Time{}, false
	}
}

func (s *LocalStore) Close() error { return nil }

func (s *LocalStore) filePath(userID, modelID string) string {
	return filepath.Join(s.dataDir, fmt.Sprintf("%s-%s.json", sanitize(userID), sanitize(modelID)))
}

func sanitize(part string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return '_'
		}
		return r
	}, part)
}

func (s *LocalStore) readRecords(userID, modelID string) ([]Record, error) {
	data, err := os.ReadFile(s.filePath(userID, modelID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read emojikey records: %w", err)
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode emojikey records: %w", err)
	}
	return records, nil
}

func (s *LocalStore) writeRecords(userID, modelID string, records []Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode emojikey records: %w", err)
	}
	if err := os.WriteFile(s.filePath(userID, modelID), data, 0o644); err != nil {
		return fmt.Errorf("write emojikey records: %w", err)
	}
	return nil
}
