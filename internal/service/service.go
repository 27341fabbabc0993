// Package service implements the emojikey tool operations. Every
// operation takes plain text in and returns plain text out; transport
// concerns stay in httpapi and wire framing in protocol.
//
// Operations that carry a conversation ID run against the
// conversation-scoped rich path first and cascade to the user/model
// scoped legacy path on failure. Auth and validation failures are
// deterministic and never cascade.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/emojikey/emojikey-server/internal/cascade"
	"github.com/emojikey/emojikey-server/internal/codingctx"
	"github.com/emojikey/emojikey-server/internal/emojikey"
	"github.com/emojikey/emojikey-server/internal/observability"
	"github.com/emojikey/emojikey-server/internal/rollup"
	"github.com/emojikey/emojikey-server/internal/session"
	"github.com/emojikey/emojikey-server/internal/store"
)

const (
	defaultHistoryLimit = 10
	minHistoryLimit     = 1
	maxHistoryLimit     = 100
)

// historyTimeLayout matches the locale-style timestamps the history
// listing has always used.
const historyTimeLayout = "1/2/2006, 3:04:05 PM"

const superkeyPrompt = " Time to create a superkey! (10 regular keys since last superkey)"

// Config carries the collaborators a Service needs. Metrics may be nil
// in tests.
type Config struct {
	Store        store.Store
	Sessions     *session.Manager
	Rollups      *rollup.Policy
	Samples      codingctx.SampleStore
	Metrics      *observability.Metrics
	APIKey       string
	ModelID      string
	StoreTimeout time.Duration
}

type Service struct {
	store    store.Store
	sessions *session.Manager
	rollups  *rollup.Policy
	samples  codingctx.SampleStore
	metrics  *observability.Metrics
	apiKey   string
	modelID  string
	timeout  time.Duration
}

func New(cfg Config) *Service {
	timeout := cfg.StoreTimeout
	if timeout <= 0 {
		timeout = cascade.DefaultTimeout
	}
	return &Service{
		store:    cfg.Store,
		sessions: cfg.Sessions,
		rollups:  cfg.Rollups,
		samples:  cfg.Samples,
		metrics:  cfg.Metrics,
		apiKey:   cfg.APIKey,
		modelID:  cfg.ModelID,
		timeout:  timeout,
	}
}

// Initialize starts a new conversation: mints an ID, seeds it with the
// most recent relationship state, and returns the preamble plus that
// state so the agent can resume where the last conversation left off.
func (s *Service) Initialize(ctx context.Context) (string, error) {
	userID, err := s.resolveUser(ctx)
	if err != nil {
		s.observeTool("initialize_conversation", "error")
		return "", err
	}

	sess := s.sessions.Start(ctx, userID)
	if s.metrics != nil {
		s.metrics.ConversationsStarted.Inc()
	}

	// Aggregates enrich the response text only; their absence never
	// fails an initialize.
	aggs, err := s.store.Aggregates(ctx, userID, s.modelID, store.Periods)
	if err != nil {
		log.Printf("initialize: aggregate lookup failed: %v", err)
		aggs = nil
	}

	var b strings.Builder
	b.WriteString(preamble)
	b.WriteString("\n\n")
	b.WriteString("Starting Key (current state):\n")
	if sess.BaselineKey != "" {
		b.WriteString(sess.BaselineKey)
	} else {
		b.WriteString("New relationship - no previous key")
	}
	b.WriteString("\n\n")
	if len(aggs) > 0 {
		b.WriteString("Aggregated Keys:\n")
		for _, agg := range aggs {
			label, ok := periodLabels[agg.PeriodType]
			if !ok {
				continue
			}
			fmt.Fprintf(&b, "%s: %s\n", label, agg.FullKey)
		}
	}
	b.WriteString("\n")
	b.WriteString("Conversation ID: " + sess.ConversationID)

	s.observeTool("initialize_conversation", "ok")
	return b.String(), nil
}

// Get returns the current key for the conversation, falling back to
// the newest key across the whole relationship when the rich path is
// unavailable.
func (s *Service) Get(ctx context.Context, conversationID string) (string, error) {
	userID, err := s.resolveUser(ctx)
	if err != nil {
		s.observeTool("get_emojikey", "error")
		return "", err
	}

	// An absent key is a valid outcome, not a failure; the cascade
	// only runs when the lookup itself breaks.
	lookup := func(scope string) cascade.Fn[store.Record] {
		return func(ctx context.Context) (store.Record, error) {
			record, err := s.store.Latest(ctx, userID, s.modelID, scope)
			if errors.Is(err, store.ErrNotFound) {
				return store.Record{}, nil
			}
			return record, err
		}
	}

	rich := lookup(conversationID)
	var legacy cascade.Fn[store.Record]
	if conversationID != "" {
		legacy = lookup("")
	}

	start := time.Now()
	record, fellBack, err := cascade.Read(ctx, s.timeout, rich, legacy)
	s.observeLatency(start)
	if err != nil {
		s.observeTool("get_emojikey", "error")
		return "", fmt.Errorf("get emojikey: %w", err)
	}
	s.observeTool("get_emojikey", outcomeLabel(fellBack))

	if record.Emojikey == "" {
		return "No emojikey found for this conversation", nil
	}
	return record.Emojikey, nil
}

// Set validates and persists a key. A v3 key on a live conversation is
// first merged with any coding dimensions detected in the buffered
// conversation samples; enrichment failure never blocks the write, and
// the merged key is persisted exactly once.
func (s *Service) Set(ctx context.Context, conversationID, key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", &ValidationError{Reason: "missing emojikey"}
	}
	parsed, err := emojikey.Parse(key)
	if err != nil {
		return "", &ValidationError{Reason: fmt.Sprintf("invalid emojikey: %v", err)}
	}

	userID, err := s.resolveUser(ctx)
	if err != nil {
		s.observeTool("set_emojikey", "error")
		return "", err
	}

	if conversationID != "" && parsed.Version == emojikey.VersionV3 {
		key = s.mergeCodingDimensions(conversationID, key)
	}

	insert := func(scope string) cascade.Fn[store.Record] {
		return func(ctx context.Context) (store.Record, error) {
			return s.store.Insert(ctx, store.Record{
				UserID:         userID,
				ModelID:        s.modelID,
				ConversationID: scope,
				Emojikey:       key,
				KeyType:        emojikey.KeyTypeNormal,
			})
		}
	}

	rich := insert(conversationID)
	var legacy cascade.Fn[store.Record]
	if conversationID != "" {
		legacy = insert("")
	}

	start := time.Now()
	_, fellBack, err := cascade.Write(ctx, s.timeout, rich, legacy)
	s.observeLatency(start)
	if err != nil {
		s.observeTool("set_emojikey", "error")
		return "", fmt.Errorf("set emojikey: %w", err)
	}
	s.observeTool("set_emojikey", outcomeLabel(fellBack))

	msg := "Emojikey set successfully"
	switch {
	case fellBack:
		msg += " (fallback to legacy mode)"
	case conversationID == "":
		msg += " (legacy v2 mode)"
	}

	// Rollup advice is best effort: a failed count never fails a set
	// that already committed.
	result, err := s.rollups.CountSinceLastRollup(ctx, userID, s.modelID)
	if err != nil {
		log.Printf("set: rollup count failed: %v", err)
		return msg, nil
	}
	if result.Due {
		msg += "." + superkeyPrompt
	}
	return msg, nil
}

// CreateSuperkey persists a rollup summary of the recent normal keys.
// The payload is validated before any write so a malformed superkey
// never reaches either path.
func (s *Service) CreateSuperkey(ctx context.Context, conversationID, payload string) (string, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return "", &ValidationError{Reason: "missing superkey"}
	}
	if err := emojikey.Validate(emojikey.FormatAsRollup(payload)); err != nil {
		return "", &ValidationError{Reason: fmt.Sprintf("invalid superkey: %v", err)}
	}

	userID, err := s.resolveUser(ctx)
	if err != nil {
		s.observeTool("create_superkey", "error")
		return "", err
	}

	insert := func(scope string) cascade.Fn[store.Record] {
		return func(ctx context.Context) (store.Record, error) {
			return s.rollups.CreateRollup(ctx, userID, s.modelID, scope, payload)
		}
	}

	rich := insert(conversationID)
	var legacy cascade.Fn[store.Record]
	if conversationID != "" {
		legacy = insert("")
	}

	start := time.Now()
	_, fellBack, err := cascade.Write(ctx, s.timeout, rich, legacy)
	s.observeLatency(start)
	if err != nil {
		s.observeTool("create_superkey", "error")
		return "", fmt.Errorf("create superkey: %w", err)
	}
	s.observeTool("create_superkey", outcomeLabel(fellBack))

	if fellBack {
		return "Superkey created successfully (fallback to legacy mode)", nil
	}
	return "Superkey created successfully", nil
}

// History lists recent keys newest first, one numbered line per key.
// The limit is clamped to [1, 100] with a default of 10.
func (s *Service) History(ctx context.Context, conversationID string, limit int) (string, error) {
	limit = clampLimit(limit)

	userID, err := s.resolveUser(ctx)
	if err != nil {
		s.observeTool("get_emojikey_history", "error")
		return "", err
	}

	list := func(scope string) cascade.Fn[[]store.Record] {
		return func(ctx context.Context) ([]store.Record, error) {
			return s.store.History(ctx, userID, s.modelID, scope, limit)
		}
	}

	rich := list(conversationID)
	var legacy cascade.Fn[[]store.Record]
	if conversationID != "" {
		legacy = list("")
	}

	start := time.Now()
	records, fellBack, err := cascade.Read(ctx, s.timeout, rich, legacy)
	s.observeLatency(start)
	if err != nil {
		s.observeTool("get_emojikey_history", "error")
		return "", fmt.Errorf("get emojikey history: %w", err)
	}
	s.observeTool("get_emojikey_history", outcomeLabel(fellBack))

	if len(records) == 0 {
		if conversationID != "" && !fellBack {
			return "No emojikey history found for this conversation", nil
		}
		return "No emojikey history found", nil
	}

	var b strings.Builder
	switch {
	case fellBack:
		b.WriteString("Emojikey History (fallback to legacy mode):\n")
	case conversationID == "":
		b.WriteString("Emojikey History (legacy mode):\n")
	default:
		b.WriteString("Emojikey History:\n")
	}
	for i, record := range records {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d. %s (%s)", i+1, record.Emojikey, record.CreatedAt.Format(historyTimeLayout))
	}
	return b.String(), nil
}

// IngestSample buffers a conversation message for later coding-context
// detection. Samples feed enrichment only and are never persisted.
func (s *Service) IngestSample(conversationID, message string) {
	if s.samples == nil || conversationID == "" {
		return
	}
	s.samples.Add(conversationID, message)
}

func (s *Service) resolveUser(ctx context.Context) (string, error) {
	userID, err := s.store.ResolveUser(ctx, s.apiKey)
	if err != nil {
		if errors.Is(err, store.ErrInvalidAPIKey) {
			return "", &AuthError{Reason: "invalid api key"}
		}
		return "", fmt.Errorf("resolve user: %w", err)
	}
	return userID, nil
}

// mergeCodingDimensions folds detected coding dimensions into the ME
// component of the key about to be written. Any inability to enrich
// returns the key unchanged.
func (s *Service) mergeCodingDimensions(conversationID, key string) string {
	if s.samples == nil || codingctx.HasCodingDimensions(key) {
		return key
	}
	sample := s.samples.Sample(conversationID)
	if sample == "" || !codingctx.Detect(sample) {
		return key
	}
	generated := codingctx.GenerateKey(sample)
	if generated == "" {
		return key
	}
	merged := emojikey.MergeComponents(key, generated)
	if merged != key && s.metrics != nil {
		s.metrics.CodingDetections.Inc()
	}
	return merged
}

func (s *Service) observeTool(tool, outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveTool(tool, outcome)
	}
}

func (s *Service) observeLatency(start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveStoreLatency(time.Since(start))
	}
}

func outcomeLabel(fellBack bool) string {
	if fellBack {
		return "fallback"
	}
	return "ok"
}

func clampLimit(limit int) int {
	switch {
	case limit == 0:
		return defaultHistoryLimit
	case limit < minHistoryLimit:
		return minHistoryLimit
	case limit > maxHistoryLimit:
		return maxHistoryLimit
	}
	return limit
}
