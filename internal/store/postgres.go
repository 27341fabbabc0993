package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/emojikey/emojikey-server/internal/emojikey"
)

// PostgresStore persists emojikey records in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

const connectAttempts = 5

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, strings.TrimSpace(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	// The database often comes up slightly after this process does.
	// Retry the initial ping with a capped exponential backoff before
	// giving up.
	for attempt := 0; ; attempt++ {
		err = pool.Ping(ctx)
		if err == nil {
			break
		}
		if attempt >= connectAttempts-1 {
			pool.Close()
			return nil, fmt.Errorf("ping postgres after %d attempts: %w", connectAttempts, err)
		}
		select {
		case <-ctx.Done():
			pool.Close()
			return nil, ctx.Err()
		case <-time.After(connectBackoff(attempt, 500*time.Millisecond, 5*time.Second)):
		}
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

// connectBackoff computes a deterministic capped backoff duration.
func connectBackoff(attempt int, base, cap time.Duration) time.Duration {
	if attempt <= 0 {
		return base
	}
	d := base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= cap {
			return cap
		}
	}
	return d
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS api_keys (
			key TEXT PRIMARY KEY,
			user_id TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS emojikeys (
			id TEXT PRIMARY KEY,
			seq BIGSERIAL,
			user_id TEXT NOT NULL,
			model_id TEXT NOT NULL,
			conversation_id TEXT,
			emojikey TEXT NOT NULL,
			key_type TEXT NOT NULL DEFAULT 'normal',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_emojikeys_scope_created ON emojikeys (user_id, model_id, created_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_emojikeys_conversation ON emojikeys (conversation_id, created_at DESC);`,
		`CREATE TABLE IF NOT EXISTS emojikey_aggregates (
			user_id TEXT NOT NULL,
			model_id TEXT NOT NULL,
			period_type TEXT NOT NULL,
			full_key TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (user_id, model_id, period_type)
		);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) ResolveUser(ctx context.Context, apiKey string) (string, error) {
	var userID string
	err := s.pool.QueryRow(ctx,
		`SELECT user_id FROM api_keys WHERE key=$1`,
		apiKey,
	).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrInvalidAPIKey
		}
		return "", fmt.Errorf("resolve user: %w", err)
	}
	return userID, nil
}

func (s *PostgresStore) Insert(ctx context.Context, record Record) (Record, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	if record.KeyType == "" {
		record.KeyType = emojikey.KeyTypeNormal
	}

	var conversationID *string
	if record.ConversationID != "" {
		conversationID = &record.ConversationID
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO emojikeys (id, user_id, model_id, conversation_id, emojikey, key_type, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		record.ID,
		record.UserID,
		record.ModelID,
		conversationID,
		record.Emojikey,
		string(record.KeyType),
		record.CreatedAt,
	)
	if err != nil {
		return Record{}, fmt.Errorf("insert emojikey: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) Latest(ctx context.Context, userID, modelID, conversationID string) (Record, error) {
	query := `SELECT id, user_id, model_id, COALESCE(conversation_id, ''), emojikey, key_type, created_at
	            FROM emojikeys WHERE user_id=$1 AND model_id=$2`
	args := []any{userID, modelID}
	if conversationID != "" {
		query += ` AND conversation_id=$3`
		args = append(args, conversationID)
	}
	query += ` ORDER BY created_at DESC, seq DESC LIMIT 1`

	record, err := scanRecord(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("latest emojikey: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) History(ctx context.Context, userID, modelID, conversationID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `SELECT id, user_id, model_id, COALESCE(conversation_id, ''), emojikey, key_type, created_at
	            FROM emojikeys WHERE user_id=$1 AND model_id=$2`
	args := []any{userID, modelID}
	if conversationID != "" {
		query += ` AND conversation_id=$3`
		args = append(args, conversationID)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC, seq DESC LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0, limit)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}
	return records, nil
}

func (s *PostgresStore) Aggregates(ctx context.Context, userID, modelID string, periods []string) ([]AggregateKey, error) {
	if len(periods) == 0 {
		periods = Periods
	}
	rows, err := s.pool.Query(ctx,
		`SELECT period_type, full_key FROM emojikey_aggregates
		  WHERE user_id=$1 AND model_id=$2 AND period_type = ANY($3)`,
		userID, modelID, periods,
	)
	if err != nil {
		return nil, fmt.Errorf("query aggregates: %w", err)
	}
	defer rows.Close()

	byPeriod := make(map[string]string, len(periods))
	for rows.Next() {
		var agg AggregateKey
		if err := rows.Scan(&agg.PeriodType, &agg.FullKey); err != nil {
			return nil, fmt.Errorf("scan aggregate row: %w", err)
		}
		byPeriod[agg.PeriodType] = agg.FullKey
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate aggregate rows: %w", err)
	}

	// Presentation order: lifetime first, then shrinking windows.
	out := make([]AggregateKey, 0, len(byPeriod))
	for _, period := range Periods {
		if key, ok := byPeriod[period]; ok {
			out = append(out, AggregateKey{PeriodType: period, FullKey: key})
		}
	}
	return out, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		record  Record
		keyType string
	)
	if err := row.Scan(
		&record.ID,
		&record.UserID,
		&record.ModelID,
		&record.ConversationID,
		&record.Emojikey,
		&keyType,
		&record.CreatedAt,
	); err != nil {
		return Record{}, err
	}
	record.KeyType = emojikey.KeyType(keyType)
	return record, nil
}
