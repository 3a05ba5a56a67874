package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"elaview/internal/app/middleware"
	appoutbox "elaview/internal/app/outbox"
	infraoutbox "elaview/internal/infra/outbox"
)

type IdempotencyStore struct {
	pool *pgxpool.Pool
	ttl  time.Duration
}

func NewIdempotencyStore(pool *pgxpool.Pool, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{pool: pool, ttl: ttl}
}

// Get ignores records older than the store's ttl.
func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	var (
		rec     middleware.IdempotencyRecord
		created time.Time
	)
	row := s.pool.QueryRow(ctx, `SELECT key, command, payload, occurred_at, created_at FROM app_idempotency WHERE key=$1`, key)
	if err := row.Scan(&rec.Key, &rec.Command, &rec.Payload, &rec.OccurredAt, &created); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return middleware.IdempotencyRecord{}, false, nil
		}
		return middleware.IdempotencyRecord{}, false, err
	}
	if s.ttl > 0 && time.Since(created) > s.ttl {
		return middleware.IdempotencyRecord{}, false, nil
	}
	return rec, true, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO app_idempotency (key, command, payload, occurred_at, created_at)
		VALUES ($1,$2,$3,$4,now())
		ON CONFLICT (key) DO UPDATE SET command=EXCLUDED.command, payload=EXCLUDED.payload,
			occurred_at=EXCLUDED.occurred_at, created_at=now()
	`, rec.Key, rec.Command, rec.Payload, rec.OccurredAt)
	return err
}

// OutboxStore writes events in the caller's transaction when ctx carries one.
type OutboxStore struct {
	pool  *pgxpool.Pool
	Lease time.Duration
}

func NewOutboxStore(pool *pgxpool.Pool) *OutboxStore {
	return &OutboxStore{pool: pool, Lease: time.Minute}
}

func (s *OutboxStore) Add(ctx context.Context, record appoutbox.EventRecord) error {
	headers, err := json.Marshal(record.Headers)
	if err != nil {
		return err
	}
	_, err = conn(ctx, s.pool).Exec(ctx, `
		INSERT INTO app_outbox (id, name, payload, occurred_at, aggregate, headers)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, record.ID, record.Name, record.Payload, record.OccurredAt, record.Aggregate, headers)
	return err
}

func (s *OutboxStore) Flush(context.Context) error {
	return nil
}

// Claim takes the oldest due record. SKIP LOCKED lets several relays run side by side.
func (s *OutboxStore) Claim(ctx context.Context, workerID string) (*infraoutbox.Message, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE app_outbox SET state='CLAIMED', claimed_by=$1, claimed_at=now()
		WHERE id = (
			SELECT id FROM app_outbox
			WHERE (state IN ('NEW','FAILED') AND next_attempt_at <= now())
			   OR (state = 'CLAIMED' AND claimed_at <= now() - $2::interval)
			ORDER BY next_attempt_at
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING id, name, payload, occurred_at, aggregate, headers, attempts, next_attempt_at, last_error
	`, workerID, s.lease())
	var (
		msg     infraoutbox.Message
		headers []byte
	)
	err := row.Scan(&msg.ID, &msg.Name, &msg.Payload, &msg.OccurredAt, &msg.Aggregate, &headers, &msg.Attempts, &msg.NextAttempt, &msg.LastError)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if len(headers) > 0 {
		if err := json.Unmarshal(headers, &msg.Headers); err != nil {
			return nil, err
		}
	}
	return &msg, nil
}

func (s *OutboxStore) MarkSent(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `UPDATE app_outbox SET state='SENT', sent_at=now() WHERE id=$1`, id)
	return err
}

func (s *OutboxStore) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE app_outbox SET state='FAILED', next_attempt_at=$2, last_error=$3, attempts=attempts+1
		WHERE id=$1
	`, id, next, errMsg)
	return err
}

func (s *OutboxStore) lease() time.Duration {
	if s.Lease <= 0 {
		return 24 * time.Hour
	}
	return s.Lease
}

var (
	_ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
	_ appoutbox.Outbox            = (*OutboxStore)(nil)
	_ infraoutbox.Store           = (*OutboxStore)(nil)
)
