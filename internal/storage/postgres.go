package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	logx "newsbot/pkg/logx"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS newsbot_posts (
	id BIGSERIAL PRIMARY KEY,
	at TIMESTAMPTZ NOT NULL,
	cycle_id TEXT NOT NULL,
	title TEXT NOT NULL,
	outcome TEXT NOT NULL,
	post_id TEXT,
	media_id TEXT,
	err TEXT,
	sleep_ms BIGINT NOT NULL DEFAULT 0
)`

type postgresStore struct {
	pool *pgxpool.Pool
	log  logx.Logger
}

func openPostgres(ctx context.Context, cfg Config, log logx.Logger) (Store, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("storage.dsn is required for postgres driver")
	}
	pcfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	// one cycle writes at a time
	pcfg.MaxConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, err
	}
	return &postgresStore{pool: pool, log: log}, nil
}

func (s *postgresStore) AppendPost(ctx context.Context, r PostRecord) error {
	if s == nil || s.pool == nil {
		return ErrDisabled
	}
	if r.At.IsZero() {
		r.At = time.Now()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO newsbot_posts(at, cycle_id, title, outcome, post_id, media_id, err, sleep_ms)
		 VALUES($1,$2,$3,$4,$5,$6,$7,$8)`,
		r.At, r.CycleID, r.Title, r.Outcome,
		nullStr(r.PostID), nullStr(r.MediaID), nullStr(r.Error), r.SleepMS,
	)
	return err
}

func (s *postgresStore) Close() error {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func nullStr(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}
