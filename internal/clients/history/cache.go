package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/vitals/internal/database"
	"github.com/aristath/vitals/internal/domain"
	"github.com/aristath/vitals/internal/events"
)

// Cache outcomes reported to the Recorder
const (
	OutcomeHit   = "hit"
	OutcomeMiss  = "miss"
	OutcomeError = "error"
)

// Recorder counts history lookups
type Recorder interface {
	ObserveHistory(source, outcome string)
}

// CachedSource is a read-through SQLite cache in front of another Source.
// Entries older than the TTL are refetched; a zero TTL never expires.
type CachedSource struct {
	upstream     Source
	db           *database.DB
	ttl          time.Duration
	recorder     Recorder
	eventManager *events.Manager
	now          func() time.Time
	log          zerolog.Logger
}

// NewCachedSource wraps upstream with the cache database. The database must
// have been migrated with the cache schema. recorder and eventManager may be nil.
func NewCachedSource(
	upstream Source,
	db *database.DB,
	ttl time.Duration,
	recorder Recorder,
	eventManager *events.Manager,
	log zerolog.Logger,
) *CachedSource {
	return &CachedSource{
		upstream:     upstream,
		db:           db,
		ttl:          ttl,
		recorder:     recorder,
		eventManager: eventManager,
		now:          time.Now,
		log:          log.With().Str("component", "history_cache").Logger(),
	}
}

// Name reports the upstream name, since the cache is transparent
func (c *CachedSource) Name() string {
	return c.upstream.Name()
}

// Candles serves a symbol from the cache when fresh, otherwise from upstream
func (c *CachedSource) Candles(ctx context.Context, symbol string) ([]domain.Candle, error) {
	symbol = NormalizeSymbol(symbol)

	candles, fresh, err := c.load(ctx, symbol)
	if err != nil {
		c.log.Warn().Err(err).Str("symbol", symbol).Msg("Cache read failed, falling back to upstream")
	} else if fresh {
		c.observe(OutcomeHit)
		c.emitLoaded(symbol, len(candles), true)
		return candles, nil
	}

	candles, err = c.upstream.Candles(ctx, symbol)
	if err != nil {
		c.observe(OutcomeError)
		return nil, fmt.Errorf("failed to fetch history for %s: %w", symbol, err)
	}
	sortCandles(candles)

	if err := c.store(ctx, symbol, candles); err != nil {
		c.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache history")
	}

	c.observe(OutcomeMiss)
	c.emitLoaded(symbol, len(candles), false)
	return candles, nil
}

// Invalidate drops a symbol from the cache
func (c *CachedSource) Invalidate(ctx context.Context, symbol string) error {
	symbol = NormalizeSymbol(symbol)
	return database.WithTransaction(c.db.Conn(), func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM candles WHERE symbol = ?`, symbol); err != nil {
			return fmt.Errorf("failed to delete candles: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM history_fetches WHERE symbol = ?`, symbol); err != nil {
			return fmt.Errorf("failed to delete fetch record: %w", err)
		}
		return nil
	})
}

func (c *CachedSource) load(ctx context.Context, symbol string) ([]domain.Candle, bool, error) {
	var fetchedAt int64
	err := c.db.QueryRowContext(ctx,
		`SELECT fetched_at FROM history_fetches WHERE symbol = ?`, symbol,
	).Scan(&fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read fetch record: %w", err)
	}

	if c.ttl > 0 && c.now().Sub(time.Unix(fetchedAt, 0)) > c.ttl {
		return nil, false, nil
	}

	rows, err := c.db.QueryContext(ctx,
		`SELECT ts, open, high, low, close, volume FROM candles WHERE symbol = ? ORDER BY ts`, symbol,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to query candles: %w", err)
	}
	defer rows.Close()

	var candles []domain.Candle
	for rows.Next() {
		var candle domain.Candle
		if err := rows.Scan(&candle.Timestamp, &candle.Open, &candle.High, &candle.Low, &candle.Close, &candle.Volume); err != nil {
			return nil, false, fmt.Errorf("failed to scan candle: %w", err)
		}
		candles = append(candles, candle)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("failed to iterate candles: %w", err)
	}

	return candles, true, nil
}

func (c *CachedSource) store(ctx context.Context, symbol string, candles []domain.Candle) error {
	return database.WithTransaction(c.db.Conn(), func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM candles WHERE symbol = ?`, symbol); err != nil {
			return fmt.Errorf("failed to clear candles: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx,
			`INSERT OR REPLACE INTO candles (symbol, ts, open, high, low, close, volume) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, candle := range candles {
			if _, err := stmt.ExecContext(ctx, symbol, candle.Timestamp, candle.Open, candle.High, candle.Low, candle.Close, candle.Volume); err != nil {
				return fmt.Errorf("failed to insert candle %s: %w", candle.Timestamp, err)
			}
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO history_fetches (symbol, source, candle_count, fetched_at) VALUES (?, ?, ?, ?)
			 ON CONFLICT(symbol) DO UPDATE SET source = excluded.source, candle_count = excluded.candle_count, fetched_at = excluded.fetched_at`,
			symbol, c.upstream.Name(), len(candles), c.now().Unix(),
		)
		if err != nil {
			return fmt.Errorf("failed to record fetch: %w", err)
		}
		return nil
	})
}

func (c *CachedSource) observe(outcome string) {
	if c.recorder != nil {
		c.recorder.ObserveHistory(c.upstream.Name(), outcome)
	}
}

func (c *CachedSource) emitLoaded(symbol string, count int, cached bool) {
	if c.eventManager == nil {
		return
	}
	c.eventManager.EmitTyped("history", &events.HistoryLoadedData{
		Symbol:  symbol,
		Source:  c.upstream.Name(),
		Candles: count,
		Cached:  cached,
	})
}
