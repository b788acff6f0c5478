package sequence

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voyager-erp/voyager-erp/internal/platform/db"
)

// Repository persists sequence counters. Allocate and Set run under the
// serializable transaction discipline so they never race each other.
type Repository interface {
	Allocate(ctx context.Context, key string, defaults Defaults) (Counter, error)
	Set(ctx context.Context, key string, in SetInput) (Counter, error)
	Get(ctx context.Context, key string) (Counter, error)
	List(ctx context.Context) ([]Counter, error)
}

type repository struct {
	pool        *pgxpool.Pool
	maxAttempts int
}

// NewRepository builds the Postgres-backed sequence store. maxAttempts bounds
// the serialization-failure retry loop.
func NewRepository(pool *pgxpool.Pool, maxAttempts int) Repository {
	if maxAttempts < 1 {
		maxAttempts = 5
	}
	return &repository{pool: pool, maxAttempts: maxAttempts}
}

func (r *repository) Allocate(ctx context.Context, key string, defaults Defaults) (Counter, error) {
	var out Counter
	err := db.WithSerializableTx(ctx, r.pool, r.maxAttempts, func(tx pgx.Tx) error {
		current, err := readCounter(ctx, tx, key)
		if err != nil && !errors.Is(err, ErrCounterNotFound) {
			return err
		}
		if errors.Is(err, ErrCounterNotFound) {
			current = Counter{
				TypeKey:  key,
				Label:    defaults.Label,
				Prefix:   defaults.Prefix,
				Value:    0,
				PadWidth: ClampPadWidth(defaults.PadWidth),
			}
		}
		current.Value++
		current.UpdatedAt = time.Now().UTC()
		if err := upsertCounter(ctx, tx, current); err != nil {
			return err
		}
		out = current
		return nil
	})
	if err != nil {
		return Counter{}, err
	}
	return out, nil
}

func (r *repository) Set(ctx context.Context, key string, in SetInput) (Counter, error) {
	var out Counter
	err := db.WithSerializableTx(ctx, r.pool, r.maxAttempts, func(tx pgx.Tx) error {
		current, err := readCounter(ctx, tx, key)
		if err != nil && !errors.Is(err, ErrCounterNotFound) {
			return err
		}
		if errors.Is(err, ErrCounterNotFound) {
			current = Counter{TypeKey: key}
		}
		if in.Label != "" {
			current.Label = in.Label
		}
		if in.Prefix != "" {
			current.Prefix = in.Prefix
		}
		if in.PadWidth != 0 {
			current.PadWidth = ClampPadWidth(in.PadWidth)
		}
		if current.PadWidth == 0 {
			current.PadWidth = DefaultPadWidth
		}
		current.Value = in.Value
		current.UpdatedAt = time.Now().UTC()
		if err := upsertCounter(ctx, tx, current); err != nil {
			return err
		}
		out = current
		return nil
	})
	if err != nil {
		return Counter{}, err
	}
	return out, nil
}

func (r *repository) Get(ctx context.Context, key string) (Counter, error) {
	var c Counter
	err := r.pool.QueryRow(ctx, `SELECT type_key, label, prefix, counter_value, pad_width, updated_at
FROM sequence_counters WHERE type_key=$1`, key).
		Scan(&c.TypeKey, &c.Label, &c.Prefix, &c.Value, &c.PadWidth, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Counter{}, ErrCounterNotFound
		}
		return Counter{}, err
	}
	return c, nil
}

func (r *repository) List(ctx context.Context) ([]Counter, error) {
	rows, err := r.pool.Query(ctx, `SELECT type_key, label, prefix, counter_value, pad_width, updated_at
FROM sequence_counters ORDER BY type_key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var counters []Counter
	for rows.Next() {
		var c Counter
		if err := rows.Scan(&c.TypeKey, &c.Label, &c.Prefix, &c.Value, &c.PadWidth, &c.UpdatedAt); err != nil {
			return nil, err
		}
		counters = append(counters, c)
	}
	return counters, rows.Err()
}

func readCounter(ctx context.Context, tx pgx.Tx, key string) (Counter, error) {
	var c Counter
	err := tx.QueryRow(ctx, `SELECT type_key, label, prefix, counter_value, pad_width, updated_at
FROM sequence_counters WHERE type_key=$1`, key).
		Scan(&c.TypeKey, &c.Label, &c.Prefix, &c.Value, &c.PadWidth, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Counter{}, ErrCounterNotFound
		}
		return Counter{}, err
	}
	return c, nil
}

func upsertCounter(ctx context.Context, tx pgx.Tx, c Counter) error {
	_, err := tx.Exec(ctx, `INSERT INTO sequence_counters (type_key, label, prefix, counter_value, pad_width, updated_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (type_key) DO UPDATE SET label=EXCLUDED.label, prefix=EXCLUDED.prefix,
counter_value=EXCLUDED.counter_value, pad_width=EXCLUDED.pad_width, updated_at=EXCLUDED.updated_at`,
		c.TypeKey, c.Label, c.Prefix, c.Value, c.PadWidth, c.UpdatedAt)
	return err
}
