// Package sqlite is an embedded MetricStore used for local development and
// single-node deployments.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/joeecarter/respondr-server/request"
	"github.com/joeecarter/respondr-server/storage"
	_ "github.com/mattn/go-sqlite3"
)

type SQLiteConfig struct {
	Path string `json:"path"`
}

type SQLiteMetricStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteMetricStore(config SQLiteConfig) (*SQLiteMetricStore, error) {
	if config.Path == "" {
		return nil, errors.New("sqlite path is required")
	}

	db, err := sql.Open("sqlite3", config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with a single connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteMetricStore{db: db, now: time.Now}, nil
}

func (store *SQLiteMetricStore) Name() string {
	return "sqlite"
}

func (store *SQLiteMetricStore) InsertRealtime(ctx context.Context, userID uuid.UUID, metricName string, samples []request.Sample) (int, error) {
	const query = `INSERT INTO realtime_metrics
		(id, user_id, metric_name, timestamp_ms, qty, min, avg, max, source, raw, ingested_at_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	now := store.now()
	return store.exec(ctx, query, samples, func(sample *request.Sample) []any {
		return []any{
			uuid.NewString(),
			userID.String(),
			metricName,
			storage.SampleTime(sample, now).UnixMilli(),
			sample.Qty,
			sample.Min,
			sample.Avg,
			sample.Max,
			sample.Source,
			storage.Raw(sample),
			now.UnixMilli(),
		}
	})
}

func (store *SQLiteMetricStore) InsertAggregated(ctx context.Context, userID uuid.UUID, metricName string, samples []request.Sample, units string) (int, error) {
	const query = `INSERT INTO aggregated_metrics
		(id, user_id, metric_name, units, timestamp_ms, qty, min, avg, max, source, raw, ingested_at_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	now := store.now()
	return store.exec(ctx, query, samples, func(sample *request.Sample) []any {
		return []any{
			uuid.NewString(),
			userID.String(),
			metricName,
			units,
			storage.SampleTime(sample, now).UnixMilli(),
			sample.Qty,
			sample.Min,
			sample.Avg,
			sample.Max,
			sample.Source,
			storage.Raw(sample),
			now.UnixMilli(),
		}
	})
}

func (store *SQLiteMetricStore) UpsertSleep(ctx context.Context, userID uuid.UUID, samples []request.Sample) (int, error) {
	const query = `INSERT INTO sleep_records
		(user_id, date, asleep, in_bed, core, deep, rem, awake, total_sleep,
		 sleep_start_ms, sleep_end_ms, in_bed_start_ms, in_bed_end_ms, source, raw, updated_at_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, date) DO UPDATE SET
			asleep = excluded.asleep,
			in_bed = excluded.in_bed,
			core = excluded.core,
			deep = excluded.deep,
			rem = excluded.rem,
			awake = excluded.awake,
			total_sleep = excluded.total_sleep,
			sleep_start_ms = excluded.sleep_start_ms,
			sleep_end_ms = excluded.sleep_end_ms,
			in_bed_start_ms = excluded.in_bed_start_ms,
			in_bed_end_ms = excluded.in_bed_end_ms,
			source = excluded.source,
			raw = excluded.raw,
			updated_at_ms = excluded.updated_at_ms`

	now := store.now()
	return store.exec(ctx, query, storage.LatestPerDay(samples, now), func(sample *request.Sample) []any {
		return []any{
			userID.String(),
			storage.SleepDay(sample, now),
			sample.Asleep,
			sample.InBed,
			sample.Core,
			sample.Deep,
			sample.REM,
			sample.Awake,
			sample.TotalSleep,
			millis(sample.SleepStart),
			millis(sample.SleepEnd),
			millis(sample.InBedStart),
			millis(sample.InBedEnd),
			sample.Source,
			storage.Raw(sample),
			now.UnixMilli(),
		}
	})
}

func (store *SQLiteMetricStore) exec(ctx context.Context, query string, samples []request.Sample, row func(*request.Sample) []any) (int, error) {
	if len(samples) == 0 {
		return 0, nil
	}

	tx, err := store.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i := range samples {
		if _, err := stmt.ExecContext(ctx, row(&samples[i])...); err != nil {
			return 0, fmt.Errorf("failed to insert sample: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return len(samples), nil
}

func (store *SQLiteMetricStore) GetProfile(ctx context.Context, userID uuid.UUID) (*storage.Profile, error) {
	row := store.db.QueryRowContext(ctx,
		`SELECT id, email, full_name, role, created_at_ms FROM profiles WHERE id = ?`,
		userID.String())

	var (
		id        string
		createdAt int64
		profile   storage.Profile
	)
	err := row.Scan(&id, &profile.Email, &profile.FullName, &profile.Role, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	profile.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid profile id %q: %w", id, err)
	}
	profile.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &profile, nil
}

// SaveProfile creates or replaces a profile row.
func (store *SQLiteMetricStore) SaveProfile(ctx context.Context, profile storage.Profile) error {
	createdAt := profile.CreatedAt
	if createdAt.IsZero() {
		createdAt = store.now()
	}
	_, err := store.db.ExecContext(ctx,
		`INSERT INTO profiles (id, email, full_name, role, created_at_ms) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			email = excluded.email,
			full_name = excluded.full_name,
			role = excluded.role`,
		profile.ID.String(), profile.Email, profile.FullName, profile.Role, createdAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

func (store *SQLiteMetricStore) Close() error {
	return store.db.Close()
}

func millis(ts *request.Timestamp) any {
	if ts == nil {
		return nil
	}
	return ts.ToTime().UnixMilli()
}
