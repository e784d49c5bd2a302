package clickhouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/google/uuid"
	"github.com/joeecarter/respondr-server/request"
	"github.com/joeecarter/respondr-server/storage"
)

type ClickHouseConfig struct {
	DSN             string `json:"dsn"`
	Database        string `json:"database"`
	RealtimeTable   string `json:"realtime_table"`
	AggregatedTable string `json:"aggregated_table"`
	SleepTable      string `json:"sleep_table"`
	ProfilesTable   string `json:"profiles_table"`
	CreateTables    bool   `json:"create_tables"`
}

// withDefaults fills unset table names.
func (config ClickHouseConfig) withDefaults() ClickHouseConfig {
	if config.RealtimeTable == "" {
		config.RealtimeTable = "realtime_metrics"
	}
	if config.AggregatedTable == "" {
		config.AggregatedTable = "aggregated_metrics"
	}
	if config.SleepTable == "" {
		config.SleepTable = "sleep_records"
	}
	if config.ProfilesTable == "" {
		config.ProfilesTable = "profiles"
	}
	return config
}

type ClickHouseMetricStore struct {
	db              *sql.DB
	database        string
	realtimeTable   string
	aggregatedTable string
	sleepTable      string
	profilesTable   string
	now             func() time.Time
}

func NewClickHouseMetricStore(config ClickHouseConfig) (*ClickHouseMetricStore, error) {
	config = config.withDefaults()

	db, err := sql.Open("clickhouse", config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	store := &ClickHouseMetricStore{
		db:              db,
		database:        config.Database,
		realtimeTable:   config.RealtimeTable,
		aggregatedTable: config.AggregatedTable,
		sleepTable:      config.SleepTable,
		profilesTable:   config.ProfilesTable,
		now:             time.Now,
	}

	if config.CreateTables {
		if err := store.createTablesIfNotExist(); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create tables: %w", err)
		}
	}

	return store, nil
}

func (store *ClickHouseMetricStore) Name() string {
	return "clickhouse"
}

func (store *ClickHouseMetricStore) InsertRealtime(ctx context.Context, userID uuid.UUID, metricName string, samples []request.Sample) (int, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s.%s
		(id, user_id, metric_name, timestamp, qty, min, avg, max, source, raw, ingested_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, store.database, store.realtimeTable)

	now := store.now()
	return store.insert(ctx, query, samples, func(sample *request.Sample) []any {
		return []any{
			uuid.New(),
			userID,
			metricName,
			storage.SampleTime(sample, now),
			sample.Qty,
			sample.Min,
			sample.Avg,
			sample.Max,
			sample.Source,
			storage.Raw(sample),
			now,
		}
	})
}

func (store *ClickHouseMetricStore) InsertAggregated(ctx context.Context, userID uuid.UUID, metricName string, samples []request.Sample, units string) (int, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s.%s
		(id, user_id, metric_name, units, timestamp, qty, min, avg, max, source, raw, ingested_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, store.database, store.aggregatedTable)

	now := store.now()
	return store.insert(ctx, query, samples, func(sample *request.Sample) []any {
		return []any{
			uuid.New(),
			userID,
			metricName,
			units,
			storage.SampleTime(sample, now),
			sample.Qty,
			sample.Min,
			sample.Avg,
			sample.Max,
			sample.Source,
			storage.Raw(sample),
			now,
		}
	})
}

// UpsertSleep relies on the ReplacingMergeTree engine of the sleep table:
// rows sharing (user_id, date) collapse to the one with the latest
// updated_at. Reads use FINAL to see the collapsed view before merges run.
func (store *ClickHouseMetricStore) UpsertSleep(ctx context.Context, userID uuid.UUID, samples []request.Sample) (int, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s.%s
		(user_id, date, asleep, in_bed, core, deep, rem, awake, total_sleep,
		 sleep_start, sleep_end, in_bed_start, in_bed_end, source, raw, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, store.database, store.sleepTable)

	now := store.now()
	return store.insert(ctx, query, storage.LatestPerDay(samples, now), func(sample *request.Sample) []any {
		return []any{
			userID,
			storage.SleepDate(sample, now),
			sample.Asleep,
			sample.InBed,
			sample.Core,
			sample.Deep,
			sample.REM,
			sample.Awake,
			sample.TotalSleep,
			nullableTime(sample.SleepStart),
			nullableTime(sample.SleepEnd),
			nullableTime(sample.InBedStart),
			nullableTime(sample.InBedEnd),
			sample.Source,
			storage.Raw(sample),
			now,
		}
	})
}

func (store *ClickHouseMetricStore) insert(ctx context.Context, query string, samples []request.Sample, row func(*request.Sample) []any) (int, error) {
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

func (store *ClickHouseMetricStore) GetProfile(ctx context.Context, userID uuid.UUID) (*storage.Profile, error) {
	row := store.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT id, email, full_name, role, created_at
		FROM %s.%s FINAL
		WHERE id = ?
		LIMIT 1
	`, store.database, store.profilesTable), userID)

	var profile storage.Profile
	err := row.Scan(&profile.ID, &profile.Email, &profile.FullName, &profile.Role, &profile.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	return &profile, nil
}

func nullableTime(ts *request.Timestamp) any {
	if ts == nil {
		return nil
	}
	return ts.ToTime()
}

func (store *ClickHouseMetricStore) Close() error {
	return store.db.Close()
}
