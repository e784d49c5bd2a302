package clickhouse

import "fmt"

func (store *ClickHouseMetricStore) createTablesIfNotExist() error {
	// Create database if not exists
	_, err := store.db.Exec(fmt.Sprintf(`
		CREATE DATABASE IF NOT EXISTS %s
	`, store.database))
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}

	statements := []struct {
		table string
		ddl   string
	}{
		{store.realtimeTable, `
			CREATE TABLE IF NOT EXISTS %s.%s (
				id UUID,
				user_id UUID,
				metric_name LowCardinality(String),
				timestamp DateTime64(3),
				qty Float64 DEFAULT 0,
				min Float64 DEFAULT 0,
				avg Float64 DEFAULT 0,
				max Float64 DEFAULT 0,
				source String DEFAULT '',
				raw String,
				ingested_at DateTime64(3)
			) ENGINE = MergeTree()
			ORDER BY (user_id, metric_name, timestamp)
		`},
		{store.aggregatedTable, `
			CREATE TABLE IF NOT EXISTS %s.%s (
				id UUID,
				user_id UUID,
				metric_name LowCardinality(String),
				units String DEFAULT '',
				timestamp DateTime64(3),
				qty Float64 DEFAULT 0,
				min Float64 DEFAULT 0,
				avg Float64 DEFAULT 0,
				max Float64 DEFAULT 0,
				source String DEFAULT '',
				raw String,
				ingested_at DateTime64(3)
			) ENGINE = MergeTree()
			ORDER BY (user_id, metric_name, timestamp)
		`},
		{store.sleepTable, `
			CREATE TABLE IF NOT EXISTS %s.%s (
				user_id UUID,
				date Date,
				asleep Float64 DEFAULT 0,
				in_bed Float64 DEFAULT 0,
				core Float64 DEFAULT 0,
				deep Float64 DEFAULT 0,
				rem Float64 DEFAULT 0,
				awake Float64 DEFAULT 0,
				total_sleep Float64 DEFAULT 0,
				sleep_start Nullable(DateTime64(3)),
				sleep_end Nullable(DateTime64(3)),
				in_bed_start Nullable(DateTime64(3)),
				in_bed_end Nullable(DateTime64(3)),
				source String DEFAULT '',
				raw String,
				updated_at DateTime64(3)
			) ENGINE = ReplacingMergeTree(updated_at)
			ORDER BY (user_id, date)
		`},
		{store.profilesTable, `
			CREATE TABLE IF NOT EXISTS %s.%s (
				id UUID,
				email String DEFAULT '',
				full_name String DEFAULT '',
				role LowCardinality(String) DEFAULT 'patient',
				created_at DateTime64(3) DEFAULT now64(3)
			) ENGINE = ReplacingMergeTree(created_at)
			ORDER BY id
		`},
	}

	for _, statement := range statements {
		if _, err := store.db.Exec(fmt.Sprintf(statement.ddl, store.database, statement.table)); err != nil {
			return fmt.Errorf("failed to create %s table: %w", statement.table, err)
		}
	}

	return nil
}
