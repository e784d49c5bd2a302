package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joeecarter/respondr-server/storage/clickhouse"
	"github.com/joeecarter/respondr-server/storage/sqlite"
	"go.uber.org/zap"
)

const CLICKHOUSE_DSN = "CLICKHOUSE_DSN"
const CLICKHOUSE_DATABASE = "CLICKHOUSE_DATABASE"
const CLICKHOUSE_CREATE_TABLES = "CLICKHOUSE_CREATE_TABLES"
const SQLITE_PATH = "SQLITE_PATH"

// ErrNoMetricStore is returned when neither the config file nor the
// environment configures a store.
var ErrNoMetricStore = errors.New("no metric store configured")

type metricStoreLoader func(json.RawMessage) (MetricStore, error)

var metricStoreLoaders = map[string]metricStoreLoader{
	"clickhouse": loadClickHouseMetricStoreFromConfig,
	"sqlite":     loadSQLiteMetricStoreFromConfig,
}

type configType struct {
	Type string `json:"type"`
}

// LoadMetricStore opens the single configured store, from the config file
// or the environment.
func LoadMetricStore(filename string, logger *zap.Logger) (MetricStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	fromConfig, err := LoadMetricStoresFromConfig(filename, logger)
	if err != nil {
		return nil, err
	}

	fromEnvironment, err := LoadMetricStoresFromEnvironment()
	if err != nil {
		closeAll(fromConfig)
		return nil, err
	}

	stores := append(fromConfig, fromEnvironment...)
	switch len(stores) {
	case 0:
		return nil, ErrNoMetricStore
	case 1:
		return stores[0], nil
	default:
		names := make([]string, len(stores))
		for i, store := range stores {
			names[i] = store.Name()
		}
		closeAll(stores)
		return nil, fmt.Errorf("expected exactly one metric store, found %d: [ %s ]", len(stores), strings.Join(names, ", "))
	}
}

func LoadMetricStoresFromConfig(filename string, logger *zap.Logger) ([]MetricStore, error) {
	configs := make([]json.RawMessage, 0)
	b, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	err = json.Unmarshal(b, &configs)
	if err != nil {
		return nil, err
	}

	metricStores := make([]MetricStore, 0, len(configs))
	for _, config := range configs {
		loaderType, err := getConfigType(config)
		if err != nil {
			closeAll(metricStores)
			return nil, err
		}

		loader, ok := metricStoreLoaders[loaderType]
		if !ok {
			logUnknownLoaderType(logger, loaderType, config)
			continue
		}

		metricStore, err := loader(config)
		if err != nil {
			closeAll(metricStores)
			return nil, err
		}

		metricStores = append(metricStores, metricStore)
	}

	return metricStores, nil
}

func LoadMetricStoresFromEnvironment() ([]MetricStore, error) {
	var metricStores []MetricStore

	clickhouseStore, err := loadClickHouseMetricStoreFromEnvironment()
	if err != nil {
		return nil, err
	}
	if clickhouseStore != nil {
		metricStores = append(metricStores, clickhouseStore)
	}

	if path, ok := os.LookupEnv(SQLITE_PATH); ok && path != "" {
		sqliteStore, err := sqlite.NewSQLiteMetricStore(sqlite.SQLiteConfig{Path: path})
		if err != nil {
			closeAll(metricStores)
			return nil, err
		}
		metricStores = append(metricStores, sqliteStore)
	}

	return metricStores, nil
}

func loadClickHouseMetricStoreFromConfig(msg json.RawMessage) (MetricStore, error) {
	var config clickhouse.ClickHouseConfig
	if err := json.Unmarshal(msg, &config); err != nil {
		return nil, err
	}
	store, err := clickhouse.NewClickHouseMetricStore(config)
	if err != nil {
		return nil, err
	}
	return store, nil
}

func loadSQLiteMetricStoreFromConfig(msg json.RawMessage) (MetricStore, error) {
	var config sqlite.SQLiteConfig
	if err := json.Unmarshal(msg, &config); err != nil {
		return nil, err
	}
	store, err := sqlite.NewSQLiteMetricStore(config)
	if err != nil {
		return nil, err
	}
	return store, nil
}

func getConfigType(msg json.RawMessage) (string, error) {
	var config configType
	if err := json.Unmarshal(msg, &config); err != nil {
		return "", err
	}
	return config.Type, nil
}

func loadClickHouseMetricStoreFromEnvironment() (MetricStore, error) {
	dsn, dsnSet := os.LookupEnv(CLICKHOUSE_DSN)
	database, databaseSet := os.LookupEnv(CLICKHOUSE_DATABASE)
	createTablesStr, createTablesSet := os.LookupEnv(CLICKHOUSE_CREATE_TABLES)

	if !dsnSet && !databaseSet {
		return nil, nil
	}

	missingVariables := make([]string, 0)
	if !dsnSet {
		missingVariables = append(missingVariables, CLICKHOUSE_DSN)
	}
	if !databaseSet {
		missingVariables = append(missingVariables, CLICKHOUSE_DATABASE)
	}

	if len(missingVariables) > 0 {
		return nil, missingEnvironmentError{missingVariables}
	}

	createTables := false
	if createTablesSet && (createTablesStr == "true" || createTablesStr == "1" || createTablesStr == "yes") {
		createTables = true
	}

	config := clickhouse.ClickHouseConfig{
		DSN:          dsn,
		Database:     database,
		CreateTables: createTables,
	}

	store, err := clickhouse.NewClickHouseMetricStore(config)
	if err != nil {
		return nil, err
	}
	return store, nil
}

func logUnknownLoaderType(logger *zap.Logger, loaderType string, config json.RawMessage) {
	if strings.TrimSpace(loaderType) == "" {
		logger.Warn("empty loader type, skipping store config", zap.ByteString("config", minifyJson(config)))
	} else {
		logger.Warn("unknown loader type, skipping store config",
			zap.String("type", loaderType),
			zap.ByteString("config", minifyJson(config)))
	}
}

// attempts to minfiy the input json swallowing the error if there is one
func minifyJson(b []byte) []byte {
	obj := make(map[string]interface{})
	if err := json.Unmarshal(b, &obj); err != nil {
		return b
	}

	if minified, err := json.Marshal(&obj); err == nil {
		return minified
	}
	return b
}

func closeAll(stores []MetricStore) {
	for _, store := range stores {
		store.Close()
	}
}

type missingEnvironmentError struct {
	missingVariables []string
}

func (err missingEnvironmentError) Error() string {
	return fmt.Sprintf("Missing the following environment variables: [ %s ]", strings.Join(err.missingVariables, ", "))
}
