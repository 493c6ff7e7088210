package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	AppEnv   string
	LogLevel slog.Level
	HTTPAddr string

	// MetricsPath is where the Prometheus handler is mounted. Empty disables it.
	MetricsPath string

	Driver          string
	DSN             string
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	MeasurementTable string
	StationTable     string
}

// fileValues mirrors the environment variables in a YAML file named by CONFIG_FILE.
// Values from the file are used only when the matching variable is unset.
type fileValues struct {
	AppEnv          string `yaml:"app_env"`
	LogLevel        string `yaml:"log_level"`
	HTTPAddr        string `yaml:"http_addr"`
	MetricsPath     string `yaml:"metrics_path"`
	DBDriver        string `yaml:"db_driver"`
	DBDSN           string `yaml:"db_dsn"`
	SQLitePath      string `yaml:"sqlite_path"`
	MaxOpenConns    string `yaml:"db_max_open_conns"`
	MaxIdleConns    string `yaml:"db_max_idle_conns"`
	ConnMaxLifetime string `yaml:"db_conn_max_lifetime"`
	MeasurementTbl  string `yaml:"measurement_table"`
	StationTbl      string `yaml:"station_table"`
}

func (f fileValues) lookup() map[string]string {
	return map[string]string{
		"APP_ENV":              f.AppEnv,
		"LOG_LEVEL":            f.LogLevel,
		"HTTP_ADDR":            f.HTTPAddr,
		"METRICS_PATH":         f.MetricsPath,
		"DB_DRIVER":            f.DBDriver,
		"DB_DSN":               f.DBDSN,
		"SQLITE_PATH":          f.SQLitePath,
		"DB_MAX_OPEN_CONNS":    f.MaxOpenConns,
		"DB_MAX_IDLE_CONNS":    f.MaxIdleConns,
		"DB_CONN_MAX_LIFETIME": f.ConnMaxLifetime,
		"MEASUREMENT_TABLE":    f.MeasurementTbl,
		"STATION_TABLE":        f.StationTbl,
	}
}

func LoadFromEnv() (Config, error) {
	fromFile := map[string]string{}
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		values, err := readFile(path)
		if err != nil {
			return Config{}, err
		}
		fromFile = values.lookup()
	}
	get := func(key string) string {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
		return strings.TrimSpace(fromFile[key])
	}

	appEnv := get("APP_ENV")
	if appEnv == "" {
		appEnv = "dev"
	}
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	logLevelStr := get("LOG_LEVEL")
	if logLevelStr == "" {
		logLevelStr = "info"
	}
	level, err := parseLogLevel(logLevelStr)
	if err != nil {
		return Config{}, err
	}

	httpAddr := get("HTTP_ADDR")
	if httpAddr == "" {
		httpAddr = ":8080"
	}

	metricsPath, metricsSet := os.LookupEnv("METRICS_PATH")
	metricsPath = strings.TrimSpace(metricsPath)
	if !metricsSet {
		metricsPath = strings.TrimSpace(fromFile["METRICS_PATH"])
		if metricsPath == "" {
			metricsPath = "/metrics"
		}
	}
	if metricsPath != "" && !strings.HasPrefix(metricsPath, "/") {
		return Config{}, fmt.Errorf("invalid METRICS_PATH %q (must start with /)", metricsPath)
	}

	driver := get("DB_DRIVER")
	if driver == "" {
		driver = "sqlite3"
	}
	switch driver {
	case "sqlite3", "postgres", "mysql":
	default:
		return Config{}, fmt.Errorf("invalid DB_DRIVER %q (allowed: sqlite3, postgres, mysql)", driver)
	}
	dsn := get("DB_DSN")
	if driver != "sqlite3" && dsn == "" {
		return Config{}, fmt.Errorf("DB_DSN is required for DB_DRIVER %q", driver)
	}
	path := get("SQLITE_PATH")
	if path == "" {
		path = "Resources/hawaii.sqlite"
	}

	maxOpenConnsStr := get("DB_MAX_OPEN_CONNS")
	if maxOpenConnsStr == "" {
		maxOpenConnsStr = "4"
	}
	maxOpenConns, err := strconv.Atoi(maxOpenConnsStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_MAX_OPEN_CONNS %q: %w", maxOpenConnsStr, err)
	}

	maxIdleConnsStr := get("DB_MAX_IDLE_CONNS")
	if maxIdleConnsStr == "" {
		maxIdleConnsStr = "4"
	}
	maxIdleConns, err := strconv.Atoi(maxIdleConnsStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_MAX_IDLE_CONNS %q: %w", maxIdleConnsStr, err)
	}

	connMaxLifetimeStr := get("DB_CONN_MAX_LIFETIME")
	if connMaxLifetimeStr == "" {
		connMaxLifetimeStr = "0s"
	}
	connMaxLifetime, err := time.ParseDuration(connMaxLifetimeStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME %q: %w", connMaxLifetimeStr, err)
	}

	measurementTable := get("MEASUREMENT_TABLE")
	if measurementTable == "" {
		measurementTable = "measurement"
	}
	stationTable := get("STATION_TABLE")
	if stationTable == "" {
		stationTable = "station"
	}

	return Config{
		AppEnv:           appEnv,
		LogLevel:         level,
		HTTPAddr:         httpAddr,
		MetricsPath:      metricsPath,
		Driver:           driver,
		DSN:              dsn,
		Path:             path,
		MaxOpenConns:     maxOpenConns,
		MaxIdleConns:     maxIdleConns,
		ConnMaxLifetime:  connMaxLifetime,
		MeasurementTable: measurementTable,
		StationTable:     stationTable,
	}, nil
}

func readFile(path string) (fileValues, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fileValues{}, fmt.Errorf("read config file %s: %w", path, err)
	}
	var values fileValues
	if err := yaml.Unmarshal(data, &values); err != nil {
		return fileValues{}, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return values, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
