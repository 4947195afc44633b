// Package config は reapd の設定を読み込みます。
//
// 優先順位は 既定値 < TOML ファイル < 環境変数 です。
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Config は reapd 全体の設定です。
type Config struct {
	HTTPAddr         string   `toml:"http_addr"`
	LogLevel         string   `toml:"log_level"`
	Shards           int      `toml:"shards"`
	MetricsNamespace string   `toml:"metrics_namespace"`
	ShutdownTimeout  Duration `toml:"shutdown_timeout"`
	Workload         Workload `toml:"workload"`
}

// Workload は組み込み負荷ドライバの設定です。
type Workload struct {
	Enabled       bool     `toml:"enabled"`
	Sets          int      `toml:"sets"`
	Workers       int      `toml:"workers"`
	KeysPerWorker int      `toml:"keys_per_worker"`
	MinTTL        Duration `toml:"min_ttl"`
	MaxTTL        Duration `toml:"max_ttl"`
	Interval      Duration `toml:"interval"`
}

// Duration は TOML 上で "1.5s" のような文字列を受け付ける time.Duration です。
type Duration struct {
	time.Duration
}

// UnmarshalText は time.ParseDuration 形式の文字列を読み込みます。
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText は Duration を文字列化します。
func (d Duration) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// Default は既定値の Config を返します。
func Default() Config {
	return Config{
		HTTPAddr:         ":8080",
		LogLevel:         "info",
		Shards:           16,
		MetricsNamespace: "reapset",
		ShutdownTimeout:  Duration{5 * time.Second},
		Workload: Workload{
			Enabled:       false,
			Sets:          4,
			Workers:       8,
			KeysPerWorker: 1000,
			MinTTL:        Duration{50 * time.Millisecond},
			MaxTTL:        Duration{2 * time.Second},
			Interval:      Duration{time.Millisecond},
		},
	}
}

// Load は path (空なら省略) の TOML と環境変数から設定を読み込み、検証します。
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	c.HTTPAddr = getEnv("REAPD_HTTP_ADDR", c.HTTPAddr)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.MetricsNamespace = getEnv("REAPD_METRICS_NAMESPACE", c.MetricsNamespace)

	var err error
	if c.Shards, err = intEnv("REAPD_SHARDS", c.Shards); err != nil {
		return err
	}
	if c.Workload.Enabled, err = boolEnv("REAPD_WORKLOAD_ENABLED", c.Workload.Enabled); err != nil {
		return err
	}
	if c.Workload.Workers, err = intEnv("REAPD_WORKLOAD_WORKERS", c.Workload.Workers); err != nil {
		return err
	}
	if c.Workload.Sets, err = intEnv("REAPD_WORKLOAD_SETS", c.Workload.Sets); err != nil {
		return err
	}
	if c.Workload.KeysPerWorker, err = intEnv("REAPD_WORKLOAD_KEYS_PER_WORKER", c.Workload.KeysPerWorker); err != nil {
		return err
	}
	if c.Workload.MinTTL.Duration, err = durationEnv("REAPD_WORKLOAD_MIN_TTL", c.Workload.MinTTL.Duration); err != nil {
		return err
	}
	if c.Workload.MaxTTL.Duration, err = durationEnv("REAPD_WORKLOAD_MAX_TTL", c.Workload.MaxTTL.Duration); err != nil {
		return err
	}
	if c.Workload.Interval.Duration, err = durationEnv("REAPD_WORKLOAD_INTERVAL", c.Workload.Interval.Duration); err != nil {
		return err
	}
	return nil
}

// Validate は設定値の整合性を検証します。
func (c *Config) Validate() error {
	var errs []error
	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("http_addr must not be empty"))
	}
	if c.Shards < 1 {
		errs = append(errs, fmt.Errorf("shards must be >= 1, got %d", c.Shards))
	}
	if c.ShutdownTimeout.Duration <= 0 {
		errs = append(errs, errors.New("shutdown_timeout must be positive"))
	}
	if w := c.Workload; w.Enabled {
		if w.Sets < 1 || w.Workers < 1 || w.KeysPerWorker < 1 {
			errs = append(errs, errors.New("workload sets, workers and keys_per_worker must be >= 1"))
		}
		if w.MinTTL.Duration < 0 || w.MaxTTL.Duration < w.MinTTL.Duration {
			errs = append(errs, fmt.Errorf("workload ttl range invalid: [%s, %s]", w.MinTTL, w.MaxTTL))
		}
	}
	return errors.Join(errs...)
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func intEnv(k string, def int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("invalid %s: %w", k, err)
	}
	return i, nil
}

func boolEnv(k string, def bool) (bool, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("invalid %s: %w", k, err)
	}
	return b, nil
}

func durationEnv(k string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("invalid %s: %w", k, err)
	}
	return d, nil
}
