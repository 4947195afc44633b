package reaper

import (
	"github.com/amakane-hakari/reapset/internal/clock"
	"github.com/amakane-hakari/reapset/internal/metrics"
)

type logLike interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config は Reaper の設定を表します。
type Config struct {
	Clock   clock.Clock
	Logger  logLike
	Metrics metrics.Interface
}

// Option は Reaper のオプションを設定する関数です。
type Option func(*Config)

// WithClock は時刻源を設定するオプションです。
func WithClock(c clock.Clock) Option {
	return func(cfg *Config) { cfg.Clock = c }
}

// WithLogger はロガーを設定するオプションです。
func WithLogger(l logLike) Option {
	return func(cfg *Config) { cfg.Logger = l }
}

// WithMetrics はメトリクスを設定するオプションです。
func WithMetrics(m metrics.Interface) Option {
	return func(cfg *Config) { cfg.Metrics = m }
}
