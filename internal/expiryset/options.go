package expiryset

import "github.com/amakane-hakari/reapset/internal/metrics"

type logLike interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config は ExpirySet の設定を表します。
type Config struct {
	Shards  int // 0/未指定なら 16
	Logger  logLike
	Metrics metrics.Interface
}

// Option は ExpirySet のオプションを設定する関数です。
type Option func(*Config)

// WithShards は内部マップのシャード数を設定するオプションです。
func WithShards(n int) Option {
	return func(c *Config) { c.Shards = n }
}

// WithLogger はロガーを設定するオプションです。
func WithLogger(l logLike) Option {
	return func(c *Config) { c.Logger = l }
}

// WithMetrics はメトリクスを設定するオプションです。
func WithMetrics(m metrics.Interface) Option {
	return func(c *Config) { c.Metrics = m }
}
