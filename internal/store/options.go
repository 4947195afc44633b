package store

// Config はマップの設定を表します。
type Config struct {
	Shards int // 2 の冪推奨。0/未指定なら 16
}

// Option はマップのオプションを設定する関数です。
type Option func(*Config)

// WithShards はシャード数を設定するオプションです。
func WithShards(n int) Option {
	return func(c *Config) { c.Shards = n }
}
