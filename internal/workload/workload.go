// Package workload は Reaper を動かし続けるための合成負荷ドライバです。
package workload

import (
	"context"
	"errors"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/amakane-hakari/reapset/internal/expiryset"
)

// Config は負荷ドライバの設定です。
type Config struct {
	Workers       int
	KeysPerWorker int
	MinTTL        time.Duration
	MaxTTL        time.Duration
	Interval      time.Duration // 0 なら待たずに回す
	Seed          int64
}

// Report は実行結果の集計です。
type Report struct {
	Adds      uint64
	Hits      uint64
	Misses    uint64
	Removes   uint64
	Elapsed   time.Duration
	LiveAtEnd int
}

// Driver は複数の ExpirySet に対して Add/Contains/Remove を混ぜて発行します。
type Driver struct {
	cfg  Config
	sets []*expiryset.ExpirySet[string]

	adds, hits, misses, removes atomic.Uint64
}

// New は sets を対象とする Driver を作成します。
func New(cfg Config, sets ...*expiryset.ExpirySet[string]) *Driver {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.KeysPerWorker < 1 {
		cfg.KeysPerWorker = 1
	}
	if cfg.MaxTTL < cfg.MinTTL {
		cfg.MaxTTL = cfg.MinTTL
	}
	return &Driver{cfg: cfg, sets: sets}
}

// Run は ctx がキャンセルされるまで、または rounds 周回するまで負荷をかけます。
// rounds <= 0 は無制限です。
func (d *Driver) Run(ctx context.Context, rounds int) (Report, error) {
	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < d.cfg.Workers; w++ {
		seed := d.cfg.Seed + int64(w)
		g.Go(func() error {
			return d.worker(ctx, rand.New(rand.NewSource(seed)), rounds)
		})
	}
	err := g.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}

	live := 0
	for _, s := range d.sets {
		live += s.Len()
	}
	return Report{
		Adds:      d.adds.Load(),
		Hits:      d.hits.Load(),
		Misses:    d.misses.Load(),
		Removes:   d.removes.Load(),
		Elapsed:   time.Since(start),
		LiveAtEnd: live,
	}, err
}

func (d *Driver) worker(ctx context.Context, r *rand.Rand, rounds int) error {
	if len(d.sets) == 0 {
		return nil
	}
	keys := make([]string, d.cfg.KeysPerWorker)
	for i := range keys {
		keys[i] = uuid.NewString()
	}

	var tick <-chan time.Time
	if d.cfg.Interval > 0 {
		t := time.NewTicker(d.cfg.Interval)
		defer t.Stop()
		tick = t.C
	}

	for round := 0; rounds <= 0 || round < rounds; round++ {
		for _, k := range keys {
			if err := ctx.Err(); err != nil {
				return err
			}
			s := d.sets[r.Intn(len(d.sets))]
			switch op := r.Intn(10); {
			case op < 5:
				s.Add(k, d.ttl(r))
				d.adds.Add(1)
			case op < 9:
				if s.Contains(k) {
					d.hits.Add(1)
				} else {
					d.misses.Add(1)
				}
			default:
				s.Remove(k)
				d.removes.Add(1)
			}
		}
		if tick != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-tick:
			}
		}
	}
	return nil
}

func (d *Driver) ttl(r *rand.Rand) time.Duration {
	span := d.cfg.MaxTTL - d.cfg.MinTTL
	if span <= 0 {
		return d.cfg.MinTTL
	}
	return d.cfg.MinTTL + time.Duration(r.Int63n(int64(span)))
}
