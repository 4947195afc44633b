package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Prom は Prometheus を使ったメトリクス実装です。
type Prom struct {
	addNew       prometheus.Counter
	addRefresh   prometheus.Counter
	containsHit  prometheus.Counter
	containsMiss prometheus.Counter
	lazyExpired  prometheus.Counter
	reaped       prometheus.Counter
	stale        prometheus.Counter
	queueDepth   prometheus.Gauge
}

// NewProm は Prometheus を使ったメトリクス実装を初期化し、reg に登録します。
// reg が nil の場合は prometheus.DefaultRegisterer を使います。
func NewProm(namespace string, reg prometheus.Registerer) *Prom {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	makeC := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		})
	}
	makeG := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		})
	}

	p := &Prom{
		addNew:       makeC("add_new_total", "Number of new keys added"),
		addRefresh:   makeC("add_refresh_total", "Number of keys whose deadline was refreshed"),
		containsHit:  makeC("contains_hit_total", "Number of contains calls that found a live key"),
		containsMiss: makeC("contains_miss_total", "Number of contains calls that found no live key"),
		lazyExpired:  makeC("lazy_expired_total", "Number of keys removed lazily on contains"),
		reaped:       makeC("reaped_total", "Number of keys removed by the reaper"),
		stale:        makeC("stale_entries_total", "Number of reaper entries that no longer matched a key"),
		queueDepth:   makeG("queue_depth", "Current number of pending deadline entries"),
	}

	// 同一 Registerer への重複登録は panic するので呼び出し側で 1 回だけ生成する
	reg.MustRegister(
		p.addNew, p.addRefresh, p.containsHit, p.containsMiss,
		p.lazyExpired, p.reaped, p.stale, p.queueDepth,
	)
	return p
}

// IncAddNew は新しいキーが追加されたことをカウントします。
func (p *Prom) IncAddNew() { p.addNew.Inc() }

// IncAddRefresh は既存キーの期限が更新されたことをカウントします。
func (p *Prom) IncAddRefresh() { p.addRefresh.Inc() }

// IncContainsHit は Contains のヒットをカウントします。
func (p *Prom) IncContainsHit() { p.containsHit.Inc() }

// IncContainsMiss は Contains のミスをカウントします。
func (p *Prom) IncContainsMiss() { p.containsMiss.Inc() }

// AddLazyExpired は遅延削除されたキーの数を加算します。
func (p *Prom) AddLazyExpired(n int) {
	if n > 0 {
		p.lazyExpired.Add(float64(n))
	}
}

// AddReaped は Reaper が削除したキーの数を加算します。
func (p *Prom) AddReaped(n int) {
	if n > 0 {
		p.reaped.Add(float64(n))
	}
}

// AddStale は空振りに終わった期限エントリの数を加算します。
func (p *Prom) AddStale(n int) {
	if n > 0 {
		p.stale.Add(float64(n))
	}
}

// SetQueueDepth は期限キューの長さを設定します。
func (p *Prom) SetQueueDepth(n int) {
	if n >= 0 {
		p.queueDepth.Set(float64(n))
	}
}
