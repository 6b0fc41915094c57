// Package connectivity maintains a process-wide "is the remote reachable"
// signal. The monitor only reports; it never calls into sync logic. A
// transition to online is a hint that subscribers may attempt a sync, not a
// guarantee the next request will succeed.
package connectivity

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Prober checks reachability of the remote. The httpremote client's Ping
// satisfies this.
type Prober interface {
	Ping(ctx context.Context) error
}

// Monitor polls a Prober and publishes coalesced online/offline transitions:
// repeated identical states do not re-notify.
type Monitor struct {
	prober   Prober
	interval time.Duration
	timeout  time.Duration
	log      zerolog.Logger

	online atomic.Bool

	mu   sync.Mutex
	subs []chan bool
}

// NewMonitor constructs a Monitor polling prober every interval.
func NewMonitor(prober Prober, interval time.Duration, log zerolog.Logger) *Monitor {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Monitor{
		prober:   prober,
		interval: interval,
		timeout:  interval,
		log:      log,
	}
}

// Online returns the last observed reachability state.
func (m *Monitor) Online() bool { return m.online.Load() }

// Subscribe returns a channel receiving the new state on each transition.
// Sends never block; a slow subscriber misses intermediate flips.
func (m *Monitor) Subscribe() <-chan bool {
	ch := make(chan bool, 1)
	m.mu.Lock()
	m.subs = append(m.subs, ch)
	m.mu.Unlock()
	return ch
}

// Start runs the polling loop until ctx is canceled. The first probe runs
// immediately so dependents see a state before the first tick.
func (m *Monitor) Start(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.probe(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.probe(ctx)
		}
	}
}

func (m *Monitor) probe(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	m.set(m.prober.Ping(pctx) == nil)
}

// set records the new state and notifies subscribers only on change.
func (m *Monitor) set(online bool) {
	if m.online.Swap(online) == online {
		return
	}
	if online {
		m.log.Info().Msg("remote reachable")
	} else {
		m.log.Warn().Msg("remote unreachable")
	}
	m.mu.Lock()
	subs := make([]chan bool, len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()
	for _, ch := range subs {
		select {
		case ch <- online:
		default:
		}
	}
}
