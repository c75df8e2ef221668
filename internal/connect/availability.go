package connect

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/event"

	"github.com/hivebridge-io/hivebridge/internal/settings"
)

// Probe reports whether a provider kind is currently reachable.
type Probe func(ctx context.Context) bool

// Availability maps each probed wallet kind to its last observed
// reachability. Events are advisory; Connect never consults them.
type Availability map[settings.Kind]bool

// Watcher periodically probes provider availability and publishes the
// result on an event feed. One watcher runs per application instance.
type Watcher struct {
	interval time.Duration
	probes   map[settings.Kind]Probe

	mu      sync.Mutex
	current Availability
	cancel  context.CancelFunc
	done    chan struct{}

	feed event.Feed
}

// NewWatcher creates a watcher that probes at the given interval. It does
// not start probing until Start is called.
func NewWatcher(interval time.Duration, probes map[settings.Kind]Probe) *Watcher {
	return &Watcher{
		interval: interval,
		probes:   probes,
		current:  make(Availability, len(probes)),
	}
}

// Subscribe registers a channel for availability snapshots.
func (w *Watcher) Subscribe(ch chan<- Availability) event.Subscription {
	return w.feed.Subscribe(ch)
}

// Current returns a copy of the last probe results.
func (w *Watcher) Current() Availability {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(Availability, len(w.current))
	for k, v := range w.current {
		out[k] = v
	}
	return out
}

// Start launches the probe loop. The first probe runs immediately so
// subscribers are not left blind for a full interval. Calling Start on a
// running watcher is a no-op.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	if w.cancel != nil {
		w.mu.Unlock()
		return
	}
	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	w.mu.Unlock()

	go w.run(ctx)
}

// Stop halts the probe loop and waits for it to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	done := w.done
	w.cancel = nil
	w.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.probeOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.probeOnce(ctx)
		}
	}
}

func (w *Watcher) probeOnce(ctx context.Context) {
	snapshot := make(Availability, len(w.probes))
	for kind, probe := range w.probes {
		snapshot[kind] = probe(ctx)
	}

	w.mu.Lock()
	changed := len(snapshot) != len(w.current)
	if !changed {
		for k, v := range snapshot {
			if w.current[k] != v {
				changed = true
				break
			}
		}
	}
	w.current = snapshot
	w.mu.Unlock()

	if changed {
		w.feed.Send(snapshot)
	}
}
