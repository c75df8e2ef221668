// Package prompt provides a generic bridge that turns an interactive dialog
// (password entry, account-name entry) into an awaitable call. A caller
// suspends in Request until the dialog side settles the oldest pending
// request with Submit or Cancel.
package prompt

import (
	"context"
	"sync"

	"github.com/hivebridge-io/hivebridge/internal/metrics"
	hberr "github.com/hivebridge-io/hivebridge/pkg/errors"
)

// Kind identifies what a prompt request is asking for.
type Kind string

// Prompt kinds.
const (
	KindPassword    Kind = "password"     // recovery/unlock password
	KindNewPassword Kind = "new_password" // password for a wallet being created
	KindAccountName Kind = "account_name" // account name entry
)

type outcome struct {
	value string
	err   error
}

type request struct {
	kind Kind
	done chan outcome
}

// Bridge is a FIFO queue of pending prompt requests. Requests are settled
// oldest-first: a second Request while one is pending queues behind it, it
// never abandons the first caller.
type Bridge struct {
	mu      sync.Mutex
	pending []*request
	notify  chan struct{}
}

// NewBridge creates an empty prompt bridge.
func NewBridge() *Bridge {
	return &Bridge{
		notify: make(chan struct{}, 1),
	}
}

// Request enqueues a prompt of the given kind and blocks until the dialog
// side settles it or ctx is cancelled. Cancellation by either path yields
// ErrPromptCancelled; the request is never left unsettled.
func (b *Bridge) Request(ctx context.Context, kind Kind) (string, error) {
	req := &request{
		kind: kind,
		done: make(chan outcome, 1),
	}

	b.mu.Lock()
	b.pending = append(b.pending, req)
	b.mu.Unlock()

	// Wake the dialog side without blocking if it is already signalled.
	select {
	case b.notify <- struct{}{}:
	default:
	}

	select {
	case out := <-req.done:
		return out.value, out.err
	case <-ctx.Done():
		b.remove(req)
		return "", hberr.Wrap(hberr.ErrPromptCancelled, "prompt abandoned")
	}
}

// Notify returns a channel signalled whenever a new request is enqueued.
// Signals coalesce; after waking, drain with Oldest until it reports none.
func (b *Bridge) Notify() <-chan struct{} {
	return b.notify
}

// Oldest returns the kind of the oldest pending request, if any.
func (b *Bridge) Oldest() (Kind, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.pending) == 0 {
		return "", false
	}
	return b.pending[0].kind, true
}

// PendingCount returns the number of unsettled requests.
func (b *Bridge) PendingCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Submit resolves the oldest pending request with value. Returns false when
// nothing is pending.
func (b *Bridge) Submit(value string) bool {
	return b.settle(outcome{value: value})
}

// Cancel rejects the oldest pending request with ErrPromptCancelled.
// Returns false when nothing is pending.
func (b *Bridge) Cancel() bool {
	return b.settle(outcome{err: hberr.ErrPromptCancelled})
}

// CancelAll rejects every pending request. Used on teardown so no caller is
// left waiting on a dialog that will never appear.
func (b *Bridge) CancelAll() {
	b.mu.Lock()
	pending := b.pending
	b.pending = nil
	b.mu.Unlock()

	for _, req := range pending {
		req.done <- outcome{err: hberr.ErrPromptCancelled}
	}
}

func (b *Bridge) settle(out outcome) bool {
	b.mu.Lock()
	if len(b.pending) == 0 {
		b.mu.Unlock()
		return false
	}
	req := b.pending[0]
	b.pending = b.pending[1:]
	b.mu.Unlock()

	metrics.Global.RecordPrompt(out.err != nil)
	req.done <- out
	return true
}

func (b *Bridge) remove(target *request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, req := range b.pending {
		if req == target {
			b.pending = append(b.pending[:i], b.pending[i+1:]...)
			return
		}
	}
}
