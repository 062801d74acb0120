package recordset

import (
	"slices"
	"sync"
	"time"

	"github.com/JourneyJu/dsg-sub010/types"
)

// DefaultDebounce is the quiet interval used when none is configured
const DefaultDebounce = 150 * time.Millisecond

// Notifier coalesces change notifications and delivers them once the
// controller has been quiet for the debounce interval. Only delivery is
// deferred; the controller has already applied every change it reports.
type Notifier struct {
	interval time.Duration
	deliver  func([]types.Change)

	mu      sync.Mutex
	pending []types.Change
	timer   *time.Timer
	closed  bool
}

// NewNotifier creates a notifier calling deliver after interval of quiet.
// A non-positive interval uses DefaultDebounce.
func NewNotifier(interval time.Duration, deliver func([]types.Change)) *Notifier {
	if interval <= 0 {
		interval = DefaultDebounce
	}
	return &Notifier{interval: interval, deliver: deliver}
}

// Notify queues a change and restarts the quiet interval.
// A change repeating the previous one's op, field and keys replaces it.
func (n *Notifier) Notify(ch types.Change) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}

	if last := len(n.pending) - 1; last >= 0 && sameTarget(n.pending[last], ch) {
		n.pending[last] = ch
	} else {
		n.pending = append(n.pending, ch)
	}

	if n.timer == nil {
		n.timer = time.AfterFunc(n.interval, n.Flush)
		return
	}
	n.timer.Reset(n.interval)
}

// Flush delivers every queued change now
func (n *Notifier) Flush() {
	n.mu.Lock()
	batch := n.pending
	n.pending = nil
	if n.timer != nil {
		n.timer.Stop()
	}
	n.mu.Unlock()

	if len(batch) > 0 && n.deliver != nil {
		n.deliver(batch)
	}
}

// Pending returns the number of queued changes
func (n *Notifier) Pending() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.pending)
}

// Close flushes queued changes and stops the notifier.
// Later calls to Notify are ignored.
func (n *Notifier) Close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.closed = true
	n.mu.Unlock()
	n.Flush()
}

func sameTarget(a, b types.Change) bool {
	return a.Op == b.Op && a.Field == b.Field && a.Mode == b.Mode && slices.Equal(a.Keys, b.Keys)
}
