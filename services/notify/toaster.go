// Package notify implements the page notification boundary.
package notify

import (
	"sync"
	"time"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/page"
)

var NowFunc = time.Now // mockable

// DefaultTTL is how long a toast stays active.
const DefaultTTL = 5 * time.Second

type toast struct {
	page.Notification
	expires time.Time
}

// Toaster queues notifications in memory. They expire after a TTL.
type Toaster struct {
	ttl time.Duration

	mu     sync.Mutex
	toasts []toast
}

var _ page.Notifier = (*Toaster)(nil)

func NewToaster(ttl time.Duration) *Toaster {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Toaster{ttl: ttl}
}

func (t *Toaster) Notify(n page.Notification) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.toasts = append(t.toasts, toast{Notification: n, expires: NowFunc().Add(t.ttl)})
}

// Active returns the notifications that have not expired, oldest first.
func (t *Toaster) Active() []page.Notification {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.prune()
	out := make([]page.Notification, 0, len(t.toasts))
	for _, ts := range t.toasts {
		out = append(out, ts.Notification)
	}
	return out
}

// Drain returns the active notifications and empties the queue.
func (t *Toaster) Drain() []page.Notification {
	out := t.Active()
	t.mu.Lock()
	t.toasts = nil
	t.mu.Unlock()
	return out
}

func (t *Toaster) prune() {
	now := NowFunc()
	kept := t.toasts[:0]
	for _, ts := range t.toasts {
		if now.Before(ts.expires) {
			kept = append(kept, ts)
		}
	}
	t.toasts = kept
}

// LogNotifier writes notifications to a logger: errors as errors, everything else as info.
type LogNotifier struct {
	logger core.Logger
}

var _ page.Notifier = (*LogNotifier)(nil)

func NewLogNotifier(logger core.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (ln *LogNotifier) Notify(n page.Notification) {
	msg := n.Title
	if n.Description != "" {
		msg += ": " + n.Description
	}
	if n.Kind == page.KindError {
		ln.logger.Error(msg)
		return
	}
	ln.logger.Info(msg)
}

// Fanout sends every notification to all its notifiers.
type Fanout []page.Notifier

func (f Fanout) Notify(n page.Notification) {
	for _, nt := range f {
		nt.Notify(n)
	}
}
