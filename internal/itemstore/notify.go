package itemstore

import (
	"slices"
	"sync"

	"github.com/roach88/factstore/internal/ir"
)

// ChangeEvent describes one committed write: a single fact or a whole batch.
type ChangeEvent struct {
	Drive DriveName
	Facts []ir.Fact
}

// Subscription is a registered change listener.
type Subscription struct {
	n    *notifier
	fn   func(ChangeEvent)
	once sync.Once
}

// Cancel stops delivery. Safe to call more than once, and from inside the
// listener itself.
func (sub *Subscription) Cancel() {
	sub.once.Do(func() {
		if sub.n != nil {
			sub.n.remove(sub)
		}
	})
}

type notifier struct {
	mu   sync.Mutex
	subs []*Subscription
}

func (n *notifier) add(fn func(ChangeEvent)) *Subscription {
	sub := &Subscription{n: n, fn: fn}
	if fn == nil {
		return sub
	}
	n.mu.Lock()
	n.subs = append(n.subs, sub)
	n.mu.Unlock()
	return sub
}

func (n *notifier) remove(sub *Subscription) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subs = slices.DeleteFunc(n.subs, func(s *Subscription) bool { return s == sub })
}

// publish calls every listener registered at the time of the call.
func (n *notifier) publish(ev ChangeEvent) {
	n.mu.Lock()
	subs := slices.Clone(n.subs)
	n.mu.Unlock()

	for _, sub := range subs {
		sub.fn(ev)
	}
}

// Subscribe registers fn to receive a ChangeEvent after every committed
// write. fn runs on the writer's goroutine; it must not block for long.
func (s *Store) Subscribe(fn func(ChangeEvent)) *Subscription {
	return s.notify.add(fn)
}
