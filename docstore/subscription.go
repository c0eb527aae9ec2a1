package docstore

import (
	"context"
	"sync"
)

// Subscription is a live query. Snapshots arrive in the order the store
// observed the changes; the channel is closed when the subscription ends,
// after which Err reports why (nil for a cancelled subscription).
type Subscription struct {
	snapshots chan []Document
	done      chan struct{}
	closeOnce sync.Once

	mu  sync.Mutex
	err error
}

func newSubscription() *Subscription {
	return &Subscription{
		snapshots: make(chan []Document),
		done:      make(chan struct{}),
	}
}

// Snapshots returns the stream of ordered query results.
func (s *Subscription) Snapshots() <-chan []Document {
	return s.snapshots
}

// Err returns the failure that ended the subscription, if any.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close cancels the subscription. It is safe to call more than once.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

func (s *Subscription) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// watcher ties a subscription to the collection it observes. notify has a
// buffer of one so pending change signals coalesce.
type watcher struct {
	query  Query
	notify chan struct{}
	sub    *Subscription
}

func (s *Store) addWatcher(w *watcher) bool {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	if s.closed {
		return false
	}
	s.watchers[w] = struct{}{}
	return true
}

func (s *Store) removeWatcher(w *watcher) {
	s.watchMu.Lock()
	delete(s.watchers, w)
	s.watchMu.Unlock()
}

// notify signals every watcher of the given collections.
func (s *Store) notify(collections ...string) {
	if len(collections) == 0 {
		return
	}
	set := make(map[string]struct{}, len(collections))
	for _, c := range collections {
		set[c] = struct{}{}
	}
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	for w := range s.watchers {
		if _, ok := set[w.query.collection]; !ok {
			continue
		}
		select {
		case w.notify <- struct{}{}:
		default:
		}
	}
}

func (s *Store) watch(ctx context.Context, w *watcher) {
	sub := w.sub
	defer close(sub.snapshots)
	defer s.removeWatcher(w)
	for {
		docs, err := queryDocs(ctx, s.db, w.query)
		if err != nil {
			select {
			case <-sub.done:
			case <-ctx.Done():
			default:
				sub.fail(err)
			}
			return
		}
		select {
		case sub.snapshots <- docs:
		case <-sub.done:
			return
		case <-ctx.Done():
			return
		}
		select {
		case <-w.notify:
		case <-sub.done:
			return
		case <-ctx.Done():
			return
		}
	}
}
