package bus

import (
	"sort"
	"sync"

	"github.com/cuemby/foreman/pkg/metrics"
	"github.com/cuemby/foreman/pkg/store"
	"github.com/cuemby/foreman/pkg/types"
)

// defaultListCap bounds List's result size when Limit is unset.
const defaultListCap = 50

// Subscriber is a channel that receives notifications for signals landing
// on a topic it is registered against.
type Subscriber chan *types.Signal

// Bus is the durable-plus-ephemeral signal bus. Every Send persists the
// Signal through the store before attempting ephemeral delivery, so a
// dropped notification never means a lost message — only a late reader.
type Bus struct {
	s *store.Store

	mu          sync.RWMutex
	subscribers map[string]map[Subscriber]bool
}

// New wraps s as a Bus. s must already be open.
func New(s *store.Store) *Bus {
	return &Bus{
		s:           s,
		subscribers: make(map[string]map[Subscriber]bool),
	}
}

// Kind discriminates the category of recipient Topic canonicalizes.
type Kind string

const (
	KindOverseer Kind = "overseer"
	KindWorker   Kind = "worker"
	KindCodebase Kind = "codebase"
)

// Topic canonicalizes a recipient address for kind: the overseer is a
// single global recipient (id is ignored), workers and codebases are
// id-scoped. Callers use the result as a Signal's To field and as the
// Subscribe/Unsubscribe argument, so publishers and subscribers always
// agree on the address.
func Topic(kind Kind, id string) string {
	if kind == KindOverseer {
		return string(KindOverseer)
	}
	return string(kind) + ":" + id
}

// topicKey is the subscription key a signal addressed To lands on.
func topicKey(to string) string {
	return "signals:" + to
}

// Send persists sig (stamping SentAt-equivalent timestamps via the store)
// and then best-effort notifies any subscriber on Topic(sig.To).
func (b *Bus) Send(sig *types.Signal) error {
	if err := store.Insert[types.Signal, *types.Signal](b.s, store.Signals, "wag", sig); err != nil {
		return err
	}
	b.publish(sig)
	return nil
}

func (b *Bus) publish(sig *types.Signal) {
	metrics.SignalsPublishedTotal.Inc()
	topic := topicKey(sig.To)
	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subscribers[topic] {
		select {
		case sub <- sig:
		default:
			metrics.SignalsDroppedTotal.Inc()
		}
	}
}

// Subscribe registers a new ephemeral listener on to's topic key. Callers
// must Unsubscribe when done to release the channel.
func (b *Bus) Subscribe(to string) Subscriber {
	topic := topicKey(to)
	sub := make(Subscriber, 32)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subscribers[topic] == nil {
		b.subscribers[topic] = make(map[Subscriber]bool)
	}
	b.subscribers[topic][sub] = true
	return sub
}

// Unsubscribe removes sub from topic's listener set and closes it.
func (b *Bus) Unsubscribe(to string, sub Subscriber) {
	topic := topicKey(to)
	b.mu.Lock()
	defer b.mu.Unlock()
	if set, ok := b.subscribers[topic]; ok {
		if _, present := set[sub]; present {
			delete(set, sub)
			close(sub)
		}
	}
}

// ListOptions filters List. Zero-value fields (empty string, nil Read) are
// not applied. Limit defaults to defaultListCap when zero.
type ListOptions struct {
	From  string
	To    string
	Read  *bool
	Limit int
}

// List returns signals matching opts, most-recently-created first, capped
// at opts.Limit (default 50).
func (b *Bus) List(opts ListOptions) ([]*types.Signal, error) {
	all, err := store.Filter[types.Signal, *types.Signal](b.s, store.Signals, func(s *types.Signal) bool {
		if opts.From != "" && s.From != opts.From {
			return false
		}
		if opts.To != "" && s.To != opts.To {
			return false
		}
		if opts.Read != nil && s.Read != *opts.Read {
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	limit := opts.Limit
	if limit == 0 {
		limit = defaultListCap
	}
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// ListUnread returns unread signals addressed to recipient, subject to
// List's default cap.
func (b *Bus) ListUnread(recipient string) ([]*types.Signal, error) {
	unread := false
	return b.List(ListOptions{To: recipient, Read: &unread})
}

// MarkRead marks the signal with id as read. Calling it twice on the same
// id is a no-op the second time — Read is idempotent, not toggled.
func (b *Bus) MarkRead(id string) error {
	n, err := store.UpdateMatching[types.Signal, *types.Signal](b.s, store.Signals,
		func(s *types.Signal) bool { return s.ID == id },
		func(s *types.Signal) { s.Read = true },
	)
	if err != nil {
		return err
	}
	if n == 0 {
		_, err := store.Fetch[types.Signal, *types.Signal](b.s, store.Signals, id)
		return err
	}
	return nil
}

// Get returns a single signal by id.
func (b *Bus) Get(id string) (*types.Signal, error) {
	return store.Fetch[types.Signal, *types.Signal](b.s, store.Signals, id)
}
