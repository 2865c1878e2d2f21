package janus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dkeye/roombridge/internal/metrics"
	"github.com/jellydator/ttlcache/v3"
	"github.com/rs/zerolog/log"
)

// Transactions correlates outbound requests with asynchronous gateway
// responses by transaction id. Matching is a lookup, so responses may arrive
// in any order. It imposes no wait bound of its own: callers bound Wait with
// their context, and an optional ttl evicts entries nobody resolved.
type Transactions struct {
	mu      sync.Mutex
	pending *ttlcache.Cache[string, *Pending]
	ttl     time.Duration
}

// NewTransactions creates a registry. A zero ttl keeps pending entries until
// they are executed or rejected.
func NewTransactions(ttl time.Duration) *Transactions {
	t := &Transactions{
		pending: ttlcache.New[string, *Pending](
			ttlcache.WithDisableTouchOnHit[string, *Pending](),
		),
		ttl: ttl,
	}
	t.pending.OnEviction(func(_ context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[string, *Pending]) {
		metrics.AddPendingTransactions(-1)
		if reason == ttlcache.EvictionReasonExpired {
			log.Warn().Str("module", "janus.transactions").Str("transaction", item.Key()).Msg("pending transaction expired")
			item.Value().resolve(Response{}, ErrTransactionExpired)
		}
	})
	if ttl > 0 {
		go t.pending.Start()
	}
	return t
}

// Register allocates the completion handle for id. A second registration for
// an id that is still pending fails with ErrDuplicateTransaction.
func (t *Transactions) Register(id string) (*Pending, error) {
	if id == "" {
		return nil, ErrNoTransaction
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pending.Has(id) {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateTransaction, id)
	}
	p := &Pending{id: id, done: make(chan struct{}), owner: t}
	ttl := ttlcache.NoTTL
	if t.ttl > 0 {
		ttl = t.ttl
	}
	t.pending.Set(id, p, ttl)
	metrics.AddPendingTransactions(1)
	return p, nil
}

// Execute resolves the pending handle for id with resp and removes it.
// It reports whether a handle was pending; late or unsolicited responses
// are ignored.
func (t *Transactions) Execute(id string, resp Response) bool {
	p, ok := t.take(id)
	if !ok {
		log.Debug().Str("module", "janus.transactions").Str("transaction", id).Msg("no pending transaction for response")
		return false
	}
	p.resolve(resp, nil)
	return true
}

// Reject force-fails the pending handle for id with err.
func (t *Transactions) Reject(id string, err error) bool {
	p, ok := t.take(id)
	if !ok {
		return false
	}
	if err == nil {
		err = ErrTransactionRejected
	}
	p.resolve(Response{}, err)
	return true
}

// RejectAll fails every pending handle, e.g. when the gateway socket closes.
func (t *Transactions) RejectAll(err error) {
	t.mu.Lock()
	items := t.pending.Items()
	t.mu.Unlock()
	for id := range items {
		t.Reject(id, err)
	}
}

// Has reports whether id is awaiting a response.
func (t *Transactions) Has(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending.Has(id)
}

func (t *Transactions) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending.Len()
}

// Close stops the expiry loop. Pending handles are left untouched.
func (t *Transactions) Close() {
	if t.ttl > 0 {
		t.pending.Stop()
	}
}

func (t *Transactions) take(id string) (*Pending, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	item, ok := t.pending.GetAndDelete(id)
	if !ok || item == nil {
		return nil, false
	}
	return item.Value(), true
}

// Pending is the single-use completion handle of one transaction.
type Pending struct {
	id    string
	done  chan struct{}
	once  sync.Once
	resp  Response
	err   error
	owner *Transactions
}

func (p *Pending) ID() string { return p.id }

// Done is closed once the transaction is resolved.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Wait blocks until the response arrives or ctx ends. When ctx ends first the
// entry is rejected so a late response is treated as unsolicited.
func (p *Pending) Wait(ctx context.Context) (Response, error) {
	select {
	case <-p.done:
	case <-ctx.Done():
		p.owner.Reject(p.id, ctx.Err())
		<-p.done
	}
	return p.resp, p.err
}

func (p *Pending) resolve(resp Response, err error) {
	p.once.Do(func() {
		p.resp = resp
		p.err = err
		close(p.done)
	})
}
