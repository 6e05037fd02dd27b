// Package asynchook decouples hook sinks from the cache's hot paths.
//
// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    SelfHealEvery:    10, // sample logs: ~every 10th self-heal
//	    PartyRejectEvery: 1,  // log every party rejection
//	})
//
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	cache, _ := elemental.New[elemental.Elements](elemental.Options[elemental.Elements]{
//	    Namespace: "npc",
//	    Provider:  provider,
//	    Codec:     elemental.QuadCodec{},
//	    RevStore:  revstore.NewRedisRevStoreWithTTL(rdb, "npc", 24*time.Hour),
//	    Hooks:     hooks, // or `raw` if you don't want async
//	})
package asynchook

import (
	"sync"

	"github.com/unkn0wn-root/elemental"
)

type Hooks struct {
	inner elemental.Hooks
	q     chan func()
	wg    sync.WaitGroup
	once  sync.Once
}

var _ elemental.Hooks = (*Hooks)(nil)

func New(inner elemental.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

func (h *Hooks) Close() {
	h.once.Do(func() {
		close(h.q)
		h.wg.Wait()
	})
}

func (h *Hooks) try(f func()) {
	select {
	case h.q <- f:
	default: // drop
	}
}

func (h *Hooks) SelfHealSingle(k, r string)       { h.try(func() { h.inner.SelfHealSingle(k, r) }) }
func (h *Hooks) RevBumpError(k string, err error) { h.try(func() { h.inner.RevBumpError(k, err) }) }
func (h *Hooks) LocalRevWithParty()               { h.try(func() { h.inner.LocalRevWithParty() }) }
func (h *Hooks) PartyRejected(ns string, n int, r string) {
	h.try(func() { h.inner.PartyRejected(ns, n, r) })
}
func (h *Hooks) ProviderSetRejected(k string, party bool) {
	h.try(func() { h.inner.ProviderSetRejected(k, party) })
}
func (h *Hooks) RevSnapshotError(n int, err error) {
	h.try(func() { h.inner.RevSnapshotError(n, err) })
}
func (h *Hooks) InvalidateOutage(entity string, be, de error) {
	h.try(func() { h.inner.InvalidateOutage(entity, be, de) })
}
