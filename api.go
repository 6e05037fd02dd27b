package elemental

import (
	"context"
	"time"

	c "github.com/unkn0wn-root/elemental/codec"
	pr "github.com/unkn0wn-root/elemental/provider"
	rev "github.com/unkn0wn-root/elemental/revstore"
)

// SetCostFunc computes the admission cost a provider is charged for a write.
type SetCostFunc func(entity string, raw []byte, isParty bool, partySize int) int64

// Cache is the high-level, provider-agnostic profile cache with CAS safety
// via per-entity revisions. V is the caller's value type, typically
// Elements; serialization is handled by a pluggable Codec[V].
type Cache[V any] interface {
	Enabled() bool
	Close(context.Context) error

	// Single entity
	Get(ctx context.Context, entity string) (v V, ok bool, err error)
	SetWithRev(ctx context.Context, entity string, value V, observedRev uint64, ttl time.Duration) error
	Invalidate(ctx context.Context, entity string) error

	// Party (order-agnostic return; use your own ordering by the entities slice)
	GetParty(ctx context.Context, entities []string) (values map[string]V, missing []string, err error)
	SetPartyWithRevs(ctx context.Context, items map[string]V, observedRevs map[string]uint64, ttl time.Duration) error

	// Revision snapshots (for CAS)
	SnapshotRev(entity string) uint64
	SnapshotRevs(entities []string) map[string]uint64
}

// Options tune the behavior of the generic cache.
// Only Namespace, Provider and Codec are required; others have sensible defaults.
type Options[V any] struct {
	// Required
	Namespace string // logical namespace to avoid collisions, e.g. "npc", "pc", "boss"
	Provider  pr.Provider
	Codec     c.Codec[V]

	Logger          Logger        // if nil, NopLogger is used
	Hooks           Hooks         // if nil, NopHooks is used
	DefaultTTL      time.Duration // singles; 0 => 10m
	PartyTTL        time.Duration // parties; 0 => 10m
	CleanupInterval time.Duration // 0 => 1h
	RevRetention    time.Duration // 0 => 30d
	Disabled        bool          // default false (enabled)
	ComputeSetCost  SetCostFunc   // default 1
	RevStore        rev.RevStore  // nil => LocalRevStore (in-process)
	DisableParty    bool          // default false => party records enabled
}

func New[V any](opts Options[V]) (Cache[V], error) {
	return newCache[V](opts)
}
