package elemental

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/unkn0wn-root/elemental/codec"
	"github.com/unkn0wn-root/elemental/internal/util"
	"github.com/unkn0wn-root/elemental/internal/wire"
	"github.com/unkn0wn-root/elemental/provider"
	rev "github.com/unkn0wn-root/elemental/revstore"
)

const (
	defaultRevRetention = 30 * 24 * time.Hour
	defaultSweep        = time.Hour
)

type cache[V any] struct {
	ns             string
	provider       provider.Provider
	codec          codec.Codec[V]
	log            Logger
	hooks          Hooks
	enabled        bool
	disableParty   bool
	defaultTTL     time.Duration
	partyTTL       time.Duration
	sweepInterval  time.Duration
	revRetention   time.Duration
	computeSetCost SetCostFunc
	revs           rev.RevStore
}

func newCache[V any](opts Options[V]) (*cache[V], error) {
	if opts.Provider == nil {
		return nil, fmt.Errorf("elemental: provider is required")
	}
	if opts.Codec == nil {
		return nil, fmt.Errorf("elemental: codec is required")
	}
	if opts.Namespace == "" {
		return nil, fmt.Errorf("elemental: namespace is required")
	}

	c := &cache[V]{
		ns:           opts.Namespace,
		provider:     opts.Provider,
		codec:        opts.Codec,
		enabled:      !opts.Disabled,
		disableParty: opts.DisableParty,
	}

	// defaults
	c.log = coalesce[Logger](opts.Logger, NopLogger{})
	c.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	c.defaultTTL = coalesce[time.Duration](opts.DefaultTTL, 10*time.Minute)
	c.partyTTL = coalesce[time.Duration](opts.PartyTTL, 10*time.Minute)
	c.sweepInterval = coalesce[time.Duration](opts.CleanupInterval, defaultSweep)
	c.revRetention = coalesce[time.Duration](opts.RevRetention, defaultRevRetention)

	if opts.ComputeSetCost != nil {
		c.computeSetCost = opts.ComputeSetCost
	} else {
		c.computeSetCost = func(_ string, _ []byte, _ bool, _ int) int64 { return 1 }
	}

	if opts.RevStore != nil {
		c.revs = opts.RevStore
	} else {
		// default to in-process revisions with periodic cleanup
		c.revs = rev.NewLocalRevStore(c.sweepInterval, c.revRetention)
	}

	if _, local := c.revs.(*rev.LocalRevStore); local && !c.disableParty {
		c.hooks.LocalRevWithParty()
	}

	return c, nil
}

func (c *cache[V]) Enabled() bool { return c.enabled }

func (c *cache[V]) Close(ctx context.Context) error {
	// Close rev store first (best effort)
	if c.revs != nil {
		_ = c.revs.Close(ctx)
	}
	if c.provider != nil {
		return c.provider.Close(ctx)
	}
	return nil
}

func (c *cache[V]) Get(ctx context.Context, entity string) (V, bool, error) {
	var zero V
	if !c.enabled {
		return zero, false, nil
	}
	k := c.profileKey(entity)
	raw, ok, err := c.provider.Get(ctx, k)
	if err != nil || !ok {
		return zero, false, err
	}
	r, payload, err := wire.DecodeSingle(raw)
	if err != nil {
		c.selfHeal(ctx, k, "corrupt")
		return zero, false, nil
	}
	// validate revision
	if r != c.snapshotRev(k) {
		c.selfHeal(ctx, k, "rev_mismatch")
		return zero, false, nil
	}
	v, err := c.codec.Decode(payload)
	if err != nil {
		c.selfHeal(ctx, k, "value_decode")
		return zero, false, nil
	}
	return v, true, nil
}

func (c *cache[V]) SetWithRev(ctx context.Context, entity string, value V, observedRev uint64, ttl time.Duration) error {
	if !c.enabled {
		return nil
	}
	if ttl == 0 {
		ttl = c.defaultTTL
	}
	k := c.profileKey(entity)
	if c.snapshotRev(k) != observedRev {
		// revision moved; skip stale write
		c.log.Debug("SetWithRev skipped (rev mismatch)", Fields{"entity": entity, "obs": observedRev})
		return nil
	}
	payload, err := c.codec.Encode(value)
	if err != nil {
		return err
	}
	wireb := wire.EncodeSingle(observedRev, payload)
	ok, err := c.provider.Set(ctx, k, wireb, c.computeSetCost(k, wireb, false, 1), ttl)
	if err != nil {
		return err
	}
	if !ok {
		c.log.Debug("SetWithRev rejected by provider (pressure)", Fields{"entity": entity})
		c.hooks.ProviderSetRejected(k, false)
	}
	return nil
}

func (c *cache[V]) Invalidate(ctx context.Context, entity string) error {
	if !c.enabled {
		return nil
	}
	k := c.profileKey(entity)
	newRev, bumpErr := c.revs.Bump(ctx, k)
	if bumpErr != nil {
		c.hooks.RevBumpError(k, bumpErr)
	}
	delErr := c.provider.Del(ctx, k)

	// Either mechanism alone is enough to keep readers honest: a bumped rev
	// makes the surviving entry stale, and a deleted entry cannot be read at
	// all. Only when both fail is the invalidation lost.
	if bumpErr != nil && delErr != nil {
		c.hooks.InvalidateOutage(entity, bumpErr, delErr)
		return &InvalidateError{Entity: entity, BumpErr: bumpErr, DelErr: delErr}
	}
	c.log.Debug("invalidated entity (bumped rev + cleared single)", Fields{"entity": entity, "newRev": newRev})
	return nil
}

func (c *cache[V]) GetParty(ctx context.Context, entities []string) (map[string]V, []string, error) {
	out := make(map[string]V, len(entities))
	if len(entities) == 0 {
		return out, nil, nil
	}
	// duplicate request ids collapse to one lookup and one missing entry
	ids := uniqInOrder(entities)
	if !c.enabled {
		return out, ids, nil
	}

	if !c.disableParty {
		// canonicalize once; reuse for both party key and validation
		sorted := uniqSorted(ids)

		partyKey := c.partyKeySorted(sorted)
		if raw, ok, err := c.provider.Get(ctx, partyKey); err == nil && ok {
			members, err := wire.DecodeParty(raw)
			if err == nil && c.partyValid(sorted, members) {
				byEntity := make(map[string]V, len(members))
				revByEntity := make(map[string]uint64, len(members))
				for _, m := range members {
					val, err := c.codec.Decode(m.Payload)
					if err != nil {
						continue
					}
					byEntity[m.Entity] = val
					revByEntity[m.Entity] = m.Rev
				}
				var missing []string
				for _, id := range ids {
					if v, ok := byEntity[id]; ok {
						out[id] = v
						// opportunistic single warmup (CAS-protected)
						_ = c.SetWithRev(ctx, id, v, revByEntity[id], c.defaultTTL)
					} else {
						missing = append(missing, id)
					}
				}
				return out, missing, nil
			}
			// stale or corrupt party; drop
			reason := "invalid_or_stale"
			if err != nil {
				reason = "decode_error"
			}
			c.hooks.PartyRejected(c.ns, len(entities), reason)
			_ = c.provider.Del(ctx, partyKey)
		}
	}

	// Fallback: try singles
	var missing []string
	for _, id := range ids {
		if v, ok, _ := c.Get(ctx, id); ok {
			out[id] = v
		} else {
			missing = append(missing, id)
		}
	}
	return out, missing, nil
}

func (c *cache[V]) SetPartyWithRevs(ctx context.Context, items map[string]V, observedRevs map[string]uint64, ttl time.Duration) error {
	if !c.enabled || len(items) == 0 {
		return nil
	}
	if ttl == 0 {
		ttl = c.partyTTL
	}

	// verify all observed revs still current
	for id := range items {
		k := c.profileKey(id)
		obs, ok := observedRevs[id]
		if !ok || c.snapshotRev(k) != obs {
			// skip party; seed singles instead
			c.log.Debug("SetPartyWithRevs skipped (rev mismatch)", Fields{"entity": id})
			for id2, v := range items {
				if obs2, ok := observedRevs[id2]; ok {
					_ = c.SetWithRev(ctx, id2, v, obs2, c.defaultTTL)
				}
			}
			return nil
		}
	}

	if c.disableParty {
		for id, v := range items {
			_ = c.SetWithRev(ctx, id, v, observedRevs[id], c.defaultTTL)
		}
		return nil
	}

	// encode all into a wire party record (deterministic member order)
	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	members := make([]wire.PartyMember, 0, len(items))
	for _, id := range ids {
		payload, err := c.codec.Encode(items[id])
		if err != nil {
			return err
		}
		members = append(members, wire.PartyMember{
			Entity:  id,
			Rev:     observedRevs[id],
			Payload: payload,
		})
	}
	wireb := wire.EncodeParty(members)

	// Use sorted ids for the party key too
	pk := c.partyKeySorted(ids)
	ok, err := c.provider.Set(ctx, pk, wireb, c.computeSetCost(pk, wireb, true, len(items)), ttl)
	if err != nil {
		return err
	}
	if !ok {
		c.log.Debug("party Set rejected; seeding singles", Fields{"partyKey": pk})
		c.hooks.ProviderSetRejected(pk, true)
		for id, v := range items {
			_ = c.SetWithRev(ctx, id, v, observedRevs[id], c.defaultTTL)
		}
		return nil
	}

	// also seed singles best-effort
	for id, v := range items {
		_ = c.SetWithRev(ctx, id, v, observedRevs[id], c.defaultTTL)
	}
	return nil
}

func (c *cache[V]) SnapshotRev(entity string) uint64 {
	return c.snapshotRev(c.profileKey(entity))
}

func (c *cache[V]) SnapshotRevs(entities []string) map[string]uint64 {
	storage := make([]string, len(entities))
	for i, id := range entities {
		storage[i] = c.profileKey(id)
	}
	m, err := c.revs.SnapshotMany(context.Background(), storage)
	if err != nil {
		c.hooks.RevSnapshotError(len(entities), err)
		// conservative fallback: one by one
		out := make(map[string]uint64, len(entities))
		for _, id := range entities {
			out[id] = c.SnapshotRev(id)
		}
		return out
	}
	out := make(map[string]uint64, len(entities))
	for _, id := range entities {
		out[id] = m[c.profileKey(id)]
	}
	return out
}

func (c *cache[V]) snapshotRev(storageKey string) uint64 {
	r, err := c.revs.Snapshot(context.Background(), storageKey)
	if err != nil {
		// Conservative: treat as 0 so CAS writes will skip; reads will self-heal
		c.log.Warn("rev snapshot error", Fields{"key": storageKey, "err": err})
		c.hooks.RevSnapshotError(1, err)
		return 0
	}
	return r
}

func (c *cache[V]) selfHeal(ctx context.Context, storageKey, reason string) {
	_ = c.provider.Del(ctx, storageKey)
	c.hooks.SelfHealSingle(storageKey, reason)
}

func (c *cache[V]) profileKey(entity string) string {
	// isolate by namespace
	return "profile:" + c.ns + ":" + entity
}

func (c *cache[V]) partyKeySorted(sortedIDs []string) string {
	// sortedIDs must be sorted ascending
	return util.PartyKeySorted("party:"+c.ns, sortedIDs)
}

// partyValid reports whether a decoded party record can serve the requested
// entity set: every requested entity must be present with its current
// revision. Extra members are ignored.
func (c *cache[V]) partyValid(sortedIDs []string, members []wire.PartyMember) bool {
	revByEntity := make(map[string]uint64, len(members))
	for _, m := range members {
		revByEntity[m.Entity] = m.Rev
	}
	for _, id := range sortedIDs {
		r, ok := revByEntity[id]
		if !ok || r != c.snapshotRev(c.profileKey(id)) {
			return false
		}
	}
	return true
}

// uniqInOrder returns a copy of ids with duplicates removed, preserving
// first-occurrence order.
func uniqInOrder(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// uniqSorted returns a sorted copy of ids with duplicates removed, so that
// equal entity sets map to the same party key regardless of request order.
func uniqSorted(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	sort.Strings(out)
	n := 0
	for i, id := range out {
		if i > 0 && id == out[n-1] {
			continue
		}
		out[n] = id
		n++
	}
	return out[:n]
}
