package elemental

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/unkn0wn-root/elemental/internal/wire"
	pr "github.com/unkn0wn-root/elemental/provider"
)

type memEntry struct {
	v   []byte
	exp time.Time // zero => no TTL
}

type memProvider struct {
	m map[string]memEntry
}

var _ pr.Provider = (*memProvider)(nil)

func newMemProvider() *memProvider { return &memProvider{m: make(map[string]memEntry)} }

func (p *memProvider) Get(_ context.Context, key string) ([]byte, bool, error) {
	e, ok := p.m[key]
	if !ok {
		return nil, false, nil
	}
	if !e.exp.IsZero() && time.Now().After(e.exp) {
		delete(p.m, key)
		return nil, false, nil
	}
	return e.v, true, nil
}

func (p *memProvider) Set(_ context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	p.m[key] = memEntry{v: value, exp: exp}
	return true, nil
}

func (p *memProvider) Del(_ context.Context, key string) error { delete(p.m, key); return nil }
func (p *memProvider) Close(_ context.Context) error           { return nil }

// profile builds an Elements value that survives QuadCodec exactly
// (every field a multiple of 1/127).
func profile(earth, air, water, fire int8) Elements {
	e, err := Normalize([]byte{byte(earth), byte(air), byte(water), byte(fire)})
	if err != nil {
		panic(err)
	}
	return e
}

func newTestCache(t *testing.T, ns string, mp pr.Provider, optsOpt func(*Options[Elements])) Cache[Elements] {
	t.Helper()
	opts := Options[Elements]{
		Namespace: ns,
		Provider:  mp,
		Codec:     QuadCodec{},
	}
	if optsOpt != nil {
		optsOpt(&opts)
	}
	cc, err := New[Elements](opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return cc
}

func mustImpl[V any](t *testing.T, c Cache[V]) *cache[V] {
	t.Helper()
	impl, ok := c.(*cache[V])
	if !ok {
		t.Fatalf("unexpected concrete type for Cache")
	}
	return impl
}

// ==============================
// Single-entry CAS tests
// ==============================

// TestSingleCASFlow verifies CAS write, read, invalidation, and stale write skip.
func TestSingleCASFlow(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	cc := newTestCache(t, "npc", mp, nil)
	defer cc.Close(ctx)

	id := "npc:1"
	v := profile(127, -127, 0, 64)

	// Miss initially.
	if got, ok, err := cc.Get(ctx, id); err != nil || ok {
		t.Fatalf("Get miss expected, got ok=%v err=%v val=%v", ok, err, got)
	}

	// CAS write with observed rev 0.
	obs := cc.SnapshotRev(id)
	if obs != 0 {
		t.Fatalf("SnapshotRev expected 0, got %d", obs)
	}
	if err := cc.SetWithRev(ctx, id, v, obs, 0); err != nil {
		t.Fatalf("SetWithRev: %v", err)
	}

	// Read back.
	if got, ok, err := cc.Get(ctx, id); err != nil || !ok || got != v {
		t.Fatalf("Get after set: ok=%v err=%v got=%v", ok, err, got)
	}

	// Invalidate -> bump rev & delete single.
	if err := cc.Invalidate(ctx, id); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}

	// Miss again after invalidate.
	if _, ok, err := cc.Get(ctx, id); err != nil || ok {
		t.Fatalf("Get after invalidate should miss, ok=%v err=%v", ok, err)
	}

	// Stale write (using old observed rev 0) should be skipped.
	if err := cc.SetWithRev(ctx, id, v, 0, 0); err != nil {
		t.Fatalf("SetWithRev stale: %v", err)
	}
	if _, ok, _ := cc.Get(ctx, id); ok {
		t.Fatalf("stale write should not populate cache")
	}

	// Fresh write with observed current rev should succeed.
	obs2 := cc.SnapshotRev(id)
	if err := cc.SetWithRev(ctx, id, v, obs2, 0); err != nil {
		t.Fatalf("SetWithRev (fresh): %v", err)
	}
	if got, ok, err := cc.Get(ctx, id); err != nil || !ok || got != v {
		t.Fatalf("Get after fresh set: ok=%v err=%v got=%v", ok, err, got)
	}
}

// ==============================
// Self-heal tests (corruption/rev mismatch)
// ==============================

// TestSelfHealOnCorrupt ensures corrupt provider bytes are deleted and missed,
// and that a valid-but-stale single is rejected and removed.
func TestSelfHealOnCorrupt(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	cc := newTestCache(t, "npc", mp, nil)
	defer cc.Close(ctx)

	impl := mustImpl(t, cc)

	id := "bad"
	storageKey := impl.profileKey(id)

	// Inject corrupt bytes directly into provider.
	if ok, err := impl.provider.Set(ctx, storageKey, []byte("not-wire-format"), 1, time.Minute); err != nil || !ok {
		t.Fatalf("inject corrupt: ok=%v err=%v", ok, err)
	}

	// First Get should detect corruption, delete entry, and miss.
	if _, ok, err := cc.Get(ctx, id); err != nil || ok {
		t.Fatalf("Get on corrupt should miss, ok=%v err=%v", ok, err)
	}
	// Corrupt entry should be gone.
	if _, ok, _ := mp.Get(ctx, storageKey); ok {
		t.Fatalf("corrupt entry was not deleted by self-heal")
	}

	// Now inject a valid single with rev=0, then bump the revision to make it stale.
	payload, err := QuadCodec{}.Encode(profile(1, 2, 3, 4))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	wireEntry := wire.EncodeSingle(0, payload)
	if ok, err := impl.provider.Set(ctx, storageKey, wireEntry, 1, time.Minute); err != nil || !ok {
		t.Fatalf("inject valid stale: ok=%v err=%v", ok, err)
	}
	_, _ = impl.revs.Bump(ctx, storageKey) // make it stale

	if _, ok, err := cc.Get(ctx, id); err != nil || ok {
		t.Fatalf("Get on stale single should miss, ok=%v err=%v", ok, err)
	}
	if _, ok, _ := mp.Get(ctx, storageKey); ok {
		t.Fatalf("stale entry was not deleted by self-heal")
	}
}

// Self-heal when a valid frame carries a revision that no longer matches.
func TestSelfHealOnRevMismatchSingle(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	cc := newTestCache(t, "npc", mp, nil)
	defer cc.Close(ctx)

	impl := mustImpl(t, cc)
	id := "rev-mismatch"
	storageKey := impl.profileKey(id)

	// RevStore has never been bumped for this entity -> snapshot is 0.
	payload, err := QuadCodec{}.Encode(profile(9, 9, 9, 9))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	// Write a valid frame with rev=1 (mismatches snapshot=0).
	b := wire.EncodeSingle(1, payload)
	if ok, err := impl.provider.Set(ctx, storageKey, b, 1, time.Minute); err != nil || !ok {
		t.Fatalf("inject single: ok=%v err=%v", ok, err)
	}

	// Get should detect rev mismatch, delete, and miss.
	if _, ok, err := cc.Get(ctx, id); err != nil || ok {
		t.Fatalf("expected miss on rev mismatch, ok=%v err=%v", ok, err)
	}

	// Ensure self-heal actually deleted the bad entry.
	if _, ok, _ := mp.Get(ctx, storageKey); ok {
		t.Fatalf("rev-mismatch single was not deleted by self-heal")
	}
}

// ==============================
// Party behavior tests
// ==============================

// TestPartyHappyAndStale validates party read, then invalidation of one member
// causes party rejection and fallback to singles with missing reported for the
// invalidated entity.
func TestPartyHappyAndStale(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	cc := newTestCache(t, "npc", mp, nil)
	defer cc.Close(ctx)

	ids := []string{"a", "b", "c"}
	items := map[string]Elements{
		"a": profile(10, 0, 0, 0),
		"b": profile(0, 20, 0, 0),
		"c": profile(0, 0, 30, 0),
	}

	// Snapshot revs (all zero).
	snap := cc.SnapshotRevs(ids)

	// Write party with revs.
	if err := cc.SetPartyWithRevs(ctx, items, snap, 0); err != nil {
		t.Fatalf("SetPartyWithRevs: %v", err)
	}

	// First GetParty: all present, no missing.
	got, missing, err := cc.GetParty(ctx, ids)
	if err != nil {
		t.Fatalf("GetParty: %v", err)
	}
	if len(missing) != 0 || len(got) != len(items) {
		t.Fatalf("GetParty expected all hit, missing=%v got=%v", missing, got)
	}

	// Invalidate "b": removes its single and bumps rev. Party should be
	// rejected on next read.
	if err := cc.Invalidate(ctx, "b"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}

	got2, missing2, err := cc.GetParty(ctx, ids)
	if err != nil {
		t.Fatalf("GetParty after invalidate: %v", err)
	}
	if len(missing2) != 1 || missing2[0] != "b" {
		t.Fatalf("expected only 'b' missing, got %v", missing2)
	}
	// 'a' and 'c' should still be present (from singles seeding).
	if _, ok := got2["a"]; !ok {
		t.Fatalf("expected 'a' present after party rejection")
	}
	if _, ok := got2["c"]; !ok {
		t.Fatalf("expected 'c' present after party rejection")
	}

	// Ensure the stale party record was dropped from provider.
	for k := range mp.m {
		if strings.HasPrefix(k, "party:npc:") {
			t.Fatalf("stale party should have been deleted, found %q", k)
		}
	}
}

// TestPartyDisabled ensures that when party records are disabled, no party
// keys are written and GetParty falls back to singles.
func TestPartyDisabled(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	cc := newTestCache(t, "npc", mp, func(o *Options[Elements]) {
		o.DisableParty = true
	})
	defer cc.Close(ctx)

	ids := []string{"x", "y"}
	items := map[string]Elements{
		"x": profile(1, 1, 1, 1),
		"y": profile(2, 2, 2, 2),
	}
	snap := cc.SnapshotRevs(ids)

	// Set party with revs -> should seed singles only (no party key).
	if err := cc.SetPartyWithRevs(ctx, items, snap, 0); err != nil {
		t.Fatalf("SetPartyWithRevs (party disabled): %v", err)
	}

	// GetParty should return both via singles path.
	got, missing, err := cc.GetParty(ctx, ids)
	if err != nil {
		t.Fatalf("GetParty (party disabled): %v", err)
	}
	if len(missing) != 0 || len(got) != 2 {
		t.Fatalf("GetParty (party disabled) expected all present, missing=%v got=%v", missing, got)
	}

	// Assert no "party:npc:" key exists in provider.
	for k := range mp.m {
		if strings.HasPrefix(k, "party:npc:") {
			t.Fatalf("party disabled but found party key %q written", k)
		}
	}
}

// TestPartyOrderInsensitiveHit: Same set, different order → same party key, party hit.
func TestPartyOrderInsensitiveHit(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	cc := newTestCache(t, "npc", mp, nil)
	defer cc.Close(ctx)

	impl := mustImpl(t, cc)

	// Write a party for {u1,u3,u4}
	items := map[string]Elements{
		"u1": profile(1, 0, 0, 0),
		"u3": profile(3, 0, 0, 0),
		"u4": profile(4, 0, 0, 0),
	}
	snap := cc.SnapshotRevs([]string{"u1", "u3", "u4"})
	if err := cc.SetPartyWithRevs(ctx, items, snap, 0); err != nil {
		t.Fatalf("SetPartyWithRevs: %v", err)
	}

	// Remove singles so GetParty must rely on the party record
	for id := range items {
		_ = impl.provider.Del(ctx, impl.profileKey(id))
	}

	// Request same set, different order → should hit party, no missing
	got, missing, err := cc.GetParty(ctx, []string{"u3", "u1", "u4"})
	if err != nil {
		t.Fatalf("GetParty: %v", err)
	}
	if len(missing) != 0 {
		t.Fatalf("expected no missing, got %v", missing)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 values, got %d (%v)", len(got), got)
	}

	// Party record should remain (valid hit)
	foundParty := false
	for k := range mp.m {
		if strings.HasPrefix(k, "party:npc:") {
			foundParty = true
			break
		}
	}
	if !foundParty {
		t.Fatalf("expected party record to remain after valid hit")
	}
}

// TestPartyDuplicateRequestHit: Request has duplicates → still hits unique-set party.
func TestPartyDuplicateRequestHit(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	cc := newTestCache(t, "npc", mp, nil)
	defer cc.Close(ctx)

	impl := mustImpl(t, cc)

	items := map[string]Elements{
		"u1": profile(1, 0, 0, 0),
		"u3": profile(3, 0, 0, 0),
		"u4": profile(4, 0, 0, 0),
	}
	snap := cc.SnapshotRevs([]string{"u1", "u3", "u4"})
	if err := cc.SetPartyWithRevs(ctx, items, snap, 0); err != nil {
		t.Fatalf("SetPartyWithRevs: %v", err)
	}

	// Remove singles so GetParty must rely on the party record
	for id := range items {
		_ = impl.provider.Del(ctx, impl.profileKey(id))
	}

	// Request contains duplicates → should still hit the same party key
	req := []string{"u1", "u3", "u3", "u4"}
	got, missing, err := cc.GetParty(ctx, req)
	if err != nil {
		t.Fatalf("GetParty dup: %v", err)
	}
	if len(missing) != 0 {
		t.Fatalf("expected no missing for dup request, got %v", missing)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 unique results, got %d (%v)", len(got), got)
	}
}

// TestPartyDuplicateMissingReportedOnce: a duplicated id that is absent
// shows up in missing exactly once, on both the party and singles paths.
func TestPartyDuplicateMissingReportedOnce(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	cc := newTestCache(t, "npc", mp, nil)
	defer cc.Close(ctx)

	// Nothing cached: singles fallback path.
	got, missing, err := cc.GetParty(ctx, []string{"u9", "u9", "u1"})
	if err != nil {
		t.Fatalf("GetParty: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no values, got %v", got)
	}
	if len(missing) != 2 || missing[0] != "u9" || missing[1] != "u1" {
		t.Fatalf("expected missing [u9 u1], got %v", missing)
	}

	// Party record covering only u1: party hit path with u9 absent.
	snap := cc.SnapshotRevs([]string{"u1", "u9"})
	items := map[string]Elements{"u1": profile(1, 0, 0, 0), "u9": profile(9, 0, 0, 0)}
	if err := cc.SetPartyWithRevs(ctx, items, snap, 0); err != nil {
		t.Fatalf("SetPartyWithRevs: %v", err)
	}
	if err := cc.Invalidate(ctx, "u9"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}

	// u9's rev moved; the stale party is dropped and singles serve u1.
	got, missing, err = cc.GetParty(ctx, []string{"u9", "u9", "u1"})
	if err != nil {
		t.Fatalf("GetParty: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected only u1 served, got %v", got)
	}
	if len(missing) != 1 || missing[0] != "u9" {
		t.Fatalf("expected missing [u9], got %v", missing)
	}
}

// TestPartyKeyCanonicalization: equal sets (order/dups ignored) produce same party key.
func TestPartyKeyCanonicalization(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	cc := newTestCache(t, "npc", mp, nil)
	defer cc.Close(ctx)

	impl := mustImpl(t, cc)

	k1 := impl.partyKeySorted(uniqSorted([]string{"u3", "u1", "u4"}))
	k2 := impl.partyKeySorted(uniqSorted([]string{"u1", "u3", "u3", "u4"}))
	if k1 != k2 {
		t.Fatalf("party keys differ for equivalent sets: %q vs %q", k1, k2)
	}
}

func TestPartyValidTable(t *testing.T) {
	ctx := context.Background()

	newImpl := func(t *testing.T) *cache[Elements] {
		t.Helper()
		mp := newMemProvider()
		cc := newTestCache(t, "npc", mp, nil)
		t.Cleanup(func() { _ = cc.Close(ctx) })
		return mustImpl(t, cc)
	}

	// helper: bump to exactly 'n'
	bumpTo := func(impl *cache[Elements], id string, n uint64) {
		sk := impl.profileKey(id)
		for i := uint64(0); i < n; i++ {
			_, _ = impl.revs.Bump(ctx, sk)
		}
	}

	t.Run("valid_all_members_fresh", func(t *testing.T) {
		impl := newImpl(t)
		ids := []string{"a", "b", "c"} // already sorted

		// current revs: a=1, b=1, c=1
		for _, id := range ids {
			bumpTo(impl, id, 1)
		}

		members := []wire.PartyMember{
			{Entity: "a", Rev: 1, Payload: nil},
			{Entity: "b", Rev: 1, Payload: nil},
			{Entity: "c", Rev: 1, Payload: nil},
		}
		if !impl.partyValid(ids, members) {
			t.Fatalf("partyValid should be true for fresh members")
		}
	})

	t.Run("missing_member_in_party", func(t *testing.T) {
		impl := newImpl(t)
		ids := []string{"a", "b", "c"}

		for _, id := range ids {
			bumpTo(impl, id, 1)
		}

		// omit "b" from members
		members := []wire.PartyMember{
			{Entity: "a", Rev: 1, Payload: nil},
			{Entity: "c", Rev: 1, Payload: nil},
		}
		if impl.partyValid(ids, members) {
			t.Fatalf("partyValid should be false when a requested member is missing")
		}
	})

	t.Run("stale_member_rev_mismatch", func(t *testing.T) {
		impl := newImpl(t)
		ids := []string{"a", "b", "c"}

		for _, id := range ids {
			bumpTo(impl, id, 1)
		}

		// Make "b" stale by putting Rev=0 (current is 1)
		members := []wire.PartyMember{
			{Entity: "a", Rev: 1, Payload: nil},
			{Entity: "b", Rev: 0, Payload: nil}, // stale
			{Entity: "c", Rev: 1, Payload: nil},
		}
		if impl.partyValid(ids, members) {
			t.Fatalf("partyValid should be false when any member is stale")
		}
	})

	t.Run("extra_member_ignored", func(t *testing.T) {
		impl := newImpl(t)
		ids := []string{"a", "b"}

		for _, id := range ids {
			bumpTo(impl, id, 1)
		}

		// Include an extra "z" that isn't requested. Should be ignored.
		members := []wire.PartyMember{
			{Entity: "a", Rev: 1, Payload: nil},
			{Entity: "b", Rev: 1, Payload: nil},
			{Entity: "z", Rev: 999, Payload: nil}, // extra
		}
		if !impl.partyValid(ids, members) {
			t.Fatalf("partyValid should be true; extras in party are ignored")
		}
	})
}

// ==============================
// Snapshot revs tests
// ==============================

func equalU64(a, b map[string]uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

// Covers: empty input, duplicates, missing (0), and mixed bumped revs.
func TestSnapshotRevsBehavior(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	cc := newTestCache(t, "npc", mp, nil)
	t.Cleanup(func() { _ = cc.Close(ctx) })
	impl := mustImpl(t, cc)

	t.Run("empty", func(t *testing.T) {
		got := cc.SnapshotRevs(nil)
		if len(got) != 0 {
			t.Fatalf("empty: expected empty map, got %v", got)
		}
	})

	t.Run("duplicates_and_zero_missing", func(t *testing.T) {
		// No bumps yet → everything is 0
		ids := []string{"dupa", "dupa", "other"}
		got := cc.SnapshotRevs(ids)
		want := map[string]uint64{"dupa": 0, "other": 0}
		if !equalU64(got, want) {
			t.Fatalf("dups/zeros: got %v want %v", got, want)
		}
	})

	t.Run("mixed", func(t *testing.T) {
		// m1 -> 1, m3 -> 3, m2 -> 0
		_, _ = impl.revs.Bump(ctx, impl.profileKey("m1"))
		for i := 0; i < 3; i++ {
			_, _ = impl.revs.Bump(ctx, impl.profileKey("m3"))
		}
		ids := []string{"m1", "m2", "m3", "m1"} // include duplicate
		got := cc.SnapshotRevs(ids)
		want := map[string]uint64{"m1": 1, "m2": 0, "m3": 3}
		if !equalU64(got, want) {
			t.Fatalf("mixed: got %v want %v", got, want)
		}
	})
}

// ==============================
// Invalidate edge-case behavior (backend down etc.)
// ==============================

type failingRevStore struct{ bumpErr error }

func (s *failingRevStore) Snapshot(context.Context, string) (uint64, error) { return 0, nil }
func (s *failingRevStore) SnapshotMany(context.Context, []string) (map[string]uint64, error) {
	return map[string]uint64{}, nil
}
func (s *failingRevStore) Bump(context.Context, string) (uint64, error) { return 0, s.bumpErr }
func (s *failingRevStore) Cleanup(time.Duration)                        {}
func (s *failingRevStore) Close(context.Context) error                  { return nil }

type delErrProvider struct {
	*memProvider
	err error
}

var _ pr.Provider = (*delErrProvider)(nil)

func (p *delErrProvider) Del(_ context.Context, key string) error { return p.err }

func TestInvalidateBothFailReturnsError(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	sentinelDelErr := errors.New("del failed")
	bumpFail := errors.New("bump failed")

	cc := newTestCache(t, "npc", &delErrProvider{memProvider: mp, err: sentinelDelErr}, func(o *Options[Elements]) {
		o.RevStore = &failingRevStore{bumpErr: bumpFail}
	})
	defer cc.Close(ctx)

	err := cc.Invalidate(ctx, "k1")
	if err == nil {
		t.Fatalf("expected error when both bump and delete fail")
	}
	var ie *InvalidateError
	if !errors.As(err, &ie) {
		t.Fatalf("expected InvalidateError, got %T: %v", err, err)
	}
	// Unwrap should expose underlying delete error.
	if !errors.Is(err, sentinelDelErr) {
		t.Fatalf("expected errors.Is(err, delErr) to be true")
	}
}

func TestInvalidateBumpFailDeleteOKNoError(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()

	cc := newTestCache(t, "npc", mp, func(o *Options[Elements]) {
		o.RevStore = &failingRevStore{bumpErr: errors.New("bump failed")}
	})
	defer cc.Close(ctx)

	if err := cc.Invalidate(ctx, "k2"); err != nil {
		t.Fatalf("expected no error when bump fails but delete succeeds; got %v", err)
	}
}

func TestInvalidateBumpOKDeleteFailNoError(t *testing.T) {
	ctx := context.Background()
	sentinelDelErr := errors.New("del failed")
	// normal revstore (local), provider delete fails
	mp := &delErrProvider{memProvider: newMemProvider(), err: sentinelDelErr}

	cc := newTestCache(t, "npc", mp, nil)
	defer cc.Close(ctx)

	// Warm a rev so bump definitely succeeds.
	impl := mustImpl(t, cc)
	_, _ = impl.revs.Bump(ctx, impl.profileKey("k3"))

	if err := cc.Invalidate(ctx, "k3"); err != nil {
		t.Fatalf("expected no error when delete fails but bump succeeds; got %v", err)
	}
}

// ==============================
// Hooks wiring
// ==============================

type recordingHooks struct {
	NopHooks
	selfHeal []string
	partyRej []string
}

func (h *recordingHooks) SelfHealSingle(_, reason string) { h.selfHeal = append(h.selfHeal, reason) }
func (h *recordingHooks) PartyRejected(_ string, _ int, reason string) {
	h.partyRej = append(h.partyRej, reason)
}

func TestHooksFireOnSelfHealAndPartyReject(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	rec := &recordingHooks{}
	cc := newTestCache(t, "npc", mp, func(o *Options[Elements]) {
		o.Hooks = rec
	})
	defer cc.Close(ctx)

	impl := mustImpl(t, cc)

	// Corrupt single -> self-heal hook with reason "corrupt".
	_, _ = impl.provider.Set(ctx, impl.profileKey("h1"), []byte("junk"), 1, time.Minute)
	_, _, _ = cc.Get(ctx, "h1")
	if len(rec.selfHeal) != 1 || rec.selfHeal[0] != "corrupt" {
		t.Fatalf("expected self-heal reason corrupt, got %v", rec.selfHeal)
	}

	// Valid party, then invalidate a member -> party rejection hook.
	ids := []string{"p1", "p2"}
	items := map[string]Elements{"p1": profile(1, 0, 0, 0), "p2": profile(2, 0, 0, 0)}
	if err := cc.SetPartyWithRevs(ctx, items, cc.SnapshotRevs(ids), 0); err != nil {
		t.Fatalf("SetPartyWithRevs: %v", err)
	}
	if err := cc.Invalidate(ctx, "p2"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	_, _, _ = cc.GetParty(ctx, ids)
	if len(rec.partyRej) != 1 || rec.partyRej[0] != "invalid_or_stale" {
		t.Fatalf("expected party rejection invalid_or_stale, got %v", rec.partyRej)
	}
}
