// Package elemental decodes packed elemental stat quads and caches the
// normalized profiles with compare-and-swap (CAS) safety via per-entity
// revisions.
//
// The wire form of a profile is four signed bytes in fixed order (earth,
// air, water, fire); Normalize maps each byte to value/127. On top of that
// sits a provider-agnostic cache: single-entity reads never return stale
// profiles; party reads are validated per member and rejected if any
// member's revision moved.
//
// Components:
//   - Provider: byte store with TTL (e.g. Ristretto, BigCache, Redis).
//   - Codec[V]: (de)serializes V <-> []byte. QuadCodec uses the packed
//     4-byte form directly.
//   - RevStore: revision counter per entity. Local (in-process) by default,
//     optional Redis implementation for multi-replica / restart persistence.
//
// Keys:
//
//	profile:<ns>:<entity>  - single entries
//	party:<ns>:<hash>      - party entries (hash over sorted entity keys)
//
// CAS pattern:
//
//	obs := cache.SnapshotRev(id)                 // before reading source stats
//	p   := deriveProfile(id)
//	_   = cache.SetWithRev(ctx, id, p, obs, 0)   // write iff current rev == obs
package elemental
