package elemental

// Hooks are lightweight callbacks for high-signal cache events.
// Implementations MUST be cheap and non-blocking; the cache calls them on
// hot paths. Wrap with hooks/async to decouple slow sinks.
type Hooks interface {
	// A single profile entry was deleted by the cache on read.
	// reason ∈ {"corrupt", "rev_mismatch", "value_decode"}
	SelfHealSingle(storageKey, reason string)

	// A party read path was rejected and fell back to singles.
	// reason ∈ {"decode_error", "invalid_or_stale"}
	PartyRejected(namespace string, requested int, reason string)

	// Provider returned ok=false on Set (backpressure/eviction).
	ProviderSetRejected(storageKey string, isParty bool)

	// RevStore errors (snapshot or bump).
	// count is number of entities involved (1 for Snapshot/Bump, N for SnapshotMany).
	RevSnapshotError(count int, err error)
	RevBumpError(storageKey string, err error)

	// Both rev bump and delete failed during Invalidate (likely backend outage).
	InvalidateOutage(entity string, bumpErr, delErr error)

	// Party records are enabled with a local RevStore (stale parties possible
	// across replicas).
	LocalRevWithParty()
}

// NopHooks is the default no-op implementation.
type NopHooks struct{}

func (NopHooks) SelfHealSingle(string, string)         {}
func (NopHooks) PartyRejected(string, int, string)     {}
func (NopHooks) ProviderSetRejected(string, bool)      {}
func (NopHooks) RevSnapshotError(int, error)           {}
func (NopHooks) RevBumpError(string, error)            {}
func (NopHooks) InvalidateOutage(string, error, error) {}
func (NopHooks) LocalRevWithParty()                    {}
