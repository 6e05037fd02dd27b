package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/elemental"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	SelfHealEvery    uint64
	PartyRejectEvery uint64
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	selfHealCtr    atomic.Uint64
	partyRejectCtr atomic.Uint64
}

var _ elemental.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) SelfHealSingle(storageKey, reason string) {
	if h.l == nil || !sample(h.opts.SelfHealEvery, &h.selfHealCtr) {
		return
	}
	h.l.Debug("elemental.self_heal_single",
		"key", h.redact(storageKey),
		"reason", reason)
}

func (h *Hooks) PartyRejected(ns string, requested int, reason string) {
	if h.l == nil || !sample(h.opts.PartyRejectEvery, &h.partyRejectCtr) {
		return
	}
	h.l.Info("elemental.party_rejected",
		"ns", ns,
		"requested", requested,
		"reason", reason)
}

func (h *Hooks) ProviderSetRejected(storageKey string, isParty bool) {
	if h.l == nil {
		return
	}
	h.l.Warn("elemental.provider_set_rejected",
		"key", h.redact(storageKey),
		"is_party", isParty)
}

func (h *Hooks) RevSnapshotError(count int, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("elemental.rev_snapshot_error",
		"count", count,
		"err", err)
}

func (h *Hooks) RevBumpError(storageKey string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("elemental.rev_bump_error",
		"key", h.redact(storageKey),
		"err", err)
}

func (h *Hooks) InvalidateOutage(entity string, bumpErr, delErr error) {
	if h.l == nil {
		return
	}
	h.l.Error("elemental.invalidate_outage",
		"entity", h.redact(entity),
		"bump_err", bumpErr,
		"del_err", delErr)
}

func (h *Hooks) LocalRevWithParty() {
	if h.l == nil {
		return
	}
	h.l.Warn("elemental.local_rev_with_party",
		"msg", "party records enabled with local revstore; stale parties possible in multi-replica")
}
