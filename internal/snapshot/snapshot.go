// Package snapshot implements the Snapshot/Rollback Buffer (C11): a ring of
// cloneable simulation snapshots supporting save(frame)/load(frame), per
// spec.md §4.10.
//
// Grounded on the entity package's generational-slot pattern (frame number
// plays the role of a generation: reading a stale or not-yet-written slot
// returns "not found" rather than a wrong snapshot) and on the teacher's
// EventLog circular buffer (internal/game/event_log.go) for the
// fixed-size-ring-with-monotonic-head shape.
package snapshot

import (
	"hash/fnv"

	"github.com/pkg/errors"
)

// HashBytes computes a deterministic 64-bit hash of a snapshot's
// serialized byte representation (FNV-1a, stdlib hash/fnv — no
// third-party hashing library in the teacher's dependency graph covers
// this concern, and FNV-1a's bit-for-bit determinism across platforms is
// exactly what spec.md §8's cross-host hash-equality property requires).
func HashBytes(data []byte) uint64 {
	h := fnv.New64a()
	h.Write(data)
	return h.Sum64()
}

// Cloneable is any simulation state capable of producing an independent
// deep copy, the contract internal/sim's top-level Simulation struct
// implements.
type Cloneable interface {
	Clone() Cloneable
}

// ErrDesync is returned by Compare when two hashes for the same frame
// disagree, per spec.md §7's DesyncDetected taxonomy entry.
var ErrDesync = errors.New("snapshot hash mismatch")

// Compare reports ErrDesync if local and remote disagree for the same
// frame, nil otherwise. The core only detects the mismatch; per spec.md
// §4.10 the network collaborator decides what to do about it.
func Compare(local, remote uint64) error {
	if local != remote {
		return ErrDesync
	}
	return nil
}

type slot struct {
	frame  uint64
	filled bool
	state  Cloneable
	hash   uint64
}

// Buffer is a fixed-size ring of N snapshots, N >= the configured max
// rollback window.
type Buffer struct {
	slots []slot
}

// NewBuffer creates a ring holding up to n snapshots.
func NewBuffer(n int) *Buffer {
	if n < 1 {
		n = 1
	}
	return &Buffer{slots: make([]slot, n)}
}

// Save stores state (with its precomputed hash) at frame, overwriting
// whatever previously occupied that ring position.
func (b *Buffer) Save(frame uint64, state Cloneable, hash uint64) {
	idx := int(frame % uint64(len(b.slots)))
	b.slots[idx] = slot{frame: frame, filled: true, state: state, hash: hash}
}

// Load returns the snapshot for frame, or (nil, false) if that ring
// position is empty or now holds a different frame (evicted by wraparound,
// i.e. the caller asked for a frame older than the rollback window).
func (b *Buffer) Load(frame uint64) (Cloneable, bool) {
	idx := int(frame % uint64(len(b.slots)))
	s := b.slots[idx]
	if !s.filled || s.frame != frame {
		return nil, false
	}
	return s.state, true
}

// Hash returns the stored hash for frame, or (0, false) under the same
// conditions as Load.
func (b *Buffer) Hash(frame uint64) (uint64, bool) {
	idx := int(frame % uint64(len(b.slots)))
	s := b.slots[idx]
	if !s.filled || s.frame != frame {
		return 0, false
	}
	return s.hash, true
}

// Oldest returns the smallest frame number still resolvable in the ring,
// or (0, false) if the buffer is empty.
func (b *Buffer) Oldest() (uint64, bool) {
	var found bool
	var oldest uint64
	for _, s := range b.slots {
		if !s.filled {
			continue
		}
		if !found || s.frame < oldest {
			oldest = s.frame
			found = true
		}
	}
	return oldest, found
}

// Len returns the ring's capacity (not how many slots are filled).
func (b *Buffer) Len() int {
	return len(b.slots)
}
