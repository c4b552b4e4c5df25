// Package entity implements the sparse, generational entity store (C2).
//
// It is grounded on the teacher's player-map pattern (fight-club-go's
// Engine.players map[string]*Player plus playerSlice cache for stable
// ascending-order iteration), generalized from a string-keyed map of one
// concrete type to a slot arena of generational IDs holding arbitrary
// component sets, per spec.md §3's EntityId and §4.2.
package entity

import "fmt"

// Id is a stable identifier pairing a slot index with a generation counter.
// Two IDs with the same slot but different generations refer to different
// entities; a dangling Id resolves to "not found", never to a successor.
type Id struct {
	Slot uint32
	Gen  uint32
}

// Team mirrors spec.md's Team enum.
type Team int

const (
	TeamUnset Team = iota
	TeamOther
	TeamRed
	TeamBlue
)

// HitContext carries chain-attack attribution flags, zeroed and restored
// around Action.Execute's execute_callback per spec.md §4.5.
type HitContext struct {
	Flags     uint32
	Aggressor Id
}

// Base holds the attributes every entity carries, per spec.md §3 "Entity
// (base)".
type Base struct {
	Id Id

	X, Y         int     // tile coordinates
	OffsetX      float64 // pixel offset within tile
	OffsetY      float64
	Team         Team
	Height       float64
	Facing       float64 // radians
	Deleted      bool
	Spawned      bool
	PendingSpawn bool

	AnimatorIndex int
	SpriteTree    int // index into the sprite-tree arena
	ActionIndex   int // -1 if no current action
	HasAction     bool

	HitContext HitContext

	ShareTile        bool
	AutoReservesTile bool
	IgnoreHoleTiles  bool
}

// Living is the optional component carried by entities that can take
// damage, per spec.md §3 "Living".
type Living struct {
	Health, MaxHealth int
	Intangible        bool
	// DefenseOrder is ordering metadata only. The defense rules themselves
	// live outside Living (internal/sim keeps one defense.Pipeline per
	// entity Id), so this package does not import defense.
	DefenseOrder []int
}

// Role tags a polymorphic role; spec.md allows attaching at most one.
type Role int

const (
	RoleNone Role = iota
	RoleCharacter
	RolePlayer
	RoleObstacle
	RoleSpell
	RoleArtifact
)

// PlayerData holds the Player role's extra fields from spec.md §3.
type PlayerData struct {
	InputIndex        int
	Deck              []string
	Hand              []string
	Forms             []string
	Augments          []string
	ChargeLevel       int
	MaxChargeLevel    int
	CardUseRequested  bool
	FlipRequested     bool
	NextCardMutation  int // 1-based index into Deck; 0 means none pending
}

// entry is the arena slot: a generation counter plus whichever components
// are attached. A slot with Base == nil is free.
type entry struct {
	gen        uint32
	base       *Base
	living     *Living
	role       Role
	player     *PlayerData
}

// Store is the generational entity arena. The zero value is not usable;
// construct with New.
type Store struct {
	entries []entry
	free    []uint32
}

// New creates an empty Store.
func New() *Store {
	return &Store{}
}

// Create allocates a new entity in pre-spawned state (Spawned=false,
// PendingSpawn=true) per spec.md §3's entity lifecycle, and returns its Id.
// Callers attach the animator slot and sprite-tree root (internal/animator,
// internal/spritetree) separately — Store only owns the base/component
// arena, to avoid an import cycle with those packages.
func (s *Store) Create() Id {
	var slot uint32
	if n := len(s.free); n > 0 {
		slot = s.free[n-1]
		s.free = s.free[:n-1]
	} else {
		slot = uint32(len(s.entries))
		s.entries = append(s.entries, entry{})
	}

	gen := s.entries[slot].gen
	id := Id{Slot: slot, Gen: gen}
	s.entries[slot] = entry{
		gen: gen,
		base: &Base{
			Id:           id,
			PendingSpawn: true,
			ActionIndex:  -1,
		},
	}
	return id
}

// Get resolves an Id to its Base, or (nil, false) if deleted/stale/unknown.
func (s *Store) Get(id Id) (*Base, bool) {
	if int(id.Slot) >= len(s.entries) {
		return nil, false
	}
	e := &s.entries[id.Slot]
	if e.base == nil || e.gen != id.Gen {
		return nil, false
	}
	return e.base, true
}

// AttachLiving attaches the Living component to an existing entity.
func (s *Store) AttachLiving(id Id, l *Living) bool {
	if _, ok := s.Get(id); !ok {
		return false
	}
	s.entries[id.Slot].living = l
	return true
}

// Living returns the Living component, if attached.
func (s *Store) Living(id Id) (*Living, bool) {
	if _, ok := s.Get(id); !ok {
		return nil, false
	}
	l := s.entries[id.Slot].living
	return l, l != nil
}

// SetRole attaches a polymorphic role marker; at most one role may be set.
func (s *Store) SetRole(id Id, role Role) error {
	if _, ok := s.Get(id); !ok {
		return fmt.Errorf("entity: not found: %v", id)
	}
	e := &s.entries[id.Slot]
	if e.role != RoleNone && e.role != role {
		return fmt.Errorf("entity: %v already has role %v, cannot set %v", id, e.role, role)
	}
	e.role = role
	return nil
}

// Role returns the attached role marker, RoleNone if none.
func (s *Store) Role(id Id) Role {
	if _, ok := s.Get(id); !ok {
		return RoleNone
	}
	return s.entries[id.Slot].role
}

// AttachPlayer attaches Player role data.
func (s *Store) AttachPlayer(id Id, p *PlayerData) error {
	if err := s.SetRole(id, RolePlayer); err != nil {
		return err
	}
	s.entries[id.Slot].player = p
	return nil
}

// Player returns the Player role data, if attached.
func (s *Store) Player(id Id) (*PlayerData, bool) {
	if _, ok := s.Get(id); !ok {
		return nil, false
	}
	p := s.entries[id.Slot].player
	return p, p != nil
}

// Delete marks an entity deleted. Per spec.md §3 lifecycle, the slot itself
// is only freed on the next Compact call (run at end of tick, after
// deferred-delete callbacks have had a chance to observe Deleted==true).
func (s *Store) Delete(id Id) bool {
	b, ok := s.Get(id)
	if !ok {
		return false
	}
	b.Deleted = true
	return true
}

// Compact frees the slots of all entities marked Deleted, bumping their
// generation so dangling Ids resolve to "not found" rather than a
// successor entity. Called once per tick, after deferred-delete callbacks
// have run (§4.9 phase 13).
func (s *Store) Compact() {
	for slot := range s.entries {
		e := &s.entries[slot]
		if e.base != nil && e.base.Deleted {
			e.gen++
			e.base = nil
			e.living = nil
			e.role = RoleNone
			e.player = nil
			s.free = append(s.free, uint32(slot))
		}
	}
}

// Each calls fn for every live (non-freed) entity in ascending slot order,
// satisfying the §4.9 determinism rule that entity iteration is stable.
// fn must not create or delete entities during iteration (contract
// violation per spec.md §4.2).
func (s *Store) Each(fn func(*Base)) {
	for slot := range s.entries {
		if b := s.entries[slot].base; b != nil {
			fn(b)
		}
	}
}

// Len returns the number of live entities.
func (s *Store) Len() int {
	n := 0
	for i := range s.entries {
		if s.entries[i].base != nil {
			n++
		}
	}
	return n
}

// Clone deep-copies the entire store, used by internal/snapshot to take a
// cloneable simulation snapshot (§4.10 / invariant "snapshot of frame N
// reproduces frame N+1 byte-for-byte").
func (s *Store) Clone() *Store {
	out := &Store{
		entries: make([]entry, len(s.entries)),
		free:    append([]uint32(nil), s.free...),
	}
	for i, e := range s.entries {
		ne := entry{gen: e.gen, role: e.role}
		if e.base != nil {
			b := *e.base
			ne.base = &b
		}
		if e.living != nil {
			l := *e.living
			l.DefenseOrder = append([]int(nil), e.living.DefenseOrder...)
			ne.living = &l
		}
		if e.player != nil {
			p := *e.player
			p.Deck = append([]string(nil), e.player.Deck...)
			p.Hand = append([]string(nil), e.player.Hand...)
			p.Forms = append([]string(nil), e.player.Forms...)
			p.Augments = append([]string(nil), e.player.Augments...)
			ne.player = &p
		}
		out.entries[i] = ne
	}
	return out
}
