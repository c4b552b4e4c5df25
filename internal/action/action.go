// Package action implements the action system (C6): cards, attacks, and
// movement skills as first-class, schedulable, generational-arena objects.
//
// Grounded on the teacher's CombatState/AttackPhase pattern
// (internal/game/combat.go, animation.go): tick-counted phases
// (WindUp/Active/Recovery) driving when a move can act again, generalized
// from a fixed three-phase weapon swing into the arbitrary lockout
// semantics of spec.md §4.5 (Animation / Sequence / Async(duration)).
package action

import (
	"battlecore/internal/animator"
	"battlecore/internal/entity"
)

// Lockout selects when an action ends, per spec.md §4.5.
type Lockout int

const (
	LockoutAnimation Lockout = iota
	LockoutSequence
	LockoutAsync
)

// Step is one entry of a Sequence-lockout action's steps[].
type Step struct {
	Completed bool
	Fn        func(*Action)
}

// Attachment places a child sprite at a named animation point on a parent
// animator, per spec.md §4.5's ActionAttachment.
type Attachment struct {
	PointName        string
	SpriteIndex      int
	AnimatorIndex    int
	ParentAnimator   int
	Visible          bool
}

// Id addresses an Action within the System's arena.
type Id struct {
	Slot uint32
	Gen  uint32
}

// Action is one schedulable behavior attached to an entity.
type Action struct {
	Entity entity.Id

	StateName    string
	SpriteIndex  int
	Steps        []Step
	Attachments  []Attachment

	Lockout      Lockout
	AsyncTicks   int // remaining ticks for LockoutAsync
	AsyncTotal   int

	DerivedStateName string // optional derived-frames override
	HasDerivedState  bool

	CanMoveTo       func(x, y int) bool
	Update          func(*Action)
	ExecuteFn       func(*Action)
	End             func(*Action)
	AnimationEnd    func(*Action)

	Executed  bool
	Used      bool
	Deleted   bool
	Processed bool

	OldX, OldY int

	Properties map[string]any

	// savedState captures the animator's prior state/loop/reverse so
	// Complete can restore it, per spec.md §4.5's execution contract.
	savedState   string
	savedLoop    animator.LoopMode
	savedReverse bool
}

// Sync reports whether this action blocks other sync actions on its
// entity (i.e. it is not async).
func (a *Action) Sync() bool {
	return a.Lockout != LockoutAsync
}

type slot struct {
	gen  uint32
	data *Action
}

// System is the generational arena of all live actions, plus the queue of
// pending (not-yet-started) actions per entity.
type System struct {
	slots   []slot
	free    []uint32
	queue   map[entity.Id][]Id
	animPool *animator.Pool
}

// NewSystem creates an empty action system bound to the shared animator
// pool, so Execute/Complete can drive animator state directly.
func NewSystem(pool *animator.Pool) *System {
	return &System{queue: make(map[entity.Id][]Id), animPool: pool}
}

// Create allocates a new idle Action and returns its Id. The caller is
// responsible for queueing it via Enqueue once configured.
func (s *System) Create(owner entity.Id, stateName string) Id {
	var idx uint32
	if n := len(s.free); n > 0 {
		idx = s.free[n-1]
		s.free = s.free[:n-1]
	} else {
		idx = uint32(len(s.slots))
		s.slots = append(s.slots, slot{})
	}
	gen := s.slots[idx].gen
	id := Id{Slot: idx, Gen: gen}
	s.slots[idx] = slot{gen: gen, data: &Action{Entity: owner, StateName: stateName, Properties: map[string]any{}}}
	return id
}

// Get resolves an Id, or (nil, false) if deleted/stale.
func (s *System) Get(id Id) (*Action, bool) {
	if int(id.Slot) >= len(s.slots) {
		return nil, false
	}
	sl := &s.slots[id.Slot]
	if sl.data == nil || sl.gen != id.Gen {
		return nil, false
	}
	return sl.data, true
}

// Each calls fn for every live action, in ascending slot order, satisfying
// the §4.9 determinism rule.
func (s *System) Each(fn func(Id, *Action)) {
	for slot := range s.slots {
		sl := &s.slots[slot]
		if sl.data != nil {
			fn(Id{Slot: uint32(slot), Gen: sl.gen}, sl.data)
		}
	}
}

// Enqueue appends id to its entity's pending action queue, in FIFO order.
func (s *System) Enqueue(id Id) {
	a, ok := s.Get(id)
	if !ok {
		return
	}
	s.queue[a.Entity] = append(s.queue[a.Entity], id)
}

// StartQueued starts queued actions for every entity per spec.md §4.9
// phase 6: the first queued non-async action starts only if no sync
// action is currently active on that entity; queued async actions always
// start. Entities are processed in the order given by order (callers pass
// ascending-slot order to satisfy the determinism rule).
func (s *System) StartQueued(order []entity.Id, hasActiveSync func(entity.Id) bool, exec func(Id)) {
	for _, owner := range order {
		pending := s.queue[owner]
		if len(pending) == 0 {
			continue
		}
		var remaining []Id
		startedSync := hasActiveSync(owner)
		for _, id := range pending {
			a, ok := s.Get(id)
			if !ok {
				continue
			}
			if !a.Sync() {
				exec(id)
				continue
			}
			if startedSync {
				remaining = append(remaining, id)
				continue
			}
			exec(id)
			startedSync = true
		}
		if len(remaining) == 0 {
			delete(s.queue, owner)
		} else {
			s.queue[owner] = remaining
		}
	}
}

// Execute runs the execution contract from spec.md §4.5 exactly once per
// action: save prior animator state, apply a derived-frames override if
// set, switch the animator to action.state (the animator's pending
// callback bus is left untouched), zero the entity's hit-context flags for the duration of execute_callback
// (restoring them after), register completion hooks, reveal the sprite
// attachment, and mark Executed.
func (s *System) Execute(id Id, a *Action, anim *animator.Animator, hitFlags *uint32, x, y int) {
	a.savedState = anim.CurrentState()

	state := a.StateName
	if a.HasDerivedState {
		state = a.DerivedStateName
	}
	anim.SetState(state, animator.LoopOnce, false, false)

	savedFlags := uint32(0)
	if hitFlags != nil {
		savedFlags = *hitFlags
		*hitFlags = 0
	}
	if a.ExecuteFn != nil {
		a.ExecuteFn(a)
	}
	if hitFlags != nil {
		*hitFlags = savedFlags
	}

	if a.Lockout == LockoutAnimation {
		anim.OnComplete(func() {
			a.Deleted = true
			if a.AnimationEnd != nil {
				a.AnimationEnd(a)
			}
		})
		anim.OnInterrupt(func() {
			a.Deleted = true
			if a.AnimationEnd != nil {
				a.AnimationEnd(a)
			}
		})
	} else {
		anim.OnComplete(func() {
			if a.AnimationEnd != nil {
				a.AnimationEnd(a)
			}
		})
	}

	for i := range a.Attachments {
		a.Attachments[i].Visible = true
	}

	a.Executed = true
	a.Used = true
	a.OldX, a.OldY = x, y
}

// Tick advances one live action by one simulation tick, per spec.md §4.9
// phase 7: runs UpdateFn; runs the first not-yet-completed Sequence step
// (one step per tick, in order) and marks Deleted once every step is
// completed; counts down Async timers, marking Deleted when they reach 0.
func (a *Action) Tick() {
	if a.Deleted {
		return
	}
	if a.Update != nil {
		a.Update(a)
	}

	switch a.Lockout {
	case LockoutSequence:
		for i := range a.Steps {
			step := &a.Steps[i]
			if !step.Completed {
				if step.Fn != nil {
					step.Fn(a)
				}
				break
			}
		}
		allDone := true
		for i := range a.Steps {
			if !a.Steps[i].Completed {
				allDone = false
				break
			}
		}
		if allDone {
			a.Deleted = true
		}
	case LockoutAsync:
		a.AsyncTicks--
		if a.AsyncTicks <= 0 {
			a.Deleted = true
		}
	}
	a.Processed = true
}

// TickAttachments updates each attachment's placement to track its parent
// animator's named point, per spec.md §4.5: placed at
// parent_animator.point(point_name) - parent_animator.origin(), hidden
// when the point is absent.
func (a *Action) TickAttachments(pool *animator.Pool, place func(attachment Attachment, x, y float64)) {
	for i := range a.Attachments {
		att := &a.Attachments[i]
		parent, ok := pool.Get(att.ParentAnimator)
		if !ok {
			att.Visible = false
			continue
		}
		p, has := parent.Point(att.PointName)
		if !has {
			att.Visible = false
			continue
		}
		origin := parent.Origin()
		x, y := p[0]-origin[0], p[1]-origin[1]
		att.Visible = true
		if place != nil {
			place(*att, x, y)
		}
	}
}

// Complete finalizes a sync action once it ends: runs End, restores the
// prior animator state/loop/reverse, and (if autoReserves) calls
// moveReservation so the caller can move the tile reservation from
// OldX/OldY to the entity's current position. Complete does not know the
// current position and passes OldX/OldY for both coordinate pairs; it also
// leaves clearing the entity's action pointer to the caller. Spec.md §4.5:
// "sync actions ignore reservation bookkeeping during their lifetime" —
// only Complete moves it.
func (s *System) Complete(a *Action, anim *animator.Animator, autoReserves bool, moveReservation func(oldX, oldY, newX, newY int)) {
	if a.End != nil {
		a.End(a)
	}
	anim.SetState(a.savedState, a.savedLoop, a.savedReverse, true)
	if autoReserves && moveReservation != nil {
		moveReservation(a.OldX, a.OldY, a.OldX, a.OldY)
	}
}

// Free releases the action's arena slot immediately, bumping its generation
// so a stale Id resolves to "not found". CompactDeleted calls it at end of
// tick for every action already marked Deleted.
func (s *System) Free(id Id) {
	if int(id.Slot) >= len(s.slots) {
		return
	}
	sl := &s.slots[id.Slot]
	if sl.data == nil {
		return
	}
	sl.gen++
	sl.data = nil
	s.free = append(s.free, id.Slot)
}

// CompactDeleted frees every action marked Deleted, per spec.md §4.9
// phase 13.
func (s *System) CompactDeleted() {
	for slot := range s.slots {
		if d := s.slots[slot].data; d != nil && d.Deleted {
			s.Free(Id{Slot: uint32(slot), Gen: s.slots[slot].gen})
		}
	}
}

// Clone deep-copies the arena's bookkeeping and each live Action's value
// fields, for snapshotting. Callback closures (ExecuteFn, Update, ...) are
// shared by reference with the original, the same convention internal/
// defense's Pipeline.Clone uses: they're host-registered behavior, not
// per-frame simulation state, so sharing them is safe across rollback.
func (s *System) Clone() *System {
	c := &System{animPool: s.animPool, queue: make(map[entity.Id][]Id, len(s.queue))}
	c.slots = make([]slot, len(s.slots))
	for i, sl := range s.slots {
		c.slots[i] = slot{gen: sl.gen}
		if sl.data != nil {
			cp := *sl.data
			cp.Steps = append([]Step(nil), sl.data.Steps...)
			cp.Attachments = append([]Attachment(nil), sl.data.Attachments...)
			props := make(map[string]any, len(sl.data.Properties))
			for k, v := range sl.data.Properties {
				props[k] = v
			}
			cp.Properties = props
			c.slots[i].data = &cp
		}
	}
	c.free = append([]uint32(nil), s.free...)
	for owner, ids := range s.queue {
		c.queue[owner] = append([]Id(nil), ids...)
	}
	return c
}
