// Package animator implements the frame-based animator pool (C3).
//
// Grounded on the teacher's per-weapon animation tables (internal/game
// animation.go's WeaponAnimationConfig, keyed by state/weapon id with
// per-phase tick counts) generalized from a fixed Idle/WindUp/Active/
// Recovery phase set into an arbitrary named-state table per spec.md §4.3,
// and on effects.go's WeaponTrail for the "fixed lane of queued callbacks
// drained on state change" pattern.
package animator

// LoopMode controls how an animator behaves once it reaches the last frame
// of its current state.
type LoopMode int

const (
	LoopOnce LoopMode = iota
	LoopLoop
	LoopBounce
	LoopReverse
)

// Frame is one entry of a state's ordered frame list.
type Frame struct {
	Duration int // ticks this frame holds
	Points   map[string][2]float64
}

// State is a named, ordered list of frames.
type State struct {
	Name   string
	Frames []Frame
}

// FrameCallback fires when the animator's current frame index matches.
type FrameCallback struct {
	Index  int
	Fn     func()
	Repeat bool // if false, fires once then is removed
	fired  bool
}

// Animator is one entry of the pool: a state table plus playback cursor
// and the two callback lanes from spec.md §4.3 (on_frame, on_complete /
// on_interrupt).
type Animator struct {
	states map[string]*State

	currentState string
	loop         LoopMode
	reverse      bool

	frameIndex   int
	elapsed      int // ticks spent on the current frame
	completedRun bool

	frameCallbacks []*FrameCallback
	onComplete     []func()
	onInterrupt    []func()

	// pendingBus holds callbacks that the next Tick drains before advancing.
	// Nothing in this package queues onto it; SetState does not.
	pendingBus []func()
}

// New creates an animator with no states. Use AddState to populate it.
func New() *Animator {
	return &Animator{states: make(map[string]*State)}
}

// AddState registers a named state. Re-registering a name replaces it.
func (a *Animator) AddState(s *State) {
	a.states[s.Name] = s
}

// DeriveState produces a new state from an existing one by remapping a
// sequence of (source_frame_index, duration_override) pairs, per spec.md
// §4.3's derive_state. The derived state is inserted under name.
func (a *Animator) DeriveState(name, source string, remap []struct {
	SourceFrameIndex int
	DurationOverride int
}) bool {
	src, ok := a.states[source]
	if !ok {
		return false
	}
	derived := &State{Name: name}
	for _, r := range remap {
		if r.SourceFrameIndex < 0 || r.SourceFrameIndex >= len(src.Frames) {
			continue
		}
		f := src.Frames[r.SourceFrameIndex]
		if r.DurationOverride > 0 {
			f.Duration = r.DurationOverride
		}
		derived.Frames = append(derived.Frames, f)
	}
	a.states[name] = derived
	return true
}

// CurrentState returns the active state's name.
func (a *Animator) CurrentState() string { return a.currentState }

// SetState changes the active state. Setting the current state again is a
// no-op unless force is true, per spec.md §4.3. Changing state resets the
// frame cursor and elapsed time and re-arms every registered frame
// callback; it queues nothing on the pending bus.
func (a *Animator) SetState(name string, loop LoopMode, reverse bool, force bool) bool {
	if name == a.currentState && !force {
		return true
	}
	if _, ok := a.states[name]; !ok {
		return false
	}
	a.currentState = name
	a.loop = loop
	a.reverse = reverse
	a.frameIndex = 0
	a.elapsed = 0
	a.completedRun = false
	for _, cb := range a.frameCallbacks {
		cb.fired = false
	}
	return true
}

// OnFrame registers a per-frame callback. If repeat is false it fires once
// and is then removed.
func (a *Animator) OnFrame(index int, fn func(), repeat bool) {
	a.frameCallbacks = append(a.frameCallbacks, &FrameCallback{Index: index, Fn: fn, Repeat: repeat})
}

// OnComplete registers a callback fired when a LoopOnce playthrough
// exhausts its last frame. LoopLoop, LoopBounce and LoopReverse never fire
// it.
func (a *Animator) OnComplete(fn func()) { a.onComplete = append(a.onComplete, fn) }

// OnInterrupt registers a callback fired by the next Interrupt call.
// SetState does not call Interrupt.
func (a *Animator) OnInterrupt(fn func()) { a.onInterrupt = append(a.onInterrupt, fn) }

// Interrupt fires all onInterrupt callbacks for the current state, without
// changing it — callers follow up with SetState.
func (a *Animator) Interrupt() {
	cbs := a.onInterrupt
	a.onInterrupt = nil
	for _, fn := range cbs {
		fn()
	}
}

// Point looks up a named attachment point on the current frame. Per
// spec.md §4.5's attachment placement rule, an absent point returns
// (zero, false) rather than erroring.
func (a *Animator) Point(name string) ([2]float64, bool) {
	st, ok := a.states[a.currentState]
	if !ok || len(st.Frames) == 0 {
		return [2]float64{}, false
	}
	idx := a.frameIndex
	if idx < 0 || idx >= len(st.Frames) {
		return [2]float64{}, false
	}
	p, ok := st.Frames[idx].Points[name]
	return p, ok
}

// Origin is the current frame's "origin" named point, used by attachments
// to compute parent-relative placement (spec.md §4.5).
func (a *Animator) Origin() [2]float64 {
	p, _ := a.Point("origin")
	return p
}

// Tick advances the animator by one frame-time unit. Per the open question
// in spec.md §9, frame callbacks whose index exceeds the current state's
// length never fire — they're simply unreachable, which is the simplest
// rule that's stable across Loop wraps (a callback at an out-of-range
// index would otherwise fire zero or infinite times depending on wrap
// semantics; never firing is deterministic and matches "gracefully
// no-ops" language used elsewhere in spec.md for similar situations).
func (a *Animator) Tick() {
	st, ok := a.states[a.currentState]
	if !ok || len(st.Frames) == 0 {
		return
	}

	a.drainPending()

	cur := st.Frames[a.frameIndex]
	a.elapsed++
	if a.elapsed < cur.Duration {
		a.fireFrameCallbacks()
		return
	}
	a.elapsed = 0

	switch a.loop {
	case LoopOnce:
		if a.advanceOnce(st) {
			a.fireComplete()
		}
	case LoopLoop:
		a.frameIndex = (a.frameIndex + 1) % len(st.Frames)
	case LoopBounce:
		a.advanceBounce(st)
	case LoopReverse:
		a.frameIndex--
		if a.frameIndex < 0 {
			a.frameIndex = len(st.Frames) - 1
		}
	}

	a.fireFrameCallbacks()
}

func (a *Animator) advanceOnce(st *State) bool {
	if a.frameIndex+1 >= len(st.Frames) {
		return true
	}
	a.frameIndex++
	return false
}

func (a *Animator) advanceBounce(st *State) {
	if !a.reverse {
		if a.frameIndex+1 >= len(st.Frames) {
			a.reverse = true
			if len(st.Frames) > 1 {
				a.frameIndex--
			}
		} else {
			a.frameIndex++
		}
		return
	}
	if a.frameIndex-1 < 0 {
		a.reverse = false
		if len(st.Frames) > 1 {
			a.frameIndex++
		}
	} else {
		a.frameIndex--
	}
}

func (a *Animator) fireFrameCallbacks() {
	for _, cb := range a.frameCallbacks {
		if cb.Index != a.frameIndex {
			continue
		}
		if cb.fired && !cb.Repeat {
			continue
		}
		cb.fired = true
		cb.Fn()
	}
}

func (a *Animator) fireComplete() {
	cbs := a.onComplete
	for _, fn := range cbs {
		fn()
	}
}

func (a *Animator) drainPending() {
	pending := a.pendingBus
	a.pendingBus = nil
	for _, fn := range pending {
		fn()
	}
}

// Pool is the indexed collection of animators, per spec.md §3's invariant
// "animator_index is always valid".
type Pool struct {
	animators []*Animator
	free      []int
}

// NewPool creates an empty pool.
func NewPool() *Pool { return &Pool{} }

// Acquire allocates a fresh animator slot and returns its index.
func (p *Pool) Acquire() int {
	if n := len(p.free); n > 0 {
		idx := p.free[n-1]
		p.free = p.free[:n-1]
		p.animators[idx] = New()
		return idx
	}
	p.animators = append(p.animators, New())
	return len(p.animators) - 1
}

// Release frees an animator slot for reuse.
func (p *Pool) Release(index int) {
	if index < 0 || index >= len(p.animators) {
		return
	}
	p.animators[index] = nil
	p.free = append(p.free, index)
}

// Get returns the animator at index, or (nil, false) if released/invalid.
func (p *Pool) Get(index int) (*Animator, bool) {
	if index < 0 || index >= len(p.animators) || p.animators[index] == nil {
		return nil, false
	}
	return p.animators[index], true
}

// TickAll advances every live animator one frame, in ascending index order
// (§4.9 phase 12, determinism rule: stable iteration order).
func (p *Pool) TickAll() {
	for _, a := range p.animators {
		if a != nil {
			a.Tick()
		}
	}
}

// Len returns the pool's slot count (not how many are live).
func (p *Pool) Len() int { return len(p.animators) }

// clone deep-copies one animator's playback state. Registered callbacks
// are shared by reference (host-registered behavior, not per-frame state).
func (a *Animator) clone() *Animator {
	c := &Animator{
		states:         a.states, // state tables are read-only once registered
		currentState:   a.currentState,
		loop:           a.loop,
		reverse:        a.reverse,
		frameIndex:     a.frameIndex,
		elapsed:        a.elapsed,
		completedRun:   a.completedRun,
		onComplete:     append([]func(){}, a.onComplete...),
		onInterrupt:    append([]func(){}, a.onInterrupt...),
		pendingBus:     append([]func(){}, a.pendingBus...),
	}
	c.frameCallbacks = make([]*FrameCallback, len(a.frameCallbacks))
	for i, cb := range a.frameCallbacks {
		cp := *cb
		c.frameCallbacks[i] = &cp
	}
	return c
}

// Clone deep-copies the pool for snapshotting.
func (p *Pool) Clone() *Pool {
	c := &Pool{animators: make([]*Animator, len(p.animators)), free: append([]int(nil), p.free...)}
	for i, a := range p.animators {
		if a != nil {
			c.animators[i] = a.clone()
		}
	}
	return c
}
