// Package status implements the per-living-entity status effect tracker
// (C5), grounded on the teacher's CombatState (internal/game/combat.go):
// tick-based countdown timers, a Reset method, and an UpdateTimers method
// called once per game tick — generalized from CombatState's fixed combo/
// dodge/invuln fields into an open set of named status flags with the
// merge and mutual-cancellation rules from spec.md §4.4.
package status

// Flag identifies a status effect.
type Flag int

const (
	FlagFreeze Flag = iota
	FlagParalyze
	FlagBubble
	FlagConfuse
	FlagRoot
	FlagInvisible
	FlagBlind
)

// mashable is the static set of flags that get an extra -1 per tick when
// the owning input was "any battle input just pressed" (spec.md §4.4 step
// 1).
var mashable = map[Flag]bool{
	FlagParalyze: true,
	FlagFreeze:   true,
	FlagBubble:   true,
}

// blockedBy is the static cancellation table: key is blocked by any flag
// in its value set being active (spec.md §4.4 step 4).
var blockedBy = map[Flag][]Flag{
	FlagParalyze: {FlagFreeze},
	FlagFreeze:   {FlagParalyze, FlagBubble, FlagConfuse},
}

// Entry is one active or pending status effect.
type Entry struct {
	Flag      Flag
	Remaining int
	Lifetime  int
}

// Director tracks a single living entity's statuses: the two disjoint
// lists from spec.md §4.4, plus drag lockout and shake scalars.
type Director struct {
	Applied []Entry
	New     []Entry

	DragLockout int
	ShakeTimer  int
}

// New creates an empty Director.
func New() *Director {
	return &Director{}
}

// Apply queues a status for merge on the next Update call.
func (d *Director) Apply(flag Flag, duration int) {
	d.New = append(d.New, Entry{Flag: flag, Remaining: duration})
}

// RemoveStatus cancels an active status immediately (spec.md §5
// "cancellation: ... Status effects are cancelled by remove_status").
func (d *Director) RemoveStatus(flag Flag) {
	out := d.Applied[:0]
	for _, e := range d.Applied {
		if e.Flag != flag {
			out = append(out, e)
		}
	}
	d.Applied = out
}

// Has reports whether flag is currently active.
func (d *Director) Has(flag Flag) bool {
	for _, e := range d.Applied {
		if e.Flag == flag {
			return true
		}
	}
	return false
}

// Remaining returns the remaining ticks for flag, 0 if inactive.
func (d *Director) Remaining(flag Flag) int {
	for _, e := range d.Applied {
		if e.Flag == flag {
			return e.Remaining
		}
	}
	return 0
}

// Update runs the full per-tick status pass from spec.md §4.4:
//  1. decrement Remaining on every applied status (extra -1 for mashable
//     flags if justPressed is true); increment Lifetime.
//  2. clamp Remaining at 0.
//  3. merge New into Applied (existing entries take max(existing, incoming)).
//  4. apply the static cancellation table.
//  5. decrement DragLockout and ShakeTimer.
//
// Expired entries (Remaining==0 after step 2) are removed at the end of
// this call, which is "phase end" for the status phase.
func (d *Director) Update(justPressed bool) {
	for i := range d.Applied {
		e := &d.Applied[i]
		dec := 1
		if mashable[e.Flag] && justPressed {
			dec = 2
		}
		e.Remaining -= dec
		if e.Remaining < 0 {
			e.Remaining = 0
		}
		e.Lifetime++
	}

	d.merge()
	d.cancel()

	out := d.Applied[:0]
	for _, e := range d.Applied {
		if e.Remaining > 0 {
			out = append(out, e)
		}
	}
	d.Applied = out

	if d.DragLockout > 0 {
		d.DragLockout--
	}
	if d.ShakeTimer > 0 {
		d.ShakeTimer--
	}
}

func (d *Director) merge() {
	for _, incoming := range d.New {
		found := false
		for i := range d.Applied {
			if d.Applied[i].Flag == incoming.Flag {
				if incoming.Remaining > d.Applied[i].Remaining {
					d.Applied[i].Remaining = incoming.Remaining
				}
				found = true
				break
			}
		}
		if !found {
			d.Applied = append(d.Applied, incoming)
		}
	}
	d.New = d.New[:0]
}

func (d *Director) cancel() {
	for flag, blockers := range blockedBy {
		for _, blocker := range blockers {
			if d.Has(blocker) {
				d.RemoveStatus(flag)
				break
			}
		}
	}
}

// IsInactionable reports Paralyze | Bubble | Freeze, per spec.md §4.4.
func (d *Director) IsInactionable() bool {
	return d.Has(FlagParalyze) || d.Has(FlagBubble) || d.Has(FlagFreeze)
}

// IsImmobile reports the above, plus Root and DragLockout > 0.
func (d *Director) IsImmobile() bool {
	return d.IsInactionable() || d.Has(FlagRoot) || d.DragLockout > 0
}

// IsDragged reports whether drag lockout is currently active.
func (d *Director) IsDragged() bool {
	return d.DragLockout > 0
}

// IsShaking reports whether the shake timer is currently active.
func (d *Director) IsShaking() bool {
	return d.ShakeTimer > 0
}

// Reset clears all status state, mirroring CombatState.Reset's role on
// respawn.
func (d *Director) Reset() {
	d.Applied = nil
	d.New = nil
	d.DragLockout = 0
	d.ShakeTimer = 0
}

// Clone deep-copies the director for snapshotting.
func (d *Director) Clone() *Director {
	c := &Director{DragLockout: d.DragLockout, ShakeTimer: d.ShakeTimer}
	c.Applied = append([]Entry(nil), d.Applied...)
	c.New = append([]Entry(nil), d.New...)
	return c
}
