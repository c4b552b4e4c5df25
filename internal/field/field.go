// Package field implements the fixed-size tile grid (C1), grounded on the
// teacher's spatial index (internal/game/spatial.SpatialGrid) for the idea
// of a flat row-major backing array with O(1) cell lookup, generalized from
// a continuous-space hash grid to the spec's discrete tile grid.
package field

import (
	"fmt"

	"battlecore/internal/entity"
)

// State is a tile's tag, drawn from a fixed set per spec.md §3.
type State int

const (
	StateNormal State = iota
	StateCracked
	StateBroken
	StateIce
	StateLava
	StateGrass
	StatePoison
	StateSand
	StateHidden
)

// transitionRow describes what a tile state does to movement/hazard
// classification, per the static table referenced in spec.md §4.1.
type transitionRow struct {
	IsHole   bool // blocks walking entirely
	IsHazard bool // damages/affects entities standing on it
	// CrackSteps is the number of times a Cracked tile can be stepped on
	// (original_source/field.rs) before it escalates to Broken; 0 means
	// the state doesn't escalate via step count.
	CrackSteps int
}

var transitions = map[State]transitionRow{
	StateNormal:  {},
	StateCracked: {CrackSteps: 1},
	StateBroken:  {IsHole: true},
	StateIce:     {},
	StateLava:    {IsHazard: true},
	StateGrass:   {},
	StatePoison:  {IsHazard: true},
	StateSand:    {},
	StateHidden:  {IsHole: true},
}

// Tile is a single cell of the grid, per spec.md §3 "Tile".
type Tile struct {
	X, Y int

	Team         entity.Team
	OriginalTeam entity.Team
	State        State

	Reservations     map[entity.Id]bool
	IgnoredAttackers map[entity.Id]bool

	TeamRevertTimer int
	WashPending      bool
	Highlight        bool

	// crackCount tracks steps-on for the Cracked->Broken escalation
	// pulled from original_source/field.rs (see SPEC_FULL.md §6).
	crackCount int

	reservationTeamOf func(entity.Id) entity.Team
}

func newTile(x, y int) *Tile {
	return &Tile{
		X:                x,
		Y:                y,
		Reservations:     make(map[entity.Id]bool),
		IgnoredAttackers: make(map[entity.Id]bool),
	}
}

// IsHole reports whether this tile's current state blocks walking.
func (t *Tile) IsHole() bool {
	return transitions[t.State].IsHole
}

// IsHazard reports whether this tile's current state is a standing hazard.
func (t *Tile) IsHazard() bool {
	return transitions[t.State].IsHazard
}

// Field is the fixed-size tile grid, row-major, with edge tiles forced to
// StateHidden and immutable team at initialization per spec.md §4.1.
type Field struct {
	Width, Height int
	TileSize      int

	tiles []*Tile // row-major: index = y*Width + x

	washQueue []washEntry
}

type washEntry struct {
	X, Y int
	Team entity.Team
}

// New builds a Field of the given dimensions. Edge tiles are forced Hidden
// (non-renderable, blocks walking) and their team is fixed thereafter.
func New(width, height, tileSize int) *Field {
	f := &Field{Width: width, Height: height, TileSize: tileSize}
	f.tiles = make([]*Tile, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			t := newTile(x, y)
			if f.isEdge(x, y) {
				t.State = StateHidden
			}
			f.tiles[y*width+x] = t
		}
	}
	return f
}

func (f *Field) index(x, y int) int { return y*f.Width + x }

// InBounds reports whether (x,y) lies within the grid.
func (f *Field) InBounds(x, y int) bool {
	return x >= 0 && x < f.Width && y >= 0 && y < f.Height
}

func (f *Field) isEdge(x, y int) bool {
	return x == 0 || y == 0 || x == f.Width-1 || y == f.Height-1
}

// IsEdge reports whether (x,y) is a grid edge tile.
func (f *Field) IsEdge(x, y int) bool {
	return f.InBounds(x, y) && f.isEdge(x, y)
}

// ErrOutOfBounds is returned (as false) by TileAt for coordinates outside
// the grid, per spec.md §7's OutOfBounds error taxonomy entry. Callers
// decide what "no tile" means for them (movement validation fails closed,
// spawn requests delete the entity instead).
var ErrOutOfBounds = fmt.Errorf("field: coordinate out of bounds")

// TileAt returns the tile at (x,y), or (nil, false) if out of bounds.
func (f *Field) TileAt(x, y int) (*Tile, bool) {
	if !f.InBounds(x, y) {
		return nil, false
	}
	return f.tiles[f.index(x, y)], true
}

// ResetHighlight clears the Highlight flag on every tile, run once per
// field-update phase (§4.9 phase 10).
func (f *Field) ResetHighlight() {
	for _, t := range f.tiles {
		t.Highlight = false
	}
}

// DropEntity clears every reservation and ignored-attacker mark held by id,
// across the whole grid. Called on entity deletion per spec.md §4.2.
func (f *Field) DropEntity(id entity.Id) {
	for _, t := range f.tiles {
		delete(t.Reservations, id)
		delete(t.IgnoredAttackers, id)
	}
}

// Reserve adds id to the reservation set of (x,y). Returns false only when
// (x,y) is out of bounds; it does not check occupancy or ShareTile — callers
// are expected to have already checked via CanReserve.
func (f *Field) Reserve(x, y int, id entity.Id) bool {
	t, ok := f.TileAt(x, y)
	if !ok {
		return false
	}
	t.Reservations[id] = true
	return true
}

// Unreserve removes id from (x,y)'s reservation set.
func (f *Field) Unreserve(x, y int, id entity.Id) {
	if t, ok := f.TileAt(x, y); ok {
		delete(t.Reservations, id)
	}
}

// CanReserve reports whether id may take a reservation on (x,y): the tile
// must be in bounds, not a hole (unless the entity ignores hole tiles), and
// either empty of other reservations or shareable (spec.md S2).
func (f *Field) CanReserve(x, y int, shareTile, ignoreHoles bool) bool {
	t, ok := f.TileAt(x, y)
	if !ok {
		return false
	}
	if t.IsHole() && !ignoreHoles {
		return false
	}
	if shareTile {
		return true
	}
	return len(t.Reservations) == 0
}

// QueueWash enqueues a tile-state/team conversion to apply on the next
// ResolveWash call, per spec.md §4.1.
func (f *Field) QueueWash(x, y int, team entity.Team) {
	f.washQueue = append(f.washQueue, washEntry{X: x, Y: y, Team: team})
}

// ResolveWash applies all queued tile conversions in FIFO order (insertion
// order is the host-controlled deterministic order, §4.9).
func (f *Field) ResolveWash() {
	for _, w := range f.washQueue {
		if t, ok := f.TileAt(w.X, w.Y); ok {
			t.Team = w.Team
			t.WashPending = false
		}
	}
	f.washQueue = f.washQueue[:0]
}

// UpdateTileStates advances per-tile timers: a Cracked tile that has been
// stepped on (via RegisterStepOn) CrackSteps times escalates to Broken.
func (f *Field) UpdateTileStates() {
	for _, t := range f.tiles {
		row := transitions[t.State]
		if t.State == StateCracked && row.CrackSteps > 0 && t.crackCount >= row.CrackSteps {
			t.State = StateBroken
			t.crackCount = 0
		}
	}
}

// RegisterStepOn records that an entity stepped on (x,y) this tick, driving
// the Cracked->Broken escalation consumed by UpdateTileStates.
func (f *Field) RegisterStepOn(x, y int) {
	if t, ok := f.TileAt(x, y); ok && t.State == StateCracked {
		t.crackCount++
	}
}

// UpdateTeamRevert runs the column-synchronized team-revert algorithm for
// every column, per spec.md §4.1's four-step algorithm:
//  1. collect the minimum positive revert timer across the column's rows
//  2. determine revert_blocked
//  3. decrement the synchronized timer by 1, holding at 1 if blocked
//  4. write the synchronized value back to every row
//
// facingDY is the column's "facing direction" row delta used when checking
// neighbor tiles in step 2(b); a column reverts by looking one row in that
// direction.
func (f *Field) UpdateTeamRevert(facingDY int) {
	for x := 0; x < f.Width; x++ {
		minPositive := 0
		for y := 0; y < f.Height; y++ {
			t := f.tiles[f.index(x, y)]
			if t.TeamRevertTimer > 0 {
				if minPositive == 0 || t.TeamRevertTimer < minPositive {
					minPositive = t.TeamRevertTimer
				}
			}
		}
		if minPositive == 0 {
			continue // nothing reverting in this column
		}

		blocked := f.columnRevertBlocked(x, facingDY)

		next := minPositive - 1
		if next <= 0 {
			if blocked {
				next = 1
			} else {
				next = 0
			}
		}

		for y := 0; y < f.Height; y++ {
			t := f.tiles[f.index(x, y)]
			if t.TeamRevertTimer > 0 {
				t.TeamRevertTimer = next
				if next == 0 {
					t.Team = t.OriginalTeam
				}
			}
		}
	}
}

func (f *Field) columnRevertBlocked(x, facingDY int) bool {
	for y := 0; y < f.Height; y++ {
		t := f.tiles[f.index(x, y)]

		// a reservation by an entity whose team differs from the column's
		// original team and isn't Team::Other blocks revert.
		if t.reservationBlocksRevert(t.OriginalTeam) {
			return true
		}

		ny := y + facingDY
		if f.InBounds(x, ny) {
			nt := f.tiles[f.index(x, ny)]
			if nt.OriginalTeam == t.OriginalTeam && nt.Team != nt.OriginalTeam {
				return true
			}
		}
	}
	return false
}

// reservationBlocksRevert is a hook filled in by the simulation: Field
// alone doesn't know the team of a reserving entity, so it asks back
// through a callback installed via SetReservationTeamLookup. Defaults to
// "never blocks" so Field remains independently testable.
func (t *Tile) reservationBlocksRevert(originalTeam entity.Team) bool {
	if t.reservationTeamOf == nil || len(t.Reservations) == 0 {
		return false
	}
	for id := range t.Reservations {
		team := t.reservationTeamOf(id)
		if team != originalTeam && team != entity.TeamOther {
			return true
		}
	}
	return false
}

// SetReservationTeamLookup installs the callback every tile uses to resolve
// a reserving entity's team for the revert-block check (§4.1 step 2a).
func (f *Field) SetReservationTeamLookup(lookup func(entity.Id) entity.Team) {
	for _, t := range f.tiles {
		t.reservationTeamOf = lookup
	}
}

// Clone deep-copies the field for snapshotting.
func (f *Field) Clone() *Field {
	out := &Field{Width: f.Width, Height: f.Height, TileSize: f.TileSize}
	out.tiles = make([]*Tile, len(f.tiles))
	for i, t := range f.tiles {
		nt := *t
		nt.Reservations = make(map[entity.Id]bool, len(t.Reservations))
		for k, v := range t.Reservations {
			nt.Reservations[k] = v
		}
		nt.IgnoredAttackers = make(map[entity.Id]bool, len(t.IgnoredAttackers))
		for k, v := range t.IgnoredAttackers {
			nt.IgnoredAttackers[k] = v
		}
		out.tiles[i] = &nt
	}
	out.washQueue = append([]washEntry(nil), f.washQueue...)
	return out
}
