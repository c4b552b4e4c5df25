package sim

import (
	"testing"

	"battlecore/internal/entity"
	"battlecore/internal/input"
	"battlecore/internal/status"
)

func newTestSim() *Simulation {
	return New(Config{
		FieldWidth: 6, FieldHeight: 3, TileSize: 40,
		Seed: 1, RollbackWindow: 8, CounterWindowFrames: 60,
		PlayerCount: 2, InputDelayFrames: 0,
	})
}

func neutralFrames(n int) []input.Frame {
	return make([]input.Frame, n)
}

func TestSpawnEntityTransitionsOnNextTick(t *testing.T) {
	s := newTestSim()
	spawned := false
	id := s.SpawnEntity(func(sim *Simulation, eid entity.Id) { spawned = true })

	b, _ := s.Entities.Get(id)
	if !b.PendingSpawn || b.Spawned {
		t.Fatal("expected a freshly created entity to start pending_spawn")
	}

	s.Tick(neutralFrames(2))

	b, _ = s.Entities.Get(id)
	if b.PendingSpawn || !b.Spawned {
		t.Error("expected the entity to flip to spawned after one tick")
	}
	if !spawned {
		t.Error("expected the spawn hook to fire")
	}
}

// TestTileReservationRefusal grounds scenario S2: B's move onto A's
// exclusively-reserved tile is refused and B never moves.
func TestTileReservationRefusal(t *testing.T) {
	s := newTestSim()
	a := s.SpawnEntity(nil)
	ba, _ := s.Entities.Get(a)
	ba.X, ba.Y = 1, 1
	ba.AutoReservesTile = true
	s.Field.Reserve(1, 1, a)

	b := s.SpawnEntity(nil)
	bb, _ := s.Entities.Get(b)
	bb.X, bb.Y = 2, 1
	bb.ShareTile = false

	s.QueueMove(&MoveRequest{Entity: b, ToX: 1, ToY: 1})
	s.Tick(neutralFrames(2))

	bb, _ = s.Entities.Get(b)
	if bb.X != 2 || bb.Y != 1 {
		t.Errorf("expected B to remain at (2,1), got (%d,%d)", bb.X, bb.Y)
	}
	tile, _ := s.Field.TileAt(1, 1)
	if tile.Reservations[b] {
		t.Error("expected no reservation added for B on the refused tile")
	}
}

// TestStatusCancellationScenario grounds scenario S3: Freeze blocks
// Paralyze from taking effect.
func TestStatusCancellationScenario(t *testing.T) {
	s := newTestSim()
	e := s.SpawnEntity(nil)
	s.AttachLiving(e, &entity.Living{Health: 100, MaxHealth: 100})
	s.Tick(neutralFrames(2)) // spawn

	dir := s.Statuses[e]
	dir.Apply(status.FlagFreeze, 150)
	s.Tick(neutralFrames(2)) // status phase merges Freeze (150); it is not decremented yet

	dir.Apply(status.FlagParalyze, 150)
	s.Tick(neutralFrames(2)) // status phase merges Paralyze, then cancels it

	if !dir.Has(status.FlagFreeze) {
		t.Fatal("expected Freeze to remain active")
	}
	if dir.Has(status.FlagParalyze) {
		t.Error("expected Paralyze to be cancelled by active Freeze")
	}
}

// TestTimeFreezeCounterWindowDefersCardRequests grounds scenario S6's
// "card requests are deferred during time freeze" rule.
func TestTimeFreezeCounterWindowDefersCardRequests(t *testing.T) {
	s := newTestSim()
	var requestedCount int
	s.OnCardRequest = func(sim *Simulation, id entity.Id, p *entity.PlayerData) {
		requestedCount++
	}

	p := s.SpawnEntity(nil)
	s.Entities.AttachPlayer(p, &entity.PlayerData{CardUseRequested: true})
	s.Tick(neutralFrames(2)) // spawn; card request resolves (no freeze yet)
	if requestedCount != 1 {
		t.Fatalf("expected the card request to resolve once before any freeze, got %d", requestedCount)
	}

	pd, _ := s.Entities.Player(p)
	pd.CardUseRequested = true
	s.TimeFreeze.Push(int(entity.TeamRed), 0, 10)
	s.Tick(neutralFrames(2))
	if requestedCount != 1 {
		t.Error("expected the card request to stay deferred while a freeze is active")
	}
}

// TestRollbackIdempotence grounds invariant 2: save(f); advance(k); load(f);
// advance(k) reproduces the same state as one advance(k) from f.
func TestRollbackIdempotence(t *testing.T) {
	s := newTestSim()
	e := s.SpawnEntity(nil)
	s.AttachLiving(e, &entity.Living{Health: 100, MaxHealth: 100})
	s.Tick(neutralFrames(2))

	baseFrame := s.Frame
	s.Save()

	s.Tick(neutralFrames(2))
	s.Tick(neutralFrames(2))
	firstHash := s.Hash()

	if !s.Load(baseFrame) {
		t.Fatal("expected the saved frame to still be resolvable")
	}
	s.Tick(neutralFrames(2))
	s.Tick(neutralFrames(2))
	secondHash := s.Hash()

	if firstHash != secondHash {
		t.Errorf("expected replaying from the same snapshot to reproduce the same hash, got %x vs %x", firstHash, secondHash)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	s := newTestSim()
	e := s.SpawnEntity(nil)
	s.AttachLiving(e, &entity.Living{Health: 50, MaxHealth: 100})

	clone := s.Clone().(*Simulation)
	l, _ := clone.Entities.Living(e)
	l.Health = 1

	orig, _ := s.Entities.Living(e)
	if orig.Health == 1 {
		t.Error("expected mutating the clone's Living component not to affect the original")
	}
}

func TestHashReflectsEntityPosition(t *testing.T) {
	s := newTestSim()
	e := s.SpawnEntity(nil)
	h1 := s.Hash()

	b, _ := s.Entities.Get(e)
	b.X++
	h2 := s.Hash()

	if h1 == h2 {
		t.Error("expected moving an entity to change the simulation hash")
	}
}
