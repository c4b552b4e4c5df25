// Command replay is the CLI harness for the simulation core: it loads a
// recorded match, ticks a sim.Simulation frame by frame, and checks the
// snapshot hash after each tick against the recording's expected hashes,
// exiting nonzero on desync; with -v it also prints every tick's hash. It
// stands in for
// "the server" external-interface boundary (SPEC_FULL.md §8) without
// opening a socket.
//
// Ported from the teacher's cmd/server/main.go structure: flag parsing,
// .env loading via godotenv, signal-based graceful shutdown, adapted from
// a long-running stream server to a single batch run over one recording.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"battlecore/internal/config"
	"battlecore/internal/entity"
	"battlecore/internal/replay"
	"battlecore/internal/sim"
	"battlecore/internal/snapshot"
)

func main() {
	recPath := flag.String("rec", "", "path to a .rec replay file")
	envPath := flag.String("env", ".env", "path to an optional .env file")
	verbose := flag.Bool("v", false, "print the hash of every tick, not just mismatches")
	flag.Parse()

	if *recPath == "" {
		log.Fatal("replay: -rec is required")
	}

	if err := godotenv.Load(*envPath); err != nil {
		log.Printf("no .env file found at %s, using environment variables only", *envPath)
	}

	if os.Getenv("BATTLECORE_DEBUG_INVARIANTS") == "1" {
		sim.SetDebugInvariants(true)
	}

	rec, err := replay.Load(*recPath)
	if err != nil {
		log.Fatalf("replay: %v", err)
	}

	s := buildSimulation(rec)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	frameCount := rec.FrameCount()
	exitCode := 0

	for f := 0; f < frameCount; f++ {
		select {
		case <-ctx.Done():
			log.Printf("interrupted at tick %d", f)
			os.Exit(1)
		default:
		}

		s.Tick(rec.AtTick(f))
		hash := s.Hash()

		if f < len(rec.ExpectedHashes) {
			if err := snapshot.Compare(hash, rec.ExpectedHashes[f]); err != nil {
				log.Printf("tick %d: %v (got %x, want %x)", f, err, hash, rec.ExpectedHashes[f])
				exitCode = 1
				continue
			}
		}
		if *verbose {
			log.Printf("tick %d: hash=%x", f, hash)
		}
	}

	if exitCode == 0 {
		log.Printf("replay finished cleanly over %d ticks, final hash=%x", frameCount, s.Hash())
	} else {
		log.Printf("replay finished with desyncs over %d ticks", frameCount)
	}
	os.Exit(exitCode)
}

// buildSimulation constructs a Simulation from a recording's seed and
// player setups, per spec.md §6's replay contract.
func buildSimulation(rec *replay.Recording) *sim.Simulation {
	fieldCfg := config.DefaultField()
	simCfg := config.DefaultSim()

	s := sim.New(sim.Config{
		FieldWidth:          fieldCfg.Width,
		FieldHeight:         fieldCfg.Height,
		TileSize:            fieldCfg.TileSize,
		Seed:                rec.Seed,
		RollbackWindow:      simCfg.RollbackWindow,
		CounterWindowFrames: simCfg.CounterWindowFrames,
		PlayerCount:         len(rec.PlayerSetups),
		InputDelayFrames:    simCfg.InputDelayFrames,
	})

	for _, setup := range rec.PlayerSetups {
		id := s.SpawnEntity(nil)
		b, _ := s.Entities.Get(id)
		b.X, b.Y = setup.X, setup.Y
		b.Team = setup.Team
		b.AutoReservesTile = true

		s.AttachLiving(id, &entity.Living{Health: 100, MaxHealth: 100})
		if err := s.Entities.AttachPlayer(id, &entity.PlayerData{
			InputIndex: setup.InputIndex,
			Deck:       setup.Deck,
		}); err != nil {
			log.Printf("replay: attach player %+v: %v", setup, err)
		}
	}

	return s
}
