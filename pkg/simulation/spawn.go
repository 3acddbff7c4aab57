package simulation

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
)

// SpawnLattice fills the world with NumAgents agents on a jittered square
// lattice centered on the origin. Placement and initial facing only depend
// on SpawnSeed, so two worlds with the same config start identical.
// Config.Validate guarantees the lattice fits inside the world.
func (w *World) SpawnLattice() ([]*Individual, error) {
	cfg := w.cfg
	if cfg.NumAgents == 0 {
		return nil, nil
	}
	rng := rand.New(rand.NewPCG(cfg.SpawnSeed, cfg.SpawnSeed+1))

	var (
		side   = int(math.Ceil(math.Sqrt(float64(cfg.NumAgents))))
		half   = float64(side-1) * cfg.SpawnSpacing / 2
		jitter = cfg.SpawnSpacing / 4
	)
	spawned := make([]*Individual, 0, cfg.NumAgents)
	for i := 0; i < cfg.NumAgents; i++ {
		row, col := i/side, i%side
		x := float64(col)*cfg.SpawnSpacing - half + (rng.Float64()*2-1)*jitter
		z := float64(row)*cfg.SpawnSpacing - half + (rng.Float64()*2-1)*jitter

		angle := rng.Float64() * 2 * math.Pi
		forward := mgl64.Vec3{math.Sin(angle), 0, math.Cos(angle)}

		name := fmt.Sprintf("boid-%03d", i)
		ind, err := w.Spawn(name, mgl64.Vec3{x, cfg.SpawnHeight, z}, forward)
		if err != nil {
			return spawned, err
		}
		spawned = append(spawned, ind)
	}
	w.logger.Info("flock spawned", zap.Int("agents", len(spawned)), zap.Uint64("seed", cfg.SpawnSeed))
	return spawned, nil
}
