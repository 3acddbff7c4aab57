package simulation

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/lao-tseu-is-alive/go-flocking/pkg/geometry"
	"go.uber.org/zap/zapcore"
)

// Stats summarizes the flock at the current tick.
type Stats struct {
	Tick      uint64
	Agents    int
	MeanSpeed float64
	MaxSpeed  float64
	Centroid  mgl64.Vec3
	// Polarization is the length of the mean unit velocity: 1 when every
	// moving agent flies the same way, near 0 for a disordered swarm.
	Polarization  float64
	MeanNeighbors float64
}

func (w *World) Stats() Stats {
	s := Stats{Tick: w.tick, Agents: len(w.ordered)}
	if s.Agents == 0 {
		return s
	}
	var (
		sumPos     mgl64.Vec3
		sumDir     mgl64.Vec3
		sumSpeed   float64
		moving     int
		neighbours int
	)
	for _, ind := range w.ordered {
		b := ind.State
		sumPos = sumPos.Add(b.Pos)
		speed := b.Speed()
		sumSpeed += speed
		if speed > s.MaxSpeed {
			s.MaxSpeed = speed
		}
		if speed > geometry.Epsilon {
			sumDir = sumDir.Add(b.Vel.Mul(1 / speed))
			moving++
		}
		neighbours += ind.Neighbors.AgentCount()
	}
	n := float64(s.Agents)
	s.Centroid = sumPos.Mul(1 / n)
	s.MeanSpeed = sumSpeed / n
	s.MeanNeighbors = float64(neighbours) / n
	if moving > 0 {
		s.Polarization = sumDir.Len() / float64(moving)
	}
	return s
}

// MarshalLogObject lets Stats be logged with zap.Object.
func (s Stats) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddUint64("tick", s.Tick)
	enc.AddInt("agents", s.Agents)
	enc.AddFloat64("mean_speed", s.MeanSpeed)
	enc.AddFloat64("max_speed", s.MaxSpeed)
	enc.AddString("centroid", geometry.String(s.Centroid))
	enc.AddFloat64("polarization", s.Polarization)
	enc.AddFloat64("mean_neighbors", s.MeanNeighbors)
	return nil
}
