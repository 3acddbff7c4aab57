package simulation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lao-tseu-is-alive/go-flocking/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-flocking/pkg/neighbor"
	"github.com/lao-tseu-is-alive/go-flocking/pkg/obstacle"
	"github.com/lao-tseu-is-alive/go-flocking/pkg/recording"
	"github.com/lao-tseu-is-alive/go-flocking/pkg/sensor"
	"github.com/lao-tseu-is-alive/go-flocking/pkg/steering"
	"go.uber.org/zap"
)

var (
	// ErrUnknownAgent is returned when an agent id is not in the world.
	ErrUnknownAgent = errors.New("unknown agent")
	// ErrDuplicateAgent is returned when spawning an id that is already taken.
	ErrDuplicateAgent = errors.New("agent already exists")
	// ErrUnknownObstacle is returned when removing an obstacle that is not registered.
	ErrUnknownObstacle = errors.New("unknown obstacle")
)

// Option customizes a World.
type Option func(*World)

// WithDispatcher replaces the goroutine pool that runs the read phase.
func WithDispatcher(d Dispatcher) Option {
	return func(w *World) {
		if d != nil {
			w.dispatcher = d
		}
	}
}

// World owns every individual and drives the two-phase tick:
// headings are computed in parallel from committed state, then applied in
// order, then the sensor refreshes every neighbor set.
type World struct {
	cfg        *Config
	engine     *steering.Engine
	obstacles  *obstacle.Registry
	sensor     *sensor.Sensor
	dispatcher Dispatcher
	logger     *zap.Logger

	individuals map[string]*Individual
	ordered     []*Individual // sorted by id, rebuilt on spawn/remove
	dirty       bool          // population changed since the last sync point
	tick        uint64

	// --- Benchmark Stats ---
	ticksSinceLog int
	lastLogTime   time.Time
}

// NewWorld creates an empty world. obstacles may be nil for open space and
// logger may be nil to discard logs.
func NewWorld(cfg *Config, obstacles *obstacle.Registry, logger *zap.Logger, opts ...Option) (*World, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid world config: %w", err)
	}
	if obstacles == nil {
		obstacles = obstacle.NewRegistry()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	engine, err := steering.NewEngine(cfg.Steering, obstacles)
	if err != nil {
		return nil, err
	}
	w := &World{
		cfg:         cfg,
		engine:      engine,
		obstacles:   obstacles,
		sensor:      sensor.New(),
		dispatcher:  PoolDispatcher{Workers: cfg.EffectiveWorkers()},
		logger:      logger,
		individuals: make(map[string]*Individual),
		lastLogTime: time.Now(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Config is the configuration the world was built with.
func (w *World) Config() *Config { return w.cfg }

// Tick is the number of completed steps.
func (w *World) Tick() uint64 { return w.tick }

// Obstacles is the registry the world senses and steers around.
func (w *World) Obstacles() *obstacle.Registry { return w.obstacles }

// Spawn adds an agent using the world steering configuration.
func (w *World) Spawn(id string, pos, forward mgl64.Vec3) (*Individual, error) {
	return w.spawn(id, pos, forward, w.engine)
}

// SpawnWithSteering adds an agent with its own steering configuration,
// e.g. a different destination.
func (w *World) SpawnWithSteering(id string, pos, forward mgl64.Vec3, cfg steering.Config) (*Individual, error) {
	engine, err := steering.NewEngine(cfg, w.obstacles)
	if err != nil {
		return nil, fmt.Errorf("spawn %s: %w", id, err)
	}
	return w.spawn(id, pos, forward, engine)
}

func (w *World) spawn(id string, pos, forward mgl64.Vec3, engine *steering.Engine) (*Individual, error) {
	if id == "" {
		return nil, fmt.Errorf("spawn: empty agent id")
	}
	if _, exists := w.individuals[id]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateAgent, id)
	}
	if _, clash := w.obstacles.Get(id); clash {
		return nil, fmt.Errorf("%w: %s is an obstacle id", ErrDuplicateAgent, id)
	}
	if !geometry.IsFinite(pos) || !geometry.IsFinite(forward) {
		return nil, fmt.Errorf("spawn %s: position and forward must be finite", id)
	}
	ind := newIndividual(newBody(id, pos, forward, w.cfg), engine)
	w.individuals[id] = ind
	w.reorder()
	w.logger.Debug("agent spawned", zap.String("id", id), zap.String("pos", geometry.String(pos)))
	return ind, nil
}

// Remove deletes an agent. Every neighbor set that held it gets an exit event.
func (w *World) Remove(id string) error {
	ind, ok := w.individuals[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAgent, id)
	}
	delete(w.individuals, id)
	w.reorder()
	w.sensor.Forget(id)
	w.sensor.Drop(id)
	ind.Neighbors.Clear()
	for _, other := range w.ordered {
		other.Neighbors.OnExit(ind.State)
	}
	w.logger.Debug("agent removed", zap.String("id", id))
	return nil
}

// AddObstacle registers a shape; agents notice it at the next sync point.
func (w *World) AddObstacle(id string, shape obstacle.Shape) (*obstacle.Obstacle, error) {
	if _, clash := w.individuals[id]; clash {
		return nil, fmt.Errorf("%w: %s is an agent id", obstacle.ErrDuplicateObstacle, id)
	}
	o, err := w.obstacles.Add(id, shape)
	if err != nil {
		return nil, err
	}
	w.dirty = true
	return o, nil
}

// RemoveObstacle unregisters an obstacle and drops it from every neighbor set.
func (w *World) RemoveObstacle(id string) error {
	if _, ok := w.obstacles.Get(id); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownObstacle, id)
	}
	w.obstacles.Remove(id)
	w.sensor.Drop(id)
	for _, ind := range w.ordered {
		ind.Neighbors.Remove(id)
	}
	w.dirty = true
	return nil
}

// Individual looks up an agent by id.
func (w *World) Individual(id string) (*Individual, bool) {
	ind, ok := w.individuals[id]
	return ind, ok
}

// Agents lists the individuals sorted by id.
func (w *World) Agents() []*Individual {
	out := make([]*Individual, len(w.ordered))
	copy(out, w.ordered)
	return out
}

func (w *World) reorder() {
	w.ordered = w.ordered[:0]
	for _, ind := range w.individuals {
		w.ordered = append(w.ordered, ind)
	}
	sort.Slice(w.ordered, func(a, b int) bool { return w.ordered[a].ID < w.ordered[b].ID })
	w.dirty = true
}

// Step advances the world by one tick.
func (w *World) Step(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if w.dirty {
		if err := w.sync(); err != nil {
			return err
		}
	}

	// 1. Read phase: every heading from last tick's committed state.
	thinkers := make([]Thinker, len(w.ordered))
	for i, ind := range w.ordered {
		thinkers[i] = ind
	}
	headings, err := w.dispatcher.Dispatch(ctx, w.tick, thinkers)
	if err != nil {
		return fmt.Errorf("read phase of tick %d: %w", w.tick, err)
	}
	if len(headings) != len(thinkers) {
		return fmt.Errorf("read phase of tick %d: got %d headings for %d agents", w.tick, len(headings), len(thinkers))
	}

	// 2. Apply phase: each actuator only touches its own body.
	for i, ind := range w.ordered {
		ind.act(headings[i])
	}
	for _, ind := range w.ordered {
		ind.State.UpdatePhysics()
	}

	// 3. Sync point: neighbor sets catch up with the new positions.
	if err := w.sync(); err != nil {
		return err
	}
	w.tick++
	w.ticksSinceLog++
	w.logBenchmarks()
	return nil
}

// Run steps the world ticks times, or until ctx is done when ticks <= 0.
// observe, when not nil, receives a snapshot after every tick.
func (w *World) Run(ctx context.Context, ticks int, observe func(recording.Frame) error) error {
	for n := 0; ticks <= 0 || n < ticks; n++ {
		if err := w.Step(ctx); err != nil {
			return err
		}
		if observe != nil {
			if err := observe(w.Snapshot()); err != nil {
				return fmt.Errorf("observe tick %d: %w", w.tick, err)
			}
		}
	}
	return nil
}

// sync rebuilds the spatial index and delivers sensor events.
func (w *World) sync() error {
	agents := make([]neighbor.Agent, len(w.ordered))
	for i, ind := range w.ordered {
		agents[i] = ind.State
	}
	if err := w.sensor.Rebuild(agents, w.obstacles.All()); err != nil {
		return fmt.Errorf("sync tick %d: %w", w.tick, err)
	}
	for _, ind := range w.ordered {
		if err := w.sensor.Sense(ind.State, w.cfg.SensingRadius, ind.Neighbors); err != nil {
			return fmt.Errorf("sync tick %d: %w", w.tick, err)
		}
	}
	w.dirty = false
	return nil
}

// Snapshot captures the committed state of every agent, sorted by id.
func (w *World) Snapshot() recording.Frame {
	frame := recording.Frame{
		Tick:   w.tick,
		Agents: make([]recording.AgentState, 0, len(w.ordered)),
	}
	for _, ind := range w.ordered {
		frame.Agents = append(frame.Agents, recording.AgentState{
			ID:       ind.ID,
			Position: ind.State.Pos,
			Velocity: ind.State.Vel,
			Heading:  ind.heading,
		})
	}
	return frame
}

func (w *World) logBenchmarks() {
	if elapsed := time.Since(w.lastLogTime); elapsed >= time.Second {
		w.logger.Info("tick rate",
			zap.Float64("ticks_per_sec", float64(w.ticksSinceLog)/elapsed.Seconds()),
			zap.Uint64("tick", w.tick),
			zap.Int("agents", len(w.ordered)),
		)
		w.ticksSinceLog = 0
		w.lastLogTime = time.Now()
		w.logSteering()
	}
}

// logSteering dumps every agent's rule outputs at debug level.
func (w *World) logSteering() {
	if !w.logger.Core().Enabled(zap.DebugLevel) {
		return
	}
	for _, ind := range w.ordered {
		c := ind.components()
		w.logger.Debug("steering",
			zap.String("id", ind.ID),
			zap.String("separation", geometry.String(c.Separation)),
			zap.String("alignment", geometry.String(c.Alignment)),
			zap.String("cohesion", geometry.String(c.Cohesion)),
			zap.String("heading", geometry.String(ind.heading)),
			zap.Int("neighbors", ind.Neighbors.Len()),
		)
	}
}
