// Package actors runs the read phase of a tick on goakt: every individual
// is backed by an actor that is asked for its heading once per tick.
package actors

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lao-tseu-is-alive/go-flocking/pkg/simulation"
	"github.com/tochemey/goakt/v3/actor"
	golog "github.com/tochemey/goakt/v3/log"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ErrClosed is returned by Dispatch once the actor system is stopped.
var ErrClosed = errors.New("actor dispatcher closed")

const defaultAskTimeout = 5 * time.Second

type member struct {
	pid   *actor.PID
	agent *agent
}

// Dispatcher is a simulation.Dispatcher that keeps one actor per individual.
// Actors are spawned and killed as individuals come and go between ticks.
type Dispatcher struct {
	system  actor.ActorSystem
	workers int
	timeout time.Duration
	logger  *zap.Logger

	mu      sync.Mutex
	members map[string]*member
	closed  bool
}

var _ simulation.Dispatcher = (*Dispatcher)(nil)

// Option customizes a Dispatcher.
type Option func(*Dispatcher)

// WithAskTimeout bounds how long one actor may take to answer a tick.
func WithAskTimeout(d time.Duration) Option {
	return func(x *Dispatcher) {
		if d > 0 {
			x.timeout = d
		}
	}
}

// New starts an actor system. workers bounds how many asks are in flight
// at once and logger may be nil.
func New(ctx context.Context, workers int, logger *zap.Logger, opts ...Option) (*Dispatcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	system, err := actor.NewActorSystem("flock",
		actor.WithLogger(golog.DiscardLogger),
		actor.WithActorInitMaxRetries(3))
	if err != nil {
		return nil, fmt.Errorf("create actor system: %w", err)
	}
	if err := system.Start(ctx); err != nil {
		return nil, fmt.Errorf("start actor system: %w", err)
	}
	d := &Dispatcher{
		system:  system,
		workers: max(workers, 1),
		timeout: defaultAskTimeout,
		logger:  logger,
		members: make(map[string]*member),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Len is the number of live agent actors.
func (d *Dispatcher) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.members)
}

// Dispatch sends the tick number to every individual's actor and waits for
// all the headings.
func (d *Dispatcher) Dispatch(ctx context.Context, tick uint64, thinkers []simulation.Thinker) ([]mgl64.Vec3, error) {
	pids, err := d.reconcile(ctx, thinkers)
	if err != nil {
		return nil, err
	}

	headings := make([]mgl64.Vec3, len(pids))
	msg := wrapperspb.UInt64(tick)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)
	for i, pid := range pids {
		g.Go(func() error {
			reply, err := actor.Ask(gctx, pid, msg, d.timeout)
			if err != nil {
				return fmt.Errorf("ask %s: %w", pid.Name(), err)
			}
			list, ok := reply.(*structpb.ListValue)
			if !ok {
				return fmt.Errorf("ask %s: unexpected reply %T", pid.Name(), reply)
			}
			h, ok := headingFromProto(list)
			if !ok {
				return fmt.Errorf("ask %s: malformed heading", pid.Name())
			}
			headings[i] = h
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return headings, nil
}

// reconcile makes the actor set match thinkers and returns their pids in
// the same order.
func (d *Dispatcher) reconcile(ctx context.Context, thinkers []simulation.Thinker) ([]*actor.PID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrClosed
	}

	pids := make([]*actor.PID, len(thinkers))
	live := make(map[string]struct{}, len(thinkers))
	for i, t := range thinkers {
		id := t.EntityID()
		live[id] = struct{}{}
		if m, ok := d.members[id]; ok {
			m.agent.bind(t)
			pids[i] = m.pid
			continue
		}
		a := newAgent(t, d.logger)
		pid, err := d.system.Spawn(ctx, id, a)
		if err != nil {
			return nil, fmt.Errorf("spawn actor %s: %w", id, err)
		}
		d.members[id] = &member{pid: pid, agent: a}
		pids[i] = pid
	}

	var gone []string
	for id := range d.members {
		if _, ok := live[id]; !ok {
			gone = append(gone, id)
		}
	}
	sort.Strings(gone)
	for _, id := range gone {
		if err := d.system.Kill(ctx, id); err != nil {
			return nil, fmt.Errorf("kill actor %s: %w", id, err)
		}
		delete(d.members, id)
	}
	if len(gone) > 0 {
		d.logger.Debug("agent actors retired", zap.Strings("ids", gone))
	}
	return pids, nil
}

// Close stops the actor system and every agent actor with it.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	d.members = nil
	return d.system.Stop(ctx)
}
