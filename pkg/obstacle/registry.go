package obstacle

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lao-tseu-is-alive/go-flocking/pkg/neighbor"
)

var (
	ErrDuplicateObstacle = errors.New("obstacle already registered")
	ErrEmptyID           = errors.New("obstacle id is empty")
)

// Obstacle is a sensed entity without agent identity.
type Obstacle struct {
	ID    string
	Shape Shape
}

// EntityID implements neighbor.Entity.
func (o *Obstacle) EntityID() string { return o.ID }

// Registry resolves obstacle handles to shapes.
// It is safe for concurrent readers, so the steering read phase can query it
// from several goroutines.
type Registry struct {
	mu        sync.RWMutex
	obstacles map[string]*Obstacle
}

func NewRegistry() *Registry {
	return &Registry{obstacles: make(map[string]*Obstacle)}
}

// Add registers a shape under id.
func (r *Registry) Add(id string, shape Shape) (*Obstacle, error) {
	if id == "" {
		return nil, ErrEmptyID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.obstacles[id]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateObstacle, id)
	}
	o := &Obstacle{ID: id, Shape: shape}
	r.obstacles[id] = o
	return o, nil
}

// AddAll registers already built obstacles, stopping at the first conflict.
func (r *Registry) AddAll(list []*Obstacle) error {
	for _, o := range list {
		if _, err := r.Add(o.ID, o.Shape); err != nil {
			return err
		}
	}
	return nil
}

// Remove forgets id. Unknown ids are ignored.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.obstacles, id)
	r.mu.Unlock()
}

// Get looks up an obstacle by id.
func (r *Registry) Get(id string) (*Obstacle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.obstacles[id]
	return o, ok
}

// All returns every obstacle sorted by id.
func (r *Registry) All() []*Obstacle {
	r.mu.RLock()
	out := make([]*Obstacle, 0, len(r.obstacles))
	for _, o := range r.obstacles {
		out = append(out, o)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len is the number of registered obstacles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.obstacles)
}

// ClosestSurfacePoint implements steering.SurfaceQuery.
func (r *Registry) ClosestSurfacePoint(handle neighbor.Entity, query mgl64.Vec3) (mgl64.Vec3, bool) {
	o, ok := r.Get(handle.EntityID())
	if !ok || o.Shape == nil {
		return mgl64.Vec3{}, false
	}
	return o.Shape.ClosestPoint(query), true
}
