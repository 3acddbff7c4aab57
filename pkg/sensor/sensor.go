// Package sensor plays the role of each agent's trigger volume: at the sync
// point between ticks it finds what lies inside every agent's sensing radius
// and reports the differences as enter/exit events.
package sensor

import (
	"fmt"
	"math"
	"sort"

	"github.com/dhconnelly/rtreego"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/lao-tseu-is-alive/go-flocking/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-flocking/pkg/neighbor"
	"github.com/lao-tseu-is-alive/go-flocking/pkg/obstacle"
)

// R-tree branching factors. Scenes hold at most a few thousand bodies.
const (
	minChildren = 25
	maxChildren = 50

	// minExtent keeps degenerate (point or flat) bounds valid for the tree.
	minExtent = 1e-3
)

// Listener receives the membership changes of one observer.
// *neighbor.Set implements it.
type Listener interface {
	OnEnter(e neighbor.Entity)
	OnExit(e neighbor.Entity)
}

type item struct {
	entity neighbor.Entity
	agent  neighbor.Agent
	shape  obstacle.Shape
	rect   rtreego.Rect
}

func (i *item) Bounds() rtreego.Rect { return i.rect }

// Sensor indexes agents and obstacles and remembers, per observer, what was
// in range at the previous sync point.
// It is not safe for concurrent use; the tick loop owns it.
type Sensor struct {
	tree        *rtreego.Rtree
	memberships map[string]map[string]neighbor.Entity
}

func New() *Sensor {
	return &Sensor{
		tree:        rtreego.NewTree(3, minChildren, maxChildren),
		memberships: make(map[string]map[string]neighbor.Entity),
	}
}

// Rebuild replaces the index with the current positions.
// Agents are indexed at their center, obstacles by their bounds.
func (s *Sensor) Rebuild(agents []neighbor.Agent, obstacles []*obstacle.Obstacle) error {
	spatials := make([]rtreego.Spatial, 0, len(agents)+len(obstacles))
	for _, a := range agents {
		p := a.Position()
		rect, err := boxRect(p, p)
		if err != nil {
			return fmt.Errorf("index agent %s: %w", a.EntityID(), err)
		}
		spatials = append(spatials, &item{entity: a, agent: a, rect: rect})
	}
	for _, o := range obstacles {
		if o.Shape == nil {
			continue
		}
		min, max := o.Shape.Bounds()
		rect, err := boxRect(min, max)
		if err != nil {
			return fmt.Errorf("index obstacle %s: %w", o.ID, err)
		}
		spatials = append(spatials, &item{entity: o, shape: o.Shape, rect: rect})
	}
	s.tree = rtreego.NewTree(3, minChildren, maxChildren, spatials...)
	return nil
}

// Size is the number of indexed entities.
func (s *Sensor) Size() int {
	return s.tree.Size()
}

// InRange returns the entities within radius of center, excluding selfID.
// Agents count by their center, obstacles by their closest surface point.
func (s *Sensor) InRange(selfID string, center mgl64.Vec3, radius float64) (map[string]neighbor.Entity, error) {
	found := make(map[string]neighbor.Entity)
	if radius <= 0 || math.IsNaN(radius) {
		return found, nil
	}
	r := mgl64.Vec3{radius, radius, radius}
	query, err := boxRect(center.Sub(r), center.Add(r))
	if err != nil {
		return nil, err
	}
	radiusSq := radius * radius
	for _, sp := range s.tree.SearchIntersect(query) {
		it := sp.(*item)
		id := it.entity.EntityID()
		if id == selfID {
			continue
		}
		var target mgl64.Vec3
		if it.agent != nil {
			target = it.agent.Position()
		} else {
			target = it.shape.ClosestPoint(center)
		}
		if geometry.DistanceSquaredTo(center, target) <= radiusSq {
			found[id] = it.entity
		}
	}
	return found, nil
}

// Sense diffs the observer's current surroundings against the previous sync
// point and notifies the listener: exits first, then entries, each in id order.
func (s *Sensor) Sense(observer neighbor.Agent, radius float64, l Listener) error {
	id := observer.EntityID()
	current, err := s.InRange(id, observer.Position(), radius)
	if err != nil {
		return fmt.Errorf("sense around %s: %w", id, err)
	}
	previous := s.memberships[id]

	for _, key := range sortedMissing(previous, current) {
		l.OnExit(previous[key])
	}
	for _, key := range sortedMissing(current, previous) {
		l.OnEnter(current[key])
	}
	s.memberships[id] = current
	return nil
}

// Forget drops everything remembered about an observer.
func (s *Sensor) Forget(observerID string) {
	delete(s.memberships, observerID)
}

// Drop removes id from what every observer remembers, so an entity that
// comes back under the same id is reported as entering again.
func (s *Sensor) Drop(id string) {
	for _, seen := range s.memberships {
		delete(seen, id)
	}
}

// sortedMissing lists the keys of a that are absent from b.
func sortedMissing(a, b map[string]neighbor.Entity) []string {
	var keys []string
	for k := range a {
		if _, ok := b[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func boxRect(min, max mgl64.Vec3) (rtreego.Rect, error) {
	lengths := make([]float64, 3)
	origin := make(rtreego.Point, 3)
	for i := 0; i < 3; i++ {
		l := max[i] - min[i]
		o := min[i]
		if l < minExtent {
			o -= minExtent / 2
			l = minExtent
		}
		origin[i] = o
		lengths[i] = l
	}
	return rtreego.NewRect(origin, lengths)
}
