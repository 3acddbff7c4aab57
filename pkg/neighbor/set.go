// Package neighbor keeps, for one agent, the entities currently inside its
// sensing range, split into other agents and obstacles.
package neighbor

import (
	"slices"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// Entity is anything the spatial sensor can report.
// The ID must be stable for the entity's lifetime and unique in the world.
type Entity interface {
	EntityID() string
}

// Agent is an Entity exposing agent identity: its position and current velocity.
type Agent interface {
	Entity
	Position() mgl64.Vec3
	Velocity() mgl64.Vec3
}

// Set is the agent-local membership mapping.
// It is owned by a single agent and must only be mutated between ticks.
type Set struct {
	agents    map[string]Agent
	obstacles map[string]Entity
}

// NewSet returns an empty neighbor set.
func NewSet() *Set {
	return &Set{
		agents:    make(map[string]Agent),
		obstacles: make(map[string]Entity),
	}
}

// OnEnter records an entity that came into range.
// Agents go to the agent set, everything else to the obstacle set.
// Entering twice is a no-op.
func (s *Set) OnEnter(e Entity) {
	if e == nil {
		return
	}
	id := e.EntityID()
	if a, ok := e.(Agent); ok {
		if _, known := s.agents[id]; known {
			return
		}
		// an entity lives in at most one of the two sets
		delete(s.obstacles, id)
		s.agents[id] = a
		return
	}
	if _, known := s.obstacles[id]; known {
		return
	}
	delete(s.agents, id)
	s.obstacles[id] = e
}

// OnExit removes the entity from whichever set holds it. Unknown entities are ignored.
func (s *Set) OnExit(e Entity) {
	if e == nil {
		return
	}
	s.Remove(e.EntityID())
}

// Remove drops an entity by id.
func (s *Set) Remove(id string) {
	delete(s.agents, id)
	delete(s.obstacles, id)
}

// AgentNeighbors returns the current agent neighbors sorted by id, so that
// floating point sums over them do not depend on map order.
// The slice is a fresh copy.
func (s *Set) AgentNeighbors() []Agent {
	out := make([]Agent, 0, len(s.agents))
	for _, a := range s.agents {
		out = append(out, a)
	}
	slices.SortFunc(out, byID[Agent])
	return out
}

// Obstacles returns the current obstacle handles sorted by id.
// The slice is a fresh copy.
func (s *Set) Obstacles() []Entity {
	out := make([]Entity, 0, len(s.obstacles))
	for _, o := range s.obstacles {
		out = append(out, o)
	}
	slices.SortFunc(out, byID[Entity])
	return out
}

// Contains reports whether id is in either set.
func (s *Set) Contains(id string) bool {
	if _, ok := s.agents[id]; ok {
		return true
	}
	_, ok := s.obstacles[id]
	return ok
}

// Len is the total membership of both sets.
func (s *Set) Len() int {
	return len(s.agents) + len(s.obstacles)
}

// AgentCount is the number of agent neighbors.
func (s *Set) AgentCount() int { return len(s.agents) }

// ObstacleCount is the number of sensed obstacles.
func (s *Set) ObstacleCount() int { return len(s.obstacles) }

// Empty reports whether nothing is in range.
func (s *Set) Empty() bool {
	return s.Len() == 0
}

// Clear forgets every entity.
func (s *Set) Clear() {
	clear(s.agents)
	clear(s.obstacles)
}

func byID[T Entity](a, b T) int {
	return strings.Compare(a.EntityID(), b.EntityID())
}
