package steering

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Config controls how one agent weighs the flocking rules.
// It is copied into the Engine at construction and never changes afterwards.
type Config struct {
	MoveSpeed   float64 `json:"moveSpeed"`   // Cruise speed handed to the actuator
	InnerRadius float64 `json:"innerRadius"` // Separation below, cohesion above

	SeparationWeight  float64 `json:"separationWeight"`
	AlignWeight       float64 `json:"alignWeight"`
	CohesionWeight    float64 `json:"cohesionWeight"`
	DestinationWeight float64 `json:"destinationWeight"` // Forward or destination bias, 0 disables it

	// Destination switches the agent from cruising forward to heading for a fixed point.
	Destination           *mgl64.Vec3 `json:"destination,omitempty"`
	NearDestinationRadius float64     `json:"nearDestinationRadius"` // Inside it alignment is dropped
}

// DefaultConfig returns the tuning the flock was calibrated with.
func DefaultConfig() Config {
	return Config{
		MoveSpeed:             3.1,
		InnerRadius:           6.6,
		SeparationWeight:      1.2,
		AlignWeight:           3.3,
		CohesionWeight:        0.6,
		DestinationWeight:     0.2,
		NearDestinationRadius: 10,
	}
}

// WithDestination returns a copy of c heading for dest.
func (c Config) WithDestination(dest mgl64.Vec3) Config {
	c.Destination = &dest
	return c
}

// HasDestination reports whether the agent steers toward a fixed point.
func (c Config) HasDestination() bool {
	return c.Destination != nil
}

// Validate rejects negative or non finite parameters.
func (c Config) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"moveSpeed", c.MoveSpeed},
		{"innerRadius", c.InnerRadius},
		{"separationWeight", c.SeparationWeight},
		{"alignWeight", c.AlignWeight},
		{"cohesionWeight", c.CohesionWeight},
		{"destinationWeight", c.DestinationWeight},
		{"nearDestinationRadius", c.NearDestinationRadius},
	}
	var errs []error
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			errs = append(errs, fmt.Errorf("%s must be finite, got %v", f.name, f.value))
			continue
		}
		if f.value < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %v", f.name, f.value))
		}
	}
	if c.Destination != nil {
		for _, v := range c.Destination {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				errs = append(errs, fmt.Errorf("destination must be finite, got %v", *c.Destination))
				break
			}
		}
	}
	return errors.Join(errs...)
}
