package obstacle

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// DefaultHeight is the extrusion used when a footprint carries no maxY.
const DefaultHeight = 10.0

var (
	ErrUnsupportedGeometry = errors.New("unsupported scene geometry")
	ErrInvalidProperty     = errors.New("invalid scene property")
)

// LoadSceneFile reads a GeoJSON FeatureCollection describing the obstacles.
func LoadSceneFile(path string) ([]*Obstacle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open scene file: %w", err)
	}
	defer f.Close()
	return LoadScene(f)
}

// LoadScene decodes a GeoJSON FeatureCollection. Ground coordinates are
// [x, z]; heights come from the feature properties:
//
//	Point   + radius [+ y]                      -> Sphere centered at (x, y, z)
//	Polygon + shape: "box" [+ minY, maxY]       -> Box over the polygon bound
//	Polygon [+ minY, maxY]                      -> Prism
//
// The feature id (or an "id" property) becomes the obstacle handle; features
// without one get a random UUID.
func LoadScene(r io.Reader) ([]*Obstacle, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene: %w", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode scene geojson: %w", err)
	}

	out := make([]*Obstacle, 0, len(fc.Features))
	seen := make(map[string]bool, len(fc.Features))
	for i, f := range fc.Features {
		o, err := featureToObstacle(f)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		if seen[o.ID] {
			return nil, fmt.Errorf("feature %d: %w: %s", i, ErrDuplicateObstacle, o.ID)
		}
		seen[o.ID] = true
		out = append(out, o)
	}
	return out, nil
}

func featureToObstacle(f *geojson.Feature) (*Obstacle, error) {
	if f.Geometry == nil {
		return nil, fmt.Errorf("%w: missing geometry", ErrUnsupportedGeometry)
	}
	id := featureID(f)

	switch g := f.Geometry.(type) {
	case orb.Point:
		radius, err := floatProperty(f.Properties, "radius", 0)
		if err != nil {
			return nil, err
		}
		if radius <= 0 {
			return nil, fmt.Errorf("%w: radius must be positive, got %v", ErrInvalidProperty, radius)
		}
		y, err := floatProperty(f.Properties, "y", 0)
		if err != nil {
			return nil, err
		}
		return &Obstacle{ID: id, Shape: Sphere{Center: mgl64.Vec3{g.X(), y, g.Y()}, Radius: radius}}, nil

	case orb.Polygon:
		if len(g) == 0 || len(g[0]) < 3 {
			return nil, fmt.Errorf("%w: polygon needs at least 3 points", ErrUnsupportedGeometry)
		}
		minY, err := floatProperty(f.Properties, "minY", 0)
		if err != nil {
			return nil, err
		}
		maxY, err := floatProperty(f.Properties, "maxY", minY+DefaultHeight)
		if err != nil {
			return nil, err
		}
		if maxY <= minY {
			return nil, fmt.Errorf("%w: maxY (%v) must exceed minY (%v)", ErrInvalidProperty, maxY, minY)
		}
		if f.Properties.MustString("shape", "") == "box" {
			return &Obstacle{ID: id, Shape: NewBoxFromBound(g.Bound(), minY, maxY)}, nil
		}
		return &Obstacle{ID: id, Shape: Prism{Footprint: g, MinY: minY, MaxY: maxY}}, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedGeometry, f.Geometry.GeoJSONType())
	}
}

func featureID(f *geojson.Feature) string {
	if f.ID != nil {
		if s := fmt.Sprint(f.ID); s != "" {
			return s
		}
	}
	if s := f.Properties.MustString("id", ""); s != "" {
		return s
	}
	return uuid.NewString()
}

// floatProperty reads a numeric property, falling back to def when absent.
func floatProperty(p geojson.Properties, key string, def float64) (float64, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return def, nil
	}
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("%w: %s must be a number, got %T", ErrInvalidProperty, key, v)
	}
	return f, nil
}
