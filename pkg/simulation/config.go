package simulation

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"runtime"

	"github.com/lao-tseu-is-alive/go-flocking/pkg/steering"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed config.schema.json
var configSchema string

const configSchemaURL = "https://github.com/lao-tseu-is-alive/go-flocking/config.schema.json"

type Config struct {
	// World Dimensions (spawn area on the XZ plane, centered on the origin)
	WorldWidth  float64 `json:"worldWidth"`
	WorldDepth  float64 `json:"worldDepth"`
	SpawnHeight float64 `json:"spawnHeight"`

	// Population
	NumAgents    int     `json:"numAgents"`
	SpawnSpacing float64 `json:"spawnSpacing"`
	SpawnSeed    uint64  `json:"spawnSeed"`

	// Trigger volume radius around each agent
	SensingRadius float64 `json:"sensingRadius"`

	// Physics
	TickSeconds    float64 `json:"tickSeconds"`
	Mass           float64 `json:"mass"`
	Responsiveness float64 `json:"responsiveness"` // how fast velocity converges on the heading
	KeepLevel      bool    `json:"keepLevel"`      // face along the horizontal projection only

	// Size of the read-phase worker pool, 0 means one per CPU
	Workers int `json:"workers"`
	// Who runs the read phase: "pool" or "actors"
	Dispatch string `json:"dispatch"`

	Steering steering.Config `json:"steering"`
}

func DefaultConfig() *Config {
	return &Config{
		WorldWidth:     200,
		WorldDepth:     200,
		SpawnHeight:    5,
		NumAgents:      50,
		SpawnSpacing:   4,
		SpawnSeed:      1,
		SensingRadius:  15,
		TickSeconds:    0.02,
		Mass:           1,
		Responsiveness: 1,
		KeepLevel:      true,
		Workers:        0,
		Dispatch:       DispatchPool,
		Steering:       steering.DefaultConfig(),
	}
}

// Read-phase dispatch modes.
const (
	DispatchPool   = "pool"
	DispatchActors = "actors"
)

// LatticeExtent is the width of the square the spawn lattice covers,
// jitter included.
func (c *Config) LatticeExtent() float64 {
	if c.NumAgents == 0 {
		return 0
	}
	side := math.Ceil(math.Sqrt(float64(c.NumAgents)))
	return (side-1)*c.SpawnSpacing + c.SpawnSpacing/2
}

// EffectiveWorkers resolves the worker pool size.
func (c *Config) EffectiveWorkers() int {
	if c.Workers <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return c.Workers
}

// Validate checks the invariants the schema cannot express, plus the schema
// rules themselves for configs built in code.
func (c *Config) Validate() error {
	var errs []error
	positive := []struct {
		name  string
		value float64
	}{
		{"worldWidth", c.WorldWidth},
		{"worldDepth", c.WorldDepth},
		{"spawnSpacing", c.SpawnSpacing},
		{"sensingRadius", c.SensingRadius},
		{"tickSeconds", c.TickSeconds},
		{"mass", c.Mass},
		{"responsiveness", c.Responsiveness},
	}
	for _, p := range positive {
		if !(p.value > 0) || math.IsInf(p.value, 0) {
			errs = append(errs, fmt.Errorf("%s must be a positive number, got %v", p.name, p.value))
		}
	}
	if c.NumAgents < 0 {
		errs = append(errs, fmt.Errorf("numAgents must not be negative, got %d", c.NumAgents))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}
	switch c.Dispatch {
	case "", DispatchPool, DispatchActors:
	default:
		errs = append(errs, fmt.Errorf("dispatch must be %q or %q, got %q", DispatchPool, DispatchActors, c.Dispatch))
	}
	if extent := c.LatticeExtent(); extent > c.WorldWidth || extent > c.WorldDepth {
		errs = append(errs, fmt.Errorf("%d agents %v apart need a %.1f wide spawn area, world is %v x %v",
			c.NumAgents, c.SpawnSpacing, extent, c.WorldWidth, c.WorldDepth))
	}
	if err := c.Steering.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("steering: %w", err))
	}
	return errors.Join(errs...)
}

// ParseConfig validates raw JSON against the embedded schema and decodes it
// on top of DefaultConfig, so omitted fields keep their defaults.
func ParseConfig(b []byte) (*Config, error) {
	sch, err := jsonschema.CompileString(configSchemaURL, configSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return parseWithSchema(sch, b)
}

// LoadConfig loads configuration from a JSON file and validates it against the schema.
func LoadConfig(configFile string) (*Config, error) {
	b, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseConfig(b)
}

// LoadConfigWithSchema is LoadConfig with an external schema file.
func LoadConfigWithSchema(configFile string, schemaFile string) (*Config, error) {
	sch, err := jsonschema.Compile(schemaFile)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	b, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return parseWithSchema(sch, b)
}

func parseWithSchema(sch *jsonschema.Schema, b []byte) (*Config, error) {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("failed to decode config json: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}
