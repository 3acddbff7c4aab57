package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/lao-tseu-is-alive/go-flocking/pkg/actors"
	"github.com/lao-tseu-is-alive/go-flocking/pkg/obstacle"
	"github.com/lao-tseu-is-alive/go-flocking/pkg/recording"
	"github.com/lao-tseu-is-alive/go-flocking/pkg/simulation"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func newRunCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Spawn a flock and step it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(v, cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			err = runSimulation(cmd.Context(), v, logger, cmd.OutOrStdout())
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("run failed", zap.Error(err))
			}
			return err
		},
	}
	f := cmd.Flags()
	f.Int("ticks", 500, "number of ticks, 0 runs until interrupted")
	f.String("record", "", "write every frame to this recording file")
	f.Int("workers", -1, "read phase workers, overrides the config when >= 0")
	f.Int("agents", -1, "population, overrides the config when >= 0")
	f.Uint64("seed", 0, "spawn seed, overrides the config when set")
	f.String("dispatch", "", "read phase runner, pool or actors, overrides the config when set")
	return cmd
}

func loadInputs(v *viper.Viper) (*simulation.Config, *obstacle.Registry, error) {
	cfg := simulation.DefaultConfig()
	if path := v.GetString("config"); path != "" {
		loaded, err := simulation.LoadConfig(path)
		if err != nil {
			return nil, nil, err
		}
		cfg = loaded
	}

	registry := obstacle.NewRegistry()
	if path := v.GetString("scene"); path != "" {
		obstacles, err := obstacle.LoadSceneFile(path)
		if err != nil {
			return nil, nil, err
		}
		if err := registry.AddAll(obstacles); err != nil {
			return nil, nil, fmt.Errorf("scene %s: %w", path, err)
		}
	}
	return cfg, registry, nil
}

func runSimulation(ctx context.Context, v *viper.Viper, logger *zap.Logger, out io.Writer) error {
	cfg, registry, err := loadInputs(v)
	if err != nil {
		return err
	}
	if n := v.GetInt("workers"); n >= 0 {
		cfg.Workers = n
	}
	if n := v.GetInt("agents"); n >= 0 {
		cfg.NumAgents = n
	}
	if v.IsSet("seed") {
		cfg.SpawnSeed = v.GetUint64("seed")
	}
	if mode := v.GetString("dispatch"); mode != "" {
		cfg.Dispatch = mode
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid world config: %w", err)
	}

	var opts []simulation.Option
	if cfg.Dispatch == simulation.DispatchActors {
		d, err := actors.New(ctx, cfg.EffectiveWorkers(), logger)
		if err != nil {
			return err
		}
		defer func() {
			// ctx may already be cancelled by the time we stop
			if err := d.Close(context.WithoutCancel(ctx)); err != nil {
				logger.Error("stop actor system", zap.Error(err))
			}
		}()
		opts = append(opts, simulation.WithDispatcher(d))
	}

	world, err := simulation.NewWorld(cfg, registry, logger, opts...)
	if err != nil {
		return err
	}
	if _, err := world.SpawnLattice(); err != nil {
		return err
	}

	var observe func(recording.Frame) error
	if path := v.GetString("record"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create recording: %w", err)
		}
		defer f.Close()
		rec := recording.NewWriter(f)
		defer func() {
			if err := rec.Flush(); err != nil {
				logger.Error("flush recording", zap.Error(err))
			}
			logger.Info("recording written", zap.String("path", path), zap.Int("frames", rec.Frames()))
		}()
		observe = rec.WriteFrame
	}

	ticks := v.GetInt("ticks")
	logger.Info("simulation starting",
		zap.Int("agents", cfg.NumAgents),
		zap.Int("obstacles", registry.Len()),
		zap.Int("ticks", ticks),
		zap.Int("workers", cfg.EffectiveWorkers()),
		zap.String("dispatch", cfg.Dispatch),
	)
	runErr := world.Run(ctx, ticks, observe)

	stats := world.Stats()
	logger.Info("simulation finished", zap.Object("stats", stats))
	fmt.Fprintf(out, "tick=%d agents=%d mean_speed=%.3f polarization=%.3f\n",
		stats.Tick, stats.Agents, stats.MeanSpeed, stats.Polarization)
	return runErr
}
