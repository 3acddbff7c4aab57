package main

import (
	"strings"

	"github.com/lao-tseu-is-alive/go-flocking/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const envPrefix = "FLOCK"

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "flock",
		Short:         "Headless boids flocking simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// only the executing command binds, so sibling flags with the
			// same name never shadow each other
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			return v.BindPFlags(cmd.InheritedFlags())
		},
	}

	pf := root.PersistentFlags()
	pf.String("log-level", "info", "debug, info, warn or error")
	pf.String("log-format", "console", "console or json")
	pf.String("log-file", "", "also write JSON logs to this rotated file")
	pf.StringP("config", "c", "", "simulation config JSON file (defaults built in)")
	pf.String("scene", "", "GeoJSON obstacle scene")

	root.AddCommand(newRunCmd(v), newValidateCmd(v))
	return root
}

func newLogger(v *viper.Viper, cmd *cobra.Command) (*zap.Logger, error) {
	cfg := logging.DefaultConfig()
	cfg.Level = v.GetString("log-level")
	cfg.Format = v.GetString("log-format")
	cfg.File = v.GetString("log-file")
	return logging.New(cfg, zapcore.Lock(zapcore.AddSync(cmd.ErrOrStderr())))
}
