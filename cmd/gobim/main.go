package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/philipparndt/gobim/internal/config"
	"github.com/philipparndt/gobim/internal/ingest"
	"github.com/philipparndt/gobim/internal/metrics"
	"github.com/philipparndt/gobim/internal/session"
	"github.com/philipparndt/gobim/pkg/geometry"
	"github.com/philipparndt/gobim/version"
)

var (
	configPath string
	verbose    bool
	logger     *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "gobim",
	Short: "Inspect, align and capture building models",
	Long: `gobim loads building models described by a YAML manifest of elements,
categories and storeys, batches them by color for drawing, aligns them to a
reference plane and captures equirectangular panoramas from inside.`,
	Version:          version.GetFullVersion(),
	SilenceUsage:     true,
	SilenceErrors:    true,
	PersistentPreRun: setupLogging,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default "+config.DefaultPath+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output")
}

func setupLogging(cmd *cobra.Command, args []string) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// openSession loads the config and the model at path into a new session.
// configure, if not nil, adjusts the loaded config first.
func openSession(ctx context.Context, path string, configure func(*config.Config)) (*session.Session, *metrics.Metrics, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	if configure != nil {
		configure(&cfg)
		if err := cfg.Validate(); err != nil {
			return nil, nil, err
		}
	}
	log := logger
	if log == nil {
		log = slog.Default()
	}

	loader := &ingest.Loader{Logger: log}
	model, err := loader.Load(ctx, path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load model: %w", err)
	}

	m := metrics.New()
	s := session.New(session.Options{Config: cfg, Logger: log, Metrics: m})
	if _, err := s.Load(model); err != nil {
		return nil, nil, err
	}
	return s, m, nil
}

// parseVector parses "x,y,z"
func parseVector(s string) (geometry.Vector3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return geometry.Vector3{}, fmt.Errorf("invalid point %q: want x,y,z", s)
	}
	var v [3]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return geometry.Vector3{}, fmt.Errorf("invalid point %q: %w", s, err)
		}
		v[i] = f
	}
	return geometry.NewVector3(v[0], v[1], v[2]), nil
}
