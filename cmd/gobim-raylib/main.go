package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/philipparndt/gobim/internal/app"
	"github.com/philipparndt/gobim/internal/config"
	"github.com/philipparndt/gobim/version"
)

var (
	configPath string
	outputDir  string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:     "gobim-raylib <manifest>",
	Short:   "Building model viewer",
	Long:    `gobim-raylib draws a building model on the GPU with one draw call per color batch, and supports alignment and panorama capture by clicking into the model.`,
	Version: version.GetFullVersion(),
	Args:    cobra.ExactArgs(1),
	RunE:    run,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file (default "+config.DefaultPath+")")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", ".", "Directory for captured panoramas")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output")
}

func run(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	return app.Run(args[0], app.Options{Config: cfg, Logger: log, OutputDir: outputDir})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
