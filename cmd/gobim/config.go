package main

import (
	"fmt"
	"os"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/philipparndt/gobim/internal/config"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or create the settings file",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default settings",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigInit,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configInitCmd)

	configInitCmd.Flags().BoolVarP(&configForce, "force", "f", false, "Overwrite an existing file")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := config.DefaultPath
	if configPath != "" {
		path = configPath
	}
	if len(args) == 1 {
		path = args[0]
	}
	if !configForce {
		expanded, err := homedir.Expand(path)
		if err != nil {
			return err
		}
		if _, err := os.Stat(expanded); err == nil {
			return fmt.Errorf("%s exists, use --force to overwrite", path)
		}
	}
	if err := config.Save(path, config.Defaults()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}
