package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pm-functions/internal/config"
	"pm-functions/internal/platform/paths"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	cmd.AddCommand(newConfigInitCmd())
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a default configuration file",
		Long: `Write the default configuration to path, or to the system config path
when none is given. The system variant also points log.file at the system
log directory.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()

			path := ""
			if len(args) == 1 {
				path = args[0]
			} else {
				p, err := paths.ConfigFilePath()
				if err != nil {
					return err
				}
				path = p
				// machine-wide installs also log to the machine-wide location
				if logFile, err := paths.LogFilePath(); err == nil {
					cfg.Log.File = logFile
				}
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			if err := config.Save(path, cfg); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}
