package main

import (
	"github.com/spf13/cobra"
)

var version = "0.1.0"

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "pm-functions",
		Short: "Property-management data gateway",
		Long: `pm-functions exposes the property-management stored procedures and views
over HTTP and returns every result in the same JSON envelope.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default: ./pm-functions.yaml, then the system path)")

	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newCallCmd(opts))
	root.AddCommand(newQueryCmd(opts))
	root.AddCommand(newConfigCmd())
	return root
}
