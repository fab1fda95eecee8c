package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/cordon-zt/cordon/internal/interfaces/cli/server"
	"github.com/cordon-zt/cordon/internal/interfaces/cli/sweep"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cordond",
		Short: "Cordon - zero-trust network access broker",
		Long:  `Cordond is the Cordon control plane: it authorizes client-to-resource flows, tracks gateway and relay presence, and brokers tunnel establishment.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		sweep.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
