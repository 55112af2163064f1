// Command ganglion-bridge runs the edge bridge that exposes local apps and
// shells to a remote hub.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/trybotster/ganglion-bridge/internal/apps"
	"github.com/trybotster/ganglion-bridge/internal/config"
	"github.com/trybotster/ganglion-bridge/internal/orchestrator"
	"github.com/trybotster/ganglion-bridge/internal/statusview"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ganglion-bridge",
		Short: "Expose local terminal apps and shells to the ganglion hub",
	}
	root.AddCommand(newRunCmd())
	root.AddCommand(newVersionCmd())
	root.AddCommand(newDeclareAppsCmd())
	root.AddCommand(newStatusCmd())
	return root
}

func newStatusCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Query a running bridge's local health-check endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			return statusview.Run(addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "localhost:8787", "bridge health-check address")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the bridge version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(version)
			return nil
		},
	}
}

func newRunCmd() *cobra.Command {
	var healthAddr string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Connect to the hub and serve configured apps",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			orch := orchestrator.New(orchestrator.Options{
				Config:          cfg,
				HealthCheckAddr: healthAddr,
			})
			return orch.Run(context.Background())
		},
	}
	cmd.Flags().StringVar(&healthAddr, "health-addr", "", "address to serve the local health-check endpoint on (disabled if empty)")
	return cmd
}

func newDeclareAppsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "declare-apps",
		Short: "Print the resolved app list without connecting to the hub",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			registry := apps.NewRegistry()
			for _, a := range cfg.Apps {
				registry.Register(apps.App{
					Name: a.Name, Slug: a.Slug, WorkingDirectory: a.WorkingDirectory,
					Command: a.Command, Terminal: a.Terminal, Color: a.Color,
				})
			}
			for _, app := range registry.List(true) {
				fmt.Printf("%-20s %-10s terminal=%-5v %s\n", app.Slug, app.Color, app.Terminal, app.Command)
			}
			return nil
		},
	}
}
