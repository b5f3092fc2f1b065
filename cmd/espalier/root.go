package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/espalier/pkg/contract"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/aretw0/espalier/pkg/registry"
)

var rootCmd = &cobra.Command{
	Use:   "espalier",
	Short: "Espalier is a contract-driven routing engine for conversational agents",
	Long:  `Espalier lints and visualizes node-contract flows described in YAML manifests.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("manifest", "espalier.yaml", "Path to the contract manifest")
}

// loadRegistry builds a registry from a manifest file. Implementations are
// stubbed because linting and graph export never execute nodes.
func loadRegistry(path string) (*registry.Registry, *contract.Manifest, error) {
	m, err := contract.LoadManifest(path)
	if err != nil {
		return nil, nil, err
	}

	reg := registry.New()
	for _, sl := range m.Slices {
		reg.AddValidSlice(sl)
	}

	stub := ports.NodeFunc(func(ctx context.Context, in ports.NodeInputs) (ports.NodeOutputs, error) {
		return ports.NodeOutputs{}, nil
	})
	for _, c := range m.Nodes {
		if err := reg.Register(c, stub); err != nil {
			return nil, nil, fmt.Errorf("manifest: %w", err)
		}
	}
	return reg, m, nil
}
