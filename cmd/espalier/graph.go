package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/espalier/pkg/graph"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the flow graph visualization",
	Long:  `Compiles the manifest and outputs a Mermaid flowchart representing the routing logic.`,
	Run: func(cmd *cobra.Command, args []string) {
		manifest, _ := cmd.Flags().GetString("manifest")
		if len(args) > 0 {
			manifest = args[0]
		}
		entry, _ := cmd.Flags().GetString("entry")

		reg, m, err := loadRegistry(manifest)
		if err != nil {
			fmt.Printf("Error loading manifest: %v\n", err)
			os.Exit(1)
		}

		opts := []graph.Option{graph.WithEntrySupervisor(entry)}
		if len(m.Services) > 0 {
			opts = append(opts, graph.WithKnownServices(m.Services...))
		}

		g, err := graph.Build(reg, opts...)
		if err != nil {
			fmt.Printf("Error compiling graph: %v\n", err)
			os.Exit(1)
		}

		fmt.Print(g.Mermaid())
	},
}

func init() {
	graphCmd.Flags().String("entry", "main", "Entry supervisor name")
	rootCmd.AddCommand(graphCmd)
}
