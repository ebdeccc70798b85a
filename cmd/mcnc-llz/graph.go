package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Lekan-Bamgbose/mcnc-llz/internal/config"
	"github.com/Lekan-Bamgbose/mcnc-llz/internal/graph"
)

func newGraphCmd() *cobra.Command {
	var (
		configPath string
		format     string
	)

	cmd := &cobra.Command{
		Use:   "graph [stack]",
		Short: "Render a stack's resource dependency graph",
		Long: `Graph synthesizes the named stack (key or session-manager) and
renders its resource dependency graph to stdout.

Examples:
    mcnc-llz graph -c config.yaml key
    mcnc-llz graph -c config.yaml session-manager --format mermaid`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(configPath, args[0], format)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "Deployment configuration file")
	cmd.Flags().StringVarP(&format, "format", "f", "dot", "Output format: dot or mermaid")

	return cmd
}

func runGraph(configPath, stackName, format string) error {
	var gFormat graph.Format
	switch format {
	case "dot":
		gFormat = graph.FormatDOT
	case "mermaid":
		gFormat = graph.FormatMermaid
	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	stacks, err := synthesize(cfg)
	if err != nil {
		return err
	}

	for _, st := range stacks {
		if st.Name() != stackName {
			continue
		}
		gen := &graph.Generator{Format: gFormat}
		return gen.Generate(st, os.Stdout)
	}
	return fmt.Errorf("unknown stack %q (expected %q or %q)", stackName, keyStackName, sessionStackName)
}
