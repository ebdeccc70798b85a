package main

import (
	"fmt"

	"github.com/apex/log"
	"github.com/spf13/cobra"

	"github.com/Lekan-Bamgbose/mcnc-llz/internal/config"
	"github.com/Lekan-Bamgbose/mcnc-llz/internal/lint"
)

func newLintCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "lint",
		Short: "Run security lint rules on the synthesized templates",
		Long: `Lint synthesizes both stacks and applies the security rules:

  LLZ001: Wildcard principals must carry a Condition
  LLZ002: KMS keys must enable rotation
  LLZ003: Write-capable IAM statements should not use Resource "*"

Example:
    mcnc-llz lint -c config.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLint(configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "Deployment configuration file")

	return cmd
}

func runLint(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	stacks, err := synthesize(cfg)
	if err != nil {
		return err
	}

	failed := false
	results := make(map[string]lint.Result, len(stacks))
	for _, st := range stacks {
		tmpl, err := st.Template()
		if err != nil {
			return err
		}

		result := lint.Run(tmpl)
		results[st.Name()] = result

		entry := log.WithField("stack", st.Name()).WithField("issues", len(result.Issues))
		if result.Success {
			entry.Info("lint passed")
		} else {
			entry.Error("lint failed")
			failed = true
		}
	}

	if err := printJSON(results); err != nil {
		return err
	}
	if failed {
		return fmt.Errorf("lint failed")
	}
	return nil
}
