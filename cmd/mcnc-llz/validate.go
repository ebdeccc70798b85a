package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/apex/log"
	"github.com/spf13/cobra"

	"github.com/Lekan-Bamgbose/mcnc-llz/internal/config"
	"github.com/Lekan-Bamgbose/mcnc-llz/internal/validation"
)

func newValidateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Synthesize templates and validate them with cfn-lint",
		Long: `Validate synthesizes both stacks to a temporary directory and runs
cfn-lint on each template.

Example:
    mcnc-llz validate -c config.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "Deployment configuration file")

	return cmd
}

func runValidate(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	stacks, err := synthesize(cfg)
	if err != nil {
		return err
	}

	tmpDir, err := os.MkdirTemp("", "mcnc-llz-validate-")
	if err != nil {
		return err
	}
	defer func() {
		_ = os.RemoveAll(tmpDir)
	}()

	failed := false
	results := make(map[string]*validation.Result, len(stacks))
	for _, st := range stacks {
		path := filepath.Join(tmpDir, stackFileName(st.Name(), "json"))
		if err := writeTemplate(st, path, "json"); err != nil {
			return err
		}

		result, err := validation.ValidateTemplate(path)
		if err != nil {
			return fmt.Errorf("validating %s: %w", st.Name(), err)
		}
		results[st.Name()] = result

		entry := log.WithField("stack", st.Name()).WithField("issues", result.TotalIssues())
		if result.Passed {
			entry.Info("validation passed")
		} else {
			entry.Error("validation failed")
			failed = true
		}
	}

	if err := printJSON(results); err != nil {
		return err
	}
	if failed {
		return fmt.Errorf("validation failed")
	}
	return nil
}
