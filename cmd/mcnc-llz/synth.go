package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/apex/log"
	"github.com/spf13/cobra"

	llz "github.com/Lekan-Bamgbose/mcnc-llz"
	"github.com/Lekan-Bamgbose/mcnc-llz/internal/config"
	"github.com/Lekan-Bamgbose/mcnc-llz/internal/keymgmt"
	"github.com/Lekan-Bamgbose/mcnc-llz/internal/sessionmanager"
	"github.com/Lekan-Bamgbose/mcnc-llz/internal/stack"
)

// Stack names used for template file naming.
const (
	keyStackName     = "key"
	sessionStackName = "session-manager"
)

func newSynthCmd() *cobra.Command {
	var (
		configPath   string
		outputDir    string
		outputFormat string
	)

	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Synthesize CloudFormation templates from a configuration",
		Long: `Synth reads the deployment configuration and writes one template
per stack to the output directory.

Examples:
    mcnc-llz synth -c config.yaml
    mcnc-llz synth -c config.yaml -o out --format yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSynth(configPath, outputDir, outputFormat)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "Deployment configuration file")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "out", "Output directory for templates")
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "Output format: json or yaml")

	return cmd
}

// synthesize declares both baseline stacks from the configuration.
func synthesize(cfg *config.Config) ([]*stack.Stack, error) {
	keyStack := stack.New(keyStackName)
	keyStack.SetDescription("Landing zone shared encryption key")
	if _, err := keymgmt.Provision(cfg, keyStack); err != nil {
		return nil, fmt.Errorf("synthesizing %s: %w", keyStack.Name(), err)
	}

	sessionStack := stack.New(sessionStackName)
	sessionStack.SetDescription("Landing zone session manager logging settings")
	if _, err := sessionmanager.Provision(cfg, sessionStack); err != nil {
		return nil, fmt.Errorf("synthesizing %s: %w", sessionStack.Name(), err)
	}

	return []*stack.Stack{keyStack, sessionStack}, nil
}

func runSynth(configPath, outputDir, format string) error {
	if format != "json" && format != "yaml" {
		return fmt.Errorf("unknown format: %s", format)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return emitSynthFailure(err)
	}

	stacks, err := synthesize(cfg)
	if err != nil {
		return emitSynthFailure(err)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	result := llz.SynthResult{Success: true}
	for _, st := range stacks {
		path := filepath.Join(outputDir, stackFileName(st.Name(), format))
		if err := writeTemplate(st, path, format); err != nil {
			return emitSynthFailure(err)
		}
		log.WithField("stack", st.Name()).
			WithField("resources", st.Len()).
			WithField("path", path).
			Info("synthesized")
		result.Stacks = append(result.Stacks, llz.StackSummary{
			Name:      st.Name(),
			Resources: st.Len(),
			Path:      path,
		})
	}

	return printJSON(result)
}

func writeTemplate(st *stack.Stack, path, format string) error {
	tmpl, err := st.Template()
	if err != nil {
		return fmt.Errorf("building %s: %w", st.Name(), err)
	}

	var data []byte
	if format == "yaml" {
		data, err = stack.ToYAML(tmpl)
	} else {
		data, err = stack.ToJSON(tmpl)
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func stackFileName(name, format string) string {
	if format == "yaml" {
		return name + ".yaml"
	}
	return name + ".json"
}

// emitSynthFailure prints the failure envelope and returns a terminal
// error so the process exits non-zero.
func emitSynthFailure(cause error) error {
	_ = printJSON(llz.SynthResult{Success: false, Errors: []string{cause.Error()}})
	return fmt.Errorf("synth failed: %w", cause)
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
