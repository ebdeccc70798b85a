// Command mcnc-llz synthesizes the landing-zone security baseline as
// CloudFormation templates.
//
// Usage:
//
//	mcnc-llz synth -c config.yaml           Synthesize templates
//	mcnc-llz validate -c config.yaml        Synthesize and cfn-lint
//	mcnc-llz lint -c config.yaml            Run security lint rules
//	mcnc-llz graph -c config.yaml key       Render a dependency graph
//	mcnc-llz watch -c config.yaml           Re-synthesize on config change
//	mcnc-llz version                        Show version
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mcnc-llz",
		Short: "Synthesize landing-zone security baseline templates",
		Long: `mcnc-llz reads a landing-zone deployment configuration and
synthesizes CloudFormation templates for the security baseline:

  - the shared encryption key, its policy, and the published key ARN
  - session manager logging destinations and permissions

Example:

    mcnc-llz synth -c config.yaml -o out/`,
	}

	rootCmd.AddCommand(
		newSynthCmd(),
		newValidateCmd(),
		newLintCmd(),
		newGraphCmd(),
		newWatchCmd(),
		newVersionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
