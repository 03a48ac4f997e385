package main

import (
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ruco",
		Short: "ruco traces function calls and returns",
		Long: `ruco prints one line per call and return of instrumented Go functions.
The demo command runs a small concurrent workload under the tracer.`,
		SilenceUsage: true,
	}
	root.Version = version

	root.AddCommand(newDemoCmd())
	root.AddCommand(newVersionCmd())

	root.PersistentFlags().Int("debug", 0, "diagnostic level (0 errors only, 3 everything)")
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
