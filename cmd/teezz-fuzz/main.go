package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
	version = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "teezz-fuzz",
	Short: "Coverage-guided fuzzer for TEE client APIs",
	Long: `teezz-fuzz drives a TEE client-API surface (Triangle, Optee or Qsee)
through an on-device executor, mutating recorded seed sequences and tracking
coverage, crashes and timeouts across a resumable campaign.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./fuzz.cfg)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(fuzzCmd)
	rootCmd.AddCommand(triageCmd)
	rootCmd.AddCommand(probevaldepCmd)
	rootCmd.AddCommand(recoverCmd)
}

// Commands are defined in separate files:
// - fuzzCmd in fuzz.go
// - triageCmd in triage.go
// - probevaldepCmd in probevaldep.go
// - recoverCmd in recover.go

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
