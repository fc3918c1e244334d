package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hexhive/teezz-fuzz/pkg/call"
	"github.com/hexhive/teezz-fuzz/pkg/recovery"
	"github.com/hexhive/teezz-fuzz/pkg/seed"

	_ "github.com/hexhive/teezz-fuzz/pkg/call/optee"
	_ "github.com/hexhive/teezz-fuzz/pkg/call/qsee"
	_ "github.com/hexhive/teezz-fuzz/pkg/call/triangle"
)

var recoverCmd = &cobra.Command{
	Use:   "recover <sequence-dir> <out-dir>",
	Args:  cobra.ExactArgs(2),
	Short: "Run the full format-recovery pipeline over a recorded sequence",
	Long: `Recover loads a recorded sequence, runs it through Stages 1-5
(typing, cross-recording matching, size/offset inference, common-subsequence
mining and value-dependency mining) and writes the resulting dependency
graph back out alongside the original seeds, ready to seed a campaign's
corpus directory.`,
	RunE: runRecover,
}

func init() {
	recoverCmd.Flags().Int("window", 0, "Stage 5 sliding-window width (0 = config recovery.window)")
	recoverCmd.Flags().Int("workers", 0, "Stage 4 worker-pool size (0 = config default)")
}

func runRecover(cmd *cobra.Command, args []string) error {
	appCfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	window, _ := cmd.Flags().GetInt("window")
	if window == 0 {
		window = appCfg.Recovery.Window
	}
	workers, _ := cmd.Flags().GetInt("workers")
	if workers == 0 {
		workers = appCfg.Recovery.StageFourWorkers
	}

	variant := call.Variant(appCfg.Target.Variant)
	seq, err := seed.LoadSequence(args[0], variant)
	if err != nil {
		return fmt.Errorf("recover: load sequence: %w", err)
	}

	interactions := recovery.FromSeedSequence(seq)
	deps := recovery.Run(interactions, recovery.Options{
		Window:           window,
		StageFourWorkers: workers,
	})

	seq.Deps = deps
	if err := seq.Validate(); err != nil {
		return fmt.Errorf("recover: recovered graph failed validation: %w", err)
	}

	if err := seed.StoreSequence(args[1], seq, variant); err != nil {
		return fmt.Errorf("recover: store recovered sequence: %w", err)
	}

	total := 0
	for _, c := range deps.Calls {
		total += len(c.Deps)
	}
	fmt.Printf("recovered %d value dependencies across %d calls, written to %s\n", total, len(deps.Calls), args[1])
	return nil
}
