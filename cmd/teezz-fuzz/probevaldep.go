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

var probevaldepCmd = &cobra.Command{
	Use:   "probevaldep <sequence-dir>",
	Args:  cobra.ExactArgs(1),
	Short: "Run Stage 5 value-dependency mining alone against one recorded sequence",
	Long: `Probevaldep loads a single recorded sequence and runs only the
sliding-window value-dependency pass (spec.md §4.2 Stage 5) over it,
printing every discovered dependency edge. Useful for inspecting what a
candidate's dependency graph would look like without re-running the whole
format-recovery pipeline.`,
	RunE: runProbevaldep,
}

func init() {
	probevaldepCmd.Flags().Int("window", 0, "sliding-window width W (0 = config recovery.window)")
}

func runProbevaldep(cmd *cobra.Command, args []string) error {
	appCfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	window, _ := cmd.Flags().GetInt("window")
	if window == 0 {
		window = appCfg.Recovery.Window
	}

	variant := call.Variant(appCfg.Target.Variant)
	seq, err := seed.LoadSequence(args[0], variant)
	if err != nil {
		return fmt.Errorf("probevaldep: load sequence: %w", err)
	}

	interactions := recovery.FromSeedSequence(seq)
	deps := recovery.FindValueDeps(interactions, window, nil)

	found := 0
	for _, c := range deps.Calls {
		for _, vd := range c.Deps {
			found++
			fmt.Printf("dump %d[%d]@%d <- dump %d[%d]@%d, size %d\n",
				vd.DstDumpID, vd.DstParam, vd.DstOff,
				vd.SrcDumpID, vd.SrcParam, vd.SrcOff, vd.DstSz)
		}
	}
	fmt.Printf("%d value dependencies found across %d calls\n", found, len(deps.Calls))
	return nil
}
