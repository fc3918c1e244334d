package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hexhive/teezz-fuzz/pkg/call"
	"github.com/hexhive/teezz-fuzz/pkg/protocol"
	"github.com/hexhive/teezz-fuzz/pkg/runner"
	"github.com/hexhive/teezz-fuzz/pkg/seed"

	_ "github.com/hexhive/teezz-fuzz/pkg/call/optee"
	_ "github.com/hexhive/teezz-fuzz/pkg/call/qsee"
	_ "github.com/hexhive/teezz-fuzz/pkg/call/triangle"
)

var triageCmd = &cobra.Command{
	Use:   "triage <candidate-dir>",
	Args:  cobra.ExactArgs(1),
	Short: "Replay one persisted candidate against the executor and report its outcome",
	Long: `Triage loads a single candidate directory (as written by fuzz under
crashes/, timeouts/ or queue/) and replays it once, printing the resulting
outcome and whether the result was replayable. It does not touch a
campaign's stats.json or population.`,
	RunE: runTriage,
}

func init() {
	triageCmd.Flags().String("executor", "", "executor address host:port (overrides executor.addr)")
}

func runTriage(cmd *cobra.Command, args []string) error {
	appCfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if addr, _ := cmd.Flags().GetString("executor"); addr != "" {
		appCfg.Executor.Addr = addr
	}

	variant := call.Variant(appCfg.Target.Variant)
	seq, err := seed.LoadSequence(args[0], variant)
	if err != nil {
		return fmt.Errorf("triage: load candidate: %w", err)
	}

	logger := newLogger(appCfg)

	r, err := runner.Dial(appCfg.Executor.Addr, appCfg.Executor.ReadTimeout)
	if err != nil {
		return fmt.Errorf("triage: dial executor: %w", err)
	}
	defer r.Close()

	var meta []protocol.MetadataEntry
	if appCfg.Executor.SessionUUID != "" {
		meta = append(meta, protocol.MetadataEntry{Key: protocol.KeyUUID, Value: []byte(appCfg.Executor.SessionUUID)})
	}

	sr := runner.NewSequenceRunner(r, variant, logger)
	res, err := sr.Run(meta, seq)
	if err != nil {
		return fmt.Errorf("triage: replay: %w", err)
	}

	fmt.Printf("outcome: %s\n", res.Outcome)
	fmt.Printf("replayable: %v\n", res.Replayable)
	fmt.Printf("coverage tuples: %d\n", len(res.Coverage))
	return nil
}
