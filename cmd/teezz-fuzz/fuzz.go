package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	dockerclient "github.com/docker/docker/client"
	"github.com/spf13/cobra"

	"github.com/hexhive/teezz-fuzz/pkg/call"
	"github.com/hexhive/teezz-fuzz/pkg/campaign"
	"github.com/hexhive/teezz-fuzz/pkg/device"
	"github.com/hexhive/teezz-fuzz/pkg/emergency"
	"github.com/hexhive/teezz-fuzz/pkg/protocol"

	_ "github.com/hexhive/teezz-fuzz/pkg/call/optee"
	_ "github.com/hexhive/teezz-fuzz/pkg/call/qsee"
	_ "github.com/hexhive/teezz-fuzz/pkg/call/triangle"
)

var fuzzCmd = &cobra.Command{
	Use:   "fuzz",
	Args:  cobra.NoArgs,
	Short: "Run a coverage-guided fuzz campaign against a TEE client API",
	Long: `Fuzz drives the on-device executor through seed-or-mutate scheduling,
classifying every iteration as new coverage, old coverage, a crash, a timeout
or a wire error, persisting outcomes under the campaign directory and
resetting the device when the reset state machine calls for it.

A campaign directory is resumed automatically if it already has entries in
queue/; otherwise the seed corpus named by campaign.corpus_dir (or --corpus)
seeds the population.`,
	RunE: runFuzz,
}

func init() {
	fuzzCmd.Flags().String("corpus", "", "seed corpus directory (overrides campaign.corpus_dir)")
	fuzzCmd.Flags().String("out", "", "campaign output directory (overrides campaign.out_dir)")
	fuzzCmd.Flags().Duration("duration", 0, "wall-clock budget, 0 = unbounded (overrides campaign.max_duration)")
	fuzzCmd.Flags().String("device-name", "", "campaign directory label for the device under test")
	fuzzCmd.Flags().String("stop-file", "", "path that, once created, halts the campaign before its next iteration")
}

func runFuzz(cmd *cobra.Command, _ []string) error {
	appCfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if corpus, _ := cmd.Flags().GetString("corpus"); corpus != "" {
		appCfg.Campaign.CorpusDir = corpus
	}
	if out, _ := cmd.Flags().GetString("out"); out != "" {
		appCfg.Campaign.OutDir = out
	}
	if d, _ := cmd.Flags().GetDuration("duration"); d != 0 {
		appCfg.Campaign.MaxDuration = d
	}
	if name, _ := cmd.Flags().GetString("device-name"); name != "" {
		appCfg.Device.Name = name
	}

	logger := newLogger(appCfg)

	var controller *device.Controller
	if appCfg.Device.Transport == "docker" {
		if appCfg.Device.ContainerID == "" {
			logger.Warn("device.transport is docker but no container_id configured, resets will be skipped")
		} else {
			dc, err := dockerclient.NewClientWithOpts(dockerclient.FromEnv, dockerclient.WithAPIVersionNegotiation())
			if err != nil {
				return fmt.Errorf("fuzz: docker client: %w", err)
			}
			defer dc.Close()
			controller = device.NewController(dc, appCfg.Device.ContainerID)
		}
	}

	sessionMeta := []protocol.MetadataEntry{}
	if appCfg.Executor.SessionUUID != "" {
		sessionMeta = append(sessionMeta, protocol.MetadataEntry{Key: protocol.KeyUUID, Value: []byte(appCfg.Executor.SessionUUID)})
	}
	for k, v := range appCfg.Executor.SessionExtra {
		sessionMeta = append(sessionMeta, protocol.MetadataEntry{Key: k, Value: []byte(v)})
	}

	campCfg := campaign.Config{
		Variant:      call.Variant(appCfg.Target.Variant),
		TeeName:      appCfg.Target.Variant,
		Device:       appCfg.Device.Name,
		OutDir:       appCfg.Campaign.OutDir,
		CorpusDir:    appCfg.Campaign.CorpusDir,
		ExecutorAddr: appCfg.Executor.Addr,
		ReadTimeout:  appCfg.Executor.ReadTimeout,
		SessionMeta:  sessionMeta,

		MaxDuration:        appCfg.Campaign.MaxDuration,
		MutationDeleteProb: appCfg.Campaign.MutationDeleteProb,
		Seed:               appCfg.Campaign.Seed,
		Thresholds: device.Thresholds{
			ConsecutiveTimeouts: appCfg.Campaign.ConsecutiveTimeouts,
			MaxRunCount:         appCfg.Campaign.MaxRunCount,
			RebootRetries:       appCfg.Campaign.RebootRetries,
		},
	}

	camp, err := campaign.New(campCfg, logger, controller)
	if err != nil {
		return fmt.Errorf("fuzz: start campaign: %w", err)
	}

	if appCfg.Prometheus.Enabled {
		metricsCtx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			if err := camp.Metrics().Serve(metricsCtx, appCfg.Prometheus.Addr); err != nil {
				logger.Error("metrics server stopped", "error", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if stopFile, _ := cmd.Flags().GetString("stop-file"); stopFile != "" {
		halt := emergency.New(emergency.Config{StopFile: stopFile})
		halt.OnStop(func() {
			logger.Warn("stop file detected, halting campaign", "path", stopFile)
			stop()
		})
		halt.Start(ctx)
	}

	return camp.Run(ctx)
}
