package reporting

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// OutputFormat is the campaign progress output format.
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
	FormatTUI  OutputFormat = "tui"
)

// ProgressReporter reports live campaign progress to the console.
type ProgressReporter struct {
	format OutputFormat
	logger *Logger
}

// NewProgressReporter creates a progress reporter for the given format.
func NewProgressReporter(format OutputFormat, logger *Logger) *ProgressReporter {
	return &ProgressReporter{format: format, logger: logger}
}

// ReportState reports the current campaign state.
func (pr *ProgressReporter) ReportState(state LiveCampaignState) {
	switch pr.format {
	case FormatJSON:
		pr.reportJSON(state)
	case FormatTUI:
		pr.reportTUI(state)
	default:
		pr.reportText(state)
	}
}

// ReportStateTransition reports a device-reset state machine transition
// (spec.md §4.6).
func (pr *ProgressReporter) ReportStateTransition(from, to string) {
	switch pr.format {
	case FormatJSON:
		data, _ := json.Marshal(map[string]interface{}{
			"event":      "device_state_transition",
			"from_state": from,
			"to_state":   to,
			"timestamp":  time.Now(),
		})
		fmt.Println(string(data))
	case FormatTUI:
		pr.clearLine()
		fmt.Printf("device: %s -> %s\n", from, to)
	default:
		fmt.Printf("[DEVICE] %s -> %s\n", from, to)
	}
}

// ReportSeedOutcome reports one executed seed sequence's classification.
func (pr *ProgressReporter) ReportSeedOutcome(outcome string, replayable bool) {
	switch pr.format {
	case FormatJSON:
		data, _ := json.Marshal(map[string]interface{}{
			"event":      "seed_outcome",
			"outcome":    outcome,
			"replayable": replayable,
			"timestamp":  time.Now(),
		})
		fmt.Println(string(data))
	case FormatTUI:
		pr.clearLine()
		fmt.Printf("run: %s (replayable=%v)\n", outcome, replayable)
	default:
		fmt.Printf("[RUN] %s replayable=%v\n", outcome, replayable)
	}
}

// ReportCampaignCompleted reports a finished campaign's summary.
func (pr *ProgressReporter) ReportCampaignCompleted(report *CampaignReport) {
	switch pr.format {
	case FormatJSON:
		data, _ := json.Marshal(map[string]interface{}{
			"event":     "campaign_completed",
			"report":    report,
			"timestamp": time.Now(),
		})
		fmt.Println(string(data))
	case FormatTUI:
		pr.clearLine()
		pr.printCampaignSummary(report)
	default:
		pr.printTextSummary(report)
	}
}

func (pr *ProgressReporter) reportText(state LiveCampaignState) {
	elapsed := state.Elapsed.Round(time.Second)
	fmt.Printf("[%s] %s | %s | elapsed %s\n",
		time.Now().Format("15:04:05"), state.Variant, state.State, elapsed)
	fmt.Printf("  seq=%d interactions=%d crashes=%d timeouts=%d new_cov=%d\n",
		state.Counters.Sequences, state.Counters.Interactions,
		state.Counters.Crashes, state.Counters.Timeouts, state.Counters.NewCoverage)
}

func (pr *ProgressReporter) reportJSON(state LiveCampaignState) {
	data, err := json.Marshal(state)
	if err != nil {
		pr.logger.Error("failed to marshal state", "error", err)
		return
	}
	fmt.Println(string(data))
}

func (pr *ProgressReporter) reportTUI(state LiveCampaignState) {
	pr.clearScreen()
	fmt.Println(strings.Repeat("=", 72))
	fmt.Printf("  campaign %s  (%s)\n", state.CampaignID, state.Variant)
	fmt.Println(strings.Repeat("=", 72))
	fmt.Printf("state: %s   elapsed: %s\n\n", state.State, state.Elapsed.Round(time.Second))
	c := state.Counters
	fmt.Printf("sequences=%d interactions=%d successes=%d errors=%d\n", c.Sequences, c.Interactions, c.Successes, c.Errors)
	fmt.Printf("timeouts=%d crash_timeouts=%d crashes=%d new_cov=%d\n", c.Timeouts, c.CrashTimeouts, c.Crashes, c.NewCoverage)
	fmt.Printf("resets=%d hard_resets=%d factory_resets=%d\n", c.Resets, c.HardResets, c.FactoryResets)
	fmt.Printf("ta_successes=%d ta_fails=%d\n", c.TASuccesses, c.TAFails)
	if state.LastOutcome != "" {
		fmt.Printf("\nlast outcome: %s\n", state.LastOutcome)
	}
	fmt.Println(strings.Repeat("-", 72))
}

func (pr *ProgressReporter) printCampaignSummary(report *CampaignReport) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 72))
	fmt.Println("   CAMPAIGN SUMMARY")
	fmt.Println(strings.Repeat("=", 72))
	fmt.Printf("campaign: %s  variant: %s  status: %s\n", report.CampaignID, report.Variant, report.Status)
	fmt.Printf("duration: %s\n\n", report.Duration)
	pr.printCounters(report.Counters)
	if len(report.ResetEvents) > 0 {
		fmt.Printf("\nreset events (%d):\n", len(report.ResetEvents))
		for _, e := range report.ResetEvents {
			fmt.Printf("  %s  %s -> %s  %s\n", e.Timestamp.Format("15:04:05"), e.From, e.To, e.Detail)
		}
	}
	fmt.Println(strings.Repeat("=", 72))
}

func (pr *ProgressReporter) printTextSummary(report *CampaignReport) {
	fmt.Printf("\n[CAMPAIGN SUMMARY] %s\n", report.Status)
	fmt.Printf("  campaign: %s  variant: %s\n", report.CampaignID, report.Variant)
	fmt.Printf("  duration: %s\n", report.Duration)
	pr.printCounters(report.Counters)
}

func (pr *ProgressReporter) printCounters(c CounterSnapshot) {
	fmt.Printf("  sequences=%d interactions=%d successes=%d errors=%d\n", c.Sequences, c.Interactions, c.Successes, c.Errors)
	fmt.Printf("  timeouts=%d crash_timeouts=%d crashes=%d new_cov=%d\n", c.Timeouts, c.CrashTimeouts, c.Crashes, c.NewCoverage)
	fmt.Printf("  resets=%d hard_resets=%d factory_resets=%d\n", c.Resets, c.HardResets, c.FactoryResets)
	fmt.Printf("  ta_successes=%d ta_fails=%d\n", c.TASuccesses, c.TAFails)
}

func (pr *ProgressReporter) clearScreen() {
	fmt.Print("\033[2J\033[H")
}

func (pr *ProgressReporter) clearLine() {
	fmt.Print("\033[K")
}
