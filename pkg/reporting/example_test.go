package reporting_test

import (
	"fmt"
	"os"
	"time"

	"github.com/hexhive/teezz-fuzz/pkg/reporting"
)

// Example demonstrates the reporting package usage
func Example() {
	logger := reporting.NewLogger(reporting.LoggerConfig{
		Level:  reporting.LogLevelInfo,
		Format: reporting.LogFormatText,
		Output: os.Stdout,
	})

	logger.Info("campaign starting", "variant", "triangle")
	logger.Info("seed executed", "outcome", "success_new_cov")

	storage, err := reporting.NewStorage("./test-reports", 10, logger)
	if err != nil {
		fmt.Printf("Failed to create storage: %v\n", err)
		return
	}
	defer os.RemoveAll("./test-reports")

	report := &reporting.CampaignReport{
		CampaignID: "campaign-12345",
		Variant:    "triangle",
		Device:     "pixel6-01",
		StartTime:  time.Now().Add(-5 * time.Minute),
		EndTime:    time.Now(),
		Duration:   "5m0s",
		Status:     reporting.CampaignCompleted,
		Counters: reporting.CounterSnapshot{
			Sequences:    120,
			Interactions: 480,
			Successes:    410,
			NewCoverage:  37,
			Crashes:      1,
		},
		ResetEvents: []reporting.ResetEvent{
			{From: "running", To: "needs_reset", Timestamp: time.Now().Add(-2 * time.Minute)},
			{From: "needs_reset", To: "idle", Timestamp: time.Now().Add(-1 * time.Minute)},
		},
	}

	path, err := storage.SaveReport(report)
	if err != nil {
		fmt.Printf("Failed to save report: %v\n", err)
		return
	}
	fmt.Printf("Report saved successfully\n")

	summaries, err := storage.ListReports()
	if err != nil {
		fmt.Printf("Failed to list reports: %v\n", err)
		return
	}
	fmt.Printf("Found %d report(s)\n", len(summaries))
	for _, summary := range summaries {
		fmt.Printf("  %s: %s (%s)\n", summary.CampaignID, summary.Variant, summary.Status)
	}

	loadedReport, err := storage.LoadReport(path)
	if err != nil {
		fmt.Printf("Failed to load report: %v\n", err)
		return
	}
	fmt.Printf("Loaded report for campaign: %s\n", loadedReport.CampaignID)

	formatter := reporting.NewFormatter(logger)
	textPath := "./test-reports/report.txt"
	if err := formatter.GenerateReport(report, reporting.ReportFormatText, textPath); err != nil {
		fmt.Printf("Failed to generate text report: %v\n", err)
		return
	}
	fmt.Printf("Text report generated\n")

	// Output will vary due to timestamps, so we don't include it
}
