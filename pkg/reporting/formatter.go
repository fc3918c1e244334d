package reporting

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ReportFormat is a persisted-report output format.
type ReportFormat string

const (
	ReportFormatText ReportFormat = "text"
	ReportFormatJSON ReportFormat = "json"
)

// Formatter renders a CampaignReport to a file in the requested format.
type Formatter struct {
	logger *Logger
}

// NewFormatter creates a report formatter.
func NewFormatter(logger *Logger) *Formatter {
	return &Formatter{logger: logger}
}

// GenerateReport writes report to outputPath in the given format.
func (f *Formatter) GenerateReport(report *CampaignReport, format ReportFormat, outputPath string) error {
	switch format {
	case ReportFormatText:
		return f.generateTextReport(report, outputPath)
	case ReportFormatJSON:
		return fmt.Errorf("json format is automatically saved by storage")
	default:
		return fmt.Errorf("unsupported report format: %s", format)
	}
}

func (f *Formatter) generateTextReport(report *CampaignReport, outputPath string) error {
	var buf bytes.Buffer

	buf.WriteString(strings.Repeat("=", 72) + "\n")
	buf.WriteString("   CAMPAIGN REPORT\n")
	buf.WriteString(strings.Repeat("=", 72) + "\n\n")

	buf.WriteString(fmt.Sprintf("Campaign:   %s\n", report.CampaignID))
	buf.WriteString(fmt.Sprintf("Variant:    %s\n", report.Variant))
	buf.WriteString(fmt.Sprintf("Device:     %s\n", report.Device))
	buf.WriteString(fmt.Sprintf("Status:     %s\n", report.Status))
	buf.WriteString(fmt.Sprintf("Start Time: %s\n", report.StartTime.Format("2006-01-02 15:04:05")))
	buf.WriteString(fmt.Sprintf("End Time:   %s\n", report.EndTime.Format("2006-01-02 15:04:05")))
	buf.WriteString(fmt.Sprintf("Duration:   %s\n", report.Duration))
	if report.Message != "" {
		buf.WriteString(fmt.Sprintf("Message:    %s\n", report.Message))
	}
	buf.WriteString("\n")

	c := report.Counters
	buf.WriteString("COUNTERS\n")
	buf.WriteString(strings.Repeat("-", 72) + "\n")
	buf.WriteString(fmt.Sprintf("sequences      %d\n", c.Sequences))
	buf.WriteString(fmt.Sprintf("interactions   %d\n", c.Interactions))
	buf.WriteString(fmt.Sprintf("successes      %d\n", c.Successes))
	buf.WriteString(fmt.Sprintf("errors         %d\n", c.Errors))
	buf.WriteString(fmt.Sprintf("timeouts       %d\n", c.Timeouts))
	buf.WriteString(fmt.Sprintf("crash_timeouts %d\n", c.CrashTimeouts))
	buf.WriteString(fmt.Sprintf("resets         %d\n", c.Resets))
	buf.WriteString(fmt.Sprintf("hard_resets    %d\n", c.HardResets))
	buf.WriteString(fmt.Sprintf("factory_resets %d\n", c.FactoryResets))
	buf.WriteString(fmt.Sprintf("crashes        %d\n", c.Crashes))
	buf.WriteString(fmt.Sprintf("new_coverage   %d\n", c.NewCoverage))
	buf.WriteString(fmt.Sprintf("ta_successes   %d\n", c.TASuccesses))
	buf.WriteString(fmt.Sprintf("ta_fails       %d\n", c.TAFails))
	buf.WriteString("\n")

	if len(report.ResetEvents) > 0 {
		buf.WriteString("RESET EVENTS\n")
		buf.WriteString(strings.Repeat("-", 72) + "\n")
		for i, e := range report.ResetEvents {
			buf.WriteString(fmt.Sprintf("%d. %s  %s -> %s\n", i+1, e.Timestamp.Format("15:04:05"), e.From, e.To))
			if e.Detail != "" {
				buf.WriteString(fmt.Sprintf("   %s\n", e.Detail))
			}
		}
		buf.WriteString("\n")
	}

	if len(report.Errors) > 0 {
		buf.WriteString("ERRORS\n")
		buf.WriteString(strings.Repeat("-", 72) + "\n")
		for i, err := range report.Errors {
			buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, err))
		}
		buf.WriteString("\n")
	}

	buf.WriteString(strings.Repeat("=", 72) + "\n")

	if err := os.WriteFile(outputPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write text report: %w", err)
	}
	f.logger.Info("text report generated", "path", outputPath)
	return nil
}

// GetReportPath builds the default report path for report in the given
// format under outputDir.
func GetReportPath(report *CampaignReport, format ReportFormat, outputDir string) string {
	timestamp := report.StartTime.Format("20060102-150405")
	filename := fmt.Sprintf("report-%s-%s.%s", timestamp, report.CampaignID, format)
	return filepath.Join(outputDir, filename)
}
