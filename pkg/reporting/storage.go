package reporting

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Storage persists CampaignReport snapshots to the campaign's report
// directory, independent of the live stats.json checkpoint pkg/campaign
// maintains for resumption.
type Storage struct {
	outputDir string
	keepLastN int
	logger    *Logger
}

// NewStorage creates a storage instance rooted at outputDir.
func NewStorage(outputDir string, keepLastN int, logger *Logger) (*Storage, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &Storage{outputDir: outputDir, keepLastN: keepLastN, logger: logger}, nil
}

// SaveReport writes report as indented JSON and prunes old reports beyond
// keepLastN.
func (s *Storage) SaveReport(report *CampaignReport) (string, error) {
	timestamp := report.StartTime.Format("20060102-150405")
	filename := fmt.Sprintf("campaign-%s-%s.json", timestamp, report.CampaignID)
	path := filepath.Join(s.outputDir, filename)

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}
	s.logger.Info("campaign report saved", "path", path)

	if s.keepLastN > 0 {
		if err := s.cleanupOldReports(); err != nil {
			s.logger.Warn("failed to cleanup old reports", "error", err)
		}
	}
	return path, nil
}

// LoadReport reads a CampaignReport from path.
func (s *Storage) LoadReport(path string) (*CampaignReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report file: %w", err)
	}
	var report CampaignReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return &report, nil
}

// ListReports lists all reports under outputDir, newest first.
func (s *Storage) ListReports() ([]ReportSummary, error) {
	entries, err := os.ReadDir(s.outputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read output directory: %w", err)
	}

	summaries := make([]ReportSummary, 0)
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(s.outputDir, entry.Name())
		report, err := s.LoadReport(path)
		if err != nil {
			s.logger.Warn("failed to load report", "path", path, "error", err)
			continue
		}
		summaries = append(summaries, ReportSummary{
			CampaignID: report.CampaignID,
			Variant:    report.Variant,
			StartTime:  report.StartTime,
			Duration:   report.Duration,
			Status:     report.Status,
			Filepath:   path,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].StartTime.After(summaries[j].StartTime)
	})
	return summaries, nil
}

// FindReportByCampaignID returns the most recent report for campaignID.
func (s *Storage) FindReportByCampaignID(campaignID string) (*CampaignReport, error) {
	summaries, err := s.ListReports()
	if err != nil {
		return nil, err
	}
	for _, summary := range summaries {
		if summary.CampaignID == campaignID {
			return s.LoadReport(summary.Filepath)
		}
	}
	return nil, fmt.Errorf("report not found for campaign id: %s", campaignID)
}

func (s *Storage) cleanupOldReports() error {
	summaries, err := s.ListReports()
	if err != nil {
		return err
	}
	if len(summaries) <= s.keepLastN {
		return nil
	}
	for _, summary := range summaries[s.keepLastN:] {
		if err := os.Remove(summary.Filepath); err != nil {
			s.logger.Warn("failed to delete old report", "path", summary.Filepath, "error", err)
		} else {
			s.logger.Debug("deleted old report", "path", summary.Filepath)
		}
	}
	return nil
}

// GetOutputDir returns the report directory path.
func (s *Storage) GetOutputDir() string {
	return s.outputDir
}
