package reporting

import "time"

// CampaignReport is a point-in-time snapshot of one campaign's counters and
// outcome, persisted by Storage for later inspection or comparison.
type CampaignReport struct {
	CampaignID string    `json:"campaign_id"`
	Variant    string    `json:"variant"`
	Device     string    `json:"device"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	Duration   string    `json:"duration"`

	Status  CampaignStatus `json:"status"`
	Message string         `json:"message,omitempty"`

	Counters CounterSnapshot `json:"counters"`

	// ResetEvents records every device-reset state transition observed
	// during the campaign (spec.md §4.6).
	ResetEvents []ResetEvent `json:"reset_events,omitempty"`

	Errors []string `json:"errors,omitempty"`
}

// CampaignStatus mirrors the device-reset/fuzz-loop lifecycle at the point
// a report was taken.
type CampaignStatus string

const (
	CampaignRunning   CampaignStatus = "running"
	CampaignCompleted CampaignStatus = "completed"
	CampaignStopped   CampaignStatus = "stopped"
	CampaignFailed    CampaignStatus = "failed"
)

// CounterSnapshot is the campaign counter set from spec.md §4.6 step 4.
type CounterSnapshot struct {
	Sequences     int `json:"sequences"`
	Interactions  int `json:"interactions"`
	Successes     int `json:"successes"`
	Errors        int `json:"errors"`
	Timeouts      int `json:"timeouts"`
	CrashTimeouts int `json:"crash_timeouts"`
	Resets        int `json:"resets"`
	HardResets    int `json:"hard_resets"`
	FactoryResets int `json:"factory_resets"`
	Crashes       int `json:"crashes"`
	NewCoverage   int `json:"new_coverage"`
	TASuccesses   int `json:"ta_successes"`
	TAFails       int `json:"ta_fails"`
}

// ResetEvent records one device-reset-state-machine transition.
type ResetEvent struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	Timestamp time.Time `json:"timestamp"`
	Detail    string    `json:"detail,omitempty"`
}

// LiveCampaignState is the in-memory state the ProgressReporter renders
// while a campaign is running.
type LiveCampaignState struct {
	CampaignID string        `json:"campaign_id"`
	Variant    string        `json:"variant"`
	State      string        `json:"state"` // device.State.String()
	StartTime  time.Time     `json:"start_time"`
	Elapsed    time.Duration `json:"elapsed"`

	Counters CounterSnapshot `json:"counters"`

	LastOutcome string `json:"last_outcome,omitempty"` // runner.Outcome.String()
}

// ReportSummary is a lightweight index entry over a persisted CampaignReport.
type ReportSummary struct {
	CampaignID string         `json:"campaign_id"`
	Variant    string         `json:"variant"`
	StartTime  time.Time      `json:"start_time"`
	Duration   string         `json:"duration"`
	Status     CampaignStatus `json:"status"`
	Filepath   string         `json:"filepath"`
}
