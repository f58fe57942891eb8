package model

import "time"

// RunStatus represents the current state of a batch enrichment run.
type RunStatus string

const (
	RunStatusQueued     RunStatus = "queued"
	RunStatusProcessing RunStatus = "processing"
	RunStatusCompleted  RunStatus = "completed"
	RunStatusFailed     RunStatus = "failed"
)

// RunSource identifies what submitted a run.
type RunSource string

const (
	RunSourceFile RunSource = "file"
	RunSourceAPI  RunSource = "api"
)

// Run tracks one batch of leads through enrichment.
type Run struct {
	ID                    string    `json:"task_id"`
	Source                RunSource `json:"source"`
	Status                RunStatus `json:"status"`
	TotalLeads            int       `json:"total_leads"`
	ProcessedLeads        int       `json:"processed_leads"`
	SuccessfulGenerations int       `json:"successful_generations"`
	FailedGenerations     int       `json:"failed_generations"`
	InputFile             string    `json:"input_file,omitempty"`
	OutputFile            string    `json:"output_file,omitempty"`
	ErrorMessage          string    `json:"error_message,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// RunInput describes a run at creation time.
type RunInput struct {
	Source     RunSource `json:"source"`
	TotalLeads int       `json:"total_leads"`
	InputFile  string    `json:"input_file,omitempty"`
	OutputFile string    `json:"output_file,omitempty"`
}

// RunProgress is a snapshot of the counters of an in-flight run.
type RunProgress struct {
	Processed  int `json:"processed"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

// ProgressPercentage returns processed/total as a percentage.
func (r Run) ProgressPercentage() float64 {
	if r.TotalLeads == 0 {
		return 0
	}
	return float64(r.ProcessedLeads) / float64(r.TotalLeads) * 100
}

// SuccessRate returns successful/processed as a percentage.
func (r Run) SuccessRate() float64 {
	if r.ProcessedLeads == 0 {
		return 0
	}
	return float64(r.SuccessfulGenerations) / float64(r.ProcessedLeads) * 100
}

// Done reports whether the run reached a terminal state.
func (r Run) Done() bool {
	return r.Status == RunStatusCompleted || r.Status == RunStatusFailed
}
