package model

// Outcome statuses recorded per identifier. Resolution failures carry a
// reason instead of a status.
const (
	// StatusDryRun marks an identifier that resolved but was not acted on
	StatusDryRun = "dry_run"
	// StatusSuccess marks a completed lock or delete
	StatusSuccess = "success"
	// StatusFailed marks an action the provider rejected
	StatusFailed = "failed"
	// ReasonNotFound marks an identifier that could not be resolved to a user ID
	ReasonNotFound = "not_found"
)

// OutcomeRecord is the per-identifier entry of a batch report
type OutcomeRecord struct {
	Identifier string `json:"identifier"`
	UserID     string `json:"userId,omitempty"`
	Action     Action `json:"action,omitempty"`
	Status     string `json:"status,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// BatchReport summarizes one run over the configured identifier list.
// Processed and Failed are always non-nil so they marshal as arrays.
type BatchReport struct {
	Success        bool            `json:"success"`
	Action         Action          `json:"action"`
	DryRun         bool            `json:"dry_run"`
	ProcessedCount int             `json:"processed_count"`
	FailedCount    int             `json:"failed_count"`
	Processed      []OutcomeRecord `json:"processed"`
	Failed         []OutcomeRecord `json:"failed"`
}

// NewBatchReport returns an empty report for the given action and mode
func NewBatchReport(action Action, dryRun bool) *BatchReport {
	return &BatchReport{
		Action:    action,
		DryRun:    dryRun,
		Processed: []OutcomeRecord{},
		Failed:    []OutcomeRecord{},
	}
}

// Finalize sets the counts and the overall success flag from the
// accumulated records. A run succeeds only when nothing failed.
func (r *BatchReport) Finalize() {
	r.ProcessedCount = len(r.Processed)
	r.FailedCount = len(r.Failed)
	r.Success = r.FailedCount == 0
}
