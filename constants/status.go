package constants

// RunStatus is the canonical status for rows in batch_runs.
type RunStatus string

// Stable values (store these exact strings in DB).
const (
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusCompleted RunStatus = "COMPLETED" // every document finished, warnings allowed
	RunStatusPartial   RunStatus = "PARTIAL"   // at least one acquisition failure
	RunStatusCancelled RunStatus = "CANCELLED" // stopped before all documents were submitted
)

// WarningKind classifies a per-document warning.
type WarningKind string

const (
	WarnZeroYield          WarningKind = "ZERO_YIELD"
	WarnAcquisitionFailure WarningKind = "ACQUISITION_FAILURE"
	WarnAlignmentMismatch  WarningKind = "ALIGNMENT_MISMATCH"
)
