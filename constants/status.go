package constants

// RunStatus is the canonical status for rows in extraction_runs.
type RunStatus string

// Stable values (store these exact strings in DB).
const (
	RunStatusRunning RunStatus = "RUNNING" // in progress
	RunStatusOK      RunStatus = "OK"      // writes produced
	RunStatusNoData  RunStatus = "NO_DATA" // model reported the empty-result sentinel
	RunStatusFailed  RunStatus = "FAILED"  // terminal failure
)
