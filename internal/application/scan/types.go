package scan

import "time"

// RunScanCycleCommand triggers one full scan cycle. A zero budget uses the
// configured default.
type RunScanCycleCommand struct {
	Budget time.Duration
}

// RunScanCycleResponse summarizes one cycle for logging and the CLI.
type RunScanCycleResponse struct {
	Groups         int
	Scanned        int
	Failed         int
	Skipped        int
	Listings       int
	AlertsEnqueued int
	Duration       time.Duration
}
