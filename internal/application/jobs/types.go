package jobs

// RunWeeklyDigestCommand triggers the weekly digest for all opted-in users.
type RunWeeklyDigestCommand struct{}

// RunWeeklyDigestResponse counts digest deliveries.
type RunWeeklyDigestResponse struct {
	Recipients int
	Sent       int
	Failed     int
}

// RunReminderCommand triggers the still-available re-check pass.
type RunReminderCommand struct{}

// RunReminderResponse counts reminder outcomes.
type RunReminderResponse struct {
	Checked   int
	Reminded  int
	Exhausted int
}

// RunSnapshotCommand triggers the daily price history snapshot.
type RunSnapshotCommand struct{}

// RunSnapshotResponse counts snapshot rows per item kind.
type RunSnapshotResponse struct {
	SetRows     int
	MinifigRows int
}

// RunCleanupCommand triggers the expired-deal cleanup.
type RunCleanupCommand struct{}

// RunCleanupResponse counts removed rows.
type RunCleanupResponse struct {
	Deleted int64
}
