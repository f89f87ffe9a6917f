package lock

// Well-known advisory lock IDs shared across scheduler processes pointed at
// the same database.
const (
	// TriggerReloadLock serializes the scheduler's startup reload of
	// non-terminal Jobs' Triggers across instances sharing one database.
	TriggerReloadLock = 7700
)
