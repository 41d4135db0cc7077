package unlock

import "time"

// State is the protection state of a record's planned dates.
type State string

const (
	// StateUnprotected means the planned dates are editable.
	StateUnprotected State = "unprotected"
	// StateLocked means the planned dates are read-only until unlocked.
	StateLocked State = "protected_locked"
	// StateUnlocked means an unlock window is open for the record.
	StateUnlocked State = "protected_unlocked"
)

const (
	// LockAfter is the record age at which planned dates become protected.
	LockAfter = 24 * time.Hour
	// Window is how long a successful unlock lasts.
	Window = 20 * time.Minute
	// NewRecordKey keys unlock windows of records that were not saved yet.
	NewRecordKey = "new"
)

// UnlockWindow is a time-boxed permission to edit one record's planned
// dates within one session.
type UnlockWindow struct {
	SessionID string    `json:"session_id"`
	RecordKey string    `json:"record_key"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Open reports whether the window is still valid at now.
func (w *UnlockWindow) Open(now time.Time) bool {
	return w != nil && now.Before(w.ExpiresAt)
}

// RecordKey returns the window key for a record identifier.
func RecordKey(recordID string) string {
	if recordID == "" {
		return NewRecordKey
	}
	return recordID
}
