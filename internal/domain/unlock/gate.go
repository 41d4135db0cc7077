package unlock

import "time"

// Evaluate derives the protection state. Records without a creation time
// are new and never protected. The state is recomputed on every call;
// nothing about it is stored besides the unlock expiry.
func Evaluate(createdAt *time.Time, unlockUntil, now time.Time) State {
	if createdAt == nil || now.Sub(*createdAt) < LockAfter {
		return StateUnprotected
	}
	if now.Before(unlockUntil) {
		return StateUnlocked
	}
	return StateLocked
}
