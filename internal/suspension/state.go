// Package suspension holds the account restriction state machine.
//
// An account is active, suspended until a point in time, or blocked. The functions here are
// pure: they compute the next state from the current one and never touch storage. Callers
// persist the result and emit notifications.
package suspension

import (
	"time"

	"github.com/BradenHooton/grievance/internal/models"
)

// State is the restriction state of one account. Until is set iff Status is suspended.
type State struct {
	Status string
	Until  *time.Time
}

// Outcome describes what an adjustment did.
type Outcome int

const (
	// Unchanged means the adjustment was a no-op and the state was preserved.
	Unchanged Outcome = iota
	// Suspended means the account is (still) suspended with a new deadline.
	Suspended
	// Lifted means the remaining suspension dropped to zero and the account is active.
	Lifted
)

func (o Outcome) String() string {
	switch o {
	case Suspended:
		return "suspended"
	case Lifted:
		return "lifted"
	default:
		return "unchanged"
	}
}

// Active is the unrestricted state.
func Active() State {
	return State{Status: models.UserStatusActive}
}

// Blocked is the indefinite restriction.
func Blocked() State {
	return State{Status: models.UserStatusBlocked}
}

// SuspendedUntil is a timed restriction ending at until.
func SuspendedUntil(until time.Time) State {
	u := until
	return State{Status: models.UserStatusSuspended, Until: &u}
}

// FromUser reads the restriction state off a user record.
func FromUser(u *models.User) State {
	return State{Status: u.Status, Until: u.SuspendedUntil}
}

// IsSuspended reports whether the state is a suspension, expired or not.
func (s State) IsSuspended() bool {
	return s.Status == models.UserStatusSuspended && s.Until != nil
}

// Expired reports whether a suspension deadline has passed at now.
func (s State) Expired(now time.Time) bool {
	return s.IsSuspended() && !s.Until.After(now)
}

// Remaining returns the time left on a suspension, or zero.
func (s State) Remaining(now time.Time) time.Duration {
	if !s.IsSuspended() || s.Expired(now) {
		return 0
	}
	return s.Until.Sub(now)
}

// AutoSuspend overwrites any state with a suspension of penalty from now.
func AutoSuspend(now time.Time, penalty time.Duration) State {
	return SuspendedUntil(now.Add(penalty))
}

// ToggleBlock blocks an active or suspended account, clearing any timer, and
// unblocks a blocked one.
func ToggleBlock(s State) State {
	if s.Status == models.UserStatusBlocked {
		return Active()
	}
	return Blocked()
}

// Adjust applies a signed delta to the suspension.
//
// A running suspension has delta added to its remaining time; a non-positive result lifts it.
// An expired suspension is restarted at now+delta when delta is positive and lifted otherwise.
// Any other state is suspended for delta when delta is positive and left untouched otherwise.
func Adjust(s State, delta time.Duration, now time.Time) (State, Outcome) {
	switch {
	case s.IsSuspended() && !s.Expired(now):
		remaining := s.Until.Sub(now) + delta
		if remaining <= 0 {
			return Active(), Lifted
		}
		return SuspendedUntil(now.Add(remaining)), Suspended

	case s.IsSuspended():
		if delta > 0 {
			return SuspendedUntil(now.Add(delta)), Suspended
		}
		return Active(), Lifted

	default:
		if delta > 0 {
			return SuspendedUntil(now.Add(delta)), Suspended
		}
		return s, Unchanged
	}
}

// Reconcile lifts an expired suspension. changed is false when there was nothing to do.
func Reconcile(s State, now time.Time) (State, bool) {
	if s.Expired(now) {
		return Active(), true
	}
	return s, false
}

// Delta converts the signed hours and minutes entered by an admin into a duration.
func Delta(hours, minutes int) time.Duration {
	return time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute
}
