package notify

import (
	"context"
	"fmt"
	"time"
)

// OneShot is the Weekday of a trigger that fires once.
const OneShot = -1

// Trigger is a point in time, optionally repeating, registered with the device.
type Trigger struct {
	// ID is assigned by the device when the trigger is registered.
	ID string
	// Tag is the id of the task the trigger belongs to. A notification resolves back to
	// its task through it.
	Tag string
	// Key identifies the trigger within its tag; registering an existing key replaces it.
	Key     string
	Title   string
	Body    string
	FireAt  time.Time
	Weekday int
	Repeat  time.Duration
}

// Recurring reports whether the trigger repeats.
func (t Trigger) Recurring() bool {
	return t.Repeat > 0
}

func oneShotKey(tag string) string {
	return tag
}

func weeklyKey(tag string, day time.Weekday) string {
	return fmt.Sprintf("%s:%d", tag, int(day))
}

// Device is the host's notification facility.
type Device interface {
	// RequestPermission asks whether notifications may be scheduled.
	RequestPermission(ctx context.Context) (bool, error)
	// Register stores a trigger and returns its id.
	Register(ctx context.Context, trigger Trigger) (string, error)
	// CancelTag removes every trigger with the tag.
	CancelTag(ctx context.Context, tag string) error
	// Pending returns the triggers registered under the tag.
	Pending(ctx context.Context, tag string) ([]Trigger, error)
	// Due returns the triggers whose fire time is not after now.
	Due(ctx context.Context, now time.Time) ([]Trigger, error)
	// Advance moves a fired trigger past now, removing it when it does not repeat.
	Advance(ctx context.Context, trigger Trigger, now time.Time) error
}
