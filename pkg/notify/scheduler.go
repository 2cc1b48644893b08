// Package notify turns tasks into device notification triggers and keeps the device in step
// with the reminders stored on the server.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/matt-steen/care-tracker/pkg/model"
	"github.com/matt-steen/care-tracker/pkg/recurrence"
	"github.com/rs/zerolog/log"
)

// Scheduler registers and cancels the device triggers of tasks.
type Scheduler struct {
	device Device
	loc    *time.Location
	now    func() time.Time

	mu     sync.Mutex
	denied bool
}

// NewScheduler returns a Scheduler for the device. Times of day are taken in loc.
func NewScheduler(device Device, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}

	return &Scheduler{
		device: device,
		loc:    loc,
		now:    time.Now,
	}
}

// SetClock replaces the scheduler's clock.
func (s *Scheduler) SetClock(now func() time.Time) {
	s.now = now
}

// Schedule registers the triggers implied by the task's current state. Existing triggers for
// the task are cancelled first, so scheduling the same task again never double-fires.
// A disabled task is left alone. A one-shot task whose time has passed only loses its
// triggers, and a recurring task without weekdays fails with model.ErrUnknownWeekdays.
func (s *Scheduler) Schedule(ctx context.Context, task model.Task) error {
	if !task.Enabled {
		return nil
	}

	if s.expired(task) {
		log.Debug().Str("task", task.ID).Time("datetime", task.Datetime).Msg("one-shot task is in the past; not scheduling")

		return s.Cancel(ctx, task)
	}

	if task.Recurring && len(task.SelectedDays()) == 0 {
		return fmt.Errorf("error scheduling task %s: %w", task.ID, model.ErrUnknownWeekdays)
	}

	if err := s.checkPermission(ctx); err != nil {
		return err
	}

	if err := s.Cancel(ctx, task); err != nil {
		return err
	}

	for _, trigger := range s.triggersFor(task) {
		if _, err := s.device.Register(ctx, trigger); err != nil {
			return fmt.Errorf("error scheduling task %s: %w", task.ID, err)
		}
	}

	return nil
}

// Cancel removes every trigger of the task, one-shot and recurring alike.
func (s *Scheduler) Cancel(ctx context.Context, task model.Task) error {
	if err := s.device.CancelTag(ctx, task.ID); err != nil {
		return fmt.Errorf("error cancelling task %s: %w", task.ID, err)
	}

	return nil
}

// expired reports whether a one-shot task has already fired.
func (s *Scheduler) expired(task model.Task) bool {
	return !task.Recurring && !task.Datetime.After(s.now())
}

func (s *Scheduler) triggersFor(task model.Task) []Trigger {
	title := task.Type
	body := fmt.Sprintf("Reminder for %s", task.ClientName)

	if !task.Recurring {
		return []Trigger{{
			Tag:     task.ID,
			Key:     oneShotKey(task.ID),
			Title:   title,
			Body:    body,
			FireAt:  task.Datetime,
			Weekday: OneShot,
		}}
	}

	now := s.now().In(s.loc)
	tod := recurrence.TimeOfDayOf(task.Datetime.In(s.loc))

	triggers := []Trigger{}

	for _, day := range task.SelectedDays() {
		triggers = append(triggers, Trigger{
			Tag:     task.ID,
			Key:     weeklyKey(task.ID, day),
			Title:   title,
			Body:    body,
			FireAt:  recurrence.NextTriggerTime(now, day, tod),
			Weekday: int(day),
			Repeat:  recurrence.Week,
		})
	}

	return triggers
}

func (s *Scheduler) checkPermission(ctx context.Context) error {
	granted, err := s.device.RequestPermission(ctx)
	if err != nil {
		return fmt.Errorf("error requesting notification permission: %w", err)
	}

	if granted {
		return nil
	}

	s.mu.Lock()
	first := !s.denied
	s.denied = true
	s.mu.Unlock()

	if first {
		log.Warn().Msg("notification permission denied; reminders will not fire on this device")
	}

	return model.ErrPermissionDenied
}
