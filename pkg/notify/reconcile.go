package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/matt-steen/care-tracker/pkg/model"
	"github.com/rs/zerolog/log"
)

// Reconcile brings the device in line with tasks loaded from the server and returns the tasks
// with their weekly schedule restored from the device. The server does not keep the weekday
// schedule of recurring tasks, so the days come from the triggers registered on this device.
//
// Disabled tasks lose their triggers. Enabled tasks without triggers are scheduled, following
// the rules of Schedule. When the device refuses permission every task is still reconciled and
// returned, together with model.ErrPermissionDenied.
func (s *Scheduler) Reconcile(ctx context.Context, tasks []model.Task) ([]model.Task, error) {
	out := make([]model.Task, 0, len(tasks))
	denied := false

	for _, task := range tasks {
		pending, err := s.device.Pending(ctx, task.ID)
		if err != nil {
			return nil, fmt.Errorf("error reading triggers of task %s: %w", task.ID, err)
		}

		if task.Recurring && len(task.SelectedDays()) == 0 {
			for _, trigger := range pending {
				if trigger.Weekday >= 0 && trigger.Weekday < len(task.RecurringDays) {
					task.RecurringDays[trigger.Weekday] = true
				}
			}
		}

		out = append(out, task)

		switch {
		case !task.Enabled:
			if len(pending) > 0 {
				if err := s.Cancel(ctx, task); err != nil {
					return nil, err
				}
			}
		case len(pending) > 0:
			// already scheduled
		default:
			err := s.Schedule(ctx, task)

			switch {
			case err == nil:
			case errors.Is(err, model.ErrUnknownWeekdays):
				log.Info().Str("task", task.ID).Msg("recurring task has no known weekdays on this device; not scheduling")
			case errors.Is(err, model.ErrPermissionDenied):
				denied = true
			default:
				return nil, err
			}
		}
	}

	if denied {
		return out, model.ErrPermissionDenied
	}

	return out, nil
}

// Notification is a fired trigger, resolved back to its task.
type Notification struct {
	TaskID string
	Title  string
	Body   string
	At     time.Time
}

// DeliverDue hands every trigger due at now to deliver and advances it past now.
func (s *Scheduler) DeliverDue(ctx context.Context, now time.Time, deliver func(Notification)) error {
	due, err := s.device.Due(ctx, now)
	if err != nil {
		return fmt.Errorf("error loading due triggers: %w", err)
	}

	for _, trigger := range due {
		deliver(Notification{TaskID: trigger.Tag, Title: trigger.Title, Body: trigger.Body, At: trigger.FireAt})

		if err := s.device.Advance(ctx, trigger, now); err != nil {
			return err
		}
	}

	return nil
}
