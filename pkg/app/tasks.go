package app

import (
	"context"
	"errors"
	"time"

	"github.com/matt-steen/care-tracker/pkg/model"
	"github.com/matt-steen/care-tracker/pkg/recurrence"
	"github.com/rs/zerolog/log"
)

// TaskDraft is the input of the new task form.
type TaskDraft struct {
	ClientID   string
	ClientName string
	Type       string
	// Date is the picked calendar day of a one-shot task; only its date part is used.
	Date          time.Time
	Time          recurrence.TimeOfDay
	Recurring     bool
	RecurringDays [7]bool
	RepeatPattern *string
}

// build turns the draft into a task. A recurring task is stored with its first upcoming
// occurrence as its datetime.
func (a *App) build(draft TaskDraft) (model.Task, error) {
	task := model.Task{
		Type:          draft.Type,
		ClientID:      draft.ClientID,
		ClientName:    draft.ClientName,
		Recurring:     draft.Recurring,
		RecurringDays: draft.RecurringDays,
		Enabled:       true,
	}

	if !draft.Recurring {
		if !draft.Date.IsZero() {
			task.Datetime = recurrence.Combine(draft.Date, draft.Time, a.loc)
		}

		return task, nil
	}

	first, ok := recurrence.FirstOccurrence(a.Now(), draft.RecurringDays, draft.Time)
	if !ok {
		return model.Task{}, &model.ValidationError{
			Field:   "recurringDays",
			Message: "select at least one day for a recurring task",
		}
	}

	task.Datetime = first
	task.RepeatPattern = draft.RepeatPattern

	return task, nil
}

// CreateTask validates the draft, stores it remotely and schedules its notifications. The
// task is returned once it is stored, even if the device refused to schedule it.
func (a *App) CreateTask(ctx context.Context, draft TaskDraft) (model.Task, error) {
	task, err := a.build(draft)
	if err != nil {
		a.raise("Validation Error", err)

		return model.Task{}, err
	}

	id, err := a.remote.CreateReminder(ctx, task)
	if err != nil {
		title := "Error"
		if errors.Is(err, model.ErrValidation) {
			title = "Validation Error"
		}

		a.raise(title, err)

		return model.Task{}, err
	}

	task.ID = id

	log.Info().Str("task", task.ID).Str("type", task.Type).Time("datetime", task.Datetime).Msg("created task")

	if err := a.schedule(ctx, task); err != nil {
		return task, err
	}

	return task, nil
}

// schedule registers the task's triggers. A refused permission does not fail the command; the
// user is told about it once. A recurring task whose weekdays this device never recorded is
// reported, since nothing will fire for it.
func (a *App) schedule(ctx context.Context, task model.Task) error {
	err := a.scheduler.Schedule(ctx, task)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, model.ErrPermissionDenied):
		a.permissionDenied()

		return nil
	case errors.Is(err, model.ErrUnknownWeekdays):
		a.alert(Alert{
			Title:   "Weekdays Unknown",
			Message: "The weekdays of this task are unknown on this device, so no reminders were scheduled. Create the task again to pick its days.",
		})

		return err
	}

	a.raise("Notification Error", err)

	return err
}

func (a *App) permissionDenied() {
	a.deniedOnce.Do(func() {
		a.alert(Alert{
			Title:   "Notifications Disabled",
			Message: "Tasks are saved, but reminders will not fire on this device until notifications are allowed.",
		})
	})
}

// SetTaskEnabled switches a task on or off. The server is updated first; if that fails the
// task and its notifications are left unchanged.
func (a *App) SetTaskEnabled(ctx context.Context, task model.Task, enabled bool) (model.Task, error) {
	if err := a.remote.SetEnabled(ctx, task.ID, enabled); err != nil {
		a.raise("Error", err)

		return task, err
	}

	task.Enabled = enabled

	if err := a.scheduler.Cancel(ctx, task); err != nil {
		a.raise("Notification Error", err)

		return task, err
	}

	if enabled {
		if err := a.schedule(ctx, task); err != nil {
			return task, err
		}
	}

	log.Debug().Str("task", task.ID).Bool("enabled", enabled).Msg("toggled task")

	return task, nil
}

// DeleteTask removes a task from the server and then cancels its notifications.
func (a *App) DeleteTask(ctx context.Context, task model.Task) error {
	if err := a.remote.DeleteReminder(ctx, task.ID); err != nil {
		a.raise("Error", err)

		return err
	}

	if err := a.scheduler.Cancel(ctx, task); err != nil {
		a.raise("Notification Error", err)

		return err
	}

	log.Info().Str("task", task.ID).Msg("deleted task")

	return nil
}
