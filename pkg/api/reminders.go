package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/matt-steen/care-tracker/pkg/model"
)

// ListReminders fetches the reminders of one client.
func (c *Client) ListReminders(ctx context.Context, clientID string) ([]model.Task, error) {
	query := url.Values{"client_id": []string{clientID}}

	var resp remindersResponse
	if err := c.do(ctx, http.MethodGet, "/api/reminders", query, nil, &resp); err != nil {
		return nil, fmt.Errorf("error listing reminders for client %s: %w", clientID, err)
	}

	tasks := make([]model.Task, 0, len(resp.Reminders))

	for _, r := range resp.Reminders {
		task, err := r.toTask()
		if err != nil {
			return nil, invalid("reminder", err)
		}

		tasks = append(tasks, task)
	}

	return tasks, nil
}

// GetReminder fetches a single reminder.
func (c *Client) GetReminder(ctx context.Context, id string) (model.Task, error) {
	var resp reminderResponse
	if err := c.do(ctx, http.MethodGet, reminderPath(id), nil, nil, &resp); err != nil {
		return model.Task{}, fmt.Errorf("error getting reminder %s: %w", id, err)
	}

	task, err := resp.Reminder.toTask()
	if err != nil {
		return model.Task{}, invalid("reminder", err)
	}

	return task, nil
}

// CreateReminder validates task and stores it as a new, enabled reminder, returning its id.
// Invalid tasks fail with a model.ValidationError without any request being sent.
func (c *Client) CreateReminder(ctx context.Context, task model.Task) (string, error) {
	if err := task.Validate(c.now()); err != nil {
		return "", err
	}

	task.ID = ""

	record, err := fromTask(task)
	if err != nil {
		return "", err
	}

	in := newReminder{
		ClientID:         record.ClientID,
		TaskType:         record.TaskType,
		ReminderDatetime: record.ReminderDatetime,
		IsRepetitive:     bool(record.IsRepetitive),
		IsEnabled:        true,
	}

	if task.Recurring {
		in.RepeatPattern = record.RepeatPattern
	}

	var resp createdReminder
	if err := c.do(ctx, http.MethodPost, "/api/reminders", nil, in, &resp); err != nil {
		return "", fmt.Errorf("error creating %s reminder: %w", task.Type, err)
	}

	if resp.ReminderID <= 0 {
		return "", invalid("reminder", fmt.Errorf("%w: reminder_id", errMissingField))
	}

	return strconv.Itoa(resp.ReminderID), nil
}

// SetEnabled turns a reminder on or off. Repeating a call leaves the same end state.
func (c *Client) SetEnabled(ctx context.Context, id string, enabled bool) error {
	if err := c.do(ctx, http.MethodPut, reminderPath(id), nil, reminderPatch{IsEnabled: enabled}, nil); err != nil {
		return fmt.Errorf("error setting reminder %s enabled=%t: %w", id, enabled, err)
	}

	return nil
}

// DeleteReminder removes a reminder from the server.
func (c *Client) DeleteReminder(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, reminderPath(id), nil, nil, nil); err != nil {
		return fmt.Errorf("error deleting reminder %s: %w", id, err)
	}

	return nil
}

func reminderPath(id string) string {
	return "/api/reminders/" + url.PathEscape(id)
}
