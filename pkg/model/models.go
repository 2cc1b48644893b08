package model

import (
	"fmt"
	"time"
)

// TaskTypes lists the kinds of caregiving tasks a reminder can be created for.
var TaskTypes = []string{"Med Reminders", "Vitals Check", "House Keeping"}

// Days holds the short weekday names, indexed the same way as time.Weekday (Sunday is 0).
var Days = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// Client is an entry in the caregiver's roster.
type Client struct {
	ID        int
	FirstName string
	LastName  string
	Address   string
	PhotoURL  string
	// Status is the id of the client's current Status. It is attached at login from the
	// client_statuses join table.
	Status int
	// ClientStatusID is the id of the join table row; status updates are keyed by it.
	ClientStatusID int
}

// Name returns the client's full name.
func (c Client) Name() string {
	return fmt.Sprintf("%s %s", c.FirstName, c.LastName)
}

// Status is a step in the client workflow, e.g. "Backlog" or "Done".
type Status struct {
	ID   int
	Name string
}

// ClientStatus links a client with its current status.
type ClientStatus struct {
	ID       int
	ClientID int
	StatusID int
}

// Task is a scheduled caregiving reminder for a client.
type Task struct {
	ID         string
	Type       string
	Datetime   time.Time
	ClientID   string
	ClientName string
	Recurring  bool
	// RepeatPattern is stored on the server verbatim; its encoding is not interpreted here.
	RepeatPattern *string
	// RecurringDays is indexed by time.Weekday.
	RecurringDays [7]bool
	Enabled       bool
	VideoURL      string
}

// SelectedDays returns the weekdays this task recurs on, in order from Sunday.
func (t Task) SelectedDays() []time.Weekday {
	days := []time.Weekday{}

	for i, on := range t.RecurringDays {
		if on {
			days = append(days, time.Weekday(i))
		}
	}

	return days
}

// IsTaskType reports whether name is one of TaskTypes.
func IsTaskType(name string) bool {
	for _, t := range TaskTypes {
		if t == name {
			return true
		}
	}

	return false
}

// Validate checks a task before it is submitted. The datetime must be strictly after now.
func (t Task) Validate(now time.Time) error {
	if t.Type == "" {
		return &ValidationError{Field: "type", Message: "task type is required"}
	}

	if !IsTaskType(t.Type) {
		return &ValidationError{Field: "type", Message: fmt.Sprintf("unknown task type '%s'", t.Type)}
	}

	if t.Datetime.IsZero() {
		return &ValidationError{Field: "datetime", Message: "both date and time are required"}
	}

	if !t.Datetime.After(now) {
		return &ValidationError{Field: "datetime", Message: "please select a future date and time"}
	}

	if t.Recurring && len(t.SelectedDays()) == 0 {
		return &ValidationError{Field: "recurringDays", Message: "select at least one day for a recurring task"}
	}

	return nil
}
