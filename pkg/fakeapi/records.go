package fakeapi

import (
	"bytes"
	"fmt"
)

// flag is a boolean the server writes as 1 or 0, matching the production API.
type flag bool

func (f flag) MarshalJSON() ([]byte, error) {
	if f {
		return []byte("1"), nil
	}

	return []byte("0"), nil
}

func (f *flag) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "true", "1":
		*f = true
	case "false", "0", "null":
		*f = false
	default:
		return fmt.Errorf("cannot read %s as a boolean", data)
	}

	return nil
}

// Client is a roster entry as stored by the fake server.
type Client struct {
	ClientID  int    `json:"client_id" yaml:"client_id"`
	FirstName string `json:"first_name" yaml:"first_name"`
	LastName  string `json:"last_name" yaml:"last_name"`
	Address   string `json:"address" yaml:"address"`
	PhotoURL  string `json:"photo_url" yaml:"photo_url"`
}

// Status is an entry of the status taxonomy.
type Status struct {
	StatusID   int    `json:"status_id" yaml:"status_id"`
	StatusName string `json:"status_name" yaml:"status_name"`
}

// ClientStatus is a row of the client/status join table.
type ClientStatus struct {
	ClientStatusID int `json:"client_status_id" yaml:"client_status_id"`
	ClientID       int `json:"client_id" yaml:"client_id"`
	StatusID       int `json:"status_id" yaml:"status_id"`
}

// Reminder is a stored reminder.
type Reminder struct {
	ReminderID       int     `json:"reminder_id" yaml:"reminder_id"`
	ClientID         int     `json:"client_id" yaml:"client_id"`
	TaskType         string  `json:"task_type" yaml:"task_type"`
	ReminderDatetime string  `json:"reminder_datetime" yaml:"reminder_datetime"`
	IsRepetitive     flag    `json:"is_repetitive" yaml:"is_repetitive"`
	RepeatPattern    *string `json:"repeat_pattern" yaml:"repeat_pattern"`
	IsEnabled        flag    `json:"is_enabled" yaml:"is_enabled"`
	VideoURL         string  `json:"video_url,omitempty" yaml:"video_url"`
}

// Enabled reports whether the reminder is switched on.
func (r Reminder) Enabled() bool {
	return bool(r.IsEnabled)
}

// Seed is the initial content of a Server.
type Seed struct {
	Clients        []Client       `yaml:"clients"`
	Statuses       []Status       `yaml:"statuses"`
	ClientStatuses []ClientStatus `yaml:"client_statuses"`
	Reminders      []Reminder     `yaml:"reminders"`
}
