package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/matt-steen/care-tracker/pkg/model"
)

// wireDatetimeLayout is what the server accepts for reminder_datetime: UTC, truncated to
// seconds, without a zone suffix.
const wireDatetimeLayout = "2006-01-02T15:04:05"

// datetimeLayouts are tried in order when reading reminder_datetime. Layouts without a zone
// are read as UTC.
var datetimeLayouts = []string{
	time.RFC3339Nano,
	http.TimeFormat,
	time.RFC1123,
	time.RFC1123Z,
	wireDatetimeLayout,
	"2006-01-02T15:04:05.000",
	"2006-01-02 15:04:05",
}

var errMissingField = errors.New("missing field")

// flexBool decodes JSON booleans as well as the 0/1 integers the server returns for flags.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "true", "1":
		*b = true
	case "false", "0", "null":
		*b = false
	default:
		return fmt.Errorf("cannot read %s as a boolean", data)
	}

	return nil
}

type clientRecord struct {
	ClientID  int    `json:"client_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address   string `json:"address"`
	PhotoURL  string `json:"photo_url"`
}

type clientsResponse struct {
	Clients []clientRecord `json:"clients"`
}

type statusRecord struct {
	StatusID   int    `json:"status_id"`
	StatusName string `json:"status_name"`
}

type statusesResponse struct {
	Statuses []statusRecord `json:"statuses"`
}

type clientStatusRecord struct {
	ClientStatusID int `json:"client_status_id"`
	ClientID       int `json:"client_id"`
	StatusID       int `json:"status_id"`
}

type clientStatusesResponse struct {
	ClientStatuses []clientStatusRecord `json:"client_statuses"`
}

type clientStatusUpdate struct {
	ClientID int `json:"client_id"`
	StatusID int `json:"status_id"`
}

type reminderRecord struct {
	ReminderID       int      `json:"reminder_id"`
	ClientID         int      `json:"client_id"`
	TaskType         string   `json:"task_type"`
	ReminderDatetime string   `json:"reminder_datetime"`
	IsRepetitive     flexBool `json:"is_repetitive"`
	RepeatPattern    *string  `json:"repeat_pattern"`
	IsEnabled        flexBool `json:"is_enabled"`
	VideoURL         string   `json:"video_url,omitempty"`
}

type remindersResponse struct {
	Reminders []reminderRecord `json:"reminders"`
}

type reminderResponse struct {
	Reminder reminderRecord `json:"reminder"`
}

type newReminder struct {
	ClientID         int     `json:"client_id"`
	TaskType         string  `json:"task_type"`
	ReminderDatetime string  `json:"reminder_datetime"`
	IsRepetitive     bool    `json:"is_repetitive"`
	RepeatPattern    *string `json:"repeat_pattern"`
	IsEnabled        bool    `json:"is_enabled"`
}

type createdReminder struct {
	ReminderID int `json:"reminder_id"`
}

type reminderPatch struct {
	IsEnabled bool `json:"is_enabled"`
}

type newUser struct {
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
}

func (r clientRecord) toClient() (model.Client, error) {
	if r.ClientID <= 0 {
		return model.Client{}, fmt.Errorf("%w: client_id", errMissingField)
	}

	return model.Client{
		ID:        r.ClientID,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Address:   r.Address,
		PhotoURL:  r.PhotoURL,
	}, nil
}

func (r statusRecord) toStatus() (model.Status, error) {
	if r.StatusID <= 0 {
		return model.Status{}, fmt.Errorf("%w: status_id", errMissingField)
	}

	if r.StatusName == "" {
		return model.Status{}, fmt.Errorf("%w: status_name for status %d", errMissingField, r.StatusID)
	}

	return model.Status{ID: r.StatusID, Name: r.StatusName}, nil
}

func (r clientStatusRecord) toClientStatus() (model.ClientStatus, error) {
	if r.ClientStatusID <= 0 || r.ClientID <= 0 || r.StatusID <= 0 {
		return model.ClientStatus{}, fmt.Errorf(
			"%w: client_status %d links client %d with status %d",
			errMissingField, r.ClientStatusID, r.ClientID, r.StatusID,
		)
	}

	return model.ClientStatus{ID: r.ClientStatusID, ClientID: r.ClientID, StatusID: r.StatusID}, nil
}

// toTask maps a reminder record to a Task. RecurringDays cannot be recovered from the record
// and is left empty.
func (r reminderRecord) toTask() (model.Task, error) {
	if r.ReminderID <= 0 {
		return model.Task{}, fmt.Errorf("%w: reminder_id", errMissingField)
	}

	if r.TaskType == "" {
		return model.Task{}, fmt.Errorf("%w: task_type for reminder %d", errMissingField, r.ReminderID)
	}

	datetime, err := parseDatetime(r.ReminderDatetime)
	if err != nil {
		return model.Task{}, fmt.Errorf("reminder %d: %w", r.ReminderID, err)
	}

	return model.Task{
		ID:            strconv.Itoa(r.ReminderID),
		Type:          r.TaskType,
		Datetime:      datetime,
		ClientID:      strconv.Itoa(r.ClientID),
		Recurring:     bool(r.IsRepetitive),
		RepeatPattern: r.RepeatPattern,
		Enabled:       bool(r.IsEnabled),
		VideoURL:      r.VideoURL,
	}, nil
}

// fromTask maps a Task back to its reminder record. A task that has not been stored yet has
// an empty ID and maps to a zero reminder_id.
func fromTask(task model.Task) (reminderRecord, error) {
	var id int

	if task.ID != "" {
		var err error
		if id, err = parseID("id", task.ID); err != nil {
			return reminderRecord{}, err
		}
	}

	clientID, err := parseID("clientId", task.ClientID)
	if err != nil {
		return reminderRecord{}, err
	}

	return reminderRecord{
		ReminderID:       id,
		ClientID:         clientID,
		TaskType:         task.Type,
		ReminderDatetime: formatDatetime(task.Datetime),
		IsRepetitive:     flexBool(task.Recurring),
		RepeatPattern:    task.RepeatPattern,
		IsEnabled:        flexBool(task.Enabled),
		VideoURL:         task.VideoURL,
	}, nil
}

func parseDatetime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: reminder_datetime", errMissingField)
	}

	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized reminder_datetime '%s'", s)
}

func formatDatetime(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(wireDatetimeLayout)
}

func parseID(field, value string) (int, error) {
	id, err := strconv.Atoi(value)
	if err != nil || id <= 0 {
		return 0, &model.ValidationError{Field: field, Message: fmt.Sprintf("'%s' is not a valid id", value)}
	}

	return id, nil
}
