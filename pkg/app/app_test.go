package app_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/matt-steen/care-tracker/pkg/api"
	"github.com/matt-steen/care-tracker/pkg/app"
	"github.com/matt-steen/care-tracker/pkg/db"
	"github.com/matt-steen/care-tracker/pkg/fakeapi"
	"github.com/matt-steen/care-tracker/pkg/model"
	"github.com/matt-steen/care-tracker/pkg/notify"
	"github.com/matt-steen/care-tracker/pkg/recurrence"
	"github.com/matt-steen/care-tracker/pkg/session"
	"github.com/stretchr/testify/assert"
)

// 2030-01-07 is a Monday.
var monday10am = time.Date(2030, 1, 7, 10, 0, 0, 0, time.UTC)

type harness struct {
	app       *app.App
	server    *fakeapi.Server
	device    *db.Database
	scheduler *notify.Scheduler

	mu     sync.Mutex
	alerts []app.Alert
}

func (h *harness) Alerts() []app.Alert {
	h.mu.Lock()
	defer h.mu.Unlock()

	return append([]app.Alert{}, h.alerts...)
}

func (h *harness) calls(method string) []fakeapi.Call {
	calls := []fakeapi.Call{}

	for _, call := range h.server.Calls() {
		if call.Method == method {
			calls = append(calls, call)
		}
	}

	return calls
}

func testSeed() fakeapi.Seed {
	return fakeapi.Seed{
		Clients: []fakeapi.Client{
			{ClientID: 5, FirstName: "Ada", LastName: "Lovelace", Address: "1 Analytical Way"},
			{ClientID: 6, FirstName: "Grace", LastName: "Hopper", Address: "2 Compiler Court"},
		},
		Statuses: []fakeapi.Status{
			{StatusID: 1, StatusName: "Backlog"},
			{StatusID: 2, StatusName: "Done"},
		},
		ClientStatuses: []fakeapi.ClientStatus{
			{ClientStatusID: 9, ClientID: 5, StatusID: 1},
		},
		Reminders: []fakeapi.Reminder{
			{ReminderID: 20, ClientID: 5, TaskType: "Vitals Check", ReminderDatetime: "2030-01-08T09:00:00", IsEnabled: true},
			{ReminderID: 21, ClientID: 6, TaskType: "House Keeping", ReminderDatetime: "2030-01-09T09:00:00", IsEnabled: true},
		},
	}
}

func newHarness(t *testing.T, allowNotifications bool) *harness {
	t.Helper()

	assert := assert.New(t)

	server := fakeapi.New(testSeed())
	ts := httptest.NewServer(server)
	t.Cleanup(ts.Close)

	return newHarnessWithURL(t, assert, server, ts.URL, allowNotifications)
}

func newHarnessWithSeed(t *testing.T, seed fakeapi.Seed, allowNotifications bool) *harness {
	t.Helper()

	assert := assert.New(t)

	server := fakeapi.New(seed)
	ts := httptest.NewServer(server)
	t.Cleanup(ts.Close)

	return newHarnessWithURL(t, assert, server, ts.URL, allowNotifications)
}

func newHarnessWithURL(t *testing.T, assert *assert.Assertions, server *fakeapi.Server, url string, allowNotifications bool) *harness {
	t.Helper()

	clock := func() time.Time { return monday10am }

	tempFile, err := os.CreateTemp("/tmp", "test_app*")
	assert.Nil(err)

	device, err := db.NewDatabase(context.Background(), tempFile.Name(), allowNotifications, time.UTC)
	assert.Nil(err)
	t.Cleanup(func() { device.Close() })

	remote := api.NewClient(url, time.Second)
	remote.SetClock(clock)

	scheduler := notify.NewScheduler(device, time.UTC)
	scheduler.SetClock(clock)

	h := &harness{server: server, device: device, scheduler: scheduler}

	h.app = app.New(remote, session.NewStore(), scheduler, time.UTC)
	h.app.SetClock(clock)
	h.app.SetAlertFunc(func(alert app.Alert) {
		h.mu.Lock()
		defer h.mu.Unlock()

		h.alerts = append(h.alerts, alert)
	})

	return h
}

func (h *harness) login(assert *assert.Assertions) {
	assert.Nil(h.app.Login(context.Background(), "carer@example.com", "secret"))
}

func (h *harness) pending(assert *assert.Assertions, id string) []notify.Trigger {
	pending, err := h.device.Pending(context.Background(), id)
	assert.Nil(err)

	return pending
}

func TestLoginJoinsStatuses(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	h := newHarness(t, true)

	h.login(assert)

	store := h.app.Store()
	assert.True(store.Active())

	ada, err := store.Client(5)
	assert.Nil(err)
	assert.Equal(1, ada.Status)
	assert.Equal(9, ada.ClientStatusID)
	assert.Equal("Backlog", store.StatusName(ada.Status))

	grace, err := store.Client(6)
	assert.Nil(err)
	assert.Equal(0, grace.Status)
	assert.Equal(0, grace.ClientStatusID)

	statuses, err := store.Statuses()
	assert.Nil(err)
	assert.Equal(2, len(statuses))

	assert.Equal(0, len(h.Alerts()))
}

func TestLoginValidation(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	h := newHarness(t, true)

	err := h.app.Login(context.Background(), "", "secret")
	assert.True(errors.Is(err, model.ErrValidation))

	err = h.app.Login(context.Background(), "carer@example.com", "")
	assert.True(errors.Is(err, model.ErrValidation))

	assert.Equal(0, len(h.server.Calls()))
	assert.Equal(0, len(h.Alerts()))
	assert.False(h.app.Store().Active())
}

func TestLoginPartialFailure(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	h := newHarness(t, true)

	h.server.Fail("/api/statuses", http.StatusInternalServerError)

	err := h.app.Login(context.Background(), "carer@example.com", "secret")
	assert.True(errors.Is(err, model.ErrServer))

	assert.False(h.app.Store().Active())

	_, err = h.app.Store().Clients()
	assert.True(errors.Is(err, model.ErrNoSession))

	alerts := h.Alerts()
	assert.Equal(1, len(alerts))
	assert.Equal("Login Failed", alerts[0].Title)
	assert.Equal("injected failure", alerts[0].Message)
}

func TestLoginNetworkFailure(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	ts := httptest.NewServer(http.NotFoundHandler())
	ts.Close()

	h := newHarnessWithURL(t, assert, fakeapi.New(testSeed()), ts.URL, true)

	err := h.app.Login(context.Background(), "carer@example.com", "secret")
	assert.True(errors.Is(err, model.ErrNetwork))
	assert.False(h.app.Store().Active())

	alerts := h.Alerts()
	assert.Equal(1, len(alerts))
	assert.Equal("Could not reach the server. Check your connection and try again.", alerts[0].Message)
}

func TestLogout(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	h := newHarness(t, true)

	h.login(assert)
	h.app.Logout()

	assert.False(h.app.Store().Active())

	_, err := h.app.Store().Statuses()
	assert.True(errors.Is(err, model.ErrNoSession))
}

func TestSignUp(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	h := newHarness(t, true)

	assert.Nil(h.app.SignUp(context.Background(), "new@example.com", "secret"))

	err := h.app.SignUp(context.Background(), "new@example.com", "secret")
	assert.True(errors.Is(err, model.ErrServer))

	alerts := h.Alerts()
	assert.Equal(1, len(alerts))
	assert.Equal("Sign Up Failed", alerts[0].Title)
	assert.Equal("user already exists", alerts[0].Message)
}

func TestChangeStatus(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	h := newHarness(t, true)

	h.login(assert)

	client, err := h.app.ChangeStatus(context.Background(), 5, 2)
	assert.Nil(err)
	assert.Equal(2, client.Status)
	assert.Equal(9, client.ClientStatusID)

	puts := h.calls(http.MethodPut)
	assert.Equal(1, len(puts))
	assert.Equal("/api/client_statuses/9", puts[0].Path)
	assert.JSONEq(`{"client_id":5,"status_id":2}`, string(puts[0].Body))

	stored, err := h.app.Store().Client(5)
	assert.Nil(err)
	assert.Equal(2, stored.Status)
	assert.Equal("Done", h.app.Store().StatusName(stored.Status))
}

func TestChangeStatusFailureKeepsStore(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	h := newHarness(t, true)

	h.login(assert)
	h.server.Fail("/api/client_statuses/{id:[0-9]+}", http.StatusNotFound)

	_, err := h.app.ChangeStatus(context.Background(), 5, 2)
	assert.True(errors.Is(err, model.ErrNotFound))

	stored, err := h.app.Store().Client(5)
	assert.Nil(err)
	assert.Equal(1, stored.Status)

	assert.Equal(1, len(h.Alerts()))

	// a client without a status link cannot be moved
	_, err = h.app.ChangeStatus(context.Background(), 6, 2)
	assert.True(errors.Is(err, model.ErrNotFound))
}

func TestChangeStatusWithoutSession(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	h := newHarness(t, true)

	_, err := h.app.ChangeStatus(context.Background(), 5, 2)
	assert.True(errors.Is(err, model.ErrNoSession))
	assert.Equal(0, len(h.server.Calls()))
}

func TestTasks(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	h := newHarness(t, true)

	h.login(assert)

	ada, err := h.app.Store().Client(5)
	assert.Nil(err)

	tasks, err := h.app.Tasks(context.Background(), ada)
	assert.Nil(err)
	assert.Equal(1, len(tasks))
	assert.Equal("20", tasks[0].ID)
	assert.Equal("Ada Lovelace", tasks[0].ClientName)

	// the future reminder was missing from the device and has been scheduled
	pending := h.pending(assert, "20")
	assert.Equal(1, len(pending))
	assert.Equal("Reminder for Ada Lovelace", pending[0].Body)

	task, err := h.app.TaskDetails(context.Background(), "20")
	assert.Nil(err)
	assert.Equal("Vitals Check", task.Type)

	_, err = h.app.TaskDetails(context.Background(), "99")
	assert.True(errors.Is(err, model.ErrNotFound))
}

func TestCreateOneShotTask(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	h := newHarness(t, true)

	task, err := h.app.CreateTask(context.Background(), app.TaskDraft{
		ClientID:   "5",
		ClientName: "Ada Lovelace",
		Type:       "Med Reminders",
		Date:       time.Date(2030, 1, 8, 0, 0, 0, 0, time.UTC),
		Time:       recurrence.TimeOfDay{Hour: 9, Minute: 15},
	})
	assert.Nil(err)
	assert.Equal("22", task.ID)
	assert.True(task.Enabled)
	assert.Equal(time.Date(2030, 1, 8, 9, 15, 0, 0, time.UTC), task.Datetime)

	stored, ok := h.server.Reminder(22)
	assert.True(ok)
	assert.Equal("2030-01-08T09:15:00", stored.ReminderDatetime)
	assert.True(stored.Enabled())

	pending := h.pending(assert, "22")
	assert.Equal(1, len(pending))
	assert.Equal(task.Datetime, pending[0].FireAt)
	assert.Equal(0, len(h.Alerts()))
}

func TestCreateRecurringTask(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	h := newHarness(t, true)

	draft := app.TaskDraft{
		ClientID:   "5",
		ClientName: "Ada Lovelace",
		Type:       "Vitals Check",
		Time:       recurrence.TimeOfDay{Hour: 9},
		Recurring:  true,
	}
	draft.RecurringDays[time.Monday] = true
	draft.RecurringDays[time.Thursday] = true

	task, err := h.app.CreateTask(context.Background(), draft)
	assert.Nil(err)

	// Monday 09:00 has passed, so the first occurrence is Thursday
	assert.Equal(time.Date(2030, 1, 10, 9, 0, 0, 0, time.UTC), task.Datetime)

	stored, ok := h.server.Reminder(22)
	assert.True(ok)
	assert.True(bool(stored.IsRepetitive))

	pending := h.pending(assert, task.ID)
	assert.Equal(2, len(pending))
	assert.Equal(int(time.Thursday), pending[0].Weekday)
	assert.Equal(int(time.Monday), pending[1].Weekday)
	assert.Equal(time.Date(2030, 1, 14, 9, 0, 0, 0, time.UTC), pending[1].FireAt)
}

func TestCreateTaskInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		draft   app.TaskDraft
		message string
	}{
		{
			name:    "past",
			draft:   app.TaskDraft{ClientID: "5", Type: "Med Reminders", Date: monday10am, Time: recurrence.TimeOfDay{Hour: 9}},
			message: "please select a future date and time",
		},
		{
			name:    "no date",
			draft:   app.TaskDraft{ClientID: "5", Type: "Med Reminders", Time: recurrence.TimeOfDay{Hour: 9}},
			message: "both date and time are required",
		},
		{
			name:    "no type",
			draft:   app.TaskDraft{ClientID: "5", Date: monday10am.AddDate(0, 0, 1)},
			message: "task type is required",
		},
		{
			name:    "recurring without days",
			draft:   app.TaskDraft{ClientID: "5", Type: "Vitals Check", Recurring: true},
			message: "select at least one day for a recurring task",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert := assert.New(t)
			h := newHarness(t, true)

			_, err := h.app.CreateTask(context.Background(), tt.draft)
			assert.True(errors.Is(err, model.ErrValidation))

			alerts := h.Alerts()
			assert.Equal(1, len(alerts))
			assert.Equal("Validation Error", alerts[0].Title)
			assert.Equal(tt.message, alerts[0].Message)

			assert.Equal(0, len(h.server.Calls()))

			all, err := h.device.All(context.Background())
			assert.Nil(err)
			assert.Equal(0, len(all))
		})
	}
}

func TestSetTaskEnabled(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	ctx := context.Background()
	h := newHarness(t, true)

	draft := app.TaskDraft{ClientID: "5", ClientName: "Ada Lovelace", Type: "Vitals Check", Time: recurrence.TimeOfDay{Hour: 9}, Recurring: true}
	draft.RecurringDays[time.Monday] = true
	draft.RecurringDays[time.Thursday] = true

	task, err := h.app.CreateTask(ctx, draft)
	assert.Nil(err)

	task, err = h.app.SetTaskEnabled(ctx, task, false)
	assert.Nil(err)
	assert.False(task.Enabled)
	assert.Equal(0, len(h.pending(assert, task.ID)))

	stored, _ := h.server.Reminder(22)
	assert.False(stored.Enabled())

	// toggling back restores the same two weekly triggers
	task, err = h.app.SetTaskEnabled(ctx, task, true)
	assert.Nil(err)
	assert.True(task.Enabled)
	assert.Equal(2, len(h.pending(assert, task.ID)))

	task, err = h.app.SetTaskEnabled(ctx, task, true)
	assert.Nil(err)
	assert.Equal(2, len(h.pending(assert, task.ID)))

	stored, _ = h.server.Reminder(22)
	assert.True(stored.Enabled())
}

func TestSetTaskEnabledFailure(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	ctx := context.Background()
	h := newHarness(t, true)

	task, err := h.app.CreateTask(ctx, app.TaskDraft{
		ClientID: "5", Type: "Med Reminders", Date: monday10am, Time: recurrence.TimeOfDay{Hour: 18},
	})
	assert.Nil(err)

	h.server.Fail("/api/reminders/{id:[0-9]+}", http.StatusInternalServerError)

	unchanged, err := h.app.SetTaskEnabled(ctx, task, false)
	assert.True(errors.Is(err, model.ErrServer))
	assert.True(unchanged.Enabled)
	assert.Equal(1, len(h.pending(assert, task.ID)))
}

func TestDeleteTask(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	ctx := context.Background()
	h := newHarness(t, true)

	task, err := h.app.CreateTask(ctx, app.TaskDraft{
		ClientID: "5", Type: "Med Reminders", Date: monday10am, Time: recurrence.TimeOfDay{Hour: 18},
	})
	assert.Nil(err)

	assert.Nil(h.app.DeleteTask(ctx, task))

	_, ok := h.server.Reminder(22)
	assert.False(ok)
	assert.Equal(0, len(h.pending(assert, task.ID)))

	err = h.app.DeleteTask(ctx, task)
	assert.True(errors.Is(err, model.ErrNotFound))
}

func TestPermissionDeniedAlertsOnce(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	ctx := context.Background()
	h := newHarness(t, false)

	for _, hour := range []int{17, 18} {
		task, err := h.app.CreateTask(ctx, app.TaskDraft{
			ClientID: "5", Type: "Med Reminders", Date: monday10am, Time: recurrence.TimeOfDay{Hour: hour},
		})
		assert.Nil(err)
		assert.NotEmpty(task.ID)
	}

	alerts := h.Alerts()
	assert.Equal(1, len(alerts))
	assert.Equal("Notifications Disabled", alerts[0].Title)

	all, err := h.device.All(ctx)
	assert.Nil(err)
	assert.Equal(0, len(all))

	_, ok := h.server.Reminder(23)
	assert.True(ok)
}

func taskByID(tasks []model.Task, id string) (model.Task, bool) {
	for _, task := range tasks {
		if task.ID == id {
			return task, true
		}
	}

	return model.Task{}, false
}

func alertsTitled(alerts []app.Alert, title string) int {
	count := 0

	for _, alert := range alerts {
		if alert.Title == title {
			count++
		}
	}

	return count
}

func TestEnablePastOneShotTask(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	ctx := context.Background()

	seed := testSeed()
	seed.Reminders = append(seed.Reminders, fakeapi.Reminder{
		ReminderID: 30, ClientID: 5, TaskType: "Med Reminders", ReminderDatetime: "2030-01-01T09:00:00",
	})

	h := newHarnessWithSeed(t, seed, true)
	h.login(assert)

	ada, err := h.app.Store().Client(5)
	assert.Nil(err)

	tasks, err := h.app.Tasks(ctx, ada)
	assert.Nil(err)

	task, ok := taskByID(tasks, "30")
	assert.True(ok)
	assert.False(task.Enabled)

	task, err = h.app.SetTaskEnabled(ctx, task, true)
	assert.Nil(err)
	assert.True(task.Enabled)
	assert.Equal(0, len(h.pending(assert, "30")))

	stored, _ := h.server.Reminder(30)
	assert.True(stored.Enabled())

	delivered := 0
	assert.Nil(h.scheduler.DeliverDue(ctx, monday10am, func(notify.Notification) { delivered++ }))
	assert.Equal(0, delivered)
}

func TestEnableRecurringTaskWithUnknownWeekdays(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	ctx := context.Background()

	seed := testSeed()
	seed.Reminders = append(seed.Reminders, fakeapi.Reminder{
		ReminderID: 31, ClientID: 5, TaskType: "Vitals Check", ReminderDatetime: "2030-01-10T09:00:00", IsRepetitive: true,
	})

	h := newHarnessWithSeed(t, seed, true)
	h.login(assert)

	ada, err := h.app.Store().Client(5)
	assert.Nil(err)

	tasks, err := h.app.Tasks(ctx, ada)
	assert.Nil(err)

	task, ok := taskByID(tasks, "31")
	assert.True(ok)
	assert.True(task.Recurring)
	assert.Equal(0, len(task.SelectedDays()))

	task, err = h.app.SetTaskEnabled(ctx, task, true)
	assert.True(errors.Is(err, model.ErrUnknownWeekdays))
	assert.True(task.Enabled)
	assert.Equal(0, len(h.pending(assert, "31")))
	assert.Equal(1, alertsTitled(h.Alerts(), "Weekdays Unknown"))
}

func TestTasksPermissionDeniedAlertsOnce(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	ctx := context.Background()
	h := newHarness(t, false)

	h.login(assert)

	ada, err := h.app.Store().Client(5)
	assert.Nil(err)

	for i := 0; i < 2; i++ {
		tasks, err := h.app.Tasks(ctx, ada)
		assert.Nil(err)
		assert.Equal(1, len(tasks))
	}

	assert.Equal(1, alertsTitled(h.Alerts(), "Notifications Disabled"))
	assert.Equal(0, len(h.pending(assert, "20")))
}
