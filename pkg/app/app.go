// Package app handles the commands issued by the screens: it awaits the remote API, updates
// the session store and keeps device notifications in step.
package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/matt-steen/care-tracker/pkg/model"
	"github.com/matt-steen/care-tracker/pkg/session"
	"github.com/rs/zerolog/log"
)

// App mediates between the screens and the remote API, session store and scheduler.
type App struct {
	remote    Remote
	store     *session.Store
	scheduler Scheduler
	loc       *time.Location
	now       func() time.Time
	alert     AlertFunc

	deniedOnce sync.Once
}

// New returns an App. Dates and times entered by the user are read in loc.
func New(remote Remote, store *session.Store, scheduler Scheduler, loc *time.Location) *App {
	if loc == nil {
		loc = time.Local
	}

	return &App{
		remote:    remote,
		store:     store,
		scheduler: scheduler,
		loc:       loc,
		now:       time.Now,
		alert:     func(Alert) {},
	}
}

// SetClock replaces the app's clock.
func (a *App) SetClock(now func() time.Time) {
	a.now = now
}

// SetAlertFunc sets the receiver of alerts.
func (a *App) SetAlertFunc(fn AlertFunc) {
	a.alert = fn
}

// Store returns the session store.
func (a *App) Store() *session.Store {
	return a.store
}

// Location returns the location user input is read in.
func (a *App) Location() *time.Location {
	return a.loc
}

// Now returns the current time in the app's location.
func (a *App) Now() time.Time {
	return a.now().In(a.loc)
}

func (a *App) raise(title string, err error) {
	var verr *model.ValidationError

	message := err.Error()

	var serr *model.ServerError

	switch {
	case errors.As(err, &verr):
		message = verr.Message
	case errors.As(err, &serr):
		message = serr.Message
	case errors.Is(err, model.ErrNetwork):
		message = "Could not reach the server. Check your connection and try again."
	}

	a.alert(Alert{Title: title, Message: message})
}

type loginData struct {
	clients  []model.Client
	statuses []model.Status
	links    []model.ClientStatus
}

// Login loads the roster, the status taxonomy and the client/status links concurrently.
// The store is populated only when all three succeed.
func (a *App) Login(ctx context.Context, email, password string) error {
	if email == "" {
		return &model.ValidationError{Field: "email", Message: "email is required"}
	}

	if password == "" {
		return &model.ValidationError{Field: "password", Message: "password is required"}
	}

	data, err := a.fetchLoginData(ctx)
	if err != nil {
		log.Warn().Err(err).Str("email", email).Msg("login failed")
		a.raise("Login Failed", err)

		return fmt.Errorf("error logging in %s: %w", email, err)
	}

	clients := joinStatuses(data.clients, data.links)

	a.store.SetStatuses(data.statuses)
	a.store.SetClients(clients)

	log.Info().Str("email", email).Int("clients", len(clients)).Msg("logged in")

	return nil
}

func (a *App) fetchLoginData(ctx context.Context) (loginData, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		data loginData
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	fail := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
		cancel()
	}

	wg.Add(3)

	go func() {
		defer wg.Done()

		clients, err := a.remote.ListClients(ctx)
		if err != nil {
			fail(err)

			return
		}

		data.clients = clients
	}()

	go func() {
		defer wg.Done()

		statuses, err := a.remote.ListStatuses(ctx)
		if err != nil {
			fail(err)

			return
		}

		data.statuses = statuses
	}()

	go func() {
		defer wg.Done()

		links, err := a.remote.ListClientStatuses(ctx)
		if err != nil {
			fail(err)

			return
		}

		data.links = links
	}()

	wg.Wait()

	if len(errs) > 0 {
		// the first failure cancels the others; report it rather than the cancellations
		return loginData{}, errs[0]
	}

	return data, nil
}

// joinStatuses attaches the linked status to each client.
func joinStatuses(clients []model.Client, links []model.ClientStatus) []model.Client {
	byClient := map[int]model.ClientStatus{}

	for _, link := range links {
		if _, ok := byClient[link.ClientID]; !ok {
			byClient[link.ClientID] = link
		}
	}

	joined := make([]model.Client, 0, len(clients))

	for _, client := range clients {
		if link, ok := byClient[client.ID]; ok {
			client.Status = link.StatusID
			client.ClientStatusID = link.ID
		} else {
			log.Warn().Int("client", client.ID).Msg("client has no status link")
		}

		joined = append(joined, client)
	}

	return joined
}

// Logout ends the session.
func (a *App) Logout() {
	a.store.Clear()

	log.Info().Msg("logged out")
}

// SignUp registers a new account.
func (a *App) SignUp(ctx context.Context, email, password string) error {
	if err := a.remote.CreateUser(ctx, email, password); err != nil {
		a.raise("Sign Up Failed", err)

		return err
	}

	return nil
}

// ChangeStatus moves a client to another status, remotely first and then in the store. On
// failure the store is left as it was.
func (a *App) ChangeStatus(ctx context.Context, clientID, statusID int) (model.Client, error) {
	client, err := a.store.Client(clientID)
	if err != nil {
		return model.Client{}, err
	}

	if client.ClientStatusID == 0 {
		return model.Client{}, fmt.Errorf("client %d has no status link: %w", clientID, model.ErrNotFound)
	}

	link, err := a.remote.UpdateClientStatus(ctx, client.ClientStatusID, client.ID, statusID)
	if err != nil {
		a.raise("Error", err)

		return model.Client{}, err
	}

	client.Status = link.StatusID
	client.ClientStatusID = link.ID

	if err := a.store.UpdateClient(client); err != nil {
		return model.Client{}, err
	}

	log.Debug().Int("client", client.ID).Int("status", client.Status).Msg("changed client status")

	return client, nil
}

// Tasks loads the reminders of a client and reconciles them with the device.
func (a *App) Tasks(ctx context.Context, client model.Client) ([]model.Task, error) {
	tasks, err := a.remote.ListReminders(ctx, strconv.Itoa(client.ID))
	if err != nil {
		a.raise("Error", err)

		return nil, err
	}

	for i := range tasks {
		tasks[i].ClientName = client.Name()
	}

	tasks, err = a.scheduler.Reconcile(ctx, tasks)
	if errors.Is(err, model.ErrPermissionDenied) {
		a.permissionDenied()

		return tasks, nil
	}

	if err != nil {
		a.raise("Error", err)

		return nil, err
	}

	return tasks, nil
}

// TaskDetails loads a single reminder.
func (a *App) TaskDetails(ctx context.Context, id string) (model.Task, error) {
	task, err := a.remote.GetReminder(ctx, id)
	if err != nil {
		a.raise("Error", err)

		return model.Task{}, err
	}

	return task, nil
}
