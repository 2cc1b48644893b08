package app

import (
	"context"

	"github.com/matt-steen/care-tracker/pkg/model"
)

// Remote is the remote care API as seen by the app.
type Remote interface {
	ListClients(ctx context.Context) ([]model.Client, error)
	ListStatuses(ctx context.Context) ([]model.Status, error)
	ListClientStatuses(ctx context.Context) ([]model.ClientStatus, error)
	UpdateClientStatus(ctx context.Context, linkID, clientID, statusID int) (model.ClientStatus, error)
	CreateUser(ctx context.Context, username, password string) error

	ListReminders(ctx context.Context, clientID string) ([]model.Task, error)
	GetReminder(ctx context.Context, id string) (model.Task, error)
	CreateReminder(ctx context.Context, task model.Task) (string, error)
	SetEnabled(ctx context.Context, id string, enabled bool) error
	DeleteReminder(ctx context.Context, id string) error
}

// Scheduler keeps device triggers in step with tasks.
type Scheduler interface {
	Schedule(ctx context.Context, task model.Task) error
	Cancel(ctx context.Context, task model.Task) error
	Reconcile(ctx context.Context, tasks []model.Task) ([]model.Task, error)
}

// Alert is a message that must be shown to the user.
type Alert struct {
	Title   string
	Message string
}

// AlertFunc receives alerts raised while handling commands.
type AlertFunc func(Alert)
