package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matt-steen/care-tracker/pkg/app"
	"github.com/matt-steen/care-tracker/pkg/model"
	"github.com/matt-steen/care-tracker/pkg/notify"
	"github.com/rivo/tview"
	"github.com/rs/zerolog/log"
)

const (
	pageLogin  = "login"
	pageRoster = "roster"
	pageTasks  = "tasks"
	pageForm   = "taskForm"
	pageModal  = "modal"

	addressNameRatio = 2
)

// Controller mediates between the app commands and the view.
type Controller struct {
	ctx          context.Context
	app          *app.App
	scheduler    *notify.Scheduler
	pollInterval time.Duration

	tui     *tview.Application
	pages   *tview.Pages
	modal   *tview.Modal
	focused tview.Primitive

	rosterEvents map[rune]KeyEvent
	taskEvents   map[rune]KeyEvent

	loginForm *tview.Form

	rosterHeader *tview.Table
	rosterTable  *tview.Table
	search       *tview.InputField
	roster       *RosterContent
	sortBy       string

	taskHeader   *tview.Table
	taskTable    *tview.Table
	tasks        *TaskContent
	client       *model.Client
	selectedTask *model.Task

	taskForm *tview.Form
	draft    app.TaskDraft
	dateText string
	timeText string
}

// KeyEvent defines an event associated with a keypress.
type KeyEvent struct {
	Description string
	Action      func(*tcell.EventKey) *tcell.EventKey
}

// NewController creates a new Controller to run the app. Due notifications are polled from
// the scheduler every pollInterval.
func NewController(ctx context.Context, a *app.App, scheduler *notify.Scheduler, pollInterval time.Duration) *Controller {
	c := Controller{
		ctx:          ctx,
		app:          a,
		scheduler:    scheduler,
		pollInterval: pollInterval,
		tui:          tview.NewApplication(),
		pages:        tview.NewPages(),
		sortBy:       sortFirstName,
		roster:       &RosterContent{},
		tasks:        &TaskContent{loc: a.Location()},
	}

	a.SetAlertFunc(func(alert app.Alert) {
		c.tui.QueueUpdateDraw(func() {
			c.showAlert(alert.Title, alert.Message)
		})
	})

	c.initEvents()

	c.pages.AddPage(pageLogin, c.getLoginGrid(), true, true)
	c.pages.AddPage(pageRoster, c.getRosterGrid(), true, false)
	c.pages.AddPage(pageTasks, c.getTaskGrid(), true, false)
	c.pages.AddPage(pageForm, c.getTaskFormGrid(), true, false)

	return &c
}

// Go starts the app and blocks until it exits.
func (c *Controller) Go() error {
	ctx, cancel := context.WithCancel(c.ctx)
	defer cancel()

	go c.deliverNotifications(ctx)

	c.showLogin()

	if err := c.tui.SetRoot(c.pages, true).Run(); err != nil {
		return fmt.Errorf("error running the terminal ui: %w", err)
	}

	return nil
}

// run executes work off the UI goroutine and applies done on it afterwards.
func (c *Controller) run(work func(ctx context.Context) error, done func(err error)) {
	go func() {
		err := work(c.ctx)

		c.tui.QueueUpdateDraw(func() {
			done(err)
		})
	}()
}

func (c *Controller) deliverNotifications(ctx context.Context) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			err := c.scheduler.DeliverDue(ctx, now, func(n notify.Notification) {
				c.tui.QueueUpdateDraw(func() {
					c.showNotification(n)
				})
			})
			if err != nil {
				log.Warn().Err(err).Msg("error delivering notifications")
			}
		}
	}
}

// show switches to page and focuses p, keeping an open modal on top.
func (c *Controller) show(page string, p tview.Primitive) {
	c.pages.SwitchToPage(page)
	c.focused = p

	if c.modal != nil {
		c.pages.ShowPage(pageModal)
		c.tui.SetFocus(c.modal)

		return
	}

	c.tui.SetFocus(p)
}

func (c *Controller) showModal(modal *tview.Modal) {
	if c.modal != nil {
		c.pages.RemovePage(pageModal)
	}

	c.modal = modal
	c.pages.AddPage(pageModal, modal, true, true)
	c.tui.SetFocus(modal)
}

func (c *Controller) closeModal() {
	c.pages.RemovePage(pageModal)
	c.modal = nil

	if c.focused != nil {
		c.tui.SetFocus(c.focused)
	}
}

func (c *Controller) showAlert(title, message string) {
	modal := tview.NewModal().
		SetText(fmt.Sprintf("%s\n\n%s", title, message)).
		AddButtons([]string{"OK"}).
		SetDoneFunc(func(int, string) {
			c.closeModal()
		})

	c.showModal(modal)
}

func (c *Controller) confirm(message, action string, yes func()) {
	modal := tview.NewModal().
		SetText(message).
		AddButtons([]string{action, "Cancel"}).
		SetDoneFunc(func(index int, _ string) {
			c.closeModal()

			if index == 0 {
				yes()
			}
		})

	c.showModal(modal)
}

func (c *Controller) showNotification(n notify.Notification) {
	modal := tview.NewModal().
		SetText(fmt.Sprintf("%s\n\n%s\n%s", n.Title, n.Body, n.At.Format("Mon Jan 2 15:04"))).
		AddButtons([]string{"Open Task Details", "Dismiss"}).
		SetDoneFunc(func(index int, _ string) {
			c.closeModal()

			if index == 0 {
				c.showTaskDetails(n.TaskID)
			}
		})

	c.showModal(modal)
}

func (c *Controller) showTaskDetails(id string) {
	var task model.Task

	c.run(func(ctx context.Context) error {
		var err error
		task, err = c.app.TaskDetails(ctx, id)

		return err
	}, func(err error) {
		if err != nil {
			return
		}

		text := fmt.Sprintf("Task Details\n\nType: %s\nDate: %s", task.Type, task.Datetime.In(c.app.Location()).Format(time.RFC1123))
		if task.VideoURL != "" {
			text += fmt.Sprintf("\nVideo: %s", task.VideoURL)
		}

		c.showAlert("Reminder", text)
	})
}

func (c *Controller) quit() {
	c.tui.Stop()

	log.Info().Msg("terminating application")
}

// handleKeys dispatches rune shortcuts unless a text field has focus.
func (c *Controller) handleKeys(events map[rune]KeyEvent) func(*tcell.EventKey) *tcell.EventKey {
	return func(evt *tcell.EventKey) *tcell.EventKey {
		if c.modal != nil {
			return evt
		}

		if _, typing := c.tui.GetFocus().(*tview.InputField); typing {
			return evt
		}

		if evt.Key() != tcell.KeyRune {
			return evt
		}

		if k, ok := events[evt.Rune()]; ok {
			return k.Action(evt)
		}

		return evt
	}
}
