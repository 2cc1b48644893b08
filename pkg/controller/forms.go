package controller

import (
	"context"
	"errors"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matt-steen/care-tracker/pkg/app"
	"github.com/matt-steen/care-tracker/pkg/model"
	"github.com/matt-steen/care-tracker/pkg/recurrence"
	"github.com/rivo/tview"
	"github.com/rs/zerolog/log"
)

const dateLayout = "2006-01-02"

func (c *Controller) getTaskFormGrid() *tview.Grid {
	c.taskForm = tview.NewForm()
	c.taskForm.SetBorder(true).SetTitle(" New Task ")
	c.taskForm.SetCancelFunc(c.closeTaskForm)

	grid := tview.NewGrid().
		SetRows(0, 25, 0).
		SetColumns(0, 60, 0).
		AddItem(c.taskForm, 1, 1, 1, 1, 0, 0, true)

	return grid
}

// resetDraft starts a new draft for the current client, due at the top of the next hour.
func (c *Controller) resetDraft() {
	next := c.app.Now().Truncate(time.Hour).Add(time.Hour)

	c.draft = app.TaskDraft{Time: recurrence.TimeOfDayOf(next)}

	if c.client != nil {
		c.draft.ClientID = clientIDString(*c.client)
		c.draft.ClientName = c.client.Name()
	}

	c.dateText = next.Format(dateLayout)
	c.timeText = c.draft.Time.String()
}

func (c *Controller) fillTaskForm() {
	dateMax := 10
	timeMax := 5

	c.taskForm.Clear(true)

	c.taskForm.AddDropDown("Type", model.TaskTypes, -1, func(option string, index int) {
		if index >= 0 {
			c.draft.Type = option
		}
	})

	c.taskForm.AddCheckbox("Recurring", c.draft.Recurring, func(checked bool) {
		c.draft.Recurring = checked
		c.fillTaskForm()
		c.taskForm.SetFocus(1)
		c.tui.SetFocus(c.taskForm)
	})

	if c.draft.Recurring {
		for i, day := range model.Days {
			idx := i

			c.taskForm.AddCheckbox(day, c.draft.RecurringDays[idx], func(checked bool) {
				c.draft.RecurringDays[idx] = checked
			})
		}
	} else {
		c.taskForm.AddInputField("Date (YYYY-MM-DD)", c.dateText, dateMax, nil, func(text string) {
			c.dateText = text
		})
	}

	c.taskForm.AddInputField("Time (HH:MM)", c.timeText, timeMax, nil, func(text string) {
		c.timeText = text
	})

	if dropDown, ok := c.taskForm.GetFormItemByLabel("Type").(*tview.DropDown); ok {
		for i, t := range model.TaskTypes {
			if t == c.draft.Type {
				dropDown.SetCurrentOption(i)
			}
		}
	}

	c.taskForm.AddButton("Create", c.submitTaskForm)
	c.taskForm.AddButton("Cancel", c.closeTaskForm)
}

func (c *Controller) showTaskForm() {
	if c.client == nil {
		return
	}

	c.resetDraft()
	c.fillTaskForm()

	c.tui.SetInputCapture(func(evt *tcell.EventKey) *tcell.EventKey { return evt })
	c.taskForm.SetFocus(0)
	c.show(pageForm, c.taskForm)
}

func (c *Controller) closeTaskForm() {
	if c.client == nil {
		c.showRoster()

		return
	}

	c.tui.SetInputCapture(c.handleKeys(c.taskEvents))
	c.show(pageTasks, c.taskTable)
}

// readDraft completes the draft from the free text fields.
func (c *Controller) readDraft() (app.TaskDraft, error) {
	draft := c.draft

	tod, err := recurrence.ParseTimeOfDay(c.timeText)
	if err != nil {
		return app.TaskDraft{}, err
	}

	draft.Time = tod

	if !draft.Recurring {
		date, err := time.ParseInLocation(dateLayout, c.dateText, c.app.Location())
		if err != nil {
			return app.TaskDraft{}, &model.ValidationError{Field: "date", Message: "please enter a valid YYYY-MM-DD date"}
		}

		draft.Date = date
	}

	return draft, nil
}

func (c *Controller) submitTaskForm() {
	draft, err := c.readDraft()
	if err != nil {
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			c.showAlert("Validation Error", verr.Message)
		}

		return
	}

	var task model.Task

	c.run(func(ctx context.Context) error {
		var err error
		task, err = c.app.CreateTask(ctx, draft)

		return err
	}, func(err error) {
		if task.ID == "" {
			// not stored; the app has alerted and the form stays open for corrections
			log.Debug().Err(err).Msg("task was not created")

			return
		}

		c.closeTaskForm()
		c.showAlert("Success", "Task added to the database.")
		c.reloadTasks()
	})
}
