package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matt-steen/care-tracker/pkg/model"
	"github.com/rivo/tview"
	"github.com/rs/zerolog/log"
)

const dateTimeFormat = "Mon Jan 2 2006 15:04"

// TaskContent implements tview.TableContent for the tasks of one client.
type TaskContent struct {
	tview.TableContentReadOnly
	loc   *time.Location
	tasks []model.Task
}

// GetCell returns the cell at the given position or nil if no cell.
func (t *TaskContent) GetCell(row, col int) *tview.TableCell {
	if row == 0 {
		switch col {
		case 0:
			return tview.NewTableCell("on").SetTextColor(tcell.ColorYellow).SetSelectable(false)
		case 1:
			return tview.NewTableCell("task").SetExpansion(1).
				SetTextColor(tcell.ColorYellow).SetSelectable(false)
		case 2:
			return tview.NewTableCell("when").SetExpansion(1).
				SetTextColor(tcell.ColorYellow).SetSelectable(false)
		case 3:
			return tview.NewTableCell("repeats").SetExpansion(1).
				SetTextColor(tcell.ColorYellow).SetSelectable(false)
		}
	}

	if row-1 >= len(t.tasks) {
		return nil
	}

	task := t.tasks[row-1]

	switch col {
	case 0:
		if task.Enabled {
			return tview.NewTableCell("[x]")
		}

		return tview.NewTableCell("[ ]")
	case 1:
		return tview.NewTableCell(tview.Escape(task.Type)).SetExpansion(1)
	case 2:
		return tview.NewTableCell(task.Datetime.In(t.loc).Format(dateTimeFormat)).SetExpansion(1)
	case 3:
		return tview.NewTableCell(repeatsLabel(task)).SetTextColor(tcell.ColorGreen).SetExpansion(1)
	}

	return nil
}

// GetRowCount returns the number of rows in the table.
func (t *TaskContent) GetRowCount() int {
	return len(t.tasks) + 1
}

// GetColumnCount returns the number of columns in the table.
func (t *TaskContent) GetColumnCount() int {
	return 4
}

func repeatsLabel(task model.Task) string {
	if !task.Recurring {
		return "once"
	}

	days := task.SelectedDays()
	if len(days) == 0 {
		return "weekly"
	}

	label := ""

	for _, d := range days {
		if len(label) > 0 {
			label += ", "
		}

		label += model.Days[d]
	}

	return label
}

func (c *Controller) getTaskGrid() *tview.Grid {
	c.taskHeader = getHeader("Tasks", c.taskEvents)

	c.taskTable = tview.NewTable().SetBorders(false)
	c.taskTable.SetContent(c.tasks)
	c.taskTable.SetSelectable(true, false)
	c.taskTable.SetFixed(1, 0)
	c.taskTable.SetSelectionChangedFunc(func(row, col int) {
		c.selectedTask = c.getTaskForRow(row)
	})
	c.taskTable.SetSelectedFunc(func(row, col int) {
		if task := c.getTaskForRow(row); task != nil {
			c.showTaskDetails(task.ID)
		}
	})
	c.taskTable.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEscape {
			c.showRoster()
		}
	})

	grid := tview.NewGrid().SetBorders(true)

	grid.AddItem(c.taskHeader, 0, 0, 1, 1, 0, 0, false)
	grid.AddItem(c.taskTable, 1, 0, 1, 1, 0, 0, true)

	return grid
}

func (c *Controller) getTaskForRow(row int) *model.Task {
	// adjust for the header row
	if idx := row - 1; idx < len(c.tasks.tasks) && idx >= 0 {
		task := c.tasks.tasks[idx]

		return &task
	}

	return nil
}

func (c *Controller) showTasks(client model.Client) {
	c.client = &client
	c.selectedTask = nil
	c.tasks.tasks = nil

	fillHeader(c.taskHeader, fmt.Sprintf("Tasks for %s", client.Name()), c.taskEvents)

	c.tui.SetInputCapture(c.handleKeys(c.taskEvents))
	c.show(pageTasks, c.taskTable)

	c.reloadTasks()
}

func (c *Controller) reloadTasks() {
	if c.client == nil {
		return
	}

	client := *c.client

	var tasks []model.Task

	c.run(func(ctx context.Context) error {
		var err error
		tasks, err = c.app.Tasks(ctx, client)

		return err
	}, func(err error) {
		if err != nil {
			return
		}

		c.setTasks(tasks)
	})
}

func (c *Controller) setTasks(tasks []model.Task) {
	c.tasks.tasks = tasks

	row := selectedRow(c.taskTable)
	if row < 1 || row > len(tasks) {
		row = 1
	}

	if len(tasks) > 0 {
		c.taskTable.Select(row, 0)
		c.selectedTask = c.getTaskForRow(row)
	} else {
		c.selectedTask = nil
	}
}

// replaceTask swaps the task with the same id in the visible list.
func (c *Controller) replaceTask(task model.Task) {
	for i, t := range c.tasks.tasks {
		if t.ID == task.ID {
			c.tasks.tasks[i] = task

			break
		}
	}

	c.selectedTask = c.getTaskForRow(selectedRow(c.taskTable))
}

func (c *Controller) toggleSelectedTask() {
	if c.selectedTask == nil {
		return
	}

	task := *c.selectedTask
	updated := task

	c.run(func(ctx context.Context) error {
		var err error
		updated, err = c.app.SetTaskEnabled(ctx, task, !task.Enabled)

		return err
	}, func(err error) {
		if err != nil {
			log.Warn().Err(err).Str("task", task.ID).Msg("error toggling task")
		}

		c.replaceTask(updated)

		if err == nil {
			status := "Task is now unscheduled."
			if updated.Enabled {
				status = "Task is now scheduled."
			}

			c.showAlert("Task Scheduled", status)
		}
	})
}

func (c *Controller) deleteSelectedTask() {
	if c.selectedTask == nil {
		return
	}

	task := *c.selectedTask

	c.confirm(fmt.Sprintf("Delete %s on %s?", task.Type, task.Datetime.In(c.app.Location()).Format(dateTimeFormat)), "Delete", func() {
		c.run(func(ctx context.Context) error {
			return c.app.DeleteTask(ctx, task)
		}, func(err error) {
			if err != nil {
				return
			}

			c.reloadTasks()
		})
	})
}
