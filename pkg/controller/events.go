package controller

import (
	"fmt"
	"sort"

	"github.com/gdamore/tcell/v2"
	"github.com/matt-steen/care-tracker/pkg/model"
	"github.com/rivo/tview"
)

func (c *Controller) initEvents() {
	c.rosterEvents = map[rune]KeyEvent{}
	c.taskEvents = map[rune]KeyEvent{}

	c.initSortEvents(c.rosterEvents)
	c.initRosterEvents(c.rosterEvents)
	c.initTaskEvents(c.taskEvents)

	c.initExitEvent(c.rosterEvents)
	c.initExitEvent(c.taskEvents)
}

func (c *Controller) initExitEvent(events map[rune]KeyEvent) {
	events['q'] = KeyEvent{
		Description: "Exit",
		Action: func(key *tcell.EventKey) *tcell.EventKey {
			c.quit()

			return nil
		},
	}
}

func (c *Controller) getSortAction(by string) func(key *tcell.EventKey) *tcell.EventKey {
	return func(key *tcell.EventKey) *tcell.EventKey {
		c.sortBy = by
		c.refreshRoster()

		return nil
	}
}

func (c *Controller) initSortEvents(events map[rune]KeyEvent) {
	events['f'] = KeyEvent{Description: "Sort First Name", Action: c.getSortAction(sortFirstName)}
	events['l'] = KeyEvent{Description: "Sort Last Name", Action: c.getSortAction(sortLastName)}
	events['a'] = KeyEvent{Description: "Sort Address", Action: c.getSortAction(sortAddress)}
}

func (c *Controller) initRosterEvents(events map[rune]KeyEvent) {
	events['/'] = KeyEvent{
		Description: "Search",
		Action: func(key *tcell.EventKey) *tcell.EventKey {
			c.tui.SetFocus(c.search)

			return nil
		},
	}

	events['L'] = KeyEvent{
		Description: "Logout",
		Action: func(key *tcell.EventKey) *tcell.EventKey {
			c.app.Logout()
			c.showLogin()

			return nil
		},
	}
}

// initMoveEvents binds the digits 1-9 to "Move to <status>" for the loaded statuses.
func (c *Controller) initMoveEvents(statuses []model.Status) {
	for key := range c.rosterEvents {
		if key >= '1' && key <= '9' {
			delete(c.rosterEvents, key)
		}
	}

	for i, status := range statuses {
		if i >= 9 {
			break
		}

		statusID := status.ID

		c.rosterEvents[rune('1'+i)] = KeyEvent{
			Description: fmt.Sprintf("Move to %s", status.Name),
			Action: func(key *tcell.EventKey) *tcell.EventKey {
				c.changeStatus(statusID)

				return nil
			},
		}
	}
}

func (c *Controller) initTaskEvents(events map[rune]KeyEvent) {
	events['n'] = KeyEvent{
		Description: "New Task",
		Action: func(key *tcell.EventKey) *tcell.EventKey {
			c.showTaskForm()

			return nil
		},
	}

	events[' '] = KeyEvent{
		Description: "Toggle Enabled",
		Action: func(key *tcell.EventKey) *tcell.EventKey {
			c.toggleSelectedTask()

			return nil
		},
	}

	events['d'] = KeyEvent{
		Description: "Delete Task",
		Action: func(key *tcell.EventKey) *tcell.EventKey {
			c.deleteSelectedTask()

			return nil
		},
	}

	events['b'] = KeyEvent{
		Description: "Back to Clients",
		Action: func(key *tcell.EventKey) *tcell.EventKey {
			c.showRoster()

			return nil
		},
	}
}

// getHeader lists the shortcuts of a page in columns: misc, "Sort"/"Move" actions, sorted
// alphabetically within each column.
func getHeader(title string, events map[rune]KeyEvent) *tview.Table {
	table := tview.NewTable().SetBorders(false).SetSelectable(false, false)
	fillHeader(table, title, events)

	return table
}

func fillHeader(table *tview.Table, title string, events map[rune]KeyEvent) {
	table.Clear()

	row := 0
	table.SetCell(row, 0, tview.NewTableCell(fmt.Sprintf("[yellow]%s", tview.Escape(title))))
	row++

	shortcuts := map[int][]string{
		0: {},
		1: {},
	}

	for key, event := range events {
		name := string(key)
		if key == ' ' {
			name = "space"
		}

		text := fmt.Sprintf("[orange]<%s>[white] %s", tview.Escape(name), event.Description)

		switch event.Description[:4] {
		case "Sort", "Move":
			shortcuts[1] = append(shortcuts[1], text)
		default:
			shortcuts[0] = append(shortcuts[0], text)
		}
	}

	for col := 0; col < 2; col++ {
		sort.Strings(shortcuts[col])
	}

	for row-1 < len(shortcuts[0]) || row-1 < len(shortcuts[1]) {
		for col := 0; col < 2; col++ {
			if row-1 < len(shortcuts[col]) {
				table.SetCell(row, col, tview.NewTableCell(shortcuts[col][row-1]).SetExpansion(1))
			}
		}

		row++
	}
}
