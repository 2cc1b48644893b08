package controller

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/matt-steen/care-tracker/pkg/model"
	"github.com/matt-steen/care-tracker/pkg/session"
	"github.com/rivo/tview"
	"github.com/rs/zerolog/log"
)

const (
	sortFirstName = "firstName"
	sortLastName  = "lastName"
	sortAddress   = "address"
)

// RosterContent implements tview.TableContent for the client roster.
type RosterContent struct {
	tview.TableContentReadOnly
	store   *session.Store
	clients []model.Client
}

// GetCell returns the cell at the given position or nil if no cell.
func (r *RosterContent) GetCell(row, col int) *tview.TableCell {
	if row == 0 {
		switch col {
		case 0:
			return tview.NewTableCell("name").SetExpansion(1).
				SetTextColor(tcell.ColorYellow).SetSelectable(false)
		case 1:
			return tview.NewTableCell("address").SetExpansion(addressNameRatio).
				SetTextColor(tcell.ColorYellow).SetSelectable(false)
		case 2:
			return tview.NewTableCell("status").SetExpansion(1).
				SetTextColor(tcell.ColorYellow).SetSelectable(false)
		}
	}

	if row-1 >= len(r.clients) {
		return nil
	}

	client := r.clients[row-1]

	switch col {
	case 0:
		return tview.NewTableCell(tview.Escape(client.Name())).SetExpansion(1)
	case 1:
		return tview.NewTableCell(tview.Escape(client.Address)).SetExpansion(addressNameRatio)
	case 2:
		status := "-"
		if r.store != nil {
			if name := r.store.StatusName(client.Status); name != "" {
				status = name
			}
		}

		return tview.NewTableCell(tview.Escape(status)).SetTextColor(tcell.ColorGreen).SetExpansion(1)
	}

	return nil
}

// GetRowCount returns the number of rows in the table.
func (r *RosterContent) GetRowCount() int {
	return len(r.clients) + 1
}

// GetColumnCount returns the number of columns in the table.
func (r *RosterContent) GetColumnCount() int {
	return 3
}

// filterClients keeps the clients whose name or address contains query, ignoring case.
func filterClients(clients []model.Client, query string) []model.Client {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return append([]model.Client{}, clients...)
	}

	filtered := []model.Client{}

	for _, c := range clients {
		if strings.Contains(strings.ToLower(c.FirstName), query) ||
			strings.Contains(strings.ToLower(c.LastName), query) ||
			strings.Contains(strings.ToLower(c.Address), query) {
			filtered = append(filtered, c)
		}
	}

	return filtered
}

// sortClients orders clients in place by the given field.
func sortClients(clients []model.Client, by string) {
	key := func(c model.Client) string {
		switch by {
		case sortLastName:
			return c.LastName
		case sortAddress:
			return c.Address
		default:
			return c.FirstName
		}
	}

	sort.SliceStable(clients, func(i, j int) bool {
		return strings.ToLower(key(clients[i])) < strings.ToLower(key(clients[j]))
	})
}

func (c *Controller) getRosterGrid() *tview.Grid {
	c.rosterHeader = getHeader("Clients", c.rosterEvents)

	c.search = tview.NewInputField().SetLabel("Search: ").SetFieldWidth(40)
	c.search.SetChangedFunc(func(string) {
		c.refreshRoster()
	})
	c.search.SetDoneFunc(func(tcell.Key) {
		c.tui.SetFocus(c.rosterTable)
	})

	c.rosterTable = tview.NewTable().SetBorders(false)
	c.rosterTable.SetContent(c.roster)
	c.rosterTable.SetSelectable(true, false)
	c.rosterTable.SetFixed(1, 0)
	c.rosterTable.SetSelectedFunc(func(row, col int) {
		if client := c.getClientForRow(row); client != nil {
			c.showTasks(*client)
		}
	})

	grid := tview.NewGrid().SetRows(0, 1, 0).SetBorders(true)

	grid.AddItem(c.rosterHeader, 0, 0, 1, 1, 0, 0, false)
	grid.AddItem(c.search, 1, 0, 1, 1, 0, 0, false)
	grid.AddItem(c.rosterTable, 2, 0, 1, 1, 0, 0, true)

	return grid
}

func (c *Controller) getClientForRow(row int) *model.Client {
	// adjust for the header row
	if idx := row - 1; idx < len(c.roster.clients) && idx >= 0 {
		client := c.roster.clients[idx]

		return &client
	}

	return nil
}

// refreshRoster reloads the table from the store, keeping the selected client selected.
func (c *Controller) refreshRoster() {
	clients, err := c.app.Store().Clients()
	if err != nil {
		// no session: nothing to show, and nothing must be shown as if it were data
		c.roster.clients = nil
		c.showLogin()

		return
	}

	var selectedID int
	if client := c.getClientForRow(selectedRow(c.rosterTable)); client != nil {
		selectedID = client.ID
	}

	clients = filterClients(clients, c.search.GetText())
	sortClients(clients, c.sortBy)

	c.roster.store = c.app.Store()
	c.roster.clients = clients

	row := 1

	for i, client := range clients {
		if client.ID == selectedID {
			row = i + 1

			break
		}
	}

	if len(clients) > 0 {
		c.rosterTable.Select(row, 0)
	}
}

func selectedRow(table *tview.Table) int {
	row, _ := table.GetSelection()

	return row
}

func (c *Controller) showRoster() {
	statuses, err := c.app.Store().Statuses()
	if err != nil {
		c.showLogin()

		return
	}

	c.initMoveEvents(statuses)
	fillHeader(c.rosterHeader, "Clients", c.rosterEvents)

	c.refreshRoster()

	c.tui.SetInputCapture(c.handleKeys(c.rosterEvents))
	c.show(pageRoster, c.rosterTable)
}

func (c *Controller) changeStatus(statusID int) {
	client := c.getClientForRow(selectedRow(c.rosterTable))
	if client == nil {
		return
	}

	clientID := client.ID

	c.run(func(ctx context.Context) error {
		_, err := c.app.ChangeStatus(ctx, clientID, statusID)

		return err
	}, func(err error) {
		if err != nil {
			log.Warn().Err(err).Int("client", clientID).Int("status", statusID).Msg("error changing status")

			return
		}

		c.refreshRoster()
	})
}

func clientIDString(client model.Client) string {
	return strconv.Itoa(client.ID)
}
