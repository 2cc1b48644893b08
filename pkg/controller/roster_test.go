package controller

import (
	"testing"
	"time"

	"github.com/matt-steen/care-tracker/pkg/model"
	"github.com/matt-steen/care-tracker/pkg/session"
	"github.com/stretchr/testify/assert"
)

var roster = []model.Client{
	{ID: 1, FirstName: "Margaret", LastName: "Okafor", Address: "12 Elm Street", Status: 1},
	{ID: 2, FirstName: "Walter", LastName: "Brandt", Address: "48 Harbour Road", Status: 2},
	{ID: 3, FirstName: "ines", LastName: "Navarro", Address: "7 Willow Lane"},
}

func TestFilterClients(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	assert.Equal(3, len(filterClients(roster, "  ")))
	assert.Equal([]model.Client{roster[1]}, filterClients(roster, "harbour"))
	assert.Equal([]model.Client{roster[0]}, filterClients(roster, "OKA"))
	assert.Equal(2, len(filterClients(roster, "an")))
	assert.Equal(0, len(filterClients(roster, "zzz")))
}

func TestSortClients(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	ids := func(clients []model.Client) []int {
		out := []int{}
		for _, c := range clients {
			out = append(out, c.ID)
		}

		return out
	}

	clients := append([]model.Client{}, roster...)

	sortClients(clients, sortFirstName)
	assert.Equal([]int{3, 1, 2}, ids(clients))

	sortClients(clients, sortLastName)
	assert.Equal([]int{2, 3, 1}, ids(clients))

	sortClients(clients, sortAddress)
	assert.Equal([]int{1, 2, 3}, ids(clients))
}

func TestRosterContent(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	store := session.NewStore()
	store.SetStatuses([]model.Status{{ID: 1, Name: "Backlog"}, {ID: 2, Name: "In Progress"}})
	store.SetClients(roster)

	content := &RosterContent{store: store, clients: roster}

	assert.Equal(4, content.GetRowCount())
	assert.Equal(3, content.GetColumnCount())
	assert.Equal("name", content.GetCell(0, 0).Text)
	assert.Equal("Walter Brandt", content.GetCell(2, 0).Text)
	assert.Equal("In Progress", content.GetCell(2, 2).Text)
	assert.Equal("-", content.GetCell(3, 2).Text)
	assert.Nil(content.GetCell(4, 0))
}

func TestTaskContent(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	recurring := model.Task{Type: "Vitals Check", Recurring: true, Datetime: time.Date(2030, 1, 10, 9, 0, 0, 0, time.UTC)}
	recurring.RecurringDays[time.Monday] = true
	recurring.RecurringDays[time.Thursday] = true

	content := &TaskContent{loc: time.UTC, tasks: []model.Task{
		{Type: "Med Reminders", Enabled: true, Datetime: time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)},
		recurring,
	}}

	assert.Equal(3, content.GetRowCount())
	assert.Equal("[x]", content.GetCell(1, 0).Text)
	assert.Equal("[ ]", content.GetCell(2, 0).Text)
	assert.Equal("Tue Jan 1 2030 09:00", content.GetCell(1, 2).Text)
	assert.Equal("once", content.GetCell(1, 3).Text)
	assert.Equal("Mon, Thu", content.GetCell(2, 3).Text)

	assert.Equal("weekly", repeatsLabel(model.Task{Recurring: true}))
}
