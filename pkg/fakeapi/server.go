// Package fakeapi is an in-memory implementation of the remote care API, used for local
// development and as the server side of adapter tests.
package fakeapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const datetimeLayout = "2006-01-02T15:04:05"

// Call records a request received by the server.
type Call struct {
	Method string
	Path   string
	Body   []byte
}

// Server serves the remote API from memory. It is safe for concurrent use.
type Server struct {
	mu             sync.Mutex
	router         *mux.Router
	clients        []Client
	statuses       []Status
	clientStatuses []ClientStatus
	reminders      map[int]Reminder
	users          map[string][]byte
	nextReminderID int
	failures       map[string]int
	calls          []Call
}

// New returns a Server holding the given seed data.
func New(seed Seed) *Server {
	s := &Server{
		clients:        append([]Client{}, seed.Clients...),
		statuses:       append([]Status{}, seed.Statuses...),
		clientStatuses: append([]ClientStatus{}, seed.ClientStatuses...),
		reminders:      map[int]Reminder{},
		users:          map[string][]byte{},
		nextReminderID: 1,
		failures:       map[string]int{},
	}

	for _, r := range seed.Reminders {
		s.reminders[r.ReminderID] = r

		if r.ReminderID >= s.nextReminderID {
			s.nextReminderID = r.ReminderID + 1
		}
	}

	s.router = mux.NewRouter()
	s.router.Use(s.record, s.injectFailures)

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/clients", s.listClients).Methods(http.MethodGet)
	api.HandleFunc("/statuses", s.listStatuses).Methods(http.MethodGet)
	api.HandleFunc("/client_statuses", s.listClientStatuses).Methods(http.MethodGet)
	api.HandleFunc("/client_statuses/{id:[0-9]+}", s.updateClientStatus).Methods(http.MethodPut)
	api.HandleFunc("/reminders", s.listReminders).Methods(http.MethodGet)
	api.HandleFunc("/reminders", s.createReminder).Methods(http.MethodPost)
	api.HandleFunc("/reminders/{id:[0-9]+}", s.getReminder).Methods(http.MethodGet)
	api.HandleFunc("/reminders/{id:[0-9]+}", s.updateReminder).Methods(http.MethodPut)
	api.HandleFunc("/reminders/{id:[0-9]+}", s.deleteReminder).Methods(http.MethodDelete)
	api.HandleFunc("/users", s.createUser).Methods(http.MethodPost)

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Fail makes every request matching the route template, e.g. "/api/statuses" or
// "/api/reminders/{id:[0-9]+}", answer with status. A status of 0 clears the failure.
func (s *Server) Fail(template string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if status == 0 {
		delete(s.failures, template)

		return
	}

	s.failures[template] = status
}

// Calls returns the requests received so far.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]Call{}, s.calls...)
}

// Reminder returns a stored reminder.
func (s *Server) Reminder(id int) (Reminder, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reminders[id]

	return r, ok
}

// CheckUser reports whether password matches the stored account.
func (s *Server) CheckUser(username, password string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	hash, ok := s.users[username]

	return ok && bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}

// ClientStatus returns the join table row with the given id.
func (s *Server) ClientStatus(id int) (ClientStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, cs := range s.clientStatuses {
		if cs.ClientStatusID == id {
			return cs, true
		}
	}

	return ClientStatus{}, false
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(body))

		s.mu.Lock()
		s.calls = append(s.calls, Call{Method: r.Method, Path: r.URL.RequestURI(), Body: body})
		s.mu.Unlock()

		start := time.Now()
		next.ServeHTTP(w, r)

		log.Debug().Str("method", r.Method).Str("uri", r.URL.RequestURI()).Dur("elapsed", time.Since(start)).Msg("fake api")
	})
}

func (s *Server) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if route := mux.CurrentRoute(r); route != nil {
			template, err := route.GetPathTemplate()
			if err == nil {
				s.mu.Lock()
				status, ok := s.failures[template]
				s.mu.Unlock()

				if ok {
					writeError(w, "injected failure", status)

					return
				}
			}
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) listClients(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	writeJSON(w, map[string]interface{}{"clients": s.clients}, http.StatusOK)
}

func (s *Server) listStatuses(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	writeJSON(w, map[string]interface{}{"statuses": s.statuses}, http.StatusOK)
}

func (s *Server) listClientStatuses(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	writeJSON(w, map[string]interface{}{"client_statuses": s.clientStatuses}, http.StatusOK)
}

func (s *Server) updateClientStatus(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	var in struct {
		ClientID int `json:"client_id"`
		StatusID int `json:"status_id"`
	}

	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, "invalid json", http.StatusBadRequest)

		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasStatus(in.StatusID) {
		writeError(w, "unknown status", http.StatusBadRequest)

		return
	}

	for i, cs := range s.clientStatuses {
		if cs.ClientStatusID != id {
			continue
		}

		if in.ClientID != 0 {
			cs.ClientID = in.ClientID
		}

		cs.StatusID = in.StatusID
		s.clientStatuses[i] = cs

		writeJSON(w, cs, http.StatusOK)

		return
	}

	writeError(w, "client status not found", http.StatusNotFound)
}

func (s *Server) hasStatus(id int) bool {
	for _, st := range s.statuses {
		if st.StatusID == id {
			return true
		}
	}

	return false
}

func (s *Server) listReminders(w http.ResponseWriter, r *http.Request) {
	clientID := 0

	if raw := r.URL.Query().Get("client_id"); raw != "" {
		var err error
		if clientID, err = strconv.Atoi(raw); err != nil {
			writeError(w, "invalid client_id", http.StatusBadRequest)

			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	reminders := []Reminder{}

	for _, rem := range s.reminders {
		if clientID == 0 || rem.ClientID == clientID {
			reminders = append(reminders, rem)
		}
	}

	sort.Slice(reminders, func(i, j int) bool { return reminders[i].ReminderID < reminders[j].ReminderID })

	writeJSON(w, map[string]interface{}{"reminders": reminders}, http.StatusOK)
}

func (s *Server) getReminder(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	s.mu.Lock()
	defer s.mu.Unlock()

	rem, ok := s.reminders[id]
	if !ok {
		writeError(w, "reminder not found", http.StatusNotFound)

		return
	}

	writeJSON(w, map[string]interface{}{"reminder": rem}, http.StatusOK)
}

func (s *Server) createReminder(w http.ResponseWriter, r *http.Request) {
	var in Reminder
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, "invalid json", http.StatusBadRequest)

		return
	}

	if in.ClientID <= 0 || in.TaskType == "" {
		writeError(w, "client_id and task_type are required", http.StatusBadRequest)

		return
	}

	if _, err := time.Parse(datetimeLayout, in.ReminderDatetime); err != nil {
		writeError(w, "invalid reminder_datetime", http.StatusBadRequest)

		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	in.ReminderID = s.nextReminderID
	s.nextReminderID++
	s.reminders[in.ReminderID] = in

	writeJSON(w, in, http.StatusCreated)
}

func (s *Server) updateReminder(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	var in struct {
		IsEnabled *flag `json:"is_enabled"`
	}

	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, "invalid json", http.StatusBadRequest)

		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rem, ok := s.reminders[id]
	if !ok {
		writeError(w, "reminder not found", http.StatusNotFound)

		return
	}

	if in.IsEnabled != nil {
		rem.IsEnabled = *in.IsEnabled
	}

	s.reminders[id] = rem

	writeJSON(w, rem, http.StatusOK)
}

func (s *Server) deleteReminder(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reminders[id]; !ok {
		writeError(w, "reminder not found", http.StatusNotFound)

		return
	}

	delete(s.reminders, id)

	writeJSON(w, map[string]string{"message": "reminder deleted"}, http.StatusOK)
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username     string `json:"username"`
		PasswordHash string `json:"password_hash"`
	}

	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Username == "" {
		writeError(w, "username is required", http.StatusBadRequest)

		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.PasswordHash), bcrypt.MinCost)
	if err != nil {
		writeError(w, "invalid password", http.StatusBadRequest)

		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[in.Username]; ok {
		writeError(w, "user already exists", http.StatusConflict)

		return
	}

	s.users[in.Username] = hash

	writeJSON(w, map[string]string{"username": in.Username}, http.StatusCreated)
}
