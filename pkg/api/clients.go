package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/matt-steen/care-tracker/pkg/model"
)

// ListClients fetches the roster. Statuses are not attached; see ListClientStatuses.
func (c *Client) ListClients(ctx context.Context) ([]model.Client, error) {
	var resp clientsResponse
	if err := c.do(ctx, http.MethodGet, "/api/clients", nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("error listing clients: %w", err)
	}

	clients := make([]model.Client, 0, len(resp.Clients))

	for _, r := range resp.Clients {
		client, err := r.toClient()
		if err != nil {
			return nil, invalid("client", err)
		}

		clients = append(clients, client)
	}

	return clients, nil
}

// ListStatuses fetches the status taxonomy.
func (c *Client) ListStatuses(ctx context.Context) ([]model.Status, error) {
	var resp statusesResponse
	if err := c.do(ctx, http.MethodGet, "/api/statuses", nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("error listing statuses: %w", err)
	}

	statuses := make([]model.Status, 0, len(resp.Statuses))

	for _, r := range resp.Statuses {
		status, err := r.toStatus()
		if err != nil {
			return nil, invalid("status", err)
		}

		statuses = append(statuses, status)
	}

	return statuses, nil
}

// ListClientStatuses fetches the join table linking clients with their current status.
func (c *Client) ListClientStatuses(ctx context.Context) ([]model.ClientStatus, error) {
	var resp clientStatusesResponse
	if err := c.do(ctx, http.MethodGet, "/api/client_statuses", nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("error listing client statuses: %w", err)
	}

	links := make([]model.ClientStatus, 0, len(resp.ClientStatuses))

	for _, r := range resp.ClientStatuses {
		link, err := r.toClientStatus()
		if err != nil {
			return nil, invalid("client status", err)
		}

		links = append(links, link)
	}

	return links, nil
}

// UpdateClientStatus moves a client to statusID. The update is keyed by the join table id,
// not the client id; a stale linkID fails with model.ErrNotFound.
func (c *Client) UpdateClientStatus(ctx context.Context, linkID, clientID, statusID int) (model.ClientStatus, error) {
	path := fmt.Sprintf("/api/client_statuses/%d", linkID)
	in := clientStatusUpdate{ClientID: clientID, StatusID: statusID}

	var resp clientStatusRecord
	if err := c.do(ctx, http.MethodPut, path, nil, in, &resp); err != nil {
		return model.ClientStatus{}, fmt.Errorf("error updating status of client %d: %w", clientID, err)
	}

	// the server may echo only part of the record; fill in what was sent
	if resp.ClientStatusID == 0 {
		resp.ClientStatusID = linkID
	}

	if resp.ClientID == 0 {
		resp.ClientID = clientID
	}

	if resp.StatusID == 0 {
		resp.StatusID = statusID
	}

	link, err := resp.toClientStatus()
	if err != nil {
		return model.ClientStatus{}, invalid("client status", err)
	}

	return link, nil
}

// CreateUser registers a new account.
func (c *Client) CreateUser(ctx context.Context, username, password string) error {
	if username == "" {
		return &model.ValidationError{Field: "email", Message: "email is required"}
	}

	if password == "" {
		return &model.ValidationError{Field: "password", Message: "password is required"}
	}

	in := newUser{Username: username, PasswordHash: password}
	if err := c.do(ctx, http.MethodPost, "/api/users", nil, in, nil); err != nil {
		return fmt.Errorf("error creating user %s: %w", username, err)
	}

	return nil
}
