// Package helpdesk wraps the helpdesk platform's ticket-creation API.
package helpdesk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	apperrors "github.com/zentriq/deskbridge/internal/errors"
)

// TokenSource supplies a currently valid access token for outbound calls.
type TokenSource interface {
	GetValidAccessToken(ctx context.Context) (string, error)
}

type Client struct {
	baseURL    string
	orgID      string
	tokens     TokenSource
	httpClient *http.Client
}

func NewClient(baseURL, orgID string, tokens TokenSource) *Client {
	return &Client{
		baseURL:    baseURL,
		orgID:      orgID,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// CreateTicket creates a support ticket and returns the helpdesk's
// acknowledgement.
func (c *Client) CreateTicket(ctx context.Context, ticket Ticket) (*CreatedTicket, error) {
	token, err := c.tokens.GetValidAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(ticket)
	if err != nil {
		return nil, apperrors.Wrapf(err, "[Client.CreateTicket] encoding ticket")
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/tickets", bytes.NewReader(payload))
	if err != nil {
		return nil, apperrors.Wrapf(err, "[Client.CreateTicket] building request")
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Authorization", "Zoho-oauthtoken "+token)
	request.Header.Set("orgId", c.orgID)

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, apperrors.Wrapf(err, "[Client.CreateTicket] calling helpdesk")
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK && response.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("[Client.CreateTicket] helpdesk returned %s", response.Status)
	}

	var created CreatedTicket
	if err := json.NewDecoder(response.Body).Decode(&created); err != nil {
		return nil, apperrors.Wrapf(err, "[Client.CreateTicket] decoding response")
	}
	return &created, nil
}
