// Package telephony wraps the telephony backend's contact-lookup API.
package telephony

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	apperrors "github.com/zentriq/deskbridge/internal/errors"
)

type Contact struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Number  string `json:"number"`
	Email   string `json:"email,omitempty"`
	Company string `json:"company,omitempty"`
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// ContactByPhone looks up the contact registered for a phone number.
// Returns errors.ErrNotFound when the number is unknown.
func (c *Client) ContactByPhone(ctx context.Context, number string) (*Contact, error) {
	endpoint := fmt.Sprintf("%s/v1/contacts?number=%s", c.baseURL, url.QueryEscape(number))
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.Wrapf(err, "[Client.ContactByPhone] building request")
	}
	request.Header.Set("X-API-Key", c.apiKey)

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, apperrors.Wrapf(err, "[Client.ContactByPhone] calling telephony backend")
	}
	defer response.Body.Close()

	if response.StatusCode == http.StatusNotFound {
		return nil, apperrors.ErrNotFound
	}
	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("[Client.ContactByPhone] telephony backend returned %s", response.Status)
	}

	var body struct {
		Contacts []Contact `json:"contacts"`
	}
	if err := json.NewDecoder(response.Body).Decode(&body); err != nil {
		return nil, apperrors.Wrapf(err, "[Client.ContactByPhone] decoding response")
	}
	if len(body.Contacts) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return &body.Contacts[0], nil
}
