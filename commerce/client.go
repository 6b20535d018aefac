// Package commerce wraps the commerce backend's customer and order lookups.
package commerce

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	apperrors "github.com/zentriq/deskbridge/internal/errors"
)

// TokenSource supplies a currently valid access token for outbound calls.
type TokenSource interface {
	GetValidAccessToken(ctx context.Context) (string, error)
}

type Customer struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Phone       string `json:"phone,omitempty"`
	TotalOrders int    `json:"total_orders"`
}

func (c Customer) FullName() string {
	if c.FirstName == "" {
		return c.LastName
	}
	return c.FirstName + " " + c.LastName
}

type Order struct {
	ID        string    `json:"id"`
	Number    string    `json:"number"`
	Status    string    `json:"status"`
	Total     float64   `json:"total"`
	CreatedAt time.Time `json:"created_at"`
}

type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
}

func NewClient(baseURL string, tokens TokenSource) *Client {
	return &Client{
		baseURL:    baseURL,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// CustomerByEmail resolves a customer record by email address.
// Returns errors.ErrNotFound when no customer matches.
func (c *Client) CustomerByEmail(ctx context.Context, email string) (*Customer, error) {
	endpoint := fmt.Sprintf("%s/api/v1/customers?email=%s", c.baseURL, url.QueryEscape(email))

	var body struct {
		Customers []Customer `json:"customers"`
	}
	if err := c.get(ctx, endpoint, &body); err != nil {
		return nil, apperrors.Wrapf(err, "[Client.CustomerByEmail] looking up %q", email)
	}
	if len(body.Customers) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return &body.Customers[0], nil
}

// RecentOrders returns up to limit most recent orders for a customer.
func (c *Client) RecentOrders(ctx context.Context, customerID string, limit int) ([]Order, error) {
	endpoint := fmt.Sprintf("%s/api/v1/customers/%s/orders?limit=%d", c.baseURL, url.PathEscape(customerID), limit)

	var body struct {
		Orders []Order `json:"orders"`
	}
	if err := c.get(ctx, endpoint, &body); err != nil {
		return nil, apperrors.Wrapf(err, "[Client.RecentOrders] listing orders for %q", customerID)
	}
	return body.Orders, nil
}

func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	token, err := c.tokens.GetValidAccessToken(ctx)
	if err != nil {
		return err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	request.Header.Set("Authorization", "Zoho-oauthtoken "+token)

	response, err := c.httpClient.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if response.StatusCode == http.StatusNotFound {
		return apperrors.ErrNotFound
	}
	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("commerce backend returned %s", response.Status)
	}
	return json.NewDecoder(response.Body).Decode(out)
}
