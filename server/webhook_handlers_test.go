package server_test

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zentriq/deskbridge/commerce"
	"github.com/zentriq/deskbridge/helpdesk"
	"github.com/zentriq/deskbridge/internal/config"
	"github.com/zentriq/deskbridge/server"
	"github.com/zentriq/deskbridge/server/consentstate"
	"github.com/zentriq/deskbridge/telephony"
	"github.com/zentriq/deskbridge/tokens"
	"github.com/zentriq/deskbridge/tokenstore"
	"github.com/zentriq/deskbridge/tokenstore/storefake"
)

const testWebhookSecret = "hook-secret"

type fixture struct {
	server *server.Server
	store  *storefake.FakeStore
	states consentstate.Repo

	mu            sync.Mutex
	createdTicket *helpdesk.Ticket

	providerStatus int
	providerBody   string
}

func setupFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:          storefake.NewFakeStore(),
		states:         consentstate.NewInMemoryRepo(),
		providerStatus: http.StatusOK,
		providerBody:   `{"access_token":"A2","refresh_token":"R1","expires_in":3600}`,
	}

	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		status, body := f.providerStatus, f.providerBody
		f.mu.Unlock()
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(provider.Close)

	helpdeskAPI := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ticket helpdesk.Ticket
		require.NoError(t, json.NewDecoder(r.Body).Decode(&ticket))
		f.mu.Lock()
		f.createdTicket = &ticket
		f.mu.Unlock()

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"901","ticketNumber":"#1042"}`))
	}))
	t.Cleanup(helpdeskAPI.Close)

	commerceAPI := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/customers":
			_, _ = w.Write([]byte(`{"customers":[{"id":"c-9","email":"jo@example.com","first_name":"Jo","last_name":"Smith","total_orders":4}]}`))
		case "/api/v1/customers/c-9/orders":
			_, _ = w.Write([]byte(`{"orders":[{"id":"o-1","number":"SO-1001","status":"shipped","total":129.95}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(commerceAPI.Close)

	telephonyAPI := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"contacts":[{"id":"ct-5","name":"Jo Smith","number":"+61400000000","email":"jo@example.com"}]}`))
	}))
	t.Cleanup(telephonyAPI.Close)

	t.Setenv("WEBHOOK_SECRET", testWebhookSecret)
	t.Setenv("TOKEN_URL", provider.URL)
	t.Setenv("AUTHORIZE_URL", "https://accounts.example.com/oauth/v2/auth")
	t.Setenv("OAUTH_CLIENT_ID", "client-1")
	t.Setenv("OAUTH_CLIENT_SECRET", "secret-1")
	t.Setenv("OAUTH_REDIRECT_URI", "https://bridge.example.com/oauth/callback")
	t.Setenv("HELPDESK_BASE_URL", helpdeskAPI.URL)
	t.Setenv("HELPDESK_ORG_ID", "org-7")
	t.Setenv("HELPDESK_DEPARTMENT_ID", "dept-1")
	t.Setenv("COMMERCE_BASE_URL", commerceAPI.URL)
	t.Setenv("TELEPHONY_BASE_URL", telephonyAPI.URL)
	t.Setenv("TELEPHONY_API_KEY", "key-1")

	cfg := config.New()
	manager := tokens.New(f.store, cfg)

	f.server = server.New(cfg, server.Dependencies{
		Tokens:        manager,
		Helpdesk:      helpdesk.NewClient(cfg.GetHelpdeskBaseURL(), cfg.GetHelpdeskOrgID(), manager),
		Commerce:      commerce.NewClient(cfg.GetCommerceBaseURL(), manager),
		Telephony:     telephony.NewClient(cfg.GetTelephonyBaseURL(), cfg.GetTelephonyAPIKey()),
		ConsentStates: f.states,
	})
	return f
}

func (f *fixture) seedValidToken() {
	f.store.Seed(map[string]string{
		tokenstore.KeyAccessToken:  "A1",
		tokenstore.KeyRefreshToken: "R1",
		tokenstore.KeyTokenExpiry:  tokenstore.FormatExpiry(time.Now().Add(time.Hour).UnixMilli()),
	})
}

func (f *fixture) ticket() *helpdesk.Ticket {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.createdTicket
}

func sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func postCallEvent(t *testing.T, s *server.Server, body []byte, signature string) *httptest.ResponseRecorder {
	t.Helper()

	request := httptest.NewRequest(http.MethodPost, server.RouteWebhookCall, bytes.NewReader(body))
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("X-Webhook-Signature", signature)

	recorder := httptest.NewRecorder()
	s.ServeHTTP(recorder, request)
	return recorder
}

func TestCallWebhookCreatesEnrichedTicket(t *testing.T) {
	f := setupFixture(t)
	f.seedValidToken()

	body := []byte(`{"call_id":"call-1","direction":"inbound","caller_number":"+61400000000","duration_seconds":130}`)
	recorder := postCallEvent(t, f.server, body, sign(body))

	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())

	var response map[string]string
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, "901", response["ticket_id"])
	assert.Equal(t, "#1042", response["ticket_number"])

	ticket := f.ticket()
	require.NotNil(t, ticket)
	assert.Equal(t, "Call from Jo Smith", ticket.Subject)
	assert.Equal(t, "dept-1", ticket.DepartmentID)
	assert.Equal(t, "jo@example.com", ticket.Contact.Email)
	assert.Contains(t, ticket.Description, "SO-1001")
	assert.Contains(t, ticket.Description, "jo@example.com")
	assert.Contains(t, ticket.Description, "2m10s")
}

func TestCallWebhookRejectsBadSignature(t *testing.T) {
	f := setupFixture(t)
	f.seedValidToken()

	body := []byte(`{"call_id":"call-1","caller_number":"+61400000000"}`)
	recorder := postCallEvent(t, f.server, body, "deadbeef")

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Nil(t, f.ticket())
}

func TestCallWebhookRejectsMissingCallerNumber(t *testing.T) {
	f := setupFixture(t)
	f.seedValidToken()

	body := []byte(`{"call_id":"call-1"}`)
	recorder := postCallEvent(t, f.server, body, sign(body))

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestCallWebhookWithoutTokenRecordIsServiceUnavailable(t *testing.T) {
	f := setupFixture(t)
	// store left empty: no consent flow has ever run

	body := []byte(`{"call_id":"call-1","caller_number":"+61400000000"}`)
	recorder := postCallEvent(t, f.server, body, sign(body))

	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
	assert.Nil(t, f.ticket())
}

func TestCallWebhookRefreshFailureIsBadGateway(t *testing.T) {
	f := setupFixture(t)
	f.store.Seed(map[string]string{
		tokenstore.KeyAccessToken:  "A1",
		tokenstore.KeyRefreshToken: "R1",
		tokenstore.KeyTokenExpiry:  tokenstore.FormatExpiry(time.Now().Add(-time.Minute).UnixMilli()),
	})
	f.mu.Lock()
	f.providerStatus = http.StatusUnauthorized
	f.providerBody = `{"error":"invalid_token"}`
	f.mu.Unlock()

	body := []byte(`{"call_id":"call-1","caller_number":"+61400000000"}`)
	recorder := postCallEvent(t, f.server, body, sign(body))

	assert.Equal(t, http.StatusBadGateway, recorder.Code)
	assert.Nil(t, f.ticket())
}

func TestCallWebhookExpiredTokenRefreshesAndCreatesTicket(t *testing.T) {
	f := setupFixture(t)
	f.store.Seed(map[string]string{
		tokenstore.KeyAccessToken:  "A1",
		tokenstore.KeyRefreshToken: "R1",
		tokenstore.KeyTokenExpiry:  tokenstore.FormatExpiry(time.Now().Add(-time.Minute).UnixMilli()),
	})

	body := []byte(`{"call_id":"call-1","caller_number":"+61400000000"}`)
	recorder := postCallEvent(t, f.server, body, sign(body))

	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())
	assert.Equal(t, "A2", f.store.Values()[tokenstore.KeyAccessToken])
}

func TestAuthorizeRedirectsToProviderConsentPage(t *testing.T) {
	f := setupFixture(t)

	request := httptest.NewRequest(http.MethodGet, server.RouteOAuthAuthorize, nil)
	recorder := httptest.NewRecorder()
	f.server.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusFound, recorder.Code)

	location, err := url.Parse(recorder.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "accounts.example.com", location.Host)
	assert.Equal(t, "client-1", location.Query().Get("client_id"))

	state := location.Query().Get("state")
	require.NotEmpty(t, state)
	_, err = f.states.Get(state)
	assert.NoError(t, err, "issued state must be tracked for the callback")
}

func TestOAuthCallbackExchangesCode(t *testing.T) {
	f := setupFixture(t)
	require.NoError(t, f.states.Upsert("st-1", &consentstate.State{CreatedAt: time.Now()}))

	request := httptest.NewRequest(http.MethodGet, server.RouteOAuthCallback+"?code=code-1&state=st-1", nil)
	recorder := httptest.NewRecorder()
	f.server.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	values := f.store.Values()
	assert.Equal(t, "A2", values[tokenstore.KeyAccessToken])
	assert.Equal(t, "R1", values[tokenstore.KeyRefreshToken])
	assert.NotEmpty(t, values[tokenstore.KeyTokenExpiry])
}

func TestOAuthCallbackRejectsUnknownState(t *testing.T) {
	f := setupFixture(t)

	request := httptest.NewRequest(http.MethodGet, server.RouteOAuthCallback+"?code=code-1&state=forged", nil)
	recorder := httptest.NewRecorder()
	f.server.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, 0, f.store.Puts())
}
