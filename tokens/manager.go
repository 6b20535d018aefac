// Package tokens manages the OAuth2 access-token lifecycle against the
// identity provider: it serves cached tokens from the store, refreshes them
// when they are absent or expired, and performs the one-off authorization-code
// exchange that establishes the refresh token.
package tokens

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/zentriq/deskbridge/internal/config"
	apperrors "github.com/zentriq/deskbridge/internal/errors"
	"github.com/zentriq/deskbridge/tokenstore"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

const (
	// defaultExpirySeconds is assumed when the provider omits expires_in and
	// the access token carries no readable exp claim.
	defaultExpirySeconds = 3600

	maxResponseBytes = 1 << 20
)

// Manager produces valid access tokens for outbound API calls, hiding refresh
// mechanics from callers. The store is an injected dependency so tests can
// substitute an in-memory fake.
type Manager struct {
	store      tokenstore.Store
	creds      config.CredentialConfig
	httpClient *http.Client
	coalesce   bool
	group      singleflight.Group
}

type Option func(*Manager)

// WithHTTPClient overrides the HTTP client used for token-endpoint calls.
func WithHTTPClient(client *http.Client) Option {
	return func(m *Manager) {
		m.httpClient = client
	}
}

// WithSingleFlight collapses concurrent refresh attempts into a single
// provider call and store write. The provider family tolerates concurrent
// refreshes (refresh tokens are not single-use), so this is optional; enable
// it to avoid redundant round trips under bursty webhook traffic.
func WithSingleFlight() Option {
	return func(m *Manager) {
		m.coalesce = true
	}
}

func New(store tokenstore.Store, creds config.CredentialConfig, opts ...Option) *Manager {
	m := &Manager{
		store:      store,
		creds:      creds,
		httpClient: &http.Client{Timeout: creds.GetProviderTimeout()},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GetValidAccessToken returns a currently valid access token, refreshing
// through the provider when the cached one is absent or expired. Fails with
// errors.ErrReauthorizationRequired when no refresh token is on record.
func (m *Manager) GetValidAccessToken(ctx context.Context) (string, error) {
	record, err := m.readRecord(ctx)
	if err != nil {
		return "", apperrors.Wrapf(err, "[Manager.GetValidAccessToken] reading token store")
	}

	if record.Valid(NowTimeFunc()) {
		return record.AccessToken, nil
	}

	if record.RefreshToken == "" {
		return "", apperrors.ErrReauthorizationRequired
	}

	if m.coalesce {
		token, err, _ := m.group.Do(m.creds.GetClientID(), func() (any, error) {
			return m.refresh(ctx, record.RefreshToken)
		})
		if err != nil {
			return "", err
		}
		return token.(string), nil
	}

	return m.refresh(ctx, record.RefreshToken)
}

// ExchangeAuthorizationCode trades a consent-flow authorization code for the
// full token triple and persists it. This is the only path that establishes
// refresh_token in the store.
func (m *Manager) ExchangeAuthorizationCode(ctx context.Context, code string) (*tokenstore.Record, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("client_id", m.creds.GetClientID())
	form.Set("client_secret", m.creds.GetClientSecret())
	form.Set("redirect_uri", m.creds.GetRedirectURI())

	response, err := m.postTokenForm(ctx, form)
	if err != nil {
		return nil, apperrors.Classify(apperrors.ErrAuthorizationExchangeFailed, err)
	}

	now := NowTimeFunc()
	record := &tokenstore.Record{
		AccessToken:  response.AccessToken,
		RefreshToken: response.RefreshToken,
		Expiry:       m.expiryFor(response, now),
	}

	if record.RefreshToken != "" {
		if err := m.store.Put(ctx, tokenstore.KeyRefreshToken, record.RefreshToken); err != nil {
			return nil, apperrors.Wrapf(err, "[Manager.ExchangeAuthorizationCode] persisting refresh token")
		}
	}
	if err := m.persistAccessToken(ctx, record.AccessToken, record.Expiry); err != nil {
		return nil, apperrors.Wrapf(err, "[Manager.ExchangeAuthorizationCode] persisting access token")
	}

	log.Info().Msg("authorization code exchanged, token record established")
	return record, nil
}

// readRecord issues the three store reads concurrently; they are
// order-independent. A malformed token_expiry is treated as absent so a
// partial record only ever causes a conservative refresh, never a crash.
func (m *Manager) readRecord(ctx context.Context) (tokenstore.Record, error) {
	var record tokenstore.Record

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		value, ok, err := m.store.Get(ctx, tokenstore.KeyAccessToken)
		if err != nil {
			return err
		}
		if ok {
			record.AccessToken = value
		}
		return nil
	})
	g.Go(func() error {
		value, ok, err := m.store.Get(ctx, tokenstore.KeyRefreshToken)
		if err != nil {
			return err
		}
		if ok {
			record.RefreshToken = value
		}
		return nil
	})
	g.Go(func() error {
		value, ok, err := m.store.Get(ctx, tokenstore.KeyTokenExpiry)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		expiry, parseErr := tokenstore.ParseExpiry(value)
		if parseErr != nil {
			log.Warn().Str("token_expiry", value).Msg("malformed token_expiry in store, treating as absent")
			return nil
		}
		record.Expiry = expiry
		return nil
	})

	if err := g.Wait(); err != nil {
		return tokenstore.Record{}, err
	}
	return record, nil
}

// refresh performs the refresh-token grant and persists the new access token
// and expiry before returning. The stored refresh_token is only overwritten
// when the provider rotates it; the provider family does not rotate by
// default, so the existing value is preserved.
func (m *Manager) refresh(ctx context.Context, refreshToken string) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	form.Set("client_id", m.creds.GetClientID())
	form.Set("client_secret", m.creds.GetClientSecret())

	response, err := m.postTokenForm(ctx, form)
	if err != nil {
		log.Warn().Err(err).Msg("access token refresh failed")
		return "", apperrors.Classify(apperrors.ErrTokenRefreshFailed, err)
	}

	now := NowTimeFunc()
	expiry := m.expiryFor(response, now)

	if response.RefreshToken != "" && response.RefreshToken != refreshToken {
		if err := m.store.Put(ctx, tokenstore.KeyRefreshToken, response.RefreshToken); err != nil {
			return "", apperrors.Wrapf(err, "[Manager.refresh] persisting rotated refresh token")
		}
	}
	if err := m.persistAccessToken(ctx, response.AccessToken, expiry); err != nil {
		return "", apperrors.Wrapf(err, "[Manager.refresh] persisting access token")
	}

	log.Debug().Int64("expiry_ms", expiry).Msg("access token refreshed")
	return response.AccessToken, nil
}

func (m *Manager) persistAccessToken(ctx context.Context, accessToken string, expiry int64) error {
	if err := m.store.Put(ctx, tokenstore.KeyAccessToken, accessToken); err != nil {
		return err
	}
	return m.store.Put(ctx, tokenstore.KeyTokenExpiry, tokenstore.FormatExpiry(expiry))
}

// tokenResponse is the provider's token-endpoint response body, shared by the
// authorization_code and refresh_token grants.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	APIDomain    string `json:"api_domain,omitempty"`
}

// postTokenForm posts a form-encoded grant to the token endpoint. Non-2xx
// statuses and malformed success bodies both surface as errors; taxonomy
// classification is the caller's job.
func (m *Manager) postTokenForm(ctx context.Context, form url.Values) (*tokenResponse, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, m.creds.GetTokenURL(), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	response, err := m.httpClient.Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return nil, &apperrors.ProviderError{
			StatusCode: response.StatusCode,
			Status:     response.Status,
			Message:    strings.TrimSpace(string(body)),
		}
	}

	var parsed tokenResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, apperrors.Wrapf(err, "decoding token response")
	}
	if parsed.AccessToken == "" {
		return nil, errors.New("token response missing access_token")
	}
	return &parsed, nil
}

// expiryFor computes the epoch-millisecond deadline for a token response.
// Preference order: the provider's expires_in, then an exp claim if the access
// token happens to be a JWT, then the fixed fallback.
func (m *Manager) expiryFor(response *tokenResponse, now time.Time) int64 {
	if response.ExpiresIn > 0 {
		return now.UnixMilli() + response.ExpiresIn*1000
	}
	if exp, ok := jwtExpiry(response.AccessToken); ok {
		return exp.UnixMilli()
	}
	return now.UnixMilli() + defaultExpirySeconds*1000
}

// jwtExpiry extracts the exp claim from a JWT-shaped access token without
// verifying the signature; the token is the provider's own, we only need the
// deadline hint.
func jwtExpiry(accessToken string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
