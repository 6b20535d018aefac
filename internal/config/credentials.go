package config

import (
	"fmt"
	"time"
)

// CredentialConfig is the OAuth client credential set for the identity
// provider. Values are read from the environment per invocation and are never
// persisted anywhere.
type CredentialConfig interface {
	GetAuthDomain() string
	GetClientID() string
	GetClientSecret() string
	GetRedirectURI() string
	GetScope() string
	GetTokenURL() string
	GetAuthorizeURL() string
	GetProviderTimeout() time.Duration
}

type Credentials struct{}

var _ CredentialConfig = Credentials{}

func (Credentials) GetAuthDomain() string {
	return GetEnv("AUTH_DOMAIN", "accounts.zoho.com")
}

func (Credentials) GetClientID() string {
	return GetEnv("OAUTH_CLIENT_ID", "")
}

// GetClientSecret returns the OAuth client secret.
// Security: Never log or expose this value
func (Credentials) GetClientSecret() string {
	return GetEnv("OAUTH_CLIENT_SECRET", "")
}

func (Credentials) GetRedirectURI() string {
	return GetEnv("OAUTH_REDIRECT_URI", "")
}

func (Credentials) GetScope() string {
	return GetEnv("OAUTH_SCOPE", "Desk.tickets.CREATE,Desk.contacts.READ")
}

// GetTokenURL composes the provider token endpoint from the auth domain.
// Override TOKEN_URL in full only for local testing against a stub provider.
func (c Credentials) GetTokenURL() string {
	return GetEnv("TOKEN_URL", fmt.Sprintf("https://%s/oauth/v2/token", c.GetAuthDomain()))
}

func (c Credentials) GetAuthorizeURL() string {
	return GetEnv("AUTHORIZE_URL", fmt.Sprintf("https://%s/oauth/v2/auth", c.GetAuthDomain()))
}

// GetProviderTimeout bounds every outbound call to the token endpoint.
func (Credentials) GetProviderTimeout() time.Duration {
	return 10 * time.Second
}
