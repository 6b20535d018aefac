package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/zentriq/deskbridge/server/consentstate"
)

// oauth2Config builds the consent-flow configuration from the credential set.
// Only the authorize URL is used here; token-endpoint calls go through the
// token manager, which owns the error taxonomy and expiry bookkeeping.
func (s *Server) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.config.GetClientID(),
		ClientSecret: s.config.GetClientSecret(),
		RedirectURL:  s.config.GetRedirectURI(),
		Scopes:       strings.Split(s.config.GetScope(), ","),
		Endpoint: oauth2.Endpoint{
			AuthURL:  s.config.GetAuthorizeURL(),
			TokenURL: s.config.GetTokenURL(),
		},
	}
}

// AuthorizeHandler starts the user-driven consent flow by redirecting to the
// provider's authorization page.
func (s *Server) AuthorizeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := uuid.NewString()
		if err := s.deps.ConsentStates.Upsert(state, &consentstate.State{CreatedAt: time.Now()}); err != nil {
			http.Error(w, "failed to start authorization", http.StatusInternalServerError)
			return
		}

		authURL := s.oauth2Config().AuthCodeURL(state, oauth2.AccessTypeOffline)
		http.Redirect(w, r, authURL, http.StatusFound)
	}
}

// OAuthCallbackHandler completes the consent flow: it validates the state
// parameter and exchanges the authorization code for the token triple.
func (s *Server) OAuthCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := r.FormValue("state")
		code := r.FormValue("code")
		errorParam := r.FormValue("error")
		errorDesc := r.FormValue("error_description")

		if errorParam != "" {
			http.Error(w, fmt.Sprintf("Authorization failed: %s - %s", errorParam, errorDesc), http.StatusBadRequest)
			return
		}
		if code == "" || state == "" {
			http.Error(w, "Missing code or state parameter", http.StatusBadRequest)
			return
		}

		if _, err := s.deps.ConsentStates.Get(state); err != nil {
			http.Error(w, "Invalid state parameter", http.StatusBadRequest)
			return
		}
		// Clean up state after use
		_ = s.deps.ConsentStates.Delete(state)

		if _, err := s.deps.Tokens.ExchangeAuthorizationCode(r.Context(), code); err != nil {
			log.Error().Err(err).Msg("authorization code exchange failed")
			http.Error(w, "Authorization code exchange failed, restart the consent flow", http.StatusBadGateway)
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("Authorization complete. The bridge can now create helpdesk tickets.\n"))
	}
}
