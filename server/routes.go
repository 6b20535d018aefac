package server

import "net/http"

func (s *Server) initRoutes() {
	// Webhook intake
	s.RegisterRouteFunc("POST "+RouteWebhookCall, ChainMiddleware(s.CallWebhookHandler(), s.APIMiddleware()...))

	// Consent flow (run once per deployment to establish the refresh token)
	s.RegisterRouteFunc("GET "+RouteOAuthAuthorize, ChainMiddleware(s.AuthorizeHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteOAuthCallback, ChainMiddleware(s.OAuthCallbackHandler(), s.APIMiddleware()...))

	s.RegisterRouteFunc("GET "+RouteHealthz, s.HealthzHandler())
}

func (s *Server) HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}
