package server

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/zentriq/deskbridge/commerce"
	"github.com/zentriq/deskbridge/helpdesk"
	"github.com/zentriq/deskbridge/internal/config"
	"github.com/zentriq/deskbridge/server/consentstate"
	"github.com/zentriq/deskbridge/telephony"
	"github.com/zentriq/deskbridge/tokens"
)

// Dependencies are the collaborators the HTTP shell dispatches into. All of
// them are constructed in cmd/server and injected so tests can point the
// clients at stub backends.
type Dependencies struct {
	Tokens        *tokens.Manager
	Helpdesk      *helpdesk.Client
	Commerce      *commerce.Client
	Telephony     *telephony.Client
	ConsentStates consentstate.Repo
}

type Server struct {
	env    string // Environment (e.g., "DEV", "PROD")
	mux    *http.ServeMux
	routes []string
	config config.Config
	deps   Dependencies
}

func New(config config.Config, deps Dependencies) *Server {
	s := &Server{
		mux:    http.NewServeMux(),
		config: config,
		deps:   deps,
	}
	s.env = config.GetEnv()

	s.initRoutes()
	s.logRoutes()

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		log.Info().Str("route", route).Msg("registered")
	}
}
