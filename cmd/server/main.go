package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/zentriq/deskbridge/commerce"
	"github.com/zentriq/deskbridge/helpdesk"
	"github.com/zentriq/deskbridge/internal/config"
	"github.com/zentriq/deskbridge/server"
	"github.com/zentriq/deskbridge/server/consentstate"
	"github.com/zentriq/deskbridge/telephony"
	"github.com/zentriq/deskbridge/tokens"
	"github.com/zentriq/deskbridge/tokenstore/fsstore"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("error running server")
	}
	log.Info().Msg("server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	setupLogging(c)
	displayAppname(c.GetAppName())

	store, err := fsstore.New(c.GetDataFolder())
	if err != nil {
		return fmt.Errorf("fsstore.New: %w", err)
	}

	manager := tokens.New(store, c, tokens.WithSingleFlight())

	deps := server.Dependencies{
		Tokens:        manager,
		Helpdesk:      helpdesk.NewClient(c.GetHelpdeskBaseURL(), c.GetHelpdeskOrgID(), manager),
		Commerce:      commerce.NewClient(c.GetCommerceBaseURL(), manager),
		Telephony:     telephony.NewClient(c.GetTelephonyBaseURL(), c.GetTelephonyAPIKey()),
		ConsentStates: consentstate.NewInMemoryRepo(),
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: server.New(c, deps)}
	go listenAndServe(httpServer)
	waitForStopSignal()
	return shutdown(httpServer)
}

func setupLogging(c config.Config) {
	if c.GetEnv() == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func listenAndServe(httpServer *http.Server) {
	log.Info().Str("addr", httpServer.Addr).Msg("server listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("server.ListenAndServe")
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(httpServer *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
