package cmd

import (
	"context"
	"fmt"
	"time"

	"plateraffle/api"
	"plateraffle/config"
	"plateraffle/database"
	"plateraffle/events"
	"plateraffle/repository"
	"plateraffle/service"

	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Info("Starting plate raffle service...")

	cfg := config.Get()

	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	eventBus := events.NewBus()
	subscribeLogging(eventBus)

	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	sessionService := service.NewSessionService(uowFactory)
	ledgerService := service.NewLedgerService(uowFactory)
	drawService := service.NewDrawService(uowFactory, service.NewWinnerSelector())
	rosterService := service.NewRosterService(uowFactory)

	server := api.NewServer(cfg.ListenAddr, sessionService, drawService, ledgerService, rosterService, cfg.HistoryPageSize)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	log.WithField("environment", cfg.Environment).Info("Service is running")

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Stop(shutdownCtx); err != nil {
		log.WithError(err).Error("Error during server shutdown")
	}

	log.Info("Shutdown complete")
	return nil
}

// subscribeLogging attaches audit log handlers for the domain events
func subscribeLogging(bus *events.Bus) {
	bus.Subscribe(events.EventTypeDrawStarted, func(ctx context.Context, event events.Event) {
		if started, ok := event.(events.DrawStartedEvent); ok {
			log.WithFields(log.Fields{
				"sessionID":   started.SessionID,
				"winner":      started.WinnerKey,
				"probability": started.Probability,
				"poolSize":    started.PoolSize,
			}).Info("Winner selected")
		}
	})

	bus.Subscribe(events.EventTypeDrawFinalized, func(ctx context.Context, event events.Event) {
		if finalized, ok := event.(events.DrawFinalizedEvent); ok {
			log.WithFields(log.Fields{
				"sessionID": finalized.SessionID,
				"winner":    finalized.WinnerKey,
				"override":  finalized.Override,
				"actor":     finalized.Actor,
			}).Info("Draw finalized")
		}
	})

	bus.Subscribe(events.EventTypeDrawReset, func(ctx context.Context, event events.Event) {
		if reset, ok := event.(events.DrawResetEvent); ok {
			log.WithFields(log.Fields{
				"sessionID":    reset.SessionID,
				"previous":     reset.PreviousKey,
				"wasFinalized": reset.WasFinalized,
				"actor":        reset.Actor,
			}).Info("Draw reset")
		}
	})

	bus.Subscribe(events.EventTypeSessionDiscardToggled, func(ctx context.Context, event events.Event) {
		if toggled, ok := event.(events.SessionDiscardToggledEvent); ok {
			log.WithFields(log.Fields{
				"sessionID": toggled.SessionID,
				"discarded": toggled.Discarded,
				"actor":     toggled.Actor,
			}).Info("Session discard flag changed")
		}
	})
}
