package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/weiawesome/wes-io-live/relay-service/internal/config"
	"github.com/weiawesome/wes-io-live/relay-service/internal/events"
	"github.com/weiawesome/wes-io-live/relay-service/internal/generator"
	"github.com/weiawesome/wes-io-live/relay-service/internal/handler"
	"github.com/weiawesome/wes-io-live/relay-service/internal/hub"
	"github.com/weiawesome/wes-io-live/relay-service/internal/ice"
	"github.com/weiawesome/wes-io-live/relay-service/internal/registry"
	"github.com/weiawesome/wes-io-live/relay-service/internal/service"
	pkglog "github.com/weiawesome/wes-io-live/relay-service/pkg/log"
	"github.com/weiawesome/wes-io-live/relay-service/pkg/pubsub"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load configuration")
	}

	pkglog.Init(cfg.Log)
	logger := pkglog.L()

	logger.Info().Str("host", cfg.Server.Host).Int("port", cfg.Server.Port).Msg("starting relay-service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Room lifecycle events are optional; the relay works without a bus.
	var emitter events.Emitter = events.Discard{}
	var notifier *events.Notifier
	bus, err := pubsub.NewBus(cfg.PubSub)
	switch {
	case errors.Is(err, pubsub.ErrDisabled):
		logger.Info().Msg("room events disabled")
	case err != nil:
		logger.Warn().Err(err).Str("driver", cfg.PubSub.Driver).Msg("failed to initialize pubsub, room events disabled")
	default:
		notifier = events.NewNotifier(bus, cfg.Events.Buffer)
		go notifier.Run(ctx)
		emitter = notifier
		logger.Info().Str("driver", cfg.PubSub.Driver).Msg("room events enabled")
	}

	codes, err := generator.NewRoomCodeGenerator(cfg.Room.CodeLength, cfg.Room.CodeAlphabet)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid room code settings")
	}

	// Resolve ICE servers once; TURN credentials are valid for webrtc.turn_ttl.
	var turn ice.TURNProvider
	if p := ice.NewCloudflareTURN(cfg.WebRTC); p != nil {
		turn = p
	}
	iceServers := ice.Resolve(ctx, cfg.WebRTC, turn)
	logger.Info().Int("count", len(iceServers)).Msg("ICE servers configured")

	// Initialize service
	relaySvc := service.NewRelayService(registry.NewConnections(nil), registry.NewRooms(), codes, emitter)

	// Initialize hub
	wsHub := hub.NewHub(cfg.WebSocket, handler.NewRouter(relaySvc))
	go wsHub.Run()

	// Setup routes
	router := mux.NewRouter()
	handler.NewWSHandler(wsHub, cfg.WebSocket).RegisterRoutes(router)
	handler.NewHTTPHandler(wsHub, relaySvc).RegisterRoutes(router)
	handler.NewICEHandler(iceServers).RegisterRoutes(router)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:        addr,
		Handler:     pkglog.HTTPMiddleware(logger)(router),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().Str("addr", addr).Str("ws_path", cfg.WebSocket.Path).Msg("relay-service listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down relay-service")

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)

		wsHub.Stop() // 1. close all WS clients, rooms emit room_closed

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("server shutdown error")
		}

		cancel() // 2. stop the event notifier
		if notifier != nil {
			<-notifier.Done()
		}
		if bus != nil {
			if err := bus.Close(); err != nil {
				logger.Warn().Err(err).Msg("pubsub close error")
			}
		}
	}()

	select {
	case <-shutdownDone:
		logger.Info().Msg("relay-service stopped")
	case <-time.After(30 * time.Second):
		logger.Warn().Msg("shutdown timed out after 30s")
	}
}
