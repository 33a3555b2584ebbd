package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appadmin "split-or-steal/internal/app/admin"
	approoms "split-or-steal/internal/app/rooms"
	"split-or-steal/internal/config"
	"split-or-steal/internal/events"
	"split-or-steal/internal/game"
	"split-or-steal/internal/identity"
	"split-or-steal/internal/ledger"
	"split-or-steal/internal/logging"
	"split-or-steal/internal/store"
	httptransport "split-or-steal/internal/transport/http"

	"github.com/rs/zerolog/log"
)

type backend interface {
	game.Repository
	ledger.Balances
}

func main() {
	cfg, err := config.LoadApp()
	if err != nil {
		panic(err)
	}
	if err := logging.Init(cfg.Log); err != nil {
		panic(err)
	}
	policy, err := game.ParsePolicy(cfg.Game.BothStealPolicy)
	if err != nil {
		log.Fatal().Err(err).Str("policy", cfg.Game.BothStealPolicy).Msg("invalid both-steal policy")
	}

	var (
		repo backend
		db   httptransport.Pinger
	)
	if cfg.Server.PostgresDSN != "" {
		st, err := store.NewWithCache(cfg.Server.PostgresDSN, cfg.Game.RoomCacheSize)
		if err != nil {
			log.Fatal().Err(err).Msg("store init failed")
		}
		defer st.Close()
		if err := st.Ping(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("db ping failed")
		}
		repo, db = st, st
	} else {
		log.Warn().Msg("POSTGRES_DSN not set; rooms and balances are kept in memory")
		repo = store.NewMemory()
	}

	buf := events.NewBuffer(cfg.Game.EventBufferSize)
	defer buf.Close()
	registry := identity.NewRegistry(cfg.Game.IdentityRequireIssued, buf)
	led := ledger.New(repo, ledger.LogTransferer{}, buf)
	engine := game.NewEngine(repo, registry, led, game.Options{
		Policy:    policy,
		Sink:      cfg.Game.SinkAddress,
		Events:    buf,
		ScanBatch: cfg.Game.JoinableScanBatch,
	})

	r := httptransport.NewRouter(httptransport.Deps{
		Rooms:  approoms.NewService(engine, led, cfg.Game.MaxJoinable),
		Admin:  appadmin.NewService(registry),
		Events: buf,
		DB:     db,
	}, cfg.Server)
	httptransport.LogRoutes(r)

	server := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		// Closing the buffer ends open SSE streams so Shutdown can drain.
		buf.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown failed")
		}
	}()

	log.Info().
		Str("addr", cfg.Server.HTTPAddr).
		Str("policy", string(policy)).
		Str("sink", cfg.Game.SinkAddress.Hex()).
		Bool("postgres", db != nil).
		Msg("http listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server stopped")
	}
	log.Info().Msg("server stopped")
}
