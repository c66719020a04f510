package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/netgrid/arena/internal/botclient"
	appcfg "github.com/netgrid/arena/internal/config"
	"github.com/netgrid/arena/internal/gateway"
	"github.com/netgrid/arena/internal/lifecycle"
	"github.com/netgrid/arena/internal/match"
	"github.com/netgrid/arena/internal/obslog"
	"github.com/netgrid/arena/internal/rating"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}

	store, err := match.NewStore(cfg.RedisURL)
	if err != nil {
		obslog.L().Fatal("match store init", zap.Error(err))
	}
	manager := match.NewManager(store)
	manager.SetMaxConcurrent(cfg.MaxConcurrentMatches)

	ratingRepo, err := rating.NewRepository(cfg.DatabaseURL)
	if err != nil {
		obslog.L().Fatal("rating repository init", zap.Error(err))
	}
	manager.AttachRecorder(rating.NewUpdater(ratingRepo))

	sched, err := lifecycle.New(manager.Resolve)
	if err != nil {
		obslog.L().Fatal("scheduler init", zap.Error(err))
	}
	sched.Start()
	manager.AttachScheduler(sched)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bot dispatch and websocket fan-out both ride the event stream.
	botEvents, stopBotEvents := manager.SubscribeEvents(ctx)
	dispatcher := botclient.NewDispatcher(
		botclient.NewClient(botclient.WithTimeout(cfg.BotTimeout), botclient.WithRetry(cfg.BotRetryMax)),
		manager,
		manager,
		cfg.BotTimeout,
	)
	go dispatcher.Run(ctx, botEvents)

	hub := gateway.NewHub(manager)
	wsEvents, stopWSEvents := manager.SubscribeEvents(ctx)
	go hub.Run(ctx, wsEvents)

	mux := http.NewServeMux()
	gateway.NewAPI(manager, ratingRepo, cfg.Presets).Routes(mux, hub)
	srv := &http.Server{
		Addr:              cfg.GatewayAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		obslog.L().Info("gateway_listening", zap.String("addr", cfg.GatewayAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			obslog.L().Fatal("gateway serve", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	obslog.L().Info("shutting_down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
	cancel()
	stopBotEvents()
	stopWSEvents()
	_ = sched.Stop()
	_ = ratingRepo.Close()
	_ = store.Close()
}
