package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/adwski/signal-relay/backend/config"
	"github.com/adwski/signal-relay/backend/metrics"
	"github.com/adwski/signal-relay/backend/ratelimit"
	httpServer "github.com/adwski/signal-relay/backend/server/http"
	websocketServer "github.com/adwski/signal-relay/backend/server/websocket"
	"github.com/adwski/signal-relay/backend/service"
	"github.com/adwski/signal-relay/backend/storage/memory"
	sw "github.com/adwski/signal-relay/backend/switch"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Fatal().Err(err).Msg("failed to load .env")
	}
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	logger = logger.Level(cfg.Level)

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	relayMetrics := metrics.New(promReg)

	registry := memory.NewRegistry()
	metrics.RegisterRoomGauges(promReg, registry)

	svc := service.NewService(service.Config{
		Registry: registry,
		Switch:   sw.NewSwitch(&logger, relayMetrics),
		Limiter:  ratelimit.New(cfg.EventRate, cfg.EventBurst),
		Metrics:  relayMetrics,
		Logger:   &logger,
	})
	httpSrv := httpServer.NewServer(httpServer.Config{
		Logger:         &logger,
		RoomStats:      registry,
		ICEServers:     cfg.ICEServers,
		Gatherer:       promReg,
		AllowedOrigins: cfg.AllowedOrigins(),
		ListenAddr:     cfg.APIListenAddr,
	})
	wsSrv := websocketServer.NewServer(websocketServer.Config{
		Logger:           &logger,
		SignalingService: svc,
		ListenAddr:       cfg.WSListenAddr,
		AllowedOrigins:   cfg.AllowedOrigins(),
		SendQueueSize:    cfg.SendQueueSize,
		MaxMessageSize:   int64(cfg.MaxMessageSize),
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var (
		wg   = &sync.WaitGroup{}
		errc = make(chan error, 2)
	)
	wg.Add(2)
	go httpSrv.Run(ctx, wg, errc)
	go wsSrv.Run(ctx, wg, errc)

	select {
	case err = <-errc:
		logger.Error().Err(err).Msg("unexpected server error, shutting down")
	case <-ctx.Done():
		logger.Warn().Msg("interrupted")
	}
	cancel()
	wg.Wait()
}
