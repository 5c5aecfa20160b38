// Package app wires the logging router, tile catalog, world, hub, and HTTP
// surface into a runnable server.
package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"

	"drift-and-delve/server/internal/hub"
	"drift-and-delve/server/internal/net/httpapi"
	"drift-and-delve/server/internal/net/ws"
	"drift-and-delve/server/internal/observability"
	"drift-and-delve/server/internal/telemetry"
	"drift-and-delve/server/internal/world"
	"drift-and-delve/server/logging"
	loggingSinks "drift-and-delve/server/logging/sinks"
	"drift-and-delve/server/tiles/catalog"
)

type Config struct {
	Addr          string
	Logger        telemetry.Logger
	World         world.Config
	TickRate      int
	Observability observability.Config
}

func Run(ctx context.Context, cfg Config) error {
	telemetryLogger := cfg.Logger
	if telemetryLogger == nil {
		telemetryLogger = telemetry.WrapLogger(log.Default())
	}

	logConfig := logging.DefaultConfig()
	namedSinks := []logging.NamedSink{
		{Name: "console", Sink: loggingSinks.NewConsoleSink(os.Stdout, logConfig.Console)},
	}
	if path := os.Getenv("EVENT_LOG_PATH"); path != "" {
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			telemetryLogger.Printf("invalid EVENT_LOG_PATH=%q: %v", path, err)
		} else {
			defer file.Close()
			namedSinks = append(namedSinks, logging.NamedSink{
				Name: "json",
				Sink: loggingSinks.NewJSON(file, logConfig.JSON.FlushInterval),
			})
		}
	}

	router, err := logging.NewRouter(nil, logConfig, namedSinks)
	if err != nil {
		return fmt.Errorf("failed to construct logging router: %w", err)
	}
	defer func() {
		if cerr := router.Close(ctx); cerr != nil {
			telemetryLogger.Printf("failed to close logging router: %v", cerr)
		}
	}()

	worldCfg := cfg.World
	if worldCfg == (world.Config{}) {
		worldCfg = world.DefaultConfig()
	}
	if raw := os.Getenv("WORLD_SEED"); raw != "" {
		worldCfg.Seed = raw
	}
	if raw := os.Getenv("AGENT_COUNT"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil {
			worldCfg.AgentCount = value
		} else {
			telemetryLogger.Printf("invalid AGENT_COUNT=%q: %v", raw, err)
		}
	}
	if raw := os.Getenv("TILE_CATALOG_PATH"); raw != "" {
		worldCfg.CatalogPath = raw
	}

	tickRate := cfg.TickRate
	if raw := os.Getenv("TICK_RATE"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil {
			tickRate = value
		} else {
			telemetryLogger.Printf("invalid TICK_RATE=%q: %v", raw, err)
		}
	}

	observabilityCfg := cfg.Observability
	if raw := os.Getenv("ENABLE_PPROF_TRACE"); raw != "" {
		if value, err := strconv.ParseBool(raw); err == nil {
			observabilityCfg.EnablePprofTrace = value
		} else {
			telemetryLogger.Printf("invalid ENABLE_PPROF_TRACE=%q: %v", raw, err)
		}
	}

	catalogPaths := catalog.DefaultPaths()
	if worldCfg.CatalogPath != "" {
		catalogPaths = append(catalogPaths, worldCfg.CatalogPath)
	}
	resolver, err := catalog.Load(catalogPaths...)
	if err != nil {
		return fmt.Errorf("failed to load tile catalog: %w", err)
	}

	counters := telemetry.NewCounters()
	h, err := hub.New(worldCfg, hub.Options{
		TickRate:  tickRate,
		Publisher: router,
		Counters:  counters,
		Logger:    telemetryLogger,
		WorldDeps: world.Deps{Publisher: router, Catalog: resolver},
	})
	if err != nil {
		return fmt.Errorf("failed to build hub: %w", err)
	}

	stop := make(chan struct{})
	go h.RunSimulation(stop)
	defer close(stop)

	wsHandler := ws.NewHandler(h, ws.HandlerConfig{
		Logger:    telemetryLogger,
		Publisher: router,
		Metrics:   counters,
	})
	handler := httpapi.NewHandler(h, httpapi.Config{
		Logger:        telemetryLogger,
		Observability: observabilityCfg,
		WS:            http.HandlerFunc(wsHandler.Handle),
		LogStats:      router.Stats,
	})

	addr := cfg.Addr
	if raw := os.Getenv("LISTEN_ADDR"); raw != "" {
		addr = raw
	}
	if addr == "" {
		addr = ":8080"
	}

	srv := &http.Server{Addr: addr, Handler: handler}
	telemetryLogger.Printf("server listening on %s", srv.Addr)

	if err := srv.ListenAndServe(); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
