// Package httpapi mounts the REST surface: health, diagnostics, join, map
// and path queries, and the world reset endpoint.
package httpapi

import (
	"encoding/json"
	"io"
	"log"
	nethttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"drift-and-delve/server/internal/hub"
	"drift-and-delve/server/internal/nav"
	"drift-and-delve/server/internal/observability"
	"drift-and-delve/server/internal/telemetry"
	"drift-and-delve/server/logging"
)

type Config struct {
	Logger        telemetry.Logger
	Observability observability.Config
	WS            nethttp.Handler
	// LogStats reports the event router's delivery counters on the
	// diagnostics endpoint when set.
	LogStats func() logging.RouterStats
}

func NewHandler(h *hub.Hub, cfg Config) nethttp.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = telemetry.LoggerFunc(log.Printf)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		respondJSON(w, logger, nethttp.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/diagnostics", func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		payload := struct {
			Status      string               `json:"status"`
			ServerTime  int64                `json:"serverTime"`
			Diagnostics hub.Diagnostics      `json:"diagnostics"`
			Logging     *logging.RouterStats `json:"logging,omitempty"`
		}{
			Status:      "ok",
			ServerTime:  time.Now().UnixMilli(),
			Diagnostics: h.DiagnosticsSnapshot(),
		}
		if cfg.LogStats != nil {
			stats := cfg.LogStats()
			payload.Logging = &stats
		}
		respondJSON(w, logger, nethttp.StatusOK, payload)
	})

	r.Post("/join", func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		join, err := h.Join()
		if err != nil {
			respondError(w, logger, nethttp.StatusServiceUnavailable, err.Error())
			return
		}
		respondJSON(w, logger, nethttp.StatusOK, join)
	})

	r.Get("/map", func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		respondJSON(w, logger, nethttp.StatusOK, h.MapSnapshot())
	})

	r.Post("/world/reset", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		cfg := h.CurrentConfig()

		type resetRequest struct {
			Seed       *string  `json:"seed"`
			Cols       *int     `json:"cols"`
			Rows       *int     `json:"rows"`
			TileSize   *float64 `json:"tileSize"`
			AgentCount *int     `json:"agentCount"`
			Buildings  *int     `json:"buildings"`
			WaterPools *int     `json:"waterPools"`
			MudPatches *int     `json:"mudPatches"`
		}

		if r.Body != nil {
			defer r.Body.Close()
			var req resetRequest
			decoder := json.NewDecoder(r.Body)
			if err := decoder.Decode(&req); err != nil && err != io.EOF {
				respondError(w, logger, nethttp.StatusBadRequest, "invalid payload")
				return
			}
			if req.Seed != nil {
				cfg.Seed = *req.Seed
			}
			if req.Cols != nil {
				cfg.Cols = *req.Cols
			}
			if req.Rows != nil {
				cfg.Rows = *req.Rows
			}
			if req.TileSize != nil {
				cfg.TileSize = *req.TileSize
			}
			if req.AgentCount != nil {
				cfg.AgentCount = *req.AgentCount
			}
			if req.Buildings != nil {
				cfg.Buildings = *req.Buildings
			}
			if req.WaterPools != nil {
				cfg.WaterPools = *req.WaterPools
			}
			if req.MudPatches != nil {
				cfg.MudPatches = *req.MudPatches
			}
		}

		applied, err := h.ResetWorld(cfg)
		if err != nil {
			respondError(w, logger, nethttp.StatusInternalServerError, err.Error())
			return
		}

		response := struct {
			Status string `json:"status"`
			Config any    `json:"config"`
		}{
			Status: "ok",
			Config: applied,
		}
		respondJSON(w, logger, nethttp.StatusOK, response)
	})

	r.Post("/path", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var req struct {
			Start nav.Point `json:"start"`
			Goal  nav.Point `json:"goal"`
		}
		if r.Body == nil {
			respondError(w, logger, nethttp.StatusBadRequest, "missing payload")
			return
		}
		defer r.Body.Close()
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, logger, nethttp.StatusBadRequest, "invalid payload")
			return
		}

		path, goal, found := h.ProbePath(req.Start, req.Goal)
		response := struct {
			Found bool        `json:"found"`
			Goal  *nav.Point  `json:"goal,omitempty"`
			Path  []nav.Point `json:"path,omitempty"`
			Cost  float64     `json:"cost,omitempty"`
		}{Found: found}
		if found {
			response.Goal = &goal
			response.Path = path
			response.Cost = nav.PathCost(path)
		}
		respondJSON(w, logger, nethttp.StatusOK, response)
	})

	if cfg.WS != nil {
		r.Get("/ws", cfg.WS.ServeHTTP)
	}

	if cfg.Observability.EnablePprofTrace {
		r.Mount("/debug", middleware.Profiler())
	}

	return r
}

func respondJSON(w nethttp.ResponseWriter, logger telemetry.Logger, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Printf("failed to encode response: %v", err)
	}
}

func respondError(w nethttp.ResponseWriter, logger telemetry.Logger, status int, message string) {
	respondJSON(w, logger, status, map[string]string{"error": message})
}
