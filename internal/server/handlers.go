package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/perfgen/perfgen/internal/assemble"
	"github.com/perfgen/perfgen/internal/engine"
	"github.com/perfgen/perfgen/internal/history"
	"github.com/perfgen/perfgen/internal/ruleset"
)

// generateRequest is the /generate-config request body. Plugins is kept
// raw so a non-array value can be rejected with a client error instead of
// a decode failure.
type generateRequest struct {
	Plugins       json.RawMessage `json:"plugins"`
	Theme         string          `json:"theme"`
	Themes        []string        `json:"themes"`
	ThemeParent   string          `json:"theme_parent"`
	ThemeChild    string          `json:"theme_child"`
	Domain        string          `json:"domain"`
	AnalyzeDomain bool            `json:"analyze_domain"`
}

type generateResponse struct {
	Success           bool                  `json:"success"`
	Config            map[string]any        `json:"config"`
	ProcessingInfo    engine.ProcessingInfo `json:"processing_info"`
	DetectedProviders []string              `json:"detected_ad_providers"`
	GeneratedAt       string                `json:"generated_at"`
	SavedAs           string                `json:"saved_as,omitempty"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "request must be JSON")
		return
	}
	if req.Plugins == nil {
		s.writeError(w, http.StatusBadRequest, "plugins field is required")
		return
	}
	var plugins []string
	if err := json.Unmarshal(req.Plugins, &plugins); err != nil {
		s.writeError(w, http.StatusBadRequest, "plugins must be an array")
		return
	}

	snap, err := s.holder.Current()
	if err != nil {
		if errors.Is(err, ruleset.ErrNotLoaded) {
			s.writeError(w, http.StatusServiceUnavailable, "rule store not loaded")
			return
		}
		s.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	themes := engine.ThemeInput{
		Theme:       req.Theme,
		Themes:      req.Themes,
		ThemeParent: req.ThemeParent,
		ThemeChild:  req.ThemeChild,
	}.Sequence()

	// Provider detection is best-effort: a failed or timed-out scan
	// degrades to no tags and the resolution proceeds.
	var providers []string
	if req.AnalyzeDomain && req.Domain != "" && s.detector != nil {
		tags, err := s.detector.Scan(r.Context(), req.Domain)
		if err != nil {
			s.log.Warn().Err(err).Str("domain", req.Domain).Msg("ad provider scan failed")
		} else {
			providers = tags
		}
	}
	if providers == nil {
		providers = []string{}
	}

	res, err := engine.Resolve(plugins, themes, providers, snap.Store)
	if err != nil {
		s.log.Error().Err(err).Msg("resolution failed")
		s.logEvent(r.Context(), history.Event{Type: "generate", ClientIP: ip, Success: false, Error: err.Error()})
		s.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	config, err := assemble.Assemble(snap.Template, res, s.mode)
	if err != nil {
		s.log.Error().Err(err).Msg("assembly failed")
		s.logEvent(r.Context(), history.Event{Type: "generate", ClientIP: ip, Success: false, Error: err.Error()})
		s.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	generatedAt := time.Now().UTC()
	resp := generateResponse{
		Success:           true,
		Config:            config,
		ProcessingInfo:    res.Info,
		DetectedProviders: providers,
		GeneratedAt:       generatedAt.Format(time.RFC3339),
	}

	if s.history != nil {
		rec := history.GenerationRecord{
			ID:                history.NewGenerationID(),
			CreatedAt:         generatedAt,
			Domain:            req.Domain,
			ClientIP:          ip,
			UserAgent:         r.UserAgent(),
			Theme:             req.Theme,
			Themes:            themes,
			Plugins:           plugins,
			DetectedProviders: providers,
			PluginsProcessed:  res.Info.PluginsProcessed,
			ThemesProcessed:   res.Info.ThemesProcessed,
			Config:            config,
		}
		if err := s.history.SaveGeneration(r.Context(), rec); err != nil {
			// History is an audit trail, not part of the contract; the
			// generated config is still returned.
			s.log.Error().Err(err).Msg("failed to save generation")
		} else {
			resp.SavedAs = rec.ID
		}
	}

	s.logEvent(r.Context(), history.Event{Type: "generate", ClientIP: ip, Success: true})
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)

	if err := s.holder.Reload(); err != nil {
		s.log.Error().Err(err).Msg("configuration reload failed")
		s.logEvent(r.Context(), history.Event{Type: "reload", ClientIP: ip, Success: false, Error: err.Error()})
		s.writeError(w, http.StatusInternalServerError, "failed to reload configuration")
		return
	}

	s.log.Info().Msg("configuration reloaded")
	s.logEvent(r.Context(), history.Event{Type: "reload", ClientIP: ip, Success: true})
	s.writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   "configuration files reloaded successfully",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.logEvent(r.Context(), history.Event{Type: "health", ClientIP: clientIP(r), Success: true})
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   Version,
	})
}

func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"configs": []history.GenerationSummary{},
			"total":   0,
		})
		return
	}
	configs, err := s.history.ListGenerations(r.Context(), 50)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list generations")
		s.writeError(w, http.StatusInternalServerError, "failed to load configurations")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"configs": configs,
		"total":   len(configs),
	})
}

func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "usage": history.UsageStats{}})
		return
	}
	stats, err := s.history.Stats(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to load usage stats")
		s.writeError(w, http.StatusInternalServerError, "failed to load usage stats")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "usage": stats})
}

// logEvent records a usage event, tolerating history being disabled or the
// write failing.
func (s *Server) logEvent(ctx context.Context, ev history.Event) {
	if s.history == nil {
		return
	}
	if err := s.history.LogEvent(ctx, ev); err != nil {
		s.log.Warn().Err(err).Str("event", ev.Type).Msg("failed to log usage event")
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Success: false, Error: msg})
}
