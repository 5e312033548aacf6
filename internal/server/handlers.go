package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hyperjump/kensaku/internal/models"
	"go.uber.org/zap"
)

const (
	defaultSuggestions = 5
	maxSuggestions     = 50
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var query models.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.search(w, r, &query)
}

// handleSearchGet reads the query from q, limit, rules and highlight. A rules
// parameter that is present but empty disables ranking.
func (s *Server) handleSearchGet(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	query := models.SearchQuery{Query: params.Get("q")}
	if v := params.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		query.Limit = limit
	}
	if params.Has("rules") {
		query.Rules = []string{}
		for _, name := range strings.Split(params.Get("rules"), ",") {
			if name = strings.TrimSpace(name); name != "" {
				query.Rules = append(query.Rules, name)
			}
		}
	}
	if v := params.Get("highlight"); v != "" {
		highlight, err := strconv.ParseBool(v)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid highlight")
			return
		}
		query.Highlight = highlight
	}
	s.search(w, r, &query)
}

func (s *Server) search(w http.ResponseWriter, r *http.Request, query *models.SearchQuery) {
	logger := s.loggerFor(r)
	if query.Limit == 0 {
		query.Limit = s.config.Search.DefaultLimit
	}
	if query.Rules == nil {
		query.Rules = append([]string{}, s.config.Search.Rules...)
	}
	logger.Debug("search request",
		zap.String("query", query.Query),
		zap.Int("limit", query.Limit),
		zap.Strings("rules", query.Rules))

	response, err := s.Index().SearchDetailed(query, s.config.Search.MaxLimit)
	if err != nil {
		logger.Debug("search rejected", zap.Error(err))
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if response.Truncated {
		logger.Warn("search truncated by step budget",
			zap.String("query", response.Query), zap.Int("steps", response.Steps))
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	word := strings.TrimSpace(params.Get("q"))
	if word == "" {
		s.respondError(w, http.StatusBadRequest, "q is required")
		return
	}
	n := defaultSuggestions
	if v := params.Get("n"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			s.respondError(w, http.StatusBadRequest, "invalid n")
			return
		}
		n = min(parsed, maxSuggestions)
	}
	suggestions := s.Index().Suggest(word, n)
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"query":       word,
		"suggestions": suggestions,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats := s.Index().Stats()
	resp := map[string]interface{}{
		"documents": stats.Documents,
		"words":     stats.Words,
		"reloads":   s.reloads.Load(),
		"loaded_at": time.UnixMilli(s.loadedAt.Load()).UTC().Format(time.RFC3339),
		"config": map[string]interface{}{
			"corpus_path":    s.config.Corpus.Path,
			"rules":          s.config.Search.Rules,
			"default_limit":  s.config.Search.DefaultLimit,
			"max_limit":      s.config.Search.MaxLimit,
			"max_steps":      stats.MaxSteps,
			"watch_enabled":  s.config.Watch.Enabled,
			"reload_enabled": s.loader != nil,
		},
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.Reload(r.Context()); err != nil {
		if errors.Is(err, errReloadDisabled) {
			s.respondError(w, http.StatusNotImplemented, err.Error())
			return
		}
		s.loggerFor(r).Error("reload failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "reloaded",
		"documents": s.Index().Len(),
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
