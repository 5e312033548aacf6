package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/hyperjump/kensaku/internal/config"
	"github.com/hyperjump/kensaku/internal/keyword"
	"github.com/hyperjump/kensaku/internal/models"
	"github.com/hyperjump/kensaku/internal/search"
	"go.uber.org/zap"
)

var testCorpus = []string{
	"Tamo le plus beau",
	"tamo est très beau aussi",
	"kefir est beau",
	"kefir le chien",
}

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	return NewServer(search.Construct(testCorpus), cfg, zap.NewNop(), opts...)
}

func do(t *testing.T, srv *Server, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(method, target, bytes.NewReader(body))
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, r)
	return w
}

func decodeSearch(t *testing.T, w *httptest.ResponseRecorder) models.SearchResponse {
	t.Helper()
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body.String())
	}
	var resp models.SearchResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	return resp
}

func ids(resp models.SearchResponse) []uint32 {
	out := make([]uint32, len(resp.Results))
	for i, r := range resp.Results {
		out[i] = r.Document.ID
	}
	return out
}

func TestHandleHealth_RequestID(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("status: got %d", w.Code)
	}
	if _, err := uuid.Parse(w.Header().Get(RequestIDHeader)); err != nil {
		t.Errorf("request id should be a uuid, got %q", w.Header().Get(RequestIDHeader))
	}

	incoming := uuid.NewString()
	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.Header.Set(RequestIDHeader, incoming)
	w = httptest.NewRecorder()
	srv.Router().ServeHTTP(w, r)
	if got := w.Header().Get(RequestIDHeader); got != incoming {
		t.Errorf("request id: got %q, want %q", got, incoming)
	}

	r = httptest.NewRequest(http.MethodGet, "/health", nil)
	r.Header.Set(RequestIDHeader, "not-a-uuid")
	w = httptest.NewRecorder()
	srv.Router().ServeHTTP(w, r)
	if got := w.Header().Get(RequestIDHeader); got == "not-a-uuid" {
		t.Error("invalid incoming request id should be replaced")
	}
}

func TestHandleSearchGet(t *testing.T) {
	srv := newTestServer(t)

	resp := decodeSearch(t, do(t, srv, http.MethodGet, "/api/v1/search?q=tamo+est&rules=word", nil))
	if got := ids(resp); len(got) != 2 || got[0] != 1 || got[1] != 0 {
		t.Errorf("ids: got %v, want [1 0]", got)
	}
	if len(resp.Rules) != 1 || resp.Rules[0] != "word" {
		t.Errorf("rules: got %v", resp.Rules)
	}

	resp = decodeSearch(t, do(t, srv, http.MethodGet, "/api/v1/search?q=kefir", nil))
	if len(resp.Rules) != 3 {
		t.Errorf("default rules: got %v", resp.Rules)
	}
	if got := ids(resp); len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Errorf("ids: got %v, want [2 3]", got)
	}

	resp = decodeSearch(t, do(t, srv, http.MethodGet, "/api/v1/search?q=beau&rules=&limit=2", nil))
	if len(resp.Rules) != 0 {
		t.Errorf("empty rules parameter should disable ranking, got %v", resp.Rules)
	}
	if got := ids(resp); len(got) != 2 || got[0] != 0 || got[1] != 1 {
		t.Errorf("ids: got %v, want [0 1]", got)
	}

	resp = decodeSearch(t, do(t, srv, http.MethodGet, "/api/v1/search?q=kefir&highlight=true&limit=1", nil))
	if len(resp.Results) != 1 || resp.Results[0].Highlighted != "<mark>kefir</mark> est beau" {
		t.Errorf("highlight: got %+v", resp.Results)
	}
}

func TestHandleSearchGet_BadRequest(t *testing.T) {
	srv := newTestServer(t)
	for _, target := range []string{
		"/api/v1/search?q=tamo&limit=abc",
		"/api/v1/search?q=tamo&limit=-1",
		"/api/v1/search?q=tamo&rules=word,relevance",
		"/api/v1/search?q=tamo&highlight=maybe",
	} {
		if w := do(t, srv, http.MethodGet, target, nil); w.Code != http.StatusBadRequest {
			t.Errorf("%s: status got %d, want 400", target, w.Code)
		}
	}
}

func TestHandleSearchPost(t *testing.T) {
	srv := newTestServer(t)

	body, _ := json.Marshal(models.SearchQuery{Query: "tamo est", Rules: []string{"word"}})
	resp := decodeSearch(t, do(t, srv, http.MethodPost, "/api/v1/search", body))
	if got := ids(resp); len(got) != 2 || got[0] != 1 {
		t.Errorf("ids: got %v", got)
	}

	if w := do(t, srv, http.MethodPost, "/api/v1/search", []byte("{")); w.Code != http.StatusBadRequest {
		t.Errorf("invalid body: got %d", w.Code)
	}
}

func TestHandleSearch_Suggestions(t *testing.T) {
	srv := newTestServer(t)
	resp := decodeSearch(t, do(t, srv, http.MethodGet, "/api/v1/search?q=kafyr", nil))
	if resp.Total != 0 || len(resp.Suggestions) != 1 || resp.Suggestions[0] != "kefir" {
		t.Errorf("got total %d suggestions %v", resp.Total, resp.Suggestions)
	}
}

func TestHandleSuggest(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, http.MethodGet, "/api/v1/suggest?q=kafyr&n=3", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out struct {
		Query       string               `json:"query"`
		Suggestions []keyword.Suggestion `json:"suggestions"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Suggestions) == 0 || out.Suggestions[0].Term != "kefir" {
		t.Errorf("suggestions: got %+v", out.Suggestions)
	}

	if w := do(t, srv, http.MethodGet, "/api/v1/suggest", nil); w.Code != http.StatusBadRequest {
		t.Errorf("missing q: got %d", w.Code)
	}
	if w := do(t, srv, http.MethodGet, "/api/v1/suggest?q=kafyr&n=0", nil); w.Code != http.StatusBadRequest {
		t.Errorf("invalid n: got %d", w.Code)
	}
}

func TestHandleStatus(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, http.MethodGet, "/api/v1/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out["documents"] != float64(len(testCorpus)) {
		t.Errorf("documents: got %v", out["documents"])
	}
	cfg, _ := out["config"].(map[string]interface{})
	if cfg["reload_enabled"] != false {
		t.Errorf("reload_enabled: got %v", cfg["reload_enabled"])
	}
}

func TestHandleReload(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		srv := newTestServer(t)
		if w := do(t, srv, http.MethodPost, "/api/v1/reload", nil); w.Code != http.StatusNotImplemented {
			t.Errorf("status: got %d", w.Code)
		}
	})

	t.Run("swaps index", func(t *testing.T) {
		srv := newTestServer(t, WithLoader(func(context.Context) (*search.Index, error) {
			return search.Construct([]string{"le poney"}), nil
		}))
		if w := do(t, srv, http.MethodPost, "/api/v1/reload", nil); w.Code != http.StatusOK {
			t.Fatalf("status: got %d", w.Code)
		}
		if srv.Index().Len() != 1 {
			t.Errorf("documents after reload: got %d", srv.Index().Len())
		}
		resp := decodeSearch(t, do(t, srv, http.MethodGet, "/api/v1/search?q=poney", nil))
		if resp.Total != 1 {
			t.Errorf("total after reload: got %d", resp.Total)
		}
	})

	t.Run("failure keeps index", func(t *testing.T) {
		srv := newTestServer(t, WithLoader(func(context.Context) (*search.Index, error) {
			return nil, errors.New("corpus missing")
		}))
		before := srv.Index()
		if w := do(t, srv, http.MethodPost, "/api/v1/reload", nil); w.Code != http.StatusInternalServerError {
			t.Errorf("status: got %d", w.Code)
		}
		if srv.Index() != before {
			t.Error("index should not change when reload fails")
		}
	})
}
