package storecheck

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hazyhaar/storecheck/storecheck/internal/config"
	"github.com/hazyhaar/storecheck/storecheck/internal/shield"
)

var errNoStore = errors.New("result history is not configured")

const maxRequestBody = 64 << 10

type checkReq struct {
	URL string `json:"url"`
}

// Handler exposes checks, history and metrics over HTTP. st may be nil,
// in which case the history routes answer 503.
func (c *Checker) Handler(st *Store) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(shield.TraceID(c.logger))
	r.Use(shield.SecurityHeaders)
	r.Use(shield.MaxBody(maxRequestBody))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/api/check", func(w http.ResponseWriter, r *http.Request) {
		var req checkReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("decode body: %w", err))
			return
		}
		if err := config.CheckURL(req.URL); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeJSON(w, http.StatusOK, c.CheckPage(r.Context(), req.URL))
	})

	r.Get("/api/results", func(w http.ResponseWriter, r *http.Request) {
		if st == nil {
			writeError(w, http.StatusServiceUnavailable, errNoStore)
			return
		}
		q := r.URL.Query()
		list, err := st.Recent(r.Context(), HistoryQuery{
			URL:        q.Get("url"),
			FailedOnly: q.Get("failed") == "true",
			Limit:      queryInt(r, "limit", 50),
		})
		if err != nil {
			shield.Logger(r.Context()).Error("http: history query", "error", err)
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	})

	r.Get("/api/results/{id}", func(w http.ResponseWriter, r *http.Request) {
		if st == nil {
			writeError(w, http.StatusServiceUnavailable, errNoStore)
			return
		}
		res, err := st.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			shield.Logger(r.Context()).Error("http: history get", "error", err)
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		if res == nil {
			writeError(w, http.StatusNotFound, errors.New("result not found"))
			return
		}
		writeJSON(w, http.StatusOK, res)
	})

	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func queryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
