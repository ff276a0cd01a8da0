package main

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/always-cache/gofetch/store"
)

// newDebugRouter builds the introspection surface for a long-running
// gofetch daemon: a liveness probe and a store key listing. Grounded on
// the teacher's own use of chi as the router for its test harness's
// simulated downstream (main_test.go) — here it's given a production
// job instead, fronting the daemon's own admin endpoints rather than a
// stand-in origin.
func newDebugRouter(provider store.Provider) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/keys", func(w http.ResponseWriter, r *http.Request) {
		prefix := r.URL.Query().Get("prefix")
		var keys []string
		if err := provider.Keys(r.Context(), prefix, func(key string) {
			keys = append(keys, key)
		}); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(keys)
	})

	r.Delete("/keys/{key}", func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "key")
		if err := provider.Delete(r.Context(), key); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	return r
}
