package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"domain-validator/internal/admin"
	"domain-validator/internal/cache"
	"domain-validator/internal/lists"
	"domain-validator/internal/model"
	"domain-validator/internal/queue"
	"domain-validator/internal/store"
)

type adminService interface {
	Whitelist(ctx context.Context, domain, notes string) error
	Blacklist(ctx context.Context, domain, notes string) error
	Override(ctx context.Context, domain string, t model.DomainType, notes string) error
	RemoveWhitelist(ctx context.Context, domain string) error
	RemoveBlacklist(ctx context.Context, domain string) error
	ClearOverride(ctx context.Context, domain string) error
	ListWhitelisted(ctx context.Context) ([]store.ListedDomain, error)
	ListBlacklisted(ctx context.Context) ([]store.ListedDomain, error)
	Stats(ctx context.Context) (store.AdminStats, error)
}

type queueOps interface {
	Enqueue(ctx context.Context, domain string) (queue.Job, error)
	Len(ctx context.Context) (int64, error)
	Scheduled(ctx context.Context) (int64, error)
}

type catalogStats interface {
	Stats() lists.Stats
}

// opsDeps is what the operations endpoints read from. queue and admin may
// be nil.
type opsDeps struct {
	gatherer prometheus.Gatherer
	cache    cache.Cache
	catalog  catalogStats
	queue    queueOps
	admin    adminService
}

func newOpsRouter(d opsDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
			"cache":  d.cache.Stats(req.Context()).Status,
		})
	})
	r.Handle("/metrics", promhttp.HandlerFor(d.gatherer, promhttp.HandlerOpts{}))
	r.Get("/cache/stats", func(w http.ResponseWriter, req *http.Request) {
		respondJSON(w, http.StatusOK, d.cache.Stats(req.Context()))
	})
	r.Delete("/cache/{domain}", func(w http.ResponseWriter, req *http.Request) {
		domain, err := model.Normalize(chi.URLParam(req, "domain"))
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		d.cache.Invalidate(req.Context(), domain)
		respondJSON(w, http.StatusOK, map[string]string{"message": "Cache cleared for " + domain})
	})
	r.Get("/lists/stats", func(w http.ResponseWriter, req *http.Request) {
		respondJSON(w, http.StatusOK, d.catalog.Stats())
	})

	if d.queue != nil {
		h := queueHandlers{q: d.queue}
		r.Get("/queue/stats", h.stats)
		r.Post("/queue", h.enqueue)
	}

	if d.admin != nil {
		r.Route("/admin", func(r chi.Router) {
			h := adminHandlers{svc: d.admin}
			r.Post("/whitelist", h.whitelist)
			r.Delete("/whitelist/{domain}", h.removeWhitelist)
			r.Get("/whitelist", h.listWhitelisted)
			r.Post("/blacklist", h.blacklist)
			r.Delete("/blacklist/{domain}", h.removeBlacklist)
			r.Get("/blacklist", h.listBlacklisted)
			r.Post("/override", h.override)
			r.Delete("/override/{domain}", h.clearOverride)
			r.Get("/stats", h.stats)
		})
	}
	return r
}

type queueHandlers struct {
	q queueOps
}

func (h queueHandlers) stats(w http.ResponseWriter, r *http.Request) {
	queued, err := h.q.Len(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	scheduled, err := h.q.Scheduled(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{
		"queued":             queued,
		"scheduled_rechecks": scheduled,
	})
}

type enqueueRequest struct {
	Domain string `json:"domain"`
}

func (h queueHandlers) enqueue(w http.ResponseWriter, r *http.Request) {
	var req enqueueRequest
	if !decode(w, r, &req) {
		return
	}
	domain, err := model.Normalize(req.Domain)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	job, err := h.q.Enqueue(r.Context(), domain)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusAccepted, job)
}

type adminHandlers struct {
	svc adminService
}

type overrideRequest struct {
	Domain     string           `json:"domain"`
	DomainType model.DomainType `json:"domain_type"`
	Notes      string           `json:"notes"`
}

func (h adminHandlers) whitelist(w http.ResponseWriter, r *http.Request) {
	var req overrideRequest
	if !decode(w, r, &req) {
		return
	}
	h.done(w, h.svc.Whitelist(r.Context(), req.Domain, req.Notes), "Domain "+req.Domain+" added to whitelist")
}

func (h adminHandlers) blacklist(w http.ResponseWriter, r *http.Request) {
	var req overrideRequest
	if !decode(w, r, &req) {
		return
	}
	h.done(w, h.svc.Blacklist(r.Context(), req.Domain, req.Notes), "Domain "+req.Domain+" added to blacklist")
}

func (h adminHandlers) override(w http.ResponseWriter, r *http.Request) {
	var req overrideRequest
	if !decode(w, r, &req) {
		return
	}
	err := h.svc.Override(r.Context(), req.Domain, req.DomainType, req.Notes)
	h.done(w, err, "Domain "+req.Domain+" classification overridden to "+string(req.DomainType))
}

func (h adminHandlers) removeWhitelist(w http.ResponseWriter, r *http.Request) {
	domain := chi.URLParam(r, "domain")
	h.done(w, h.svc.RemoveWhitelist(r.Context(), domain), "Domain "+domain+" removed from whitelist")
}

func (h adminHandlers) removeBlacklist(w http.ResponseWriter, r *http.Request) {
	domain := chi.URLParam(r, "domain")
	h.done(w, h.svc.RemoveBlacklist(r.Context(), domain), "Domain "+domain+" removed from blacklist")
}

func (h adminHandlers) clearOverride(w http.ResponseWriter, r *http.Request) {
	domain := chi.URLParam(r, "domain")
	h.done(w, h.svc.ClearOverride(r.Context(), domain), "Manual classification cleared for "+domain)
}

func (h adminHandlers) listWhitelisted(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.ListWhitelisted(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, out)
}

func (h adminHandlers) listBlacklisted(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.ListBlacklisted(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, out)
}

func (h adminHandlers) stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Stats(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, st)
}

func (h adminHandlers) done(w http.ResponseWriter, err error, message string) {
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, map[string]string{"message": message})
	case errors.Is(err, admin.ErrInvalidDomain), errors.Is(err, admin.ErrInvalidType):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, "Domain not found")
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
