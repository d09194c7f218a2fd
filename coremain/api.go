/*
 * Copyright (C) 2023-2025, tldex contributors
 *
 * This file is part of tldex.
 *
 * tldex is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * tldex is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 */

package coremain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/pprof"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tldex/tldex/pkg/hostparse"
	"go.uber.org/zap"
)

// initHttpMux initializes api entries. It MUST be called after m.metricsReg being initialized.
func (m *Tldex) initHttpMux() {
	m.parseTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "parse_total",
		Help: "The total number of parse requests served",
	})
	m.parseInvalidTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "parse_invalid_total",
		Help: "The total number of parse requests that matched no suffix rule",
	})
	m.GetMetricsReg().MustRegister(m.parseTotal, m.parseInvalidTotal)

	// Register metrics.
	m.httpMux.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(m.metricsReg, promhttp.HandlerOpts{}))

	// Register pprof.
	m.httpMux.Route("/debug/pprof", func(r chi.Router) {
		r.Get("/*", pprof.Index)
		r.Get("/cmdline", pprof.Cmdline)
		r.Get("/profile", pprof.Profile)
		r.Get("/symbol", pprof.Symbol)
		r.Get("/trace", pprof.Trace)
	})

	m.httpMux.Get("/parse", m.handleParse)
	m.httpMux.Post("/refresh", m.handleRefresh)
	m.httpMux.Get("/ready", m.handleReady)

	// A helper page for invalid request.
	invalidApiReqHelper := func(w http.ResponseWriter, req *http.Request) {
		b := new(bytes.Buffer)
		_, _ = fmt.Fprintf(b, "Invalid request %s %s\n\n", req.Method, req.RequestURI)
		b.WriteString("Available api urls:\n")
		_ = chi.Walk(m.httpMux, func(method string, route string, handler http.Handler, middlewares ...func(http.Handler) http.Handler) error {
			b.WriteString(method)
			b.WriteByte(' ')
			b.WriteString(route)
			b.WriteByte('\n')
			return nil
		})
		_, _ = w.Write(b.Bytes())
	}
	m.httpMux.NotFound(invalidApiReqHelper)
	m.httpMux.MethodNotAllowed(invalidApiReqHelper)
}

// handleParse serves GET /parse?host=example.com:8443 and
// GET /parse?url=https://example.com/path.
func (m *Tldex) handleParse(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()

	var res *hostparse.ParsedHostname
	var err error
	switch {
	case len(q.Get("url")) > 0:
		var u *url.URL
		u, err = url.Parse(q.Get("url"))
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid url: %v", err), http.StatusBadRequest)
			return
		}
		res, err = m.parser.ParseURL(u)
	case len(q.Get("host")) > 0:
		res, err = m.parser.Parse(q.Get("host"))
	default:
		http.Error(w, "missing host or url parameter", http.StatusBadRequest)
		return
	}

	if err != nil {
		if errors.Is(err, hostparse.ErrStoreNotReady) {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	m.parseTotal.Inc()
	if !res.Valid {
		m.parseInvalidTotal.Inc()
	}
	writeJSON(w, http.StatusOK, res)
}

// handleRefresh triggers one fetch+replace cycle.
func (m *Tldex) handleRefresh(w http.ResponseWriter, req *http.Request) {
	if err := m.refresher.Refresh(req.Context()); err != nil {
		m.logger.Warn("manual refresh failed", zap.Error(err))
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"rules": m.store.Len()})
}

func (m *Tldex) handleReady(w http.ResponseWriter, _ *http.Request) {
	if m.store.IsEmpty() {
		http.Error(w, "suffix store is empty", http.StatusServiceUnavailable)
		return
	}
	_, _ = w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}
