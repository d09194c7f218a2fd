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
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/tldex/tldex/mlog"
	"github.com/tldex/tldex/pkg/hostparse"
	"github.com/tldex/tldex/pkg/safe_close"
	"github.com/tldex/tldex/pkg/suffixfetch"
	"github.com/tldex/tldex/pkg/suffixstore"
	"go.uber.org/zap"
)

type Tldex struct {
	logger *zap.Logger // non-nil logger.

	store     *suffixstore.Store
	parser    *hostparse.Parser
	refresher *suffixfetch.Refresher

	httpMux    *chi.Mux
	metricsReg *prometheus.Registry
	sc         *safe_close.SafeClose

	parseTotal        prometheus.Counter
	parseInvalidTotal prometheus.Counter
}

// NewTldex initializes a tldex instance: suffix store, parser,
// refresher and the http api server.
func NewTldex(cfg *Config) (*Tldex, error) {
	lg, err := mlog.NewLogger(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}

	m := &Tldex{
		logger:     lg,
		store:      suffixstore.NewStore(),
		httpMux:    chi.NewRouter(),
		metricsReg: newMetricsReg(),
		sc:         safe_close.NewSafeClose(),
	}
	m.parser = hostparse.NewParser(m.store)

	sdb := cfg.SuffixDB
	var source suffixfetch.Source
	if len(sdb.File) > 0 {
		source = suffixfetch.NewFileSource(sdb.File)
	} else {
		source = suffixfetch.NewHTTPSource(sdb.URL, time.Duration(sdb.FetchTimeout)*time.Second)
	}

	refresher, err := suffixfetch.NewRefresher(suffixfetch.RefresherOpts{
		Source:     source,
		Store:      m.store,
		Interval:   time.Duration(sdb.RefreshInterval) * time.Second,
		Logger:     lg,
		MetricsReg: m.GetMetricsReg(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init refresher: %w", err)
	}
	m.refresher = refresher

	// This must be called after m.httpMux and m.metricsReg been set.
	m.initHttpMux()

	// Start http api server
	if httpAddr := cfg.API.HTTP; len(httpAddr) > 0 {
		httpServer := &http.Server{
			Addr:    httpAddr,
			Handler: m.httpMux,
		}
		m.sc.Attach(func(done func(), closeSignal <-chan struct{}) {
			defer done()
			errChan := make(chan error, 1)
			go func() {
				m.logger.Info("starting api http server", zap.String("addr", httpAddr))
				errChan <- httpServer.ListenAndServe()
			}()
			select {
			case err := <-errChan:
				m.sc.SendCloseSignal(err)
			case <-closeSignal:
				_ = httpServer.Close()
			}
		})
	}

	// Stop the refresher on close signal.
	m.sc.Attach(func(done func(), closeSignal <-chan struct{}) {
		go func() {
			defer done()
			<-closeSignal
			m.logger.Info("starting shutdown sequences")
			m.refresher.Close()
			m.logger.Info("refresher closed")
		}()
	})

	// Populate the store before the periodic loop takes over. A failed
	// initial fetch is not fatal, the loop will retry on its schedule
	// and /parse fails fast with 503 until then.
	m.sc.Attach(func(done func(), closeSignal <-chan struct{}) {
		defer done()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			<-closeSignal
			cancel()
		}()
		if err := m.refresher.Bootstrap(ctx); err != nil {
			m.logger.Error("initial suffix database fetch failed", zap.Error(err))
		}
	})
	m.refresher.Start()

	if sdb.AutoReload {
		if len(sdb.File) == 0 {
			return nil, fmt.Errorf("auto_reload requires a file source")
		}
		if err := m.refresher.WatchFile(sdb.File); err != nil {
			return nil, fmt.Errorf("failed to start fs watcher, %w", err)
		}
	}

	return m, nil
}

// NewTestTldex returns a tldex instance for testing.
func NewTestTldex(source suffixfetch.Source) *Tldex {
	m := &Tldex{
		logger:     mlog.Nop(),
		store:      suffixstore.NewStore(),
		httpMux:    chi.NewRouter(),
		metricsReg: newMetricsReg(),
		sc:         safe_close.NewSafeClose(),
	}
	m.parser = hostparse.NewParser(m.store)
	m.refresher, _ = suffixfetch.NewRefresher(suffixfetch.RefresherOpts{
		Source: source,
		Store:  m.store,
		Logger: mlog.Nop(),
	})
	m.initHttpMux()
	return m
}

func (m *Tldex) GetSafeClose() *safe_close.SafeClose {
	return m.sc
}

// CloseWithErr is a shortcut for m.sc.SendCloseSignal
func (m *Tldex) CloseWithErr(err error) {
	m.sc.SendCloseSignal(err)
}

// WaitClosed blocks until the instance is closed and all sub
// goroutines exited, then returns the close error, if any.
func (m *Tldex) WaitClosed() error {
	<-m.sc.ReceiveCloseSignal()
	m.sc.Done()
	m.sc.CloseWait()
	return m.sc.Err()
}

// Logger returns a non-nil logger.
func (m *Tldex) Logger() *zap.Logger {
	return m.logger
}

// Store returns the suffix store.
func (m *Tldex) Store() *suffixstore.Store {
	return m.store
}

// Parser returns the hostname parser.
func (m *Tldex) Parser() *hostparse.Parser {
	return m.parser
}

// Refresher returns the suffix database refresher.
func (m *Tldex) Refresher() *suffixfetch.Refresher {
	return m.refresher
}

// GetMetricsReg returns a prometheus.Registerer with a prefix of "tldex_"
func (m *Tldex) GetMetricsReg() prometheus.Registerer {
	return prometheus.WrapRegistererWithPrefix("tldex_", m.metricsReg)
}

func (m *Tldex) GetAPIRouter() *chi.Mux {
	return m.httpMux
}

func newMetricsReg() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	reg.MustRegister(collectors.NewGoCollector())
	return reg
}
