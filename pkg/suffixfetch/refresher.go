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

package suffixfetch

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/tldex/tldex/pkg/safe_close"
	"github.com/tldex/tldex/pkg/suffixstore"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	defaultRefreshInterval = time.Hour * 24
	initialBackoff         = time.Second * 30
	maxBackoff             = time.Minute * 30
)

var nopLogger = zap.NewNop()

type RefresherOpts struct {
	// Source cannot be nil.
	Source Source

	// Store cannot be nil.
	Store *suffixstore.Store

	// Interval between periodic refreshes. Default is 24h.
	Interval time.Duration

	// Logger is the *zap.Logger for this Refresher.
	// A nil Logger disables logging.
	Logger *zap.Logger

	// MetricsReg is optional.
	MetricsReg prometheus.Registerer
}

func (opts *RefresherOpts) init() error {
	if opts.Source == nil {
		return errors.New("nil source")
	}
	if opts.Store == nil {
		return errors.New("nil store")
	}
	if opts.Interval <= 0 {
		opts.Interval = defaultRefreshInterval
	}
	if opts.Logger == nil {
		opts.Logger = nopLogger
	}
	return nil
}

// Refresher keeps one suffix store fresh from one source. The
// periodic loop keeps its schedule on fetch failures, with an
// exponential backoff between consecutive failures.
type Refresher struct {
	opts RefresherOpts

	sf singleflight.Group
	sc *safe_close.SafeClose

	refreshTotal    prometheus.Counter
	refreshErrTotal prometheus.Counter
	ruleTotal       prometheus.GaugeFunc
	lastRefresh     prometheus.Gauge
}

func NewRefresher(opts RefresherOpts) (*Refresher, error) {
	if err := opts.init(); err != nil {
		return nil, err
	}

	r := &Refresher{
		opts: opts,
		sc:   safe_close.NewSafeClose(),

		refreshTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "refresh_total",
			Help: "The total number of refresh attempts",
		}),
		refreshErrTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "refresh_err_total",
			Help: "The total number of failed refresh attempts",
		}),
		lastRefresh: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "last_refresh_timestamp",
			Help: "The unix timestamp of the last successful refresh",
		}),
	}
	r.ruleTotal = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "rule_total",
		Help: "Current number of suffix rules in the store",
	}, func() float64 {
		return float64(opts.Store.Len())
	})

	if reg := opts.MetricsReg; reg != nil {
		if err := regCollectors(reg, r.refreshTotal, r.refreshErrTotal, r.ruleTotal, r.lastRefresh); err != nil {
			return nil, fmt.Errorf("failed to register metrics, %w", err)
		}
	}
	return r, nil
}

func regCollectors(reg prometheus.Registerer, cs ...prometheus.Collector) error {
	for _, c := range cs {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Refresh runs one fetch+replace cycle. The error is the caller's to
// handle, the store keeps its previous rule set on failure.
func (r *Refresher) Refresh(ctx context.Context) error {
	r.refreshTotal.Inc()
	b, err := r.opts.Source.Fetch(ctx)
	if err != nil {
		r.refreshErrTotal.Inc()
		return fmt.Errorf("fetch rule list: %w", err)
	}
	n, err := r.opts.Store.ReplaceAll(string(b))
	if err != nil {
		r.refreshErrTotal.Inc()
		return fmt.Errorf("load rule list: %w", err)
	}
	r.lastRefresh.SetToCurrentTime()
	r.opts.Logger.Info("suffix database refreshed", zap.Int("rules", n))
	return nil
}

// Bootstrap populates an empty store. Concurrent callers share a
// single fetch. It is a noop if the store already has rules.
func (r *Refresher) Bootstrap(ctx context.Context) error {
	if !r.opts.Store.IsEmpty() {
		return nil
	}
	_, err, _ := r.sf.Do("bootstrap", func() (any, error) {
		if !r.opts.Store.IsEmpty() {
			return nil, nil
		}
		return nil, r.Refresh(ctx)
	})
	return err
}

// Start spawns the periodic refresh goroutine. Use Close to stop it.
func (r *Refresher) Start() {
	r.sc.Attach(func(done func(), closeSignal <-chan struct{}) {
		defer done()
		r.refreshLoop(closeSignal)
	})
}

// Close stops the periodic refresh and any file watcher, then waits
// for them to exit. An in-flight fetch is canceled.
func (r *Refresher) Close() {
	r.sc.Done()
	r.sc.CloseWait()
}

func (r *Refresher) refreshLoop(closeSignal <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-closeSignal
		cancel()
	}()

	ticker := time.NewTicker(r.opts.Interval)
	defer ticker.Stop()

	consecutiveFailures := 0
	for {
		select {
		case <-closeSignal:
			return
		case <-ticker.C:
			if err := r.Refresh(ctx); err != nil {
				consecutiveFailures++
				backoff := calcBackoff(consecutiveFailures)
				r.opts.Logger.Warn(
					"refresh failed",
					zap.Int("consecutive_failures", consecutiveFailures),
					zap.Duration("backoff", backoff),
					zap.Error(err),
				)
				timer := time.NewTimer(backoff)
				select {
				case <-closeSignal:
					timer.Stop()
					return
				case <-timer.C:
				}
				continue
			}
			if consecutiveFailures > 0 {
				r.opts.Logger.Info("refresh recovered", zap.Int("failures", consecutiveFailures))
			}
			consecutiveFailures = 0
		}
	}
}

// calcBackoff grows exponentially from initialBackoff to maxBackoff
// with +-20% jitter to avoid synchronized retries.
func calcBackoff(failures int) time.Duration {
	backoff := time.Duration(float64(initialBackoff) * math.Pow(2, float64(failures-1)))
	if backoff > maxBackoff {
		backoff = maxBackoff
	}
	const jitterFrac = 0.2
	jitter := time.Duration(rand.Float64()*2*jitterFrac*float64(backoff)) -
		time.Duration(jitterFrac*float64(backoff))
	return backoff + jitter
}
