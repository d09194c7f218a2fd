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
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tldex/tldex/pkg/suffixstore"
)

type fakeSource struct {
	mu      sync.Mutex
	text    string
	err     error
	fetches atomic.Int64

	// block, if non-nil, delays Fetch until closed.
	block chan struct{}
}

func (s *fakeSource) Fetch(ctx context.Context) ([]byte, error) {
	s.fetches.Add(1)
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return []byte(s.text), nil
}

func (s *fakeSource) set(text string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.text = text
	s.err = err
}

func newTestRefresher(t *testing.T, src Source, interval time.Duration) (*Refresher, *suffixstore.Store) {
	t.Helper()
	store := suffixstore.NewStore()
	r, err := NewRefresher(RefresherOpts{
		Source:   src,
		Store:    store,
		Interval: interval,
	})
	require.NoError(t, err)
	return r, store
}

func TestNewRefresher_BadOpts(t *testing.T) {
	_, err := NewRefresher(RefresherOpts{Store: suffixstore.NewStore()})
	require.Error(t, err)
	_, err = NewRefresher(RefresherOpts{Source: &fakeSource{}})
	require.Error(t, err)
}

func TestRefresher_Refresh(t *testing.T) {
	src := &fakeSource{text: "com\nco.uk\n"}
	r, store := newTestRefresher(t, src, 0)

	require.NoError(t, r.Refresh(context.Background()))
	require.Equal(t, 2, store.Len())

	// a failed refresh keeps the previous rule set
	src.set("", errors.New("remote gone"))
	require.Error(t, r.Refresh(context.Background()))
	require.Equal(t, 2, store.Len())
	require.True(t, store.Contains("co.uk"))
}

func TestRefresher_BootstrapSingleFlight(t *testing.T) {
	src := &fakeSource{text: "com\n", block: make(chan struct{})}
	r, store := newTestRefresher(t, src, 0)

	const callers = 8
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		go func() {
			errs <- r.Bootstrap(context.Background())
		}()
	}

	// let the callers pile up on the in-flight fetch
	time.Sleep(time.Millisecond * 50)
	close(src.block)

	for i := 0; i < callers; i++ {
		require.NoError(t, <-errs)
	}
	require.Equal(t, int64(1), src.fetches.Load())
	require.Equal(t, 1, store.Len())

	// a populated store makes Bootstrap a noop
	require.NoError(t, r.Bootstrap(context.Background()))
	require.Equal(t, int64(1), src.fetches.Load())
}

func TestRefresher_PeriodicRefresh(t *testing.T) {
	src := &fakeSource{text: "com\n"}
	r, store := newTestRefresher(t, src, time.Millisecond*10)

	r.Start()
	defer r.Close()

	deadline := time.Now().Add(time.Second * 5)
	for store.IsEmpty() {
		if time.Now().After(deadline) {
			t.Fatal("periodic refresh never populated the store")
		}
		time.Sleep(time.Millisecond * 5)
	}
	require.True(t, store.Contains("com"))
}

func TestRefresher_CloseCancelsFetch(t *testing.T) {
	src := &fakeSource{text: "com\n", block: make(chan struct{})}
	defer close(src.block)
	r, _ := newTestRefresher(t, src, time.Millisecond)

	r.Start()
	// wait for the loop to enter the blocking fetch
	deadline := time.Now().Add(time.Second * 5)
	for src.fetches.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("refresh loop never started a fetch")
		}
		time.Sleep(time.Millisecond)
	}

	closed := make(chan struct{})
	go func() {
		r.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(time.Second * 5):
		t.Fatal("Close did not cancel the in-flight fetch")
	}
}
