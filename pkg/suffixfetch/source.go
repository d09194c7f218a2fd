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

// Package suffixfetch obtains raw suffix rule lists and feeds them
// into a suffix store, once, periodically or on file change.
package suffixfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// DefaultListURL is the canonical public suffix list.
const DefaultListURL = "https://publicsuffix.org/list/public_suffix_list.dat"

const (
	defaultFetchTimeout = time.Second * 30

	// maxListSize caps the response body. The real list is ~250 KiB.
	maxListSize = 1 << 26
)

// Source produces a UTF-8 blob of newline-delimited rule text, or
// fails. That is its whole contract.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// HTTPSource fetches the rule list from a URL with a hard per-call
// timeout.
type HTTPSource struct {
	url     string
	timeout time.Duration
	client  *http.Client
}

// NewHTTPSource returns a HTTPSource for url. An empty url means
// DefaultListURL. timeout <= 0 means the 30s default.
func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	if len(url) == 0 {
		url = DefaultListURL
	}
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &HTTPSource{
		url:     url,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxListSize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return b, nil
}

// FileSource reads the rule list from a local file.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Fetch(_ context.Context) ([]byte, error) {
	return os.ReadFile(s.path)
}

// Path returns the watched file path.
func (s *FileSource) Path() string {
	return s.path
}
