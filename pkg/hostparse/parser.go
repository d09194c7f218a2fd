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

// Package hostparse classifies hostnames into effective TLD,
// registrable domain and subdomain using a suffix rule store.
package hostparse

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/tldex/tldex/pkg/suffixstore"
)

// ErrStoreNotReady is returned by Parse when the suffix store has not
// been populated yet. The caller is expected to refresh the store at
// startup, Parse never blocks on network I/O.
var ErrStoreNotReady = errors.New("suffix store is empty")

// Parser is a read-only consumer of a suffix store. It is safe for
// concurrent use.
type Parser struct {
	store *suffixstore.Store
}

func NewParser(store *suffixstore.Store) *Parser {
	return &Parser{store: store}
}

// Parse classifies s, which must be in "host[:port]" form. A
// malformed port is a fatal input error. A hostname that matches no
// suffix rule is not an error, it yields a result with Valid unset.
func (p *Parser) Parse(s string) (*ParsedHostname, error) {
	r := new(ParsedHostname)
	if i := strings.LastIndexByte(s, ':'); i >= 0 {
		port, err := strconv.Atoi(s[i+1:])
		if err != nil {
			return nil, fmt.Errorf("invalid port %q: %w", s[i+1:], err)
		}
		if port < 0 {
			return nil, fmt.Errorf("invalid port %q: port cannot be negative", s[i+1:])
		}
		r.Port = port
		s = s[:i]
	}
	r.Source = strings.ToLower(strings.TrimSpace(s))
	if err := p.classify(r); err != nil {
		return nil, err
	}
	return r, nil
}

// ParseURL classifies the host component of u. The URL carries its
// port and scheme separately, so no "host[:port]" splitting happens.
func (p *Parser) ParseURL(u *url.URL) (*ParsedHostname, error) {
	r := &ParsedHostname{
		Source:   strings.ToLower(u.Hostname()),
		Protocol: u.Scheme,
	}
	if ps := u.Port(); len(ps) > 0 {
		port, err := strconv.Atoi(ps)
		if err != nil {
			return nil, fmt.Errorf("invalid port %q: %w", ps, err)
		}
		r.Port = port
	}
	if err := p.classify(r); err != nil {
		return nil, err
	}
	return r, nil
}

// classify walks the labels of r.Source from the right, growing the
// candidate suffix until it hits a known rule. The walk stops while at
// least one label remains to the left of the suffix, so a single-label
// source or a bare suffix never matches.
func (p *Parser) classify(r *ParsedHostname) error {
	if p.store.IsEmpty() {
		return ErrStoreNotReady
	}

	labels := splitLabels(r.Source)
	if len(labels) == 0 {
		return nil
	}

	working := labels[len(labels)-1]
	rest := labels[:len(labels)-1]
	matched := false
	for len(rest) > 0 {
		if p.store.Contains(working) {
			matched = true
			break
		}
		working = rest[len(rest)-1] + "." + working
		rest = rest[:len(rest)-1]
	}
	if !matched {
		return nil
	}

	r.Valid = true
	r.TLD = working
	if len(rest) > 0 {
		r.Domain = rest[len(rest)-1] + "." + working
		rest = rest[:len(rest)-1]
	} else {
		r.Domain = working
	}
	r.Host = strings.Join(rest, ".")
	return nil
}

// splitLabels splits s on '.' and drops empty or whitespace-only
// segments.
func splitLabels(s string) []string {
	parts := strings.Split(s, ".")
	labels := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if len(part) > 0 {
			labels = append(labels, part)
		}
	}
	return labels
}
