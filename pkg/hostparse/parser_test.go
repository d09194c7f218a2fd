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

package hostparse

import (
	"errors"
	"net/url"
	"testing"

	"github.com/tldex/tldex/pkg/suffixstore"
)

func newTestParser(t *testing.T, rules string) *Parser {
	t.Helper()
	store := suffixstore.NewStore()
	if _, err := store.ReplaceAll(rules); err != nil {
		t.Fatal(err)
	}
	return NewParser(store)
}

func TestParser_Parse(t *testing.T) {
	p := newTestParser(t, "com\nco.uk\n")

	tests := []struct {
		name    string
		in      string
		want    ParsedHostname
		wantErr bool
	}{
		{
			name: "registrable domain only",
			in:   "example.com",
			want: ParsedHostname{Source: "example.com", Valid: true, TLD: "com", Domain: "example.com", Host: ""},
		},
		{
			name: "multi label suffix",
			in:   "www.example.co.uk",
			want: ParsedHostname{Source: "www.example.co.uk", Valid: true, TLD: "co.uk", Domain: "example.co.uk", Host: "www"},
		},
		{
			name: "deep subdomain",
			in:   "a.b.www.example.com",
			want: ParsedHostname{Source: "a.b.www.example.com", Valid: true, TLD: "com", Domain: "example.com", Host: "a.b.www"},
		},
		{
			name: "with port",
			in:   "example.com:8443",
			want: ParsedHostname{Source: "example.com", Port: 8443, Valid: true, TLD: "com", Domain: "example.com", Host: ""},
		},
		{
			name: "upper case input",
			in:   "WWW.Example.COM",
			want: ParsedHostname{Source: "www.example.com", Valid: true, TLD: "com", Domain: "example.com", Host: "www"},
		},
		{
			name: "single label is always invalid",
			in:   "localhost",
			want: ParsedHostname{Source: "localhost"},
		},
		{
			name: "no matching suffix",
			in:   "unknown.zzzznotarealtld",
			want: ParsedHostname{Source: "unknown.zzzznotarealtld"},
		},
		{
			name: "empty input",
			in:   "",
			want: ParsedHostname{Source: ""},
		},
		{
			name: "bare suffix is invalid",
			in:   "com",
			want: ParsedHostname{Source: "com"},
		},
		{
			name:    "malformed port",
			in:      "example.com:https",
			wantErr: true,
		},
		{
			name:    "negative port",
			in:      "example.com:-1",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Parse(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if *got != tt.want {
				t.Fatalf("Parse(%q) = %+v, want %+v", tt.in, *got, tt.want)
			}
		})
	}
}

func TestParser_ParseURL(t *testing.T) {
	p := newTestParser(t, "com\n")

	u, err := url.Parse("https://WWW.Example.com:8443/some/path?q=1")
	if err != nil {
		t.Fatal(err)
	}
	got, err := p.ParseURL(u)
	if err != nil {
		t.Fatal(err)
	}
	want := ParsedHostname{
		Source:   "www.example.com",
		Protocol: "https",
		Port:     8443,
		Valid:    true,
		TLD:      "com",
		Domain:   "example.com",
		Host:     "www",
	}
	if *got != want {
		t.Fatalf("ParseURL = %+v, want %+v", *got, want)
	}
}

func TestParser_StoreNotReady(t *testing.T) {
	p := NewParser(suffixstore.NewStore())
	_, err := p.Parse("example.com")
	if !errors.Is(err, ErrStoreNotReady) {
		t.Fatalf("want ErrStoreNotReady, got %v", err)
	}
}

func TestParsedHostname_Derived(t *testing.T) {
	p := newTestParser(t, "com\nco.uk\n")

	// FQDN reconstructs the normalized source
	for _, in := range []string{"example.com", "www.example.co.uk", "a.b.www.example.com:8080"} {
		r, err := p.Parse(in)
		if err != nil {
			t.Fatal(err)
		}
		if !r.Valid {
			t.Fatalf("%q: want valid", in)
		}
		if r.FQDN() != r.Source {
			t.Fatalf("%q: FQDN() = %q, want %q", in, r.FQDN(), r.Source)
		}
	}

	r, err := p.Parse("www.example.co.uk")
	if err != nil {
		t.Fatal(err)
	}
	if w := r.Wildcard(); w != "*.example.co.uk" {
		t.Fatalf("Wildcard() = %q", w)
	}

	invalid, err := p.Parse("localhost")
	if err != nil {
		t.Fatal(err)
	}
	if invalid.FQDN() != "" || invalid.Wildcard() != "" {
		t.Fatal("derived accessors of an invalid result must be empty")
	}
}
