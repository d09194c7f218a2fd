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

// ParsedHostname is the outcome of classifying one hostname. It is a
// value created by a single Parse call and never mutated afterwards.
//
// TLD, Domain and Host are only set when Valid is true. Host may be
// empty for a valid result ("example.com" has no subdomain).
type ParsedHostname struct {
	Source   string `json:"source" xml:"source"`
	Protocol string `json:"protocol,omitempty" xml:"protocol,omitempty"`
	Port     int    `json:"port,omitempty" xml:"port,omitempty"`
	Valid    bool   `json:"valid" xml:"valid"`
	TLD      string `json:"tld,omitempty" xml:"tld,omitempty"`
	Domain   string `json:"domain,omitempty" xml:"domain,omitempty"`
	Host     string `json:"host,omitempty" xml:"host,omitempty"`
}

// FQDN reconstructs the fully-qualified name "host.domain", or just
// the registrable domain if there is no subdomain. It returns "" for
// an invalid result.
func (r *ParsedHostname) FQDN() string {
	if !r.Valid {
		return ""
	}
	if len(r.Host) > 0 {
		return r.Host + "." + r.Domain
	}
	return r.Domain
}

// Wildcard returns the wildcard form "*.domain" of a valid result,
// "" otherwise.
func (r *ParsedHostname) Wildcard() string {
	if !r.Valid {
		return ""
	}
	return "*." + r.Domain
}
