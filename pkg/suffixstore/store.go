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

// Package suffixstore holds the set of known public suffix rules.
//
// The rule set is kept as an immutable snapshot behind an atomic
// pointer. ReplaceAll builds a complete new snapshot before swapping
// it in, so concurrent lookups always see either the old set or the
// new set, never a partially populated one.
package suffixstore

import (
	"io"
	"strings"
	"sync/atomic"
)

type snapshot struct {
	rules map[string]struct{}
}

var emptySnapshot = &snapshot{rules: map[string]struct{}{}}

// Store is safe for concurrent use.
type Store struct {
	v atomic.Pointer[snapshot]
}

// NewStore returns an empty Store.
func NewStore() *Store {
	s := new(Store)
	s.v.Store(emptySnapshot)
	return s
}

// ReplaceAll replaces the whole rule set with the rules read from raw
// rule-list text. It returns the number of rules loaded. On error the
// previous rule set is kept untouched.
func (s *Store) ReplaceAll(text string) (int, error) {
	return s.ReplaceAllFrom(strings.NewReader(text))
}

// ReplaceAllFrom is ReplaceAll reading from r.
func (s *Store) ReplaceAllFrom(r io.Reader) (int, error) {
	rules := make(map[string]struct{})
	sc := NewRuleScanner(r)
	for sc.Scan() {
		rules[sc.Rule()] = struct{}{}
	}
	if err := sc.Err(); err != nil {
		return 0, err
	}

	s.v.Store(&snapshot{rules: rules})
	return len(rules), nil
}

// Contains reports whether rule is in the current rule set. The
// lookup is an exact string match against already-lowercased entries.
func (s *Store) Contains(rule string) bool {
	_, ok := s.v.Load().rules[rule]
	return ok
}

// Len returns the number of rules in the current rule set.
func (s *Store) Len() int {
	return len(s.v.Load().rules)
}

func (s *Store) IsEmpty() bool {
	return s.Len() == 0
}
