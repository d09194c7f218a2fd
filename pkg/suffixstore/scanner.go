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

package suffixstore

import (
	"bufio"
	"io"
	"strings"
)

// Markers of the public suffix list wildcard and exception rule
// syntax. They are stripped, not interpreted: "*.ck" and "!www.ck"
// both degrade to plain literal rules. Order matters, the two-byte
// markers must go first.
var ruleMarkers = [...]string{"!.", "*.", "*", "!"}

// SanitizeRule normalizes one non-comment line of a rule list.
// It is idempotent.
func SanitizeRule(s string) string {
	s = strings.TrimSpace(s)
	for _, m := range ruleMarkers {
		s = strings.ReplaceAll(s, m, "")
	}
	return strings.ToLower(strings.TrimSpace(s))
}

// RuleScanner reads a newline-delimited suffix rule list lazily,
// skipping blank lines and "//" / "#" comments and sanitizing the
// rest. Iteration order is input order.
type RuleScanner struct {
	s    *bufio.Scanner
	rule string
	line string
}

func NewRuleScanner(r io.Reader) *RuleScanner {
	return &RuleScanner{s: bufio.NewScanner(r)}
}

// Scan advances to the next rule line. It returns false when the
// input is exhausted or a read error occurred, see Err.
func (s *RuleScanner) Scan() bool {
	for s.s.Scan() {
		line := s.s.Text()
		t := strings.TrimSpace(line)
		if len(t) == 0 || strings.HasPrefix(t, "//") || strings.HasPrefix(t, "#") {
			continue
		}
		s.line = line
		s.rule = SanitizeRule(t)
		return true
	}
	return false
}

// Rule returns the sanitized rule of the current line.
func (s *RuleScanner) Rule() string {
	return s.rule
}

// Line returns the current line as it appeared in the input.
func (s *RuleScanner) Line() string {
	return s.line
}

func (s *RuleScanner) Err() error {
	return s.s.Err()
}
