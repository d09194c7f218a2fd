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
	"strings"
	"testing"
)

func TestSanitizeRule(t *testing.T) {
	assert := func(in, want string) {
		t.Helper()
		got := SanitizeRule(in)
		if got != want {
			t.Fatalf("SanitizeRule(%q) = %q, want %q", in, got, want)
		}
		// sanitizing a sanitized line must be a noop
		if again := SanitizeRule(got); again != got {
			t.Fatalf("SanitizeRule is not idempotent: %q -> %q -> %q", in, got, again)
		}
	}

	assert("com", "com")
	assert("  co.uk  ", "co.uk")
	assert("*.ck", "ck")
	assert("!www.ck", "www.ck")
	assert("*.sch.uk", "sch.uk")
	assert("COM", "com")
	assert("*. foo ", "foo")
	assert("*.", "")
}

func TestRuleScanner(t *testing.T) {
	const text = `// This Source Code Form is subject to the terms of the MPL.
# another comment style

com
 net

*.ck
!www.ck
CO.UK
`
	sc := NewRuleScanner(strings.NewReader(text))

	type pair struct{ rule, line string }
	var got []pair
	for sc.Scan() {
		got = append(got, pair{sc.Rule(), sc.Line()})
	}
	if err := sc.Err(); err != nil {
		t.Fatal(err)
	}

	want := []pair{
		{"com", "com"},
		{"net", " net"},
		{"ck", "*.ck"},
		{"www.ck", "!www.ck"},
		{"co.uk", "CO.UK"},
	}
	if len(got) != len(want) {
		t.Fatalf("want %d rules, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("rule #%d: want %+v, got %+v", i, want[i], got[i])
		}
	}
}
