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
	"sync"
	"testing"
)

func TestStore_ReplaceAll(t *testing.T) {
	s := NewStore()
	if !s.IsEmpty() {
		t.Fatal("new store should be empty")
	}

	n, err := s.ReplaceAll("com\nnet\n// comment\ncom\n")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("want 2 rules, got %d", n)
	}
	if s.IsEmpty() || s.Len() != 2 {
		t.Fatalf("want len 2, got %d", s.Len())
	}

	if !s.Contains("com") || !s.Contains("net") {
		t.Fatal("loaded rules missing")
	}
	// entries are lowercased, lookup is exact
	if s.Contains("COM") {
		t.Fatal("lookup should be an exact match against lowercased entries")
	}
	if s.Contains("org") {
		t.Fatal("unexpected rule")
	}

	// the whole set is replaced, not merged
	n, err = s.ReplaceAll("co.uk\n")
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 || s.Len() != 1 {
		t.Fatalf("want len 1, got %d", s.Len())
	}
	if s.Contains("com") {
		t.Fatal("old rule survived ReplaceAll")
	}
	if !s.Contains("co.uk") {
		t.Fatal("new rule missing")
	}
}

// A lookup racing with ReplaceAll must always see a complete
// snapshot, either the old one or the new one.
func TestStore_ConcurrentReplace(t *testing.T) {
	s := NewStore()
	// "com" is in both snapshots, only the second rule differs.
	const textA = "com\nnet\n"
	const textB = "com\nuk\n"
	if _, err := s.ReplaceAll(textA); err != nil {
		t.Fatal(err)
	}

	stop := make(chan struct{})
	wg := new(sync.WaitGroup)

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			text := textA
			if i%2 == 1 {
				text = textB
			}
			if _, err := s.ReplaceAll(text); err != nil {
				t.Error(err)
				return
			}
		}
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 10000; i++ {
				if !s.Contains("com") {
					t.Error("torn snapshot: shared rule vanished")
					return
				}
				if l := s.Len(); l != 2 {
					t.Errorf("torn snapshot: len = %d", l)
					return
				}
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 10000; i++ {
			net, uk := s.Contains("net"), s.Contains("uk")
			_ = net
			_ = uk
		}
		close(stop)
	}()

	wg.Wait()
}
