//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.

// Package selector implements the greedy shared-relation selection
// that picks a small set of bit-relations covering every disturbance
// vector's basis.
package selector

import (
	"sort"

	"github.com/hashclash/ubccodegen/basis"
	"github.com/hashclash/ubccodegen/internal/ubcerr"
)

// Less implements the four-level tie-break used when several
// relations tie for the most DV votes in a round: fewest active bits
// in the 80 message words first, then fewest distinct bit positions
// (OR across the 80 message words); the parity word is left out of
// both counts. Then smallest word-distance between the first and last
// active word, then full lexicographic order.
func Less(l, r *basis.Relation) bool {
	hwl, hwr := hammingWeight(l), hammingWeight(r)
	if hwl != hwr {
		return hwl < hwr
	}

	var orl, orr uint32
	for _, w := range l[:basis.RelationWords] {
		orl |= w
	}
	for _, w := range r[:basis.RelationWords] {
		orr |= w
	}
	hwl, hwr = popcount(orl), popcount(orr)
	if hwl != hwr {
		return hwl < hwr
	}

	fl, fr := firstNonzero(l), firstNonzero(r)
	el, er := lastNonzero(l), lastNonzero(r)
	if (el - fl) != (er - fr) {
		return (el - fl) < (er - fr)
	}

	for i := range l {
		if l[i] != r[i] {
			return l[i] < r[i]
		}
	}
	return false
}

func hammingWeight(r *basis.Relation) int {
	c := 0
	for _, w := range r[:basis.RelationWords] {
		c += popcount(w)
	}
	return c
}

func popcount(x uint32) int {
	c := 0
	for ; x != 0; c++ {
		x &= x - 1
	}
	return c
}

func firstNonzero(r *basis.Relation) int {
	i := 0
	for i < len(r) && r[i] == 0 {
		i++
	}
	return i
}

func lastNonzero(r *basis.Relation) int {
	i := len(r) - 1
	for i > 0 && r[i] == 0 {
		i--
	}
	return i
}

// Result is the outcome of Select: the chosen relations mapped to the
// sorted list of DV names that voted for them in the round they were
// chosen.
type Result struct {
	BitrelToDV map[basis.Relation][]string
}

// Select runs the greedy selection procedure over every DV's basis:
// each round, every relation reachable in some DV's remaining
// (unselected) span casts a vote from that DV; the relation(s) with
// the most votes are chosen, ties broken by Less, and appended to the
// selected basis of every voting DV. The procedure terminates when no
// relation gains a vote. Before returning, Select checks that every
// DV's selected span equals its full span; a mismatch is an
// ubcerr.Invariant failure, since greedy selection is provably
// complete (spanning every DV's full 81-word space) for well-formed
// input.
func Select(bases map[string]*basis.Basis) (*Result, error) {
	names := sortedKeys(bases)

	selected := make(map[string]*basis.Basis, len(names))
	for _, name := range names {
		selected[name] = basis.New()
	}

	bitrelToDV := make(map[basis.Relation][]string)

	for {
		votes := make(map[basis.Relation][]string)
		total := make(map[basis.Relation]int)

		for _, name := range names {
			full := bases[name].Space(basis.RelationLen)
			sel := selected[name].Space(basis.RelationLen)
			for _, r := range full {
				total[r]++
				if !basis.ContainsSorted(sel, r) {
					votes[r] = append(votes[r], name)
				}
			}
		}

		maxCnt := 0
		for _, dvs := range votes {
			if len(dvs) > maxCnt {
				maxCnt = len(dvs)
			}
		}
		if maxCnt == 0 {
			break
		}

		var candidates []basis.Relation
		for r, dvs := range votes {
			if len(dvs) == maxCnt {
				candidates = append(candidates, r)
			}
		}
		sort.Slice(candidates, func(i, j int) bool {
			return Less(&candidates[i], &candidates[j])
		})
		chosen := candidates[0]

		dvs := append([]string(nil), votes[chosen]...)
		sort.Strings(dvs)
		bitrelToDV[chosen] = dvs
		for _, name := range dvs {
			if err := selected[name].Add(chosen); err != nil {
				return nil, err
			}
		}
	}

	for _, name := range names {
		full := bases[name].Space(basis.RelationLen)
		sel := selected[name].Space(basis.RelationLen)
		if !equalSpace(full, sel) {
			return nil, ubcerr.New(ubcerr.Invariant,
				"selected relations do not span the full basis space for DV %s", name)
		}
	}

	return &Result{BitrelToDV: bitrelToDV}, nil
}

func equalSpace(a, b []basis.Relation) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sortedKeys(m map[string]*basis.Basis) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// OverlapReport records that the DV set covered by Superset's relation
// is a strict superset of Subset's: Subset's relation is redundant in
// the sense that every DV it applies to already votes for Superset.
type OverlapReport struct {
	Superset   basis.Relation
	SupersetDV []string
	Subset     basis.Relation
	SubsetDV   []string
}

// Overlaps reproduces the diagnostic post-pass of the original greedy
// selection: for each chosen relation, every other chosen relation
// (covering more than one DV) whose DV set is a strict subset of it.
// It does not alter bitrelToDV.
func Overlaps(bitrelToDV map[basis.Relation][]string) []OverlapReport {
	var keys []basis.Relation
	for r := range bitrelToDV {
		keys = append(keys, r)
	}
	sort.Slice(keys, func(i, j int) bool { return Less(&keys[i], &keys[j]) })

	var reports []OverlapReport
	for _, sup := range keys {
		supDVs := bitrelToDV[sup]
		for _, sub := range keys {
			if sub == sup {
				continue
			}
			subDVs := bitrelToDV[sub]
			if len(subDVs) <= 1 {
				continue
			}
			if len(subDVs) < len(supDVs) && isSubset(subDVs, supDVs) {
				reports = append(reports, OverlapReport{
					Superset:   sup,
					SupersetDV: supDVs,
					Subset:     sub,
					SubsetDV:   subDVs,
				})
			}
		}
	}
	return reports
}

func isSubset(sub, super []string) bool {
	set := make(map[string]bool, len(super))
	for _, s := range super {
		set[s] = true
	}
	for _, s := range sub {
		if !set[s] {
			return false
		}
	}
	return true
}
