//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.

// Package testcover finds a minimum set of SHA-1 step indices whose
// combined disturbance-vector coverage includes every disturbance
// vector under consideration.
package testcover

import (
	"sort"

	"github.com/hashclash/ubccodegen/basis"
	"github.com/hashclash/ubccodegen/dv"
	"github.com/hashclash/ubccodegen/internal/ubcerr"
)

// stepCoverage lists, for one candidate step t, every DV name that can
// be tested at t: type 1 DVs in [K+5,K+15], type 2 DVs in [K+9,K+15].
func stepCoverage(dvs map[string]*dv.DV) map[int][]string {
	coverage := make(map[int][]string)
	for name, d := range dvs {
		var lo, hi int
		switch d.Type {
		case 1:
			lo, hi = d.K+5, d.K+15
		case 2:
			lo, hi = d.K+9, d.K+15
		default:
			continue
		}
		for t := lo; t <= hi; t++ {
			coverage[t] = append(coverage[t], name)
		}
	}
	for t := range coverage {
		sort.Strings(coverage[t])
	}
	return coverage
}

// allDVNames collects every DV name referenced either directly or
// through a selected bit-relation's vote list, mirroring the original
// which also folds in bitrel_to_DV's DV sets.
func allDVNames(dvs map[string]*dv.DV, bitrelToDV map[basis.Relation][]string) map[string]bool {
	all := make(map[string]bool)
	for name := range dvs {
		all[name] = true
	}
	for _, names := range bitrelToDV {
		for _, name := range names {
			all[name] = true
		}
	}
	return all
}

// FindTestSteps finds the smallest set of steps T such that every DV
// is covered by at least one step in T, and assigns each DV an
// arbitrary covering step. Candidate subsets of increasing size are
// enumerated in lexicographic order over the ascending-sorted step
// universe; the first covering subset found is returned, matching the
// original generator's unscored "first found" semantics.
func FindTestSteps(dvs map[string]*dv.DV, bitrelToDV map[basis.Relation][]string) (map[string]int, error) {
	coverage := stepCoverage(dvs)
	if len(coverage) == 0 {
		return map[string]int{}, nil
	}

	steps := make([]int, 0, len(coverage))
	for t := range coverage {
		steps = append(steps, t)
	}
	sort.Ints(steps)

	all := allDVNames(dvs, bitrelToDV)

	for size := 1; size <= len(steps); size++ {
		if combo := findCoveringCombination(steps, coverage, all, size); combo != nil {
			return assignSteps(combo, coverage), nil
		}
	}

	return nil, ubcerr.New(ubcerr.Invariant,
		"no set of test steps covers all %d disturbance vectors", len(all))
}

// findCoveringCombination enumerates every size-element subset of
// steps in lexicographic index order and returns the first one whose
// union of coverage equals all, or nil if none of this size covers.
func findCoveringCombination(steps []int, coverage map[int][]string, all map[string]bool, size int) []int {
	n := len(steps)
	idx := make([]int, size)
	for i := range idx {
		idx[i] = i
	}

	for {
		if covers(steps, idx, coverage, all) {
			combo := make([]int, size)
			for i, k := range idx {
				combo[i] = steps[k]
			}
			return combo
		}
		if !nextCombination(idx, n) {
			return nil
		}
	}
}

func covers(steps []int, idx []int, coverage map[int][]string, all map[string]bool) bool {
	covered := make(map[string]bool, len(all))
	for _, k := range idx {
		for _, name := range coverage[steps[k]] {
			covered[name] = true
		}
	}
	for name := range all {
		if !covered[name] {
			return false
		}
	}
	return true
}

// nextCombination advances idx (strictly increasing indices into
// [0,n)) to the next combination in lexicographic order, returning
// false once idx is the last combination.
func nextCombination(idx []int, n int) bool {
	k := len(idx)
	i := k - 1
	for i >= 0 && idx[i] == n-k+i {
		i--
	}
	if i < 0 {
		return false
	}
	idx[i]++
	for j := i + 1; j < k; j++ {
		idx[j] = idx[j-1] + 1
	}
	return true
}

// assignSteps picks, for every DV covered by combo, one of the
// covering steps (the smallest, for determinism).
func assignSteps(combo []int, coverage map[int][]string) map[string]int {
	sol := make(map[string]int)
	for _, t := range combo {
		for _, name := range coverage[t] {
			if _, ok := sol[name]; !ok {
				sol[name] = t
			}
		}
	}
	return sol
}
