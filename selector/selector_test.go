//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.

package selector

import (
	"testing"

	"github.com/hashclash/ubccodegen/basis"
)

func rel(pairs ...[2]int) basis.Relation {
	var r basis.Relation
	for _, p := range pairs {
		r[p[0]] ^= 1 << uint(p[1])
	}
	return r
}

func TestLessOrdersByHammingWeightFirst(t *testing.T) {
	light := rel([2]int{0, 0})
	heavy := rel([2]int{0, 0}, [2]int{1, 0})
	if !Less(&light, &heavy) {
		t.Fatal("expected lighter relation to be Less")
	}
	if Less(&heavy, &light) {
		t.Fatal("heavier relation should not be Less than lighter")
	}
}

func TestLessFallsBackToLexicographic(t *testing.T) {
	a := rel([2]int{0, 0})
	b := rel([2]int{1, 0})
	// Equal weight, OR-weight and range; b[0] = 0 < a[0] = 1.
	if !Less(&b, &a) {
		t.Fatal("expected b < a lexicographically on equal weight/range")
	}
}

func TestSelectSharedRelation(t *testing.T) {
	// Two DVs whose bases share exactly one relation: the shared one
	// must be picked before anything DV-specific, since it always
	// gets the most votes first.
	shared := rel([2]int{5, 0})
	onlyA := rel([2]int{6, 0})
	onlyB := rel([2]int{7, 0})

	ba := basis.New()
	ba.Add(shared)
	ba.Add(onlyA)

	bb := basis.New()
	bb.Add(shared)
	bb.Add(onlyB)

	result, err := Select(map[string]*basis.Basis{"A": ba, "B": bb})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}

	dvs, ok := result.BitrelToDV[shared]
	if !ok {
		t.Fatal("expected shared relation to be chosen")
	}
	if len(dvs) != 2 || dvs[0] != "A" || dvs[1] != "B" {
		t.Fatalf("shared relation DVs = %v, want [A B]", dvs)
	}
}

func TestSelectSpansFullBasis(t *testing.T) {
	b := basis.New()
	b.Add(rel([2]int{0, 0}))
	b.Add(rel([2]int{1, 0}))
	b.Add(rel([2]int{2, 0}))

	result, err := Select(map[string]*basis.Basis{"I(0,0)": b})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(result.BitrelToDV) == 0 {
		t.Fatal("expected at least one chosen relation")
	}
}

func TestOverlapsDetectsStrictSubset(t *testing.T) {
	r1 := rel([2]int{0, 0})
	r2 := rel([2]int{1, 0})

	bitrelToDV := map[basis.Relation][]string{
		r1: {"A", "B", "C"},
		r2: {"A", "B"},
	}
	reports := Overlaps(bitrelToDV)
	if len(reports) != 1 {
		t.Fatalf("len(reports) = %d, want 1", len(reports))
	}
	if reports[0].Superset != r1 || reports[0].Subset != r2 {
		t.Fatalf("unexpected overlap report: %+v", reports[0])
	}
}

func TestOverlapsIgnoresSingleDVRelations(t *testing.T) {
	r1 := rel([2]int{0, 0})
	r2 := rel([2]int{1, 0})

	bitrelToDV := map[basis.Relation][]string{
		r1: {"A", "B"},
		r2: {"A"},
	}
	reports := Overlaps(bitrelToDV)
	if len(reports) != 0 {
		t.Fatalf("expected no overlap reports for single-DV subset, got %v", reports)
	}
}

func TestSelectEmptyInput(t *testing.T) {
	result, err := Select(map[string]*basis.Basis{})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(result.BitrelToDV) != 0 {
		t.Fatalf("expected no relations chosen for empty input, got %v", result.BitrelToDV)
	}
}
