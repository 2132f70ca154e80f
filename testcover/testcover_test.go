//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.

package testcover

import (
	"testing"

	"github.com/hashclash/ubccodegen/basis"
	"github.com/hashclash/ubccodegen/dv"
)

func mustDV(t *testing.T, typ, k, b int) *dv.DV {
	d, err := dv.New(typ, k, b)
	if err != nil {
		t.Fatalf("dv.New(%d,%d,%d): %v", typ, k, b, err)
	}
	return d
}

func TestFindTestStepsSingleDVType1(t *testing.T) {
	d := mustDV(t, 1, 0, 0)
	sol, err := FindTestSteps(map[string]*dv.DV{"I(0,0)": d}, nil)
	if err != nil {
		t.Fatalf("FindTestSteps: %v", err)
	}
	step, ok := sol["I(0,0)"]
	if !ok {
		t.Fatal("expected I(0,0) to be assigned a step")
	}
	if step < 5 || step > 15 {
		t.Fatalf("step = %d, want in [5,15]", step)
	}
}

func TestFindTestStepsType2NarrowerRange(t *testing.T) {
	d := mustDV(t, 2, 0, 0)
	sol, err := FindTestSteps(map[string]*dv.DV{"II(0,0)": d}, nil)
	if err != nil {
		t.Fatalf("FindTestSteps: %v", err)
	}
	step := sol["II(0,0)"]
	if step < 9 || step > 15 {
		t.Fatalf("step = %d, want in [9,15]", step)
	}
}

func TestFindTestStepsPrefersSharedStep(t *testing.T) {
	// Two DVs both testable at step 15 (their ranges overlap only
	// there): the minimum cover must be a single step.
	a := mustDV(t, 1, 0, 0)
	b := mustDV(t, 1, 10, 0)
	sol, err := FindTestSteps(map[string]*dv.DV{"I(0,0)": a, "I(10,0)": b}, nil)
	if err != nil {
		t.Fatalf("FindTestSteps: %v", err)
	}
	if sol["I(0,0)"] != sol["I(10,0)"] {
		t.Fatalf("expected shared step, got %d and %d", sol["I(0,0)"], sol["I(10,0)"])
	}
	if sol["I(0,0)"] != 15 {
		t.Fatalf("shared step = %d, want 15", sol["I(0,0)"])
	}
}

func TestFindTestStepsNoOverlapNeedsTwoSteps(t *testing.T) {
	a := mustDV(t, 1, 0, 0)
	b := mustDV(t, 1, 30, 0)
	sol, err := FindTestSteps(map[string]*dv.DV{"I(0,0)": a, "I(30,0)": b}, nil)
	if err != nil {
		t.Fatalf("FindTestSteps: %v", err)
	}
	if sol["I(0,0)"] == sol["I(30,0)"] {
		t.Fatalf("did not expect a shared step for disjoint ranges")
	}
}

func TestFindTestStepsEmptyInput(t *testing.T) {
	sol, err := FindTestSteps(map[string]*dv.DV{}, nil)
	if err != nil {
		t.Fatalf("FindTestSteps: %v", err)
	}
	if len(sol) != 0 {
		t.Fatalf("expected empty solution, got %v", sol)
	}
}

func TestNextCombinationExhaustsAllSubsets(t *testing.T) {
	idx := []int{0, 1}
	n := 4
	count := 1
	for nextCombination(idx, n) {
		count++
	}
	// C(4,2) = 6
	if count != 6 {
		t.Fatalf("visited %d combinations, want 6", count)
	}
}

func TestFindTestStepsUsesBitrelDVNames(t *testing.T) {
	// A DV referenced only through bitrel_to_DV (no entry in dvs) must
	// still be required to be covered, or FindTestSteps must fail
	// since such a name has no step range at all.
	d := mustDV(t, 1, 0, 0)
	var r basis.Relation
	bitrelToDV := map[basis.Relation][]string{r: {"I(0,0)", "ghost"}}
	_, err := FindTestSteps(map[string]*dv.DV{"I(0,0)": d}, bitrelToDV)
	if err == nil {
		t.Fatal("expected error: 'ghost' DV has no coverage and cannot be tested")
	}
}
