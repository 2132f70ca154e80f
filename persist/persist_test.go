//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.

package persist

import (
	"testing"

	"github.com/hashclash/ubccodegen/basis"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	var r basis.Relation
	r[5] = 1
	r[9] = 1

	b := basis.New()
	b.Add(r)

	want := &State{
		DVs:        []string{"I(0,0)"},
		Bases:      map[string]*basis.Basis{"I(0,0)": b},
		Selected:   map[string]*basis.Basis{"I(0,0)": b},
		BitrelToDV: map[basis.Relation][]string{r: {"I(0,0)"}},
	}

	if err := Save(dir, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(got.DVs) != 1 || got.DVs[0] != "I(0,0)" {
		t.Fatalf("DVs = %v, want [I(0,0)]", got.DVs)
	}
	if got.Bases["I(0,0)"].Size() != 1 {
		t.Fatalf("Bases[I(0,0)].Size() = %d, want 1", got.Bases["I(0,0)"].Size())
	}
	dvs, ok := got.BitrelToDV[r]
	if !ok || len(dvs) != 1 || dvs[0] != "I(0,0)" {
		t.Fatalf("BitrelToDV[r] = %v", dvs)
	}
}

func TestLoadMissingDirFails(t *testing.T) {
	if _, err := Load("/nonexistent/path/for/test"); err == nil {
		t.Fatal("expected error loading from a nonexistent directory")
	}
}
