//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.

package emit

import (
	"strings"
	"testing"

	"github.com/hashclash/ubccodegen/basis"
	"github.com/hashclash/ubccodegen/dv"
)

func buildFixture(t *testing.T) GenerateConfig {
	d1, err := dv.New(1, 0, 0)
	if err != nil {
		t.Fatalf("dv.New: %v", err)
	}
	d2, err := dv.New(1, 10, 0)
	if err != nil {
		t.Fatalf("dv.New: %v", err)
	}

	dvs := map[string]*dv.DV{"I(0,0)": d1, "I(10,0)": d2}

	var shared, only1, only2 basis.Relation
	shared[5] = 1
	shared[9] = 1
	only1[6] = 1
	only1[7] = 1
	only2[20] = 1
	only2[21] = 1

	b1 := basis.New()
	b1.Add(shared)
	b1.Add(only1)
	b2 := basis.New()
	b2.Add(shared)
	b2.Add(only2)

	bases := map[string]*basis.Basis{"I(0,0)": b1, "I(10,0)": b2}

	bitrelToDV := map[basis.Relation][]string{
		shared: {"I(0,0)", "I(10,0)"},
		only1:  {"I(0,0)"},
		only2:  {"I(10,0)"},
	}

	return GenerateConfig{
		BitrelToDV: bitrelToDV,
		Bases:      bases,
		DVs:        dvs,
	}
}

// evalRelation evaluates r against a candidate W vector the same way
// the emitted C verifier would: XOR the selected bits together and
// compare to the target parity.
func evalRelation(r basis.Relation, w [80]uint32) bool {
	acc := uint32(0)
	for t := 0; t < basis.RelationWords; t++ {
		for b := 0; b < 32; b++ {
			if (r[t]>>uint(b))&1 != 0 {
				acc ^= (w[t] >> uint(b)) & 1
			}
		}
	}
	want := uint32(0)
	if r[80] != 0 {
		want = 1
	}
	return acc == want
}

func TestGenerateProducesAllArtifacts(t *testing.T) {
	cfg := buildFixture(t)
	for _, variant := range []Variant{V1, V2, V3} {
		cfg.Variant = variant
		art, err := Generate(cfg)
		if err != nil {
			t.Fatalf("Generate(%s): %v", variant, err)
		}
		if !strings.Contains(art.Header, "DVMASKSIZE") {
			t.Fatalf("%s: header missing DVMASKSIZE", variant)
		}
		if !strings.Contains(art.Source, "ubc_check") {
			t.Fatalf("%s: source missing ubc_check", variant)
		}
		if !strings.Contains(art.Verify, "ubc_check_verify") {
			t.Fatalf("%s: verify missing ubc_check_verify", variant)
		}
		if !strings.Contains(art.SIMD, "UBC_CHECK_SIMD") {
			t.Fatalf("%s: simd missing UBC_CHECK_SIMD", variant)
		}
	}
}

func TestGenerateRejectsTooManyDVs(t *testing.T) {
	bitrelToDV := make(map[basis.Relation][]string)
	for i := 0; i < 65; i++ {
		var r basis.Relation
		r[i%basis.RelationWords] = 1 << uint(i%32)
		bitrelToDV[r] = []string{dvNameFor(i)}
	}
	_, err := Generate(GenerateConfig{BitrelToDV: bitrelToDV, DVs: map[string]*dv.DV{}})
	if err == nil {
		t.Fatal("expected Capacity error for 65 distinct DVs")
	}
}

func dvNameFor(i int) string {
	return "I(" + itoa(i) + ",0)"
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	digits := ""
	for i > 0 {
		digits = string(rune('0'+i%10)) + digits
		i /= 10
	}
	return digits
}

// TestSelectionBasisAgreesWithVerifierSemantics evaluates each DV's
// full basis element-by-element against a fixed W, the way the
// emitted ubc_check_verify body does, and, for a DV whose relations
// all hold, checks that flipping a bit referenced by its first
// relation changes that relation's outcome. It exercises the same
// relation algebra without invoking a C compiler.
func TestSelectionBasisAgreesWithVerifierSemantics(t *testing.T) {
	cfg := buildFixture(t)
	var w [80]uint32
	for i := range w {
		w[i] = uint32(i*2654435761 + 1)
	}

	for name, bas := range cfg.Bases {
		allHold := true
		for _, r := range bas.Relations {
			if !evalRelation(r, w) {
				allHold = false
				break
			}
		}
		// Flip bit 0 of the first word referenced by the first
		// relation of this DV's basis: when every relation held, that
		// relation's outcome must change.
		if len(bas.Relations) == 0 {
			continue
		}
		r0 := bas.Relations[0]
		t0 := 0
		for r0[t0] == 0 {
			t0++
		}
		w2 := w
		w2[t0] ^= 1
		if evalRelation(r0, w2) == evalRelation(r0, w) && allHold {
			t.Fatalf("%s: expected flipping a referenced bit to change relation outcome", name)
		}
	}
}

func TestEstimateCostDescendingByDVCount(t *testing.T) {
	cfg := buildFixture(t)
	reports := EstimateCost(cfg.BitrelToDV)
	for i := 1; i < len(reports); i++ {
		if reports[i].DVCount > reports[i-1].DVCount {
			t.Fatalf("reports not descending by DV count: %+v", reports)
		}
	}
}
