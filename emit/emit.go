//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.

// Package emit renders the selected bit-relations into the C sources
// that implement ubc_check: a header describing the DV table, three
// interchangeable ubc_check strategies, a reference verifier, and a
// SIMD variant.
package emit

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/hashclash/ubccodegen/basis"
	"github.com/hashclash/ubccodegen/dv"
	"github.com/hashclash/ubccodegen/expr"
	"github.com/hashclash/ubccodegen/internal/ubcerr"
	"github.com/hashclash/ubccodegen/testcover"
)

// Variant selects which ubc_check body Generate renders.
type Variant byte

const (
	// V1 evaluates relations shared by at least MinDVs disturbance
	// vectors unconditionally, then gates the DV-specific remainder.
	V1 Variant = iota
	// V2 processes shared relations from highest to lowest DV count,
	// gating each behind a cheap probability-of-still-active test.
	V2
	// V3 checks every disturbance vector independently, with no
	// sharing of work between DVs.
	V3
)

func (v Variant) String() string {
	switch v {
	case V1:
		return "v1"
	case V2:
		return "v2"
	case V3:
		return "v3"
	default:
		return "unknown"
	}
}

// GenerateConfig parameterizes one emission run.
type GenerateConfig struct {
	BitrelToDV map[basis.Relation][]string
	Bases      map[string]*basis.Basis
	DVs        map[string]*dv.DV
	Variant    Variant
	MinDVs     int
	MinProb    float64
}

// Artifacts holds the rendered text of every output file Generate
// produces.
type Artifacts struct {
	Header string
	Source string
	Verify string
	SIMD   string
}

func dvVarName(name, suffix string) string {
	var b strings.Builder
	b.WriteString("DV_")
	b.WriteString(name)
	b.WriteString(suffix)
	out := []byte(b.String())
	for i, c := range out {
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_') {
			out[i] = '_'
		}
	}
	return string(out)
}

func dvBitpos(bitrelToDV map[basis.Relation][]string) (map[string]int, []string, error) {
	names := make(map[string]bool)
	for _, dvs := range bitrelToDV {
		for _, name := range dvs {
			names[name] = true
		}
	}
	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	if len(sorted) > 64 {
		return nil, nil, ubcerr.New(ubcerr.Capacity,
			"%d disturbance vectors require more than 64 mask bits", len(sorted))
	}

	pos := make(map[string]int, len(sorted))
	for i, name := range sorted {
		pos[name] = i
	}
	return pos, sorted, nil
}

// Generate renders every artifact for cfg. The DV-count capacity
// check runs before any artifact is built, so a too-large input never
// produces partial output.
func Generate(cfg GenerateConfig) (*Artifacts, error) {
	bitpos, names, err := dvBitpos(cfg.BitrelToDV)
	if err != nil {
		return nil, err
	}

	testSteps, err := testcover.FindTestSteps(cfg.DVs, cfg.BitrelToDV)
	if err != nil {
		return nil, err
	}

	header, err := renderHeader(bitpos, testSteps)
	if err != nil {
		return nil, err
	}

	var source string
	switch cfg.Variant {
	case V1:
		source, err = renderV1(cfg, bitpos, names, testSteps)
	case V2:
		source, err = renderV2(cfg, bitpos, names, testSteps)
	default:
		source, err = renderV3(cfg, bitpos, names, testSteps)
	}
	if err != nil {
		return nil, err
	}

	verify, err := renderVerify(cfg, bitpos)
	if err != nil {
		return nil, err
	}

	simd, err := renderSIMD(cfg, bitpos, names)
	if err != nil {
		return nil, err
	}

	return &Artifacts{Header: header, Source: source, Verify: verify, SIMD: simd}, nil
}

func inttype(n int) string {
	if n <= 32 {
		return "uint32_t"
	}
	return "uint64_t"
}

func renderHeader(bitpos map[string]int, testSteps map[string]int) (string, error) {
	steps := make(map[int]bool)
	for _, t := range testSteps {
		steps[t] = true
	}
	sortedSteps := make([]int, 0, len(steps))
	for t := range steps {
		sortedSteps = append(sortedSteps, t)
	}
	sort.Ints(sortedSteps)

	var b strings.Builder
	fmt.Fprintf(&b, "#ifndef UBC_CHECK_H\n#define UBC_CHECK_H\n\n")
	fmt.Fprintf(&b, "#include <stdint.h>\n\n")
	fmt.Fprintf(&b, "#define DVMASKSIZE %d\n", (len(bitpos)+31)/32)
	fmt.Fprintf(&b, "typedef struct { int dvType; int dvK; int dvB; int testt; int maski; int maskb; uint32_t dm[80]; } dv_info_t;\n")
	fmt.Fprintf(&b, "extern dv_info_t sha1_dvs[];\n")
	fmt.Fprintf(&b, "void ubc_check(const uint32_t W[80], uint32_t dvmask[DVMASKSIZE]);\n\n")
	for _, t := range sortedSteps {
		fmt.Fprintf(&b, "#define DOSTORESTATE%02d\n", t)
	}
	fmt.Fprintf(&b, "\n#endif /* UBC_CHECK_H */\n")
	return b.String(), nil
}

func dvTable(cfg GenerateConfig, bitpos map[string]int, names []string, testSteps map[string]int) (string, error) {
	var b strings.Builder
	it := inttype(len(bitpos))
	for _, name := range names {
		fmt.Fprintf(&b, "static const %s %s\t= (%s)(1) << %d;\n", it, dvVarName(name, "bit"), it, bitpos[name])
	}
	b.WriteString("\n")

	b.WriteString("dv_info_t sha1_dvs[] =\n{\n")
	for i, name := range names {
		d, ok := cfg.DVs[name]
		if !ok {
			continue
		}
		sep := "  "
		if i != 0 {
			sep = ", "
		}
		fmt.Fprintf(&b, "%s{%d,%d,%d,%d,%d,%d, { ", sep, d.Type, d.K, d.B,
			testSteps[name], bitpos[name]/32, bitpos[name]%32)
		for t := 0; t < 80; t++ {
			if t != 0 {
				b.WriteString(",")
			}
			fmt.Fprintf(&b, "0x%08x", d.DW[t])
		}
		b.WriteString(" } }\n")
	}
	b.WriteString(", {0,0,0,0,0,0, {0")
	for i := 1; i < 80; i++ {
		b.WriteString(",0")
	}
	b.WriteString("}}\n};\n")
	return b.String(), nil
}

func renderVerify(cfg GenerateConfig, bitpos map[string]int) (string, error) {
	var b strings.Builder
	b.WriteString("#include <stdint.h>\n#include \"ubc_check.h\"\n\n")
	b.WriteString("void ubc_check_verify(const uint32_t W[80], uint32_t dvmask[DVMASKSIZE])\n{\n")
	b.WriteString("\tunsigned i;\n\tfor (i = 0; i < DVMASKSIZE; ++i)\n\t\tdvmask[i] = 0xFFFFFFFF;\n\n")

	names := sortedDVNames(cfg.Bases)
	for _, name := range names {
		bas, ok := cfg.Bases[name]
		if !ok {
			continue
		}
		b.WriteString("\tif (\t   ")
		for i, r := range bas.Relations {
			if i != 0 {
				b.WriteString("\t\t|| ")
			}
			b.WriteString("(0")
			for t := 0; t < basis.RelationWords; t++ {
				for bb := 0; bb < 32; bb++ {
					if (r[t]>>uint(bb))&1 != 0 {
						fmt.Fprintf(&b, "^((W[%d]>>%d)&1)", t, bb)
					}
				}
			}
			parity := 0
			if r[80] != 0 {
				parity = 1
			}
			fmt.Fprintf(&b, ")!=%d\n", parity)
		}
		pos, ok := bitpos[name]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "\t\t)\n\t\t\tdvmask[%d] &= ~((uint32_t)(1<<%d));\n\n", pos/32, pos%32)
	}
	b.WriteString("}\n")
	return b.String(), nil
}

func sortedDVNames(bases map[string]*basis.Basis) []string {
	names := make([]string, 0, len(bases))
	for name := range bases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sortedRelations(bitrelToDV map[basis.Relation][]string) []basis.Relation {
	rs := make([]basis.Relation, 0, len(bitrelToDV))
	for r := range bitrelToDV {
		rs = append(rs, r)
	}
	sort.Slice(rs, func(i, j int) bool {
		for k := range rs[i] {
			if rs[i][k] != rs[j][k] {
				return rs[i][k] < rs[j][k]
			}
		}
		return false
	})
	return rs
}

func dvsMaskExpr(names []string) string {
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = dvVarName(n, "bit")
	}
	return "(" + strings.Join(parts, "|") + ")"
}

func bitRange(bitpos map[string]int, names []string) (lo, hi int) {
	lo, hi = 31, 0
	for _, n := range names {
		p := bitpos[n]
		if p < lo {
			lo = p
		}
		if p > hi {
			hi = p
		}
	}
	return lo, hi
}

func renderV1(cfg GenerateConfig, bitpos map[string]int, names []string, testSteps map[string]int) (string, error) {
	table, err := dvTable(cfg, bitpos, names, testSteps)
	if err != nil {
		return "", err
	}

	it := inttype(len(bitpos))
	var b strings.Builder
	b.WriteString("#include <stdint.h>\n#include \"ubc_check.h\"\n\n")
	b.WriteString(table)
	fmt.Fprintf(&b, "\nvoid ubc_check(const uint32_t W[80], uint32_t dvmask[%d])\n{\n\t%s mask = ~((%s)(0));\n",
		(len(bitpos)+31)/32, it, it)

	minDVs := cfg.MinDVs
	if minDVs <= 0 {
		minDVs = 1
	}

	b.WriteString("\tmask = mask\n")
	for _, r := range sortedRelations(cfg.BitrelToDV) {
		dvs := cfg.BitrelToDV[r]
		if len(dvs) < minDVs {
			continue
		}
		lo, hi := bitRange(bitpos, dvs)
		ce, err := expr.RangedCExpr(r, lo, hi, "W")
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "\t\t & ( %s | ~%s)\n", ce, dvsMaskExpr(dvs))
	}
	b.WriteString("\t\t;\n\n")

	if minDVs > 1 {
		b.WriteString("if (mask) {\n\n")
	}
	for _, name := range names {
		var solo []basis.Relation
		for _, r := range sortedRelations(cfg.BitrelToDV) {
			dvs := cfg.BitrelToDV[r]
			if len(dvs) < minDVs && contains(dvs, name) {
				solo = append(solo, r)
			}
		}
		if len(solo) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\tif (mask & %s)\n\t\t if (\n", dvVarName(name, "bit"))
		for i, r := range solo {
			be, err := expr.BoolExpr(r, "W")
			if err != nil {
				return "", err
			}
			if i == 0 {
				b.WriteString("\t\t\t    ")
			} else {
				b.WriteString("\t\t\t || ")
			}
			fmt.Fprintf(&b, "!%s\n", be)
		}
		fmt.Fprintf(&b, "\t\t )  mask &= ~%s;\n", dvVarName(name, "bit"))
	}
	if minDVs > 1 {
		b.WriteString("}\n\n")
	}
	writeMaskStore(&b, len(bitpos))
	b.WriteString("}\n")
	return b.String(), nil
}

func renderV2(cfg GenerateConfig, bitpos map[string]int, names []string, testSteps map[string]int) (string, error) {
	table, err := dvTable(cfg, bitpos, names, testSteps)
	if err != nil {
		return "", err
	}

	it := inttype(len(bitpos))
	var b strings.Builder
	b.WriteString("#include <stdint.h>\n#include \"ubc_check.h\"\n\n")
	b.WriteString(table)
	fmt.Fprintf(&b, "\nvoid ubc_check(const uint32_t W[80], uint32_t dvmask[%d])\n{\n\t%s mask = ~((%s)(0));\n",
		(len(bitpos)+31)/32, it, it)

	minprob := cfg.MinProb
	if minprob <= 0 {
		minprob = 0.1
	}

	processed := make(map[string]int, len(names))
	byCount := groupByDVCount(cfg.BitrelToDV)
	for n := len(names); n > 1; n-- {
		for _, r := range byCount[n] {
			dvs := cfg.BitrelToDV[r]
			probUB := 0.0
			for _, name := range dvs {
				probUB += 1.0 / float64(int(1)<<uint(processed[name]))
				processed[name]++
			}
			lo, hi := bitRange(bitpos, dvs)
			ce, err := expr.RangedCExpr(r, lo, hi, "W")
			if err != nil {
				return "", err
			}
			mask := dvsMaskExpr(dvs)
			if probUB <= minprob {
				fmt.Fprintf(&b, "\tif (mask & %s)\n\t", mask)
			}
			fmt.Fprintf(&b, "\tmask &= (%s | ~%s);\n", ce, mask)
		}
	}

	b.WriteString("if (mask) {\n\n")
	for _, name := range names {
		var solo []basis.Relation
		for _, r := range byCount[1] {
			if contains(cfg.BitrelToDV[r], name) {
				solo = append(solo, r)
			}
		}
		if len(solo) == 0 {
			continue
		}
		if len(solo) == 1 {
			fmt.Fprintf(&b, "\tif (mask & %s)\n", dvVarName(name, "bit"))
			ce, err := expr.RangedCExpr(solo[0], bitpos[name], bitpos[name], "W")
			if err != nil {
				return "", err
			}
			fmt.Fprintf(&b, "\t\tmask &= (%s | ~%s);\n", ce, dvVarName(name, "bit"))
			continue
		}
		fmt.Fprintf(&b, "\tif (mask & %s)\n\t\t if (\n", dvVarName(name, "bit"))
		for i, r := range solo {
			be, err := expr.BoolExpr(r, "W")
			if err != nil {
				return "", err
			}
			if i == 0 {
				b.WriteString("\t\t\t    ")
			} else {
				b.WriteString("\t\t\t || ")
			}
			fmt.Fprintf(&b, "!%s\n", be)
		}
		fmt.Fprintf(&b, "\t\t )  mask &= ~%s;\n", dvVarName(name, "bit"))
	}
	b.WriteString("}\n\n")
	writeMaskStore(&b, len(bitpos))
	b.WriteString("}\n")
	return b.String(), nil
}

func renderV3(cfg GenerateConfig, bitpos map[string]int, names []string, testSteps map[string]int) (string, error) {
	table, err := dvTable(cfg, bitpos, names, testSteps)
	if err != nil {
		return "", err
	}

	it := inttype(len(bitpos))
	var b strings.Builder
	b.WriteString("#include <stdint.h>\n#include \"ubc_check.h\"\n\n")
	b.WriteString(table)
	fmt.Fprintf(&b, "\nvoid ubc_check(const uint32_t W[80], uint32_t dvmask[%d])\n{\n\t%s mask = ~((%s)(0));\n",
		(len(bitpos)+31)/32, it, it)

	for _, name := range names {
		var rels []basis.Relation
		for _, r := range sortedRelations(cfg.BitrelToDV) {
			if contains(cfg.BitrelToDV[r], name) {
				rels = append(rels, r)
			}
		}
		if len(rels) == 0 {
			continue
		}
		b.WriteString("\t if (\t    ")
		for i, r := range rels {
			be, err := expr.BoolExpr(r, "W")
			if err != nil {
				return "", err
			}
			if i != 0 {
				b.WriteString("\t\t || ")
			}
			fmt.Fprintf(&b, "!%s\n", be)
		}
		fmt.Fprintf(&b, "\t )  mask &= ~%s;\n", dvVarName(name, "bit"))
	}
	writeMaskStore(&b, len(bitpos))
	b.WriteString("}\n")
	return b.String(), nil
}

func writeMaskStore(b *strings.Builder, ndv int) {
	if ndv <= 32 {
		b.WriteString("\tdvmask[0] = mask;\n")
	} else {
		b.WriteString("\tdvmask[0] = (uint32_t)(mask);\n\tdvmask[1] = (uint32_t)(mask>>32);\n")
	}
}

func groupByDVCount(bitrelToDV map[basis.Relation][]string) map[int][]basis.Relation {
	groups := make(map[int][]basis.Relation)
	for _, r := range sortedRelationsMap(bitrelToDV) {
		groups[len(bitrelToDV[r])] = append(groups[len(bitrelToDV[r])], r)
	}
	return groups
}

func sortedRelationsMap(bitrelToDV map[basis.Relation][]string) []basis.Relation {
	return sortedRelations(bitrelToDV)
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

func renderSIMD(cfg GenerateConfig, bitpos map[string]int, names []string) (string, error) {
	it := inttype(len(bitpos))
	var b strings.Builder
	b.WriteString("#include \"ubc_check.h\"\n\n")
	for _, name := range names {
		fmt.Fprintf(&b, "static const %s %s\t= (%s)(1) << %d;\n", it, dvVarName(name, "bit"), it, bitpos[name])
	}
	b.WriteString("\n")
	b.WriteString("void UBC_CHECK_SIMD(const SIMD_WORD* W, SIMD_WORD* dvmask)\n{\n")
	b.WriteString("\tSIMD_WORD mask = SIMD_WTOV(0xFFFFFFFF);\n")

	for _, r := range sortedRelations(cfg.BitrelToDV) {
		dvs := cfg.BitrelToDV[r]
		lo, hi := bitRange(bitpos, dvs)
		se, err := expr.SIMDExpr(r, lo, hi, "W")
		if err != nil {
			return "", err
		}
		mask := dvsMaskExpr(dvs)
		fmt.Fprintf(&b, "\tmask = SIMD_AND_VV(mask, SIMD_OR_VW(%s, ~%s));\n", se, mask)
	}

	b.WriteString("\tdvmask[0] = mask;\n}\n")
	return b.String(), nil
}

// CostReport estimates, for each group of relations sharing the same
// DV count, the probability that at least one of those DVs is still
// active by the time that group is evaluated (the same Σ 2^-k_d
// estimate output_code_v2 uses to decide whether a relation is worth
// gating behind an "if"). It is purely diagnostic.
type CostReport struct {
	DVCount     int
	Relations   int
	ProbSum     float64
	Log2ProbSum float64
}

// EstimateCost builds a CostReport per DV-count group, descending from
// the largest group to pairs, mirroring output_code_v2's bookkeeping.
func EstimateCost(bitrelToDV map[basis.Relation][]string) []CostReport {
	byCount := groupByDVCount(bitrelToDV)
	processed := make(map[string]int)

	var counts []int
	for n := range byCount {
		if n > 1 {
			counts = append(counts, n)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(counts)))

	var reports []CostReport
	for _, n := range counts {
		sum := 0.0
		for _, r := range byCount[n] {
			for _, name := range bitrelToDV[r] {
				sum += 1.0 / float64(int(1)<<uint(processed[name]))
				processed[name]++
			}
		}
		reports = append(reports, CostReport{
			DVCount:     n,
			Relations:   len(byCount[n]),
			ProbSum:     sum,
			Log2ProbSum: math.Log2(sum + 1e-300),
		})
	}
	return reports
}
