//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.

// Command ubccheckgen loads per-disturbance-vector bit-relation
// tables, greedily selects a shared set of relations, and emits the
// C sources implementing ubc_check.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/markkurossi/tabulate"
	"github.com/markkurossi/text/superscript"
	"github.com/markkurossi/text/symbols"

	"github.com/hashclash/ubccodegen/basis"
	"github.com/hashclash/ubccodegen/bitrel"
	"github.com/hashclash/ubccodegen/config"
	"github.com/hashclash/ubccodegen/dv"
	"github.com/hashclash/ubccodegen/emit"
	"github.com/hashclash/ubccodegen/internal/ubcerr"
	"github.com/hashclash/ubccodegen/persist"
	"github.com/hashclash/ubccodegen/selector"
)

// Generator drives one end-to-end run of the pipeline, logging
// progress through Debugf when Verbose is set.
type Generator struct {
	Cfg *config.Config
}

// Debugf logs a progress message when the generator is verbose.
func (g *Generator) Debugf(format string, a ...interface{}) {
	if g.Cfg.Verbose {
		fmt.Fprintf(os.Stderr, format, a...)
	}
}

func main() {
	cfg := config.New()

	ubcdir := flag.String("ubcdir", cfg.UBCDir, "directory with bit-relation text files")
	outdir := flag.String("outdir", cfg.OutDir, "output directory for generated C sources")
	dvsel := flag.String("DV", "", "comma-separated DV selection (substring match)")
	store := flag.Bool("store", false, "persist loaded state to outdir/state after a run")
	load := flag.Bool("load", false, "resume from a previously stored state instead of reading ubcdir")
	variant := flag.String("variant", "v2", "ubc_check strategy: v1, v2, or v3")
	minprob := flag.Float64("minprob", cfg.MinProb, "v2: minimum probability threshold")
	minDVs := flag.Int("mindvs", cfg.MinDVs, "v1: minimum shared-DV count threshold")
	verbose := flag.Bool("v", false, "verbose output")
	flag.Parse()

	cfg.UBCDir = *ubcdir
	cfg.OutDir = *outdir
	cfg.Store = *store
	cfg.Load = *load
	cfg.MinProb = *minprob
	cfg.MinDVs = *minDVs
	cfg.Verbose = *verbose
	if *dvsel != "" {
		cfg.DVSelection = strings.Split(*dvsel, ",")
	}
	switch *variant {
	case "v1":
		cfg.Variant = emit.V1
	case "v2":
		cfg.Variant = emit.V2
	case "v3":
		cfg.Variant = emit.V3
	default:
		log.Fatalf("unknown variant %q", *variant)
	}

	g := &Generator{Cfg: cfg}
	if err := g.Run(); err != nil {
		log.Fatal(err)
	}
}

// Run executes the full B -> C -> D -> E -> F -> G pipeline.
func (g *Generator) Run() error {
	cfg := g.Cfg
	stateDir := filepath.Join(cfg.OutDir, "state")

	var bases map[string]*basis.Basis
	if cfg.Load {
		g.Debugf("loading state from %s\n", stateDir)
		state, err := persist.Load(stateDir)
		if err != nil {
			return err
		}
		bases = state.Bases
	} else {
		g.Debugf("loading bit-relations from %s\n", cfg.UBCDir)
		loaded, err := bitrel.LoadDir(cfg.UBCDir, cfg.DVSelection)
		if err != nil {
			return err
		}
		bases = loaded
	}

	dvs, err := buildDVs(bases)
	if err != nil {
		return err
	}

	g.Debugf("selecting shared relations over %d disturbance vectors\n", len(bases))
	result, err := selector.Select(bases)
	if err != nil {
		return err
	}
	g.printSelection(result)

	if cfg.Store {
		g.Debugf("storing state to %s\n", stateDir)
		if err := persist.Save(stateDir, &persist.State{
			DVs:        sortedNames(bases),
			Bases:      bases,
			BitrelToDV: result.BitrelToDV,
		}); err != nil {
			return err
		}
	}

	artifacts, err := emit.Generate(emit.GenerateConfig{
		BitrelToDV: result.BitrelToDV,
		Bases:      bases,
		DVs:        dvs,
		Variant:    cfg.Variant,
		MinProb:    cfg.MinProb,
		MinDVs:     cfg.MinDVs,
	})
	if err != nil {
		return err
	}

	return g.writeArtifacts(artifacts)
}

func buildDVs(bases map[string]*basis.Basis) (map[string]*dv.DV, error) {
	dvs := make(map[string]*dv.DV, len(bases))
	for name := range bases {
		d, err := dv.Parse(name)
		if err != nil {
			return nil, ubcerr.Wrap(ubcerr.InputFormat, err, "could not parse DV name %q", name)
		}
		dvs[name] = d
	}
	return dvs, nil
}

func sortedNames(bases map[string]*basis.Basis) []string {
	names := make([]string, 0, len(bases))
	for name := range bases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (g *Generator) writeArtifacts(art *emit.Artifacts) error {
	if err := os.MkdirAll(g.Cfg.OutDir, 0o755); err != nil {
		return ubcerr.Wrap(ubcerr.IO, err, "could not create %s", g.Cfg.OutDir)
	}
	files := map[string]string{
		"ubc_check.h":         art.Header,
		"ubc_check.c":         art.Source,
		"ubc_check_verify.c":  art.Verify,
		"ubc_check_simd.cinc": art.SIMD,
	}
	for name, content := range files {
		path := filepath.Join(g.Cfg.OutDir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return ubcerr.Wrap(ubcerr.IO, err, "could not write %s", path)
		}
		g.Debugf("wrote %s\n", path)
	}
	return nil
}

func (g *Generator) printSelection(result *selector.Result) {
	if !g.Cfg.Verbose {
		return
	}
	tab := tabulate.New(tabulate.UnicodeLight)
	tab.Header("Relation").SetAlign(tabulate.ML)
	tab.Header("#DVs").SetAlign(tabulate.MR)
	tab.Header("DVs").SetAlign(tabulate.ML)

	for r, dvs := range result.BitrelToDV {
		row := tab.Row()
		row.Column(bitrelString(r) + superscript.Itoa(len(dvs)))
		row.Column(fmt.Sprintf("%d", len(dvs)))
		row.Column(strings.Join(dvs, " "))
	}
	tab.Print(os.Stderr)

	fmt.Fprintf(os.Stderr, "%c overlap diagnostic:\n", symbols.Sigma)

	for _, overlap := range selector.Overlaps(result.BitrelToDV) {
		fmt.Fprintf(os.Stderr, "%s (%d) => %s (%d)\n",
			bitrelString(overlap.Superset), len(overlap.SupersetDV),
			bitrelString(overlap.Subset), len(overlap.SubsetDV))
	}
}

func bitrelString(r basis.Relation) string {
	var parts []string
	for t := 0; t < basis.RelationWords; t++ {
		for b := 0; b < 32; b++ {
			if (r[t]>>uint(b))&1 != 0 {
				parts = append(parts, fmt.Sprintf("W%d[%d]", t, b))
			}
		}
	}
	return strings.Join(parts, " ^ ")
}
