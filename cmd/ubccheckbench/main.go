//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.

// Command ubccheckbench selects shared relations over a loaded
// bit-relation directory and reports, per group of relations sharing
// the same DV count, the v2 strategy's Σ 2^-k probability estimate
// (emit.EstimateCost), without writing any generated sources.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/markkurossi/tabulate"
	"github.com/markkurossi/text/symbols"

	"github.com/hashclash/ubccodegen/bitrel"
	"github.com/hashclash/ubccodegen/config"
	"github.com/hashclash/ubccodegen/emit"
	"github.com/hashclash/ubccodegen/selector"
)

func main() {
	cfg := config.New()
	ubcdir := flag.String("ubcdir", cfg.UBCDir, "directory with bit-relation text files")
	flag.Parse()

	bases, err := bitrel.LoadDir(*ubcdir, nil)
	if err != nil {
		log.Fatal(err)
	}

	result, err := selector.Select(bases)
	if err != nil {
		log.Fatal(err)
	}

	reports := emit.EstimateCost(result.BitrelToDV)

	tab := tabulate.New(tabulate.UnicodeLight)
	tab.Header("#DVs sharing").SetAlign(tabulate.MR)
	tab.Header("Relations").SetAlign(tabulate.MR)
	tab.Header(fmt.Sprintf("%c 2^-k", symbols.Sigma)).SetAlign(tabulate.MR)
	tab.Header("log2").SetAlign(tabulate.MR)

	for _, r := range reports {
		row := tab.Row()
		row.Column(fmt.Sprintf("%d", r.DVCount))
		row.Column(fmt.Sprintf("%d", r.Relations))
		row.Column(fmt.Sprintf("%.4f", r.ProbSum))
		row.Column(fmt.Sprintf("%.2f", r.Log2ProbSum))
	}
	tab.Print(os.Stdout)
}
