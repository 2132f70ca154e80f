//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.

package config

import (
	"testing"

	"github.com/hashclash/ubccodegen/emit"
)

func TestNewDefaults(t *testing.T) {
	cfg := New()
	if cfg.UBCDir != "../data/3565" {
		t.Fatalf("UBCDir = %q", cfg.UBCDir)
	}
	if cfg.OutDir != "../../lib" {
		t.Fatalf("OutDir = %q", cfg.OutDir)
	}
	if cfg.Variant != emit.V2 {
		t.Fatalf("Variant = %v, want V2", cfg.Variant)
	}
	if cfg.MinProb != 0.1 {
		t.Fatalf("MinProb = %v, want 0.1", cfg.MinProb)
	}
	if cfg.MinDVs != 1 {
		t.Fatalf("MinDVs = %v, want 1", cfg.MinDVs)
	}
}
