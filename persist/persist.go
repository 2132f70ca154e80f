//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.

// Package persist saves and loads the intermediate state of a
// generator run (loaded bases, the greedy selection, and the
// bitrel-to-DV map), so a slow bitrel-loading pass can be skipped on
// a subsequent invocation. It mirrors the four named archives of
// original_source/parse_bitrel/saveload.hpp, using encoding/gob in
// place of Boost serialization.
package persist

import (
	"encoding/gob"
	"os"
	"path/filepath"

	"github.com/hashclash/ubccodegen/basis"
	"github.com/hashclash/ubccodegen/internal/ubcerr"
)

const (
	dvsFile        = "dvs.gob"
	bitrelsFile    = "dv_bitrels.gob"
	selectionFile  = "dv_selection.gob"
	bitrelToDVFile = "bitrel_to_dv.gob"
)

// State is everything a generator run needs to resume without
// re-reading the bitrel text files.
type State struct {
	DVs        []string
	Bases      map[string]*basis.Basis
	Selected   map[string]*basis.Basis
	BitrelToDV map[basis.Relation][]string
}

func saveFile(path string, v interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return ubcerr.Wrap(ubcerr.IO, err, "could not create %s", path)
	}
	defer f.Close()
	if err := gob.NewEncoder(f).Encode(v); err != nil {
		return ubcerr.Wrap(ubcerr.IO, err, "could not encode %s", path)
	}
	return nil
}

func loadFile(path string, v interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return ubcerr.Wrap(ubcerr.IO, err, "could not open %s", path)
	}
	defer f.Close()
	if err := gob.NewDecoder(f).Decode(v); err != nil {
		return ubcerr.Wrap(ubcerr.IO, err, "could not decode %s", path)
	}
	return nil
}

// Save writes the four blobs of State as separate gob files under
// dir, creating dir if necessary.
func Save(dir string, s *State) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ubcerr.Wrap(ubcerr.IO, err, "could not create %s", dir)
	}
	if err := saveFile(filepath.Join(dir, dvsFile), &s.DVs); err != nil {
		return err
	}
	if err := saveFile(filepath.Join(dir, bitrelsFile), &s.Bases); err != nil {
		return err
	}
	if err := saveFile(filepath.Join(dir, selectionFile), &s.Selected); err != nil {
		return err
	}
	if err := saveFile(filepath.Join(dir, bitrelToDVFile), &s.BitrelToDV); err != nil {
		return err
	}
	return nil
}

// Load reads back a State saved by Save from dir.
func Load(dir string) (*State, error) {
	s := &State{}
	if err := loadFile(filepath.Join(dir, dvsFile), &s.DVs); err != nil {
		return nil, err
	}
	if err := loadFile(filepath.Join(dir, bitrelsFile), &s.Bases); err != nil {
		return nil, err
	}
	if err := loadFile(filepath.Join(dir, selectionFile), &s.Selected); err != nil {
		return nil, err
	}
	if err := loadFile(filepath.Join(dir, bitrelToDVFile), &s.BitrelToDV); err != nil {
		return nil, err
	}
	return s, nil
}
