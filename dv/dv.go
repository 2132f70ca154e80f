//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.

// Package dv constructs disturbance vectors and expands them through
// the SHA-1 message-expansion recurrence, both forward and backward.
package dv

import (
	"fmt"
	"math/bits"
	"strconv"
	"strings"

	"github.com/hashclash/ubccodegen/internal/ubcerr"
)

// Vector is an 80-word expanded message or message-difference vector.
type Vector [80]uint32

// Word is a single 32-bit lane of a Vector, exposed for callers that
// want the W[i]/DW[i] notation directly.
type Word = uint32

// DV is a disturbance vector: its expanded vector DV, the derived
// difference vector DW, and, when constructed from (type, K, b), the
// symbolic triple that produced it.
type DV struct {
	DV Vector
	DW Vector

	// HasSymbol reports whether Type, K, B were supplied directly
	// (as opposed to a raw 16-word seed).
	HasSymbol bool
	Type      int
	K         int
	B         int
}

func rotl(x uint32, n uint) uint32 { return bits.RotateLeft32(x, int(n)) }
func rotr(x uint32, n uint) uint32 { return bits.RotateLeft32(x, -int(n)) }

func hammingWeight(x uint32) int { return bits.OnesCount32(x) }

// New builds a disturbance vector from its symbolic (type, K, b)
// description. type must be 1 or 2, K in [0,64], b in [0,32).
func New(dvtype, k, b int) (*DV, error) {
	if dvtype < 1 || dvtype > 2 {
		return nil, ubcerr.New(ubcerr.Range,
			"disturbance vector type must be 1 or 2, got %d", dvtype)
	}
	if k < 0 || k > 64 {
		return nil, ubcerr.New(ubcerr.Range, "K out of range [0,64]: %d", k)
	}
	if b < 0 || b >= 32 {
		return nil, ubcerr.New(ubcerr.Range, "b out of range [0,32): %d", b)
	}

	d := &DV{HasSymbol: true, Type: dvtype, K: k, B: b}
	for i := k; i < k+16; i++ {
		d.DV[i] = 0
	}
	d.DV[k+15] = rotl(1, uint(b))
	if dvtype == 2 {
		d.DV[k+1] = rotl(1<<31, uint(b))
		d.DV[k+3] = rotl(1<<31, uint(b))
	}
	expandMessage(&d.DV, k)
	d.initDW()
	return d, nil
}

// NewFromSeed builds a disturbance vector from 16 consecutive words
// placed at the given offset, offset in [0,64].
func NewFromSeed(seed [16]uint32, offset int) (*DV, error) {
	if offset < 0 || offset > 64 {
		return nil, ubcerr.New(ubcerr.Range,
			"seed offset out of range [0,64]: %d", offset)
	}
	d := &DV{}
	for i := 0; i < 16; i++ {
		d.DV[offset+i] = seed[i]
	}
	expandMessage(&d.DV, offset)
	d.initDW()
	return d, nil
}

// Parse builds a disturbance vector from its name, "I(K,b)" or
// "II(K,b)", accepting either "(,)" or "_,_)" as separators.
func Parse(name string) (*DV, error) {
	s := name
	dvtype := 0
	for len(s) > 0 && s[0] == 'I' {
		dvtype++
		s = s[1:]
	}
	if dvtype == 0 || dvtype > 2 {
		return nil, ubcerr.New(ubcerr.InputFormat, "DV string incorrect: %q", name)
	}
	if len(s) == 0 || (s[0] != '(' && s[0] != '_') {
		return nil, ubcerr.New(ubcerr.InputFormat, "DV string incorrect: %q", name)
	}
	s = s[1:]

	pos := strings.IndexAny(s, ",_")
	if pos < 0 {
		return nil, ubcerr.New(ubcerr.InputFormat, "DV string incorrect: %q", name)
	}
	k, err := strconv.Atoi(s[:pos])
	if err != nil {
		return nil, ubcerr.Wrap(ubcerr.InputFormat, err, "DV string incorrect: %q", name)
	}
	s = s[pos+1:]

	end := strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' })
	if end < 0 {
		end = len(s)
	}
	b, err := strconv.Atoi(s[:end])
	if err != nil {
		return nil, ubcerr.Wrap(ubcerr.InputFormat, err, "DV string incorrect: %q", name)
	}

	return New(dvtype, k, b)
}

// initDW derives DW from DV using the 5-term relation, then expands
// it from words [16,32) in both directions.
func (d *DV) initDW() {
	for i := 16; i < 32; i++ {
		d.DW[i] = d.DV[i] ^
			rotl(d.DV[i-1], 5) ^
			d.DV[i-2] ^
			rotl(d.DV[i-3], 30) ^
			rotl(d.DV[i-4], 30) ^
			rotl(d.DV[i-5], 30)
	}
	expandMessage(&d.DW, 16)
}

// expandMessage fills v into a full 80-word expanded message, given
// that v[offset:offset+16] already holds the seed, using the SHA-1
// message-expansion relation and its inverse.
func expandMessage(v *Vector, offset int) {
	for i := offset - 1; i >= 0; i-- {
		v[i] = rotr(v[i+16], 1) ^ v[i+13] ^ v[i+8] ^ v[i+2]
	}
	for i := offset + 16; i < 80; i++ {
		v[i] = rotl(v[i-3]^v[i-8]^v[i-14]^v[i-16], 1)
	}
}

// Name infers the DV's canonical name by scanning for the 15-word
// zero window and single active bit that characterize type I and II
// disturbance vectors, returning the first match or "unknown".
func (d *DV) Name() string {
	for k := 0; k <= 64; k++ {
		possible := true
		for i := 4; i <= 14; i++ {
			if d.DV[k+i] != 0 {
				possible = false
				break
			}
		}
		if !possible || hammingWeight(d.DV[k+15]) != 1 {
			continue
		}
		b := 0
		for (d.DV[k+15]>>uint(b))&1 == 0 {
			b++
		}
		if d.DV[k+1] == 0 {
			if d.DV[k+0] == 0 && d.DV[k+1] == 0 && d.DV[k+2] == 0 && d.DV[k+3] == 0 {
				return fmt.Sprintf("I(%d,%d)", k, b)
			}
		} else {
			rb := rotl(1<<31, uint(b))
			if d.DV[k+0] == 0 && d.DV[k+1] == rb && d.DV[k+2] == 0 && d.DV[k+3] == rb {
				return fmt.Sprintf("II(%d,%d)", k, b)
			}
		}
		return fmt.Sprintf("unknown(%d,%d)", k, b)
	}
	return "unknown"
}
