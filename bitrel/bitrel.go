//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.

// Package bitrel ingests the per-disturbance-vector text files
// describing unavoidable bit conditions: one bit-relation per line,
// one file per DV.
package bitrel

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hashclash/ubccodegen/basis"
	"github.com/hashclash/ubccodegen/internal/ubcerr"
)

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// ParseLine parses one bit-relation text line of the form
// "- W37[4] ^ W39[4] = 1": the parity is read from the first '0' or
// '1' character on or after the '=' sign; every remaining digit pair
// (t,b) before that point toggles bit b of word t.
func ParseLine(line string) (basis.Relation, error) {
	var r basis.Relation

	eq := strings.Index(line, "=")
	if eq < 0 {
		return r, ubcerr.New(ubcerr.InputFormat, "line has no '=': %q", line)
	}
	idx := strings.IndexAny(line[eq:], "01")
	if idx < 0 {
		return r, ubcerr.New(ubcerr.InputFormat, "no parity digit found: %q", line)
	}
	parityPos := eq + idx
	parity := line[parityPos] == '1'
	prefix := line[:parityPos]

	i := 0
	for i < len(prefix) {
		for i < len(prefix) && !isDigit(prefix[i]) {
			i++
		}
		if i >= len(prefix) {
			break
		}
		j := i
		for j < len(prefix) && isDigit(prefix[j]) {
			j++
		}
		t, err := strconv.Atoi(prefix[i:j])
		if err != nil {
			return r, ubcerr.Wrap(ubcerr.InputFormat, err, "malformed token in %q", line)
		}
		i = j

		for i < len(prefix) && !isDigit(prefix[i]) {
			i++
		}
		if i >= len(prefix) {
			break
		}
		j = i
		for j < len(prefix) && isDigit(prefix[j]) {
			j++
		}
		b, err := strconv.Atoi(prefix[i:j])
		if err != nil {
			return r, ubcerr.Wrap(ubcerr.InputFormat, err, "malformed token in %q", line)
		}
		i = j

		if t >= basis.RelationWords || b >= 32 {
			return r, ubcerr.New(ubcerr.Range,
				"bit position out of range in %q: t=%d b=%d", line, t, b)
		}
		r[t] ^= 1 << uint(b)
	}

	if parity {
		r[80] = 1
	}
	return r, nil
}

// LoadFile parses every line containing '=' in the named file into a
// Basis, skipping all other lines.
func LoadFile(path string) (*basis.Basis, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ubcerr.Wrap(ubcerr.IO, err, "could not open %s", path)
	}
	defer f.Close()

	b := basis.New()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if !strings.Contains(line, "=") {
			continue
		}
		r, err := ParseLine(line)
		if err != nil {
			return nil, err
		}
		if err := b.Add(r); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, ubcerr.Wrap(ubcerr.IO, err, "reading %s", path)
	}
	return b, nil
}

// breakString splits in on every occurrence of any character in
// delim, retaining empty tokens between consecutive delimiters
// (mirrors the original break_string).
func breakString(in, delim string) []string {
	var ret []string
	for {
		pos := strings.IndexAny(in, delim)
		if pos < 0 {
			ret = append(ret, in)
			return ret
		}
		ret = append(ret, in[:pos])
		in = in[pos+1:]
	}
}

func allDigits(s string) bool {
	if len(s) == 0 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

// NameFromFilename recovers the DV name from a filename stem
// containing tokens "I" or "II" followed by two integers separated
// by '_' or '-'.
func NameFromFilename(path string) (string, error) {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	parts := breakString(stem, "_-")
	if len(parts) >= 3 &&
		(parts[0] == "I" || parts[0] == "II") &&
		allDigits(parts[1]) &&
		allDigits(parts[2]) {
		return fmt.Sprintf("%s(%s,%s)", parts[0], parts[1], parts[2]), nil
	}
	return "", ubcerr.New(ubcerr.InputFormat,
		"filename does not contain DV description: %s", path)
}

// dvSelected reports whether DV name dv (with filename stem stem)
// matches the CLI DV selection list, excluding any match that would
// confuse DV type I with type II (a token also matching when
// prefixed with "I").
func dvSelected(stem, dv string, selection []string) bool {
	if len(selection) == 0 {
		return true
	}
	for _, tok := range selection {
		if (strings.Contains(stem, tok) || strings.Contains(dv, tok)) &&
			!strings.Contains(stem, "I"+tok) &&
			!strings.Contains(dv, "I"+tok) {
			return true
		}
	}
	return false
}

// LoadDir loads every regular file in dir into a map from DV name to
// its parsed Basis, filtered by the DV selection list (empty means
// no filtering).
func LoadDir(dir string, selection []string) (map[string]*basis.Basis, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, ubcerr.Wrap(ubcerr.IO, err, "could not stat %s", dir)
	}
	if !info.IsDir() {
		return nil, ubcerr.New(ubcerr.IO, "%s is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, ubcerr.Wrap(ubcerr.IO, err, "could not read %s", dir)
	}

	result := make(map[string]*basis.Basis)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		full := filepath.Join(dir, entry.Name())
		dvName, err := NameFromFilename(full)
		if err != nil {
			return nil, err
		}
		stem := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		if !dvSelected(stem, dvName, selection) {
			continue
		}
		b, err := LoadFile(full)
		if err != nil {
			return nil, err
		}
		result[dvName] = b
	}
	return result, nil
}
