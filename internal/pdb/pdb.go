// Package pdb implements a line-oriented reader for predicted structure
// files. It extracts the atom and residue inventory a downstream metrics
// pass needs; it is not a general PDB parser.
package pdb

import (
	"fmt"
	"strconv"
	"strings"
)

// Summary describes the parsed structure.
type Summary struct {
	AtomCount    int
	ResidueCount int
	ChainCount   int
}

type residueKey struct {
	chain string
	name  string
	seq   int
}

// Parse scans ATOM and HETATM records using fixed PDB column offsets.
// Records too short or with a malformed residue number are skipped rather
// than fatal; a structure with no usable atoms is an error.
func Parse(content string) (Summary, error) {
	if strings.TrimSpace(content) == "" {
		return Summary{}, fmt.Errorf("structure content is empty")
	}

	residues := make(map[residueKey]struct{})
	chains := make(map[string]struct{})
	atoms := 0

	for _, line := range strings.Split(content, "\n") {
		if !strings.HasPrefix(line, "ATOM") && !strings.HasPrefix(line, "HETATM") {
			continue
		}
		if len(line) < 26 {
			continue
		}
		resName := strings.TrimSpace(line[17:20])
		chain := strings.TrimSpace(line[21:22])
		resSeq, err := strconv.Atoi(strings.TrimSpace(line[22:26]))
		if err != nil {
			continue
		}
		atoms++
		residues[residueKey{chain: chain, name: resName, seq: resSeq}] = struct{}{}
		if chain != "" {
			chains[chain] = struct{}{}
		}
	}

	if atoms == 0 {
		return Summary{}, fmt.Errorf("structure contains no parsable atom records")
	}

	return Summary{
		AtomCount:    atoms,
		ResidueCount: len(residues),
		ChainCount:   len(chains),
	}, nil
}
