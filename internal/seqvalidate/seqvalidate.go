// Package seqvalidate canonicalizes and validates amino acid sequences.
package seqvalidate

import (
	"fmt"
	"sort"
	"strings"
)

// MaxResidues is the longest sequence the prediction backends accept.
const MaxResidues = 400

// canonical 20 amino acid one-letter codes.
const residueAlphabet = "ACDEFGHIKLMNPQRSTVWY"

// Normalize trims surrounding whitespace and upper-cases the sequence without
// judging its content.
func Normalize(sequence string) string {
	return strings.ToUpper(strings.TrimSpace(sequence))
}

// Check validates a normalized sequence: non-empty, within the residue limit,
// canonical residues only. Returns the offending characters in the error so
// callers can surface them verbatim.
func Check(sequence string) error {
	if sequence == "" {
		return fmt.Errorf("sequence is empty")
	}
	if len(sequence) > MaxResidues {
		return fmt.Errorf("sequence length %d exceeds the %d residue limit", len(sequence), MaxResidues)
	}

	invalid := make(map[rune]struct{})
	for _, r := range sequence {
		if !strings.ContainsRune(residueAlphabet, r) {
			invalid[r] = struct{}{}
		}
	}
	if len(invalid) == 0 {
		return nil
	}

	chars := make([]string, 0, len(invalid))
	for r := range invalid {
		chars = append(chars, fmt.Sprintf("%q", r))
	}
	sort.Strings(chars)
	return fmt.Errorf("invalid amino acid characters: %s", strings.Join(chars, ", "))
}

// NormalizeAndCheck is the single entry point used ahead of run creation.
func NormalizeAndCheck(sequence string) (string, error) {
	normalized := Normalize(sequence)
	if err := Check(normalized); err != nil {
		return "", err
	}
	return normalized, nil
}
