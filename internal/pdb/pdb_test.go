package pdb

import (
	"strings"
	"testing"
)

const samplePDB = `HEADER    PROTEIN
TITLE     TEST STRUCTURE
ATOM      1  CA    M A   1       3.800   0.000   0.000  1.00 75.00           C
ATOM      2  CB    M A   1       5.300   1.500   0.000  1.00 75.00           C
ATOM      3  CA    K A   2       7.600   0.000   0.000  1.00 75.00           C
ATOM      4  CB    K A   2       9.100   1.500   0.000  1.00 75.00           C
TER
END
`

func TestParseCountsAtomsAndResidues(t *testing.T) {
	summary, err := Parse(samplePDB)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.AtomCount != 4 {
		t.Fatalf("expected 4 atoms, got %d", summary.AtomCount)
	}
	if summary.ResidueCount != 2 {
		t.Fatalf("expected 2 residues, got %d", summary.ResidueCount)
	}
	if summary.ChainCount != 1 {
		t.Fatalf("expected 1 chain, got %d", summary.ChainCount)
	}
}

func TestParseSkipsMalformedAtomLines(t *testing.T) {
	content := samplePDB + "ATOM  broken\n"
	summary, err := Parse(content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.AtomCount != 4 {
		t.Fatalf("malformed line must be skipped, got %d atoms", summary.AtomCount)
	}
}

func TestParseCountsHetatmRecords(t *testing.T) {
	content := samplePDB + "HETATM    5  O   HOH A   3      11.000   2.000   0.000  1.00 20.00           O\n"
	summary, err := Parse(content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.AtomCount != 5 {
		t.Fatalf("expected 5 atoms with hetatm, got %d", summary.AtomCount)
	}
	if summary.ResidueCount != 3 {
		t.Fatalf("expected 3 residues with hetatm, got %d", summary.ResidueCount)
	}
}

func TestParseRejectsEmptyContent(t *testing.T) {
	if _, err := Parse("   \n  "); err == nil {
		t.Fatalf("expected error for empty content")
	}
}

func TestParseRejectsStructureWithoutAtoms(t *testing.T) {
	content := strings.Join([]string{"HEADER    PROTEIN", "TER", "END"}, "\n")
	if _, err := Parse(content); err == nil {
		t.Fatalf("expected error for structure without atoms")
	}
}
