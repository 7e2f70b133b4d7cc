package esmfold

import (
	"context"
	"strings"
	"testing"

	"github.com/foldline-labs/foldline-go/internal/pdb"
)

func TestSyntheticFoldIsDeterministic(t *testing.T) {
	first, err := Synthetic{}.Fold(context.Background(), "MKTAYIAK")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Synthetic{}.Fold(context.Background(), "MKTAYIAK")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.PDB != second.PDB {
		t.Fatalf("synthetic structure must be deterministic")
	}
	if first.Method != MethodSynthetic {
		t.Fatalf("expected method %q, got %q", MethodSynthetic, first.Method)
	}
	if len(first.PLDDT) != 8 {
		t.Fatalf("expected one plddt score per residue, got %d", len(first.PLDDT))
	}
}

func TestSyntheticFoldParsesAsStructure(t *testing.T) {
	sequence := "MKTAYIAK"
	prediction, err := Synthetic{}.Fold(context.Background(), sequence)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	summary, err := pdb.Parse(prediction.PDB)
	if err != nil {
		t.Fatalf("synthetic output must parse: %v", err)
	}
	if summary.ResidueCount != len(sequence) {
		t.Fatalf("expected %d residues, got %d", len(sequence), summary.ResidueCount)
	}
	// CA plus CB per residue, no glycine in this sequence.
	if summary.AtomCount != 2*len(sequence) {
		t.Fatalf("expected %d atoms, got %d", 2*len(sequence), summary.AtomCount)
	}
}

func TestSyntheticFoldSkipsGlycineBetaCarbon(t *testing.T) {
	prediction, err := Synthetic{}.Fold(context.Background(), "GAG")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.Count(prediction.PDB, " CB "); got != 1 {
		t.Fatalf("expected a single CB atom, got %d", got)
	}
	if got := strings.Count(prediction.PDB, " CA "); got != 3 {
		t.Fatalf("expected three CA atoms, got %d", got)
	}
}

func TestSyntheticFoldRejectsEmptySequence(t *testing.T) {
	if _, err := (Synthetic{}).Fold(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty sequence")
	}
}
