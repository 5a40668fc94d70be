package texdoc

import (
	"errors"
	"testing"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/dshills/refwalk/internal/engine/buffer"
)

// requireSameText fails with a unified diff when the document text does
// not match the expected bytes.
func requireSameText(t *testing.T, want, got string) {
	t.Helper()
	if want == got {
		return
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(want),
		B:        difflib.SplitLines(got),
		FromFile: "want",
		ToFile:   "got",
		Context:  3,
	})
	if err != nil {
		t.Fatalf("text mismatch (diff failed: %v)\nwant: %q\ngot:  %q", err, want, got)
	}
	t.Errorf("text mismatch:\n%s", diff)
}

func TestTransactionCommit(t *testing.T) {
	d := NewFromString("see  for details")

	tx, err := d.BeginTransaction()
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}

	region, err := tx.Insert(4, `\ref{} `)
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	requireSameText(t, `see \ref{}  for details`, d.Text())
	if got := d.TextRange(region.Range()); got != `\ref{} ` {
		t.Errorf("region should cover the insertion, got %q", got)
	}
	if d.InTransaction() {
		t.Error("transaction should be closed after commit")
	}
}

func TestTransactionRollback(t *testing.T) {
	before := "alpha\nbeta\ngamma\n"
	d := NewFromString(before)

	tx, err := d.BeginTransaction()
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}

	region, err := tx.Insert(6, `\ref{} `)
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	// Rewrite the identifier a few times, as stepping does
	inner := buffer.NewRange(region.Start()+5, region.Start()+5)
	if err := tx.Replace(inner, "first"); err != nil {
		t.Fatalf("replace failed: %v", err)
	}
	if err := tx.Replace(buffer.NewRange(region.Start()+5, region.Start()+10), "second"); err != nil {
		t.Fatalf("replace failed: %v", err)
	}

	if err := tx.Rollback(); err != nil {
		t.Fatalf("rollback failed: %v", err)
	}

	requireSameText(t, before, d.Text())
	if tx.Len() != 3 {
		t.Errorf("expected 3 recorded changes, got %d", tx.Len())
	}
}

func TestTransactionRollbackRestoresMarkers(t *testing.T) {
	d := NewFromString("head \\label{x} tail")
	anchor := d.CreateRegion(buffer.NewRange(5, 14))
	d.SetCursor(17)

	tx, err := d.BeginTransaction()
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	if _, err := tx.Insert(0, "inserted up front "); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	// Edit shifted both
	if anchor.Range() == buffer.NewRange(5, 14) {
		t.Fatal("anchor should have shifted with the edit")
	}

	if err := tx.Rollback(); err != nil {
		t.Fatalf("rollback failed: %v", err)
	}

	if got := anchor.Range(); got != buffer.NewRange(5, 14) {
		t.Errorf("anchor should be restored to [5:14), got %v", got)
	}
	if d.Cursor() != 17 {
		t.Errorf("cursor should be restored to 17, got %d", d.Cursor())
	}
}

func TestTransactionExclusive(t *testing.T) {
	d := NewFromString("text")

	tx, err := d.BeginTransaction()
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}

	if _, err := d.BeginTransaction(); !errors.Is(err, ErrTransactionActive) {
		t.Errorf("expected ErrTransactionActive, got %v", err)
	}

	if err := tx.Commit(); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	// A new transaction can open after the first finishes
	tx2, err := d.BeginTransaction()
	if err != nil {
		t.Fatalf("second begin failed: %v", err)
	}
	if err := tx2.Rollback(); err != nil {
		t.Fatalf("rollback failed: %v", err)
	}
}

func TestTransactionDone(t *testing.T) {
	d := NewFromString("text")

	tx, _ := d.BeginTransaction()
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	if err := tx.Commit(); !errors.Is(err, ErrTransactionDone) {
		t.Errorf("expected ErrTransactionDone on recommit, got %v", err)
	}
	if err := tx.Rollback(); !errors.Is(err, ErrTransactionDone) {
		t.Errorf("expected ErrTransactionDone on rollback after commit, got %v", err)
	}
	if _, err := tx.Insert(0, "x"); !errors.Is(err, ErrTransactionDone) {
		t.Errorf("expected ErrTransactionDone on insert, got %v", err)
	}
	if err := tx.Replace(buffer.NewRange(0, 1), "y"); !errors.Is(err, ErrTransactionDone) {
		t.Errorf("expected ErrTransactionDone on replace, got %v", err)
	}
}

func TestTransactionDeleteRollback(t *testing.T) {
	before := "keep remove keep"
	d := NewFromString(before)

	tx, _ := d.BeginTransaction()
	if err := tx.Delete(buffer.NewRange(5, 12)); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	requireSameText(t, "keep keep", d.Text())

	if err := tx.Rollback(); err != nil {
		t.Fatalf("rollback failed: %v", err)
	}
	requireSameText(t, before, d.Text())
}
