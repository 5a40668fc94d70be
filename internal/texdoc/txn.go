package texdoc

import (
	"fmt"

	"github.com/dshills/refwalk/internal/engine/buffer"
	"github.com/dshills/refwalk/internal/engine/marker"
)

// Transaction scopes a group of speculative edits so they commit or
// roll back as one. Rollback replays the inverse of every recorded
// change in reverse order through the document, so markers created
// before or during the transaction end up where they started.
//
// Only one transaction may be active per document. Commit and Rollback
// both finish the transaction; calling either again returns
// ErrTransactionDone.
type Transaction struct {
	doc     *Document
	changes []buffer.Change
	done    bool
}

// BeginTransaction opens a transaction on the document.
// Returns ErrTransactionActive if one is already open.
func (d *Document) BeginTransaction() (*Transaction, error) {
	if d.readOnly {
		return nil, ErrReadOnly
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.tx != nil {
		return nil, ErrTransactionActive
	}

	tx := &Transaction{doc: d}
	d.tx = tx
	return tx, nil
}

// InTransaction reports whether a transaction is open on the document.
func (d *Document) InTransaction() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tx != nil
}

// Insert inserts text at the given offset within the transaction and
// returns a region tracking the inserted span.
func (t *Transaction) Insert(off buffer.ByteOffset, text string) (*marker.Region, error) {
	if t.done {
		return nil, ErrTransactionDone
	}

	region := t.doc.markers.CreateInsertionRegion(off)
	res, err := t.doc.applyEdit(buffer.NewInsert(off, text))
	if err != nil {
		region.Release()
		return nil, err
	}

	t.record(res)
	return region, nil
}

// Replace replaces a range within the transaction.
func (t *Transaction) Replace(r buffer.Range, text string) error {
	if t.done {
		return ErrTransactionDone
	}

	res, err := t.doc.applyEdit(buffer.NewEdit(r, text))
	if err != nil {
		return err
	}

	t.record(res)
	return nil
}

// Delete removes a range within the transaction.
func (t *Transaction) Delete(r buffer.Range) error {
	return t.Replace(r, "")
}

// Len returns the number of recorded changes.
func (t *Transaction) Len() int { return len(t.changes) }

// Commit finalizes the transaction, keeping every edit.
func (t *Transaction) Commit() error {
	if t.done {
		return ErrTransactionDone
	}
	t.finish()
	return nil
}

// Rollback undoes every recorded change in reverse order, restoring the
// exact pre-transaction text.
func (t *Transaction) Rollback() error {
	if t.done {
		return ErrTransactionDone
	}

	for i := len(t.changes) - 1; i >= 0; i-- {
		inverse := t.changes[i].Invert()
		if _, err := t.doc.applyEdit(inverse.ToEdit()); err != nil {
			t.finish()
			return fmt.Errorf("rollback change %d: %w", i, err)
		}
	}
	t.finish()
	return nil
}

func (t *Transaction) record(res buffer.EditResult) {
	typ := buffer.ChangeReplace
	switch {
	case res.OldText == "":
		typ = buffer.ChangeInsert
	case res.NewText == "":
		typ = buffer.ChangeDelete
	}

	t.changes = append(t.changes, buffer.Change{
		Type:     typ,
		Range:    res.OldRange,
		NewRange: res.NewRange,
		OldText:  res.OldText,
		NewText:  res.NewText,
	})
}

func (t *Transaction) finish() {
	t.done = true
	t.doc.mu.Lock()
	t.doc.tx = nil
	t.doc.mu.Unlock()
}
