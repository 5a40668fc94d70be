package app

import (
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
)

// unifiedDiff renders the unsaved changes as a unified diff between
// the on-disk content and the current buffer.
func unifiedDiff(path, orig, current string) string {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(orig),
		B:        difflib.SplitLines(current),
		FromFile: path,
		ToFile:   path + " (modified)",
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return fmt.Sprintf("diff failed: %v\n", err)
	}
	return text
}
