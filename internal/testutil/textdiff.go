// Package testutil provides small test-only helpers shared across the
// module's package tests — currently a unified-diff assertion for the
// info reporter's multi-line key=value output, adapted from the
// text-assertion helper used throughout the example pack's own test
// suite (a stripped-down version: no color, no normalization options,
// since the report format has no leading/trailing whitespace variance
// to tolerate).
package testutil

import (
	"fmt"
	"testing"

	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
)

// AssertTextEqual fails t with a unified diff if actual != expected.
func AssertTextEqual(t *testing.T, actual, expected string) {
	t.Helper()
	if actual == expected {
		return
	}
	edits := myers.ComputeEdits("", expected, actual)
	unified := gotextdiff.ToUnified("expected", "actual", expected, edits)
	t.Errorf("text mismatch:\n%s", fmt.Sprint(unified))
}
