// Package casenum generates year-scoped, human-readable case numbers of the
// form CASE-2025-000017. Sequences restart implicitly each year: the absence
// of prior case numbers for a new year yields sequence 1.
package casenum

import (
	"context"
	"fmt"
	"regexp"

	"github.com/alfredjeanlab/quorum/internal/store"
)

// pattern matches a well-formed case number and captures the sequence part.
var pattern = regexp.MustCompile(`^CASE-(\d{4})-(\d{6})$`)

// Prefix returns the case-number prefix for a calendar year.
func Prefix(year int) string {
	return fmt.Sprintf("CASE-%d-", year)
}

// Format renders a case number from a year and sequence.
func Format(year, seq int) string {
	return fmt.Sprintf("CASE-%d-%06d", year, seq)
}

// MaxSequence scans existing case numbers and returns the highest sequence
// for the given year. Malformed entries and other years are ignored; a true
// pattern match is used rather than trusting the prefix alone.
func MaxSequence(year int, numbers []string) int {
	max := 0
	for _, n := range numbers {
		m := pattern.FindStringSubmatch(n)
		if m == nil {
			continue
		}
		var y, seq int
		fmt.Sscanf(m[1], "%d", &y)
		fmt.Sscanf(m[2], "%d", &seq)
		if y != year {
			continue
		}
		if seq > max {
			max = seq
		}
	}
	return max
}

// Next allocates the next case number for the year by scanning the store's
// existing case numbers under the year prefix. The caller must hold the
// per-year allocation lock for the duration of its transaction so concurrent
// creations serialize.
func Next(ctx context.Context, s store.Store, year int) (string, error) {
	numbers, err := s.ListCaseNumbers(ctx, Prefix(year))
	if err != nil {
		return "", fmt.Errorf("scan case numbers for %d: %w", year, err)
	}
	return Format(year, MaxSequence(year, numbers)+1), nil
}
