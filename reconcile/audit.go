package reconcile

import (
	"sort"
)

// AuditResult holds the result of comparing the source file with the rule.
type AuditResult struct {
	Match   bool     // true if both sides hold the same ranges, duplicates included
	Missing []string // ranges in the file but not on the rule
	Extra   []string // ranges on the rule but not in the file
}

// Audit compares two multisets of ranges. Order is ignored and duplicates
// are counted.
func Audit(want, have []string) AuditResult {
	wantCount := make(map[string]int)
	for _, r := range want {
		wantCount[r]++
	}
	haveCount := make(map[string]int)
	for _, r := range have {
		haveCount[r]++
	}

	var missing, extra []string
	for key, n := range wantCount {
		for i := haveCount[key]; i < n; i++ {
			missing = append(missing, key)
		}
	}
	for key, n := range haveCount {
		for i := wantCount[key]; i < n; i++ {
			extra = append(extra, key)
		}
	}
	sort.Strings(missing)
	sort.Strings(extra)

	return AuditResult{
		Match:   len(missing) == 0 && len(extra) == 0,
		Missing: missing,
		Extra:   extra,
	}
}
