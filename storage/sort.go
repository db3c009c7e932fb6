package storage

import (
	"sort"
	"strings"
)

// sortEntriesNewestFirst orders audit entries by timestamp descending, with
// the entry ID as a tie-breaker so identical data sets always serialize the
// same way.
func sortEntriesNewestFirst(entries []*AuditLogEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].Timestamp.Equal(entries[j].Timestamp) {
			return entries[i].Timestamp.After(entries[j].Timestamp)
		}
		return entries[i].ID < entries[j].ID
	})
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
