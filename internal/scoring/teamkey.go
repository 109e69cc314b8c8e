package scoring

import (
	"slices"
	"strings"

	"github.com/google/uuid"
)

// MemberKey returns the canonical identity of a team: its member ids sorted
// and de-duplicated, joined with commas. The same set in any order yields the
// same key. The canonical member list is returned alongside.
func MemberKey(playerIDs []uuid.UUID) (string, []uuid.UUID) {
	members := slices.Clone(playerIDs)
	slices.SortFunc(members, func(a, b uuid.UUID) int {
		return strings.Compare(a.String(), b.String())
	})
	members = slices.Compact(members)

	parts := make([]string, len(members))
	for i, id := range members {
		parts[i] = id.String()
	}
	return strings.Join(parts, ","), members
}
