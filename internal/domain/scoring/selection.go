package scoring

// ResolveOwner returns the member holding name at the given timeline index.
// The index is clamped to the last recorded entry, so a pick that stops
// updating stays current for every later episode. Empty timelines,
// negative indexes and empty entries report no owner.
func ResolveOwner(members map[string][]string, name string, index int) (string, bool) {
	return clampedAt(members[name], index)
}

func clampedAt(row []string, index int) (string, bool) {
	if len(row) == 0 {
		return "", false
	}
	if index > len(row)-1 {
		index = len(row) - 1
	}
	if index < 0 {
		return "", false
	}
	owner := row[index]
	return owner, owner != ""
}

// OwnerAt resolves the owner during episode. Base events use this lookup.
func OwnerAt(members map[string][]string, name string, episode int) (string, bool) {
	return ResolveOwner(members, name, episode)
}

// OwnerBefore resolves the owner as of the episode before episode. League
// direct events use this lookup.
func OwnerBefore(members map[string][]string, name string, episode int) (string, bool) {
	return ResolveOwner(members, name, episode-1)
}
