package registry

import (
	"strconv"
	"strings"
)

// maxIDProbes bounds the collision suffix probe so adversarial
// registration bursts cannot spin the loop forever.
const maxIDProbes = 10000

// slugFromName derives the base identifier: lowercase, spaces and
// underscores become hyphens. Other characters pass through unchanged.
func slugFromName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "_", "-")
	return s
}

// assignID returns the first free identifier for name: the base slug
// itself, then "<slug>-1", "<slug>-2", ... taken reports whether an
// identifier is already in use. Returns ErrConflict once the probe
// bound is hit.
func assignID(name string, taken func(id string) bool) (string, error) {
	base := slugFromName(name)
	id := base
	for i := 1; i <= maxIDProbes; i++ {
		if !taken(id) {
			return id, nil
		}
		id = base + "-" + strconv.Itoa(i)
	}
	return "", ErrConflict
}
