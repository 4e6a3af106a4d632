package hook

import "slices"

// Selector picks the routes a hook applies to.
type Selector struct {
	targets  []string
	excludes []string
	wildcard bool
}

// Targets selects routes by name or handler reference.
func Targets(names ...string) Selector {
	return Selector{targets: names}
}

// All selects every route except the excluded ones.
func All(excludes ...string) Selector {
	return Selector{wildcard: true, excludes: excludes}
}

// Wildcard reports whether the selector applies to all routes.
func (s Selector) Wildcard() bool { return s.wildcard }

// Matches reports whether a route known by any of identities is selected.
func (s Selector) Matches(identities ...string) bool {
	if s.wildcard {
		for _, id := range identities {
			if slices.Contains(s.excludes, id) {
				return false
			}
		}
		return true
	}
	for _, id := range identities {
		if id != "" && slices.Contains(s.targets, id) {
			return true
		}
	}
	return false
}

// Excludes reports whether a wildcard selector names any of identities as
// an exclusion.
func (s Selector) Excludes(identities ...string) bool {
	if !s.wildcard {
		return false
	}
	for _, id := range identities {
		if id != "" && slices.Contains(s.excludes, id) {
			return true
		}
	}
	return false
}

func (s Selector) String() string {
	if s.wildcard {
		return "*"
	}
	if len(s.targets) == 1 {
		return s.targets[0]
	}
	out := ""
	for i, t := range s.targets {
		if i > 0 {
			out += ","
		}
		out += t
	}
	return out
}
