package hook

import "slices"

// ErrorEntry binds one claim to its error hook.
type ErrorEntry struct {
	Claim Claim
	Hook  *Hook
}

// Set holds the hooks attached to one route.
type Set struct {
	Before []*Hook
	After  []*Hook
	Errors []ErrorEntry
}

// Attach appends h to the list of its kind. An error hook replaces earlier
// entries of the same set claiming the same key.
func (s *Set) Attach(h *Hook) {
	switch h.kind {
	case KindBefore:
		s.Before = append(s.Before, h)
	case KindAfter:
		s.After = append(s.After, h)
	case KindError:
		for _, c := range h.claims {
			s.putError(ErrorEntry{Claim: c, Hook: h})
		}
	}
}

func (s *Set) putError(entry ErrorEntry) {
	key := entry.Claim.Key()
	for i, e := range s.Errors {
		if e.Claim.Key() == key {
			s.Errors[i] = entry
			return
		}
	}
	s.Errors = append(s.Errors, entry)
}

// Merge folds the hooks of an enclosing mount (far) into s (near).
// Before-hooks run far then near, after-hooks near then far, and near error
// hooks win for claims present on both sides.
func (s Set) Merge(far Set) Set {
	merged := Set{
		Before: make([]*Hook, 0, len(far.Before)+len(s.Before)),
		After:  make([]*Hook, 0, len(s.After)+len(far.After)),
		Errors: make([]ErrorEntry, 0, len(s.Errors)+len(far.Errors)),
	}
	merged.Before = append(append(merged.Before, far.Before...), s.Before...)
	merged.After = append(append(merged.After, s.After...), far.After...)
	merged.Errors = append(merged.Errors, s.Errors...)

	for _, e := range far.Errors {
		if !merged.hasClaim(e.Claim.Key()) {
			merged.Errors = append(merged.Errors, e)
		}
	}
	return merged
}

// Excluding returns s without the wildcard hooks that exclude any of
// identities.
func (s Set) Excluding(identities ...string) Set {
	excluded := func(h *Hook) bool { return h.selector.Excludes(identities...) }
	if !slices.ContainsFunc(s.Before, excluded) &&
		!slices.ContainsFunc(s.After, excluded) &&
		!slices.ContainsFunc(s.Errors, func(e ErrorEntry) bool { return excluded(e.Hook) }) {
		return s
	}
	return Set{
		Before: slices.DeleteFunc(slices.Clone(s.Before), excluded),
		After:  slices.DeleteFunc(slices.Clone(s.After), excluded),
		Errors: slices.DeleteFunc(slices.Clone(s.Errors), func(e ErrorEntry) bool { return excluded(e.Hook) }),
	}
}

func (s Set) hasClaim(key string) bool {
	for _, e := range s.Errors {
		if e.Claim.Key() == key {
			return true
		}
	}
	return false
}

// ErrorHook returns the hook whose claim matches err most specifically: at
// the shallowest depth, and with an exact type ahead of an interface it
// satisfies. Equally specific claims go to the entry listed first.
func (s Set) ErrorHook(err error) (*Hook, bool) {
	var (
		best *Hook
		rank specificity
	)
	for _, e := range s.Errors {
		r, ok := rankOf(e.Claim, err)
		if !ok {
			continue
		}
		if best == nil || r.less(rank) {
			best, rank = e.Hook, r
		}
	}
	return best, best != nil
}

// Empty reports whether no hook is attached.
func (s Set) Empty() bool {
	return len(s.Before) == 0 && len(s.After) == 0 && len(s.Errors) == 0
}

// Len returns the number of attached hooks of kind k.
func (s Set) Len(k Kind) int {
	switch k {
	case KindBefore:
		return len(s.Before)
	case KindAfter:
		return len(s.After)
	case KindError:
		return len(s.Errors)
	}
	return 0
}
