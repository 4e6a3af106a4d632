package route

import (
	"errors"
	"maps"

	"github.com/dmitrymomot/relay/core/message"
	"github.com/dmitrymomot/relay/core/reqctx"
)

// Match is the outcome of resolving a path against a route list.
type Match struct {
	Route  *Route
	Params map[string]string
	// Rest is the unconsumed remainder of a group match.
	Rest string
}

// Resolve finds the route for method and path.
//
// Routes are tried in order. A matching group route is returned immediately.
// For method-bound routes the first match per method is kept; when none is
// bound to method the result is a *message.MethodNotAllowedError listing the
// methods that did match, and when nothing matched a *message.NotFoundError.
func Resolve(routes []*Route, method, path string) (*Match, error) {
	path = Normalize(path)

	var (
		byMethod map[string]*Match
		allowed  []string
	)
	for _, r := range routes {
		params, rest, ok := r.Pattern.Match(path)
		if !ok {
			continue
		}

		m := &Match{Route: r, Params: params, Rest: rest}
		if r.IsGroup() {
			return m, nil
		}

		if byMethod == nil {
			byMethod = make(map[string]*Match)
		}
		if _, seen := byMethod[r.Method]; !seen {
			byMethod[r.Method] = m
			allowed = append(allowed, r.Method)
		}
	}

	if len(byMethod) == 0 {
		return nil, &message.NotFoundError{Path: "/" + path}
	}
	if m, ok := byMethod[method]; ok {
		return m, nil
	}
	return nil, &message.MethodNotAllowedError{Method: method, Path: "/" + path, Allowed: allowed}
}

// ResolveStore resolves the unmatched remainder stored in s. On success the
// extracted parameters are merged into the stored path parameters and the
// remainder is advanced; on a method mismatch the allowed methods are stored.
func ResolveStore(s *reqctx.Store, routes []*Route, method string) (*Match, error) {
	m, err := Resolve(routes, method, reqctx.UnmatchedRoute.Value(s))
	if err != nil {
		var mna *message.MethodNotAllowedError
		if errors.As(err, &mna) {
			reqctx.AllowMethods.Set(s, mna.Allowed)
		}
		return nil, err
	}

	params := maps.Clone(reqctx.PathParams.Value(s))
	if params == nil {
		params = make(map[string]string, len(m.Params))
	}
	maps.Copy(params, m.Params)
	reqctx.PathParams.Set(s, params)
	reqctx.UnmatchedRoute.Set(s, m.Rest)
	return m, nil
}
