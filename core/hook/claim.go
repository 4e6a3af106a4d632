package hook

import (
	"fmt"
	"reflect"

	"github.com/dmitrymomot/relay/core/message"
)

// Claim decides whether an error hook handles an error.
type Claim interface {
	// Key identifies the claim when merging error hooks.
	Key() string
	// Depth returns the shallowest depth in err's unwrap chain the claim matches at.
	Depth(err error) (int, bool)
}

var signalType = reflect.TypeFor[message.Signal]()

type typeClaim struct {
	typ reflect.Type
}

// Type claims errors assignable to E anywhere in the unwrap chain.
// Signals are claimed only when E is their exact type.
func Type[E error]() Claim {
	return typeClaim{typ: reflect.TypeFor[E]()}
}

func (c typeClaim) Key() string { return "type:" + c.typ.String() }

func (c typeClaim) Depth(err error) (int, bool) {
	r, ok := c.rank(err)
	return r.depth, ok
}

// rank marks matches through interface assignability as loose, so an exact
// type claim at the same depth outranks them.
func (c typeClaim) rank(err error) (specificity, bool) {
	return search(err, 0, func(e error) (bool, bool) {
		t := reflect.TypeOf(e)
		if t == c.typ {
			return true, false
		}
		if t.Implements(signalType) {
			return false, false
		}
		ok := c.typ.Kind() == reflect.Interface && t.Implements(c.typ)
		return ok, ok
	})
}

type isClaim struct {
	target error
	key    string
}

// Is claims errors equal to target anywhere in the unwrap chain, honoring Is methods.
func Is(target error) Claim {
	key := fmt.Sprintf("is:%T:%v", target, target)
	if v := reflect.ValueOf(target); v.Kind() == reflect.Pointer {
		key = fmt.Sprintf("is:%T:%x", target, v.Pointer())
	}
	return isClaim{target: target, key: key}
}

func (c isClaim) Key() string { return c.key }

func (c isClaim) Depth(err error) (int, bool) {
	r, ok := search(err, 0, func(e error) (bool, bool) {
		if reflect.TypeOf(e).Comparable() && e == c.target {
			return true, false
		}
		x, ok := e.(interface{ Is(error) bool })
		return ok && x.Is(c.target), false
	})
	return r.depth, ok
}

type anyClaim struct{}

// Any claims every error except control-flow signals.
func Any() Claim { return anyClaim{} }

func (anyClaim) Key() string { return "*" }

func (anyClaim) Depth(err error) (int, bool) {
	if err == nil || isSignal(err) {
		return 0, false
	}
	// Matches at the deepest level so any specific claim takes precedence.
	return maxDepth, true
}

const maxDepth = 1 << 16

func isSignal(err error) bool {
	_, ok := err.(message.Signal)
	return ok
}

// specificity orders claim matches: shallower first, then exact before loose.
type specificity struct {
	depth int
	loose bool
}

func (a specificity) less(b specificity) bool {
	if a.depth != b.depth {
		return a.depth < b.depth
	}
	return !a.loose && b.loose
}

// rankOf scores how specifically c claims err.
func rankOf(c Claim, err error) (specificity, bool) {
	if r, ok := c.(interface {
		rank(error) (specificity, bool)
	}); ok {
		return r.rank(err)
	}
	d, ok := c.Depth(err)
	return specificity{depth: d}, ok
}

func search(err error, depth int, match func(error) (ok, loose bool)) (specificity, bool) {
	if err == nil {
		return specificity{}, false
	}
	if ok, loose := match(err); ok {
		return specificity{depth: depth, loose: loose}, true
	}

	switch x := err.(type) {
	case interface{ Unwrap() error }:
		return search(x.Unwrap(), depth+1, match)
	case interface{ Unwrap() []error }:
		var (
			best  specificity
			found bool
		)
		for _, e := range x.Unwrap() {
			if r, ok := search(e, depth+1, match); ok && (!found || r.less(best)) {
				best, found = r, true
			}
		}
		return best, found
	}
	return specificity{}, false
}
