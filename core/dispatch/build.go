package dispatch

import (
	"log/slog"
	"slices"

	"github.com/dmitrymomot/relay/core/hook"
	"github.com/dmitrymomot/relay/core/logger"
	"github.com/dmitrymomot/relay/core/route"
)

// Build attaches hooks to routes and freezes the tree rooted at g's root.
// It runs once; Serve calls it on first use.
func (g *Group) Build() {
	r := g.root()
	r.buildOnce.Do(func() {
		r.build(r.settings)
		r.built = true
	})
}

func (g *Group) build(s *settings) {
	routes := g.table.Routes()
	for _, r := range routes {
		switch h := r.Handler.(type) {
		case *Group:
			h.build(s)
		case *mountedApp:
			h.build(s)
		}
	}

	g.attachHooks(s.logger, routes)

	for _, r := range routes {
		if sub, ok := r.Handler.(*Group); ok {
			sub.mergeFar(r.Hooks)
		}
	}
}

// attachHooks tests every hook of g against every route of g. Error hooks
// attach lowest priority first, so on a shared claim the highest priority
// wins and, among equals, the latest declaration.
func (g *Group) attachHooks(log *slog.Logger, routes []*route.Route) {
	matched := make(map[*hook.Hook]bool, len(g.hooks))
	attach := func(h *hook.Hook) {
		for _, r := range routes {
			if h.Selector().Matches(r.Identities()...) {
				r.Hooks.Attach(h)
				matched[h] = true
			}
		}
	}

	ordered := slices.Clone(g.hooks)
	hook.Sort(ordered)
	for _, h := range ordered {
		if h.Kind() != hook.KindError {
			attach(h)
		}
	}

	ascending := slices.Clone(g.hooks)
	slices.SortStableFunc(ascending, func(a, b *hook.Hook) int {
		return a.Priority() - b.Priority()
	})
	for _, h := range ascending {
		if h.Kind() != hook.KindError {
			continue
		}
		attach(h)
		if h.Selector().Wildcard() {
			g.fallback.Attach(h)
		}
	}

	for _, h := range g.hooks {
		if h.Selector().Wildcard() && !matched[h] {
			log.Warn("wildcard hook matches no route",
				logger.Component("dispatch"),
				logger.Hook(h.Name()),
				slog.String("group", g.name))
		}
	}
}

// mergeFar folds the hooks of the mount route leading into g into every
// route beneath g. Wildcard hooks skip the routes they exclude at any depth.
func (g *Group) mergeFar(far hook.Set) {
	if far.Empty() {
		return
	}
	g.fallback = g.fallback.Merge(hook.Set{Errors: far.Errors})
	for _, r := range g.table.Routes() {
		scoped := far.Excluding(r.Identities()...)
		if sub, ok := r.Handler.(*Group); ok {
			sub.mergeFar(scoped)
			continue
		}
		r.Hooks = r.Hooks.Merge(scoped)
	}
}
