// Package hook implements before, after and error hooks attached to routes.
//
// A hook declares which routes it applies to with a Selector: an explicit list
// of route names, or a wildcard with exclusions. Hooks of one kind run strictly
// in attachment order, which follows declaration order sorted by priority.
//
//	api.Before(hook.Targets("create_user", "update_user"), requireAdmin)
//	api.After(hook.All("health"), addServerTiming)
//	api.OnError(hook.All(), renderNotFound, hook.Is(message.ErrRouteNotFound))
//
// When a group is mounted into a parent, the hooks attached to the mount route
// (far) are merged into every route of the child (near): far before-hooks run
// first, near after-hooks run first, and near error hooks win for the same claim.
//
// Error hooks claim errors by type (Type) or sentinel (Is). The hook whose claim
// matches at the shallowest depth of the unwrap chain wins. Control-flow signals
// such as redirects are only claimed by their exact type.
package hook
