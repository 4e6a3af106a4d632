// Package dispatch is the request dispatch engine: operation groups, hook
// attachment, and the bounded retry loop that runs every request through
// plugins, hooks and the handler.
//
// A tree is built from groups:
//
//	api := dispatch.NewGroup("api")
//	api.Get("users/{id:int}", getUser, dispatch.Named("users.get"))
//	api.Before(hook.Targets("users.get"), requireAuth)
//
//	root := dispatch.NewGroup("root", dispatch.WithLogger(log))
//	root.Use(plugins.NewRequestID())
//	root.Mount("v1", api)
//
//	resp := root.Serve(ctx, req)
//
// Each request is resolved group by group. The matched operation runs
// BEFORE-HOOKS once, then PROCESS-REQUEST, EXECUTE, PROCESS-RESPONSE and
// AFTER-HOOKS. A plugin or hook that answers with a *message.Request asks
// for a redo: the loop restarts at PROCESS-REQUEST with that request, up to
// Preferences.MaxRetryLoops iterations and within Preferences.MaxRetryTime.
//
// Errors raised anywhere in the loop go to the most specific error hook,
// then to plugins handling plugin.HandleError. Errors nothing handles leave
// the group unchanged and are rendered by Serve with response.FromError.
//
// Operations registered with HandleAsync run in the cooperative model and
// prefer the async variants of plugin callbacks; Handle operations run in
// the blocking model. ServeAsync runs the whole dispatch as one task and
// returns a future.
//
// BuildChain folds plugin transformers around a bare Invoker with the same
// retry semantics. MountApp, MountHTTP and the outbound client use it.
package dispatch
