// Package plugin implements the plugin event bus.
//
// A plugin is any value. It takes part in the request lifecycle by implementing
// capability interfaces (RequestProcessor, ResponseProcessor, ErrorHandler and
// their Async variants) or through callbacks bound in a Registry for a
// (target type, plugin type) pair.
//
// Targets are the things plugins are attached to, such as operations and
// groups. Emit visits targets nearest first and keeps at most one plugin per
// concrete type: a plugin on an operation shadows the same plugin type on its
// group.
//
//	res, err := session.Emit(ctx, plugin.ProcessRequest, plugin.ModeBlocking, req, op, group)
//
// Every callback returns a Result: Unchanged, Replace(value) or Redo(request).
// Streaming events feed each replacement to the next handler. Non-streaming
// events return the last replacement. A redo stops the event at once.
//
// Plugins that implement Instancer get a fresh instance per dispatch, created
// lazily by the Session the dispatch uses.
package plugin
