// Package route compiles path templates and resolves request paths to routes.
//
// Templates are relative paths with placeholders:
//
//	users/{id}                  // default pattern [^/]+
//	users/{id:int}              // alias: slug, int, uuid, path
//	files/{name:[a-z]{3}\.txt}  // raw regexp
//	articles/{id}/comments/{page?}
//
// A template with M optional trailing placeholders compiles into M+1
// alternatives. Truncating before an optional placeholder drops the literal
// divider that precedes it, so the template above also matches articles/42.
// In terminal routes a required placeholder may not follow an optional one.
//
// Group routes (no method) get one extra alternative capturing the rest of the
// path, which the nested handler resolves further.
//
// Resolve implements the lookup rules: group matches return immediately, the
// first match per method wins, and a path matched only under other methods
// yields a MethodNotAllowedError carrying the allowed set.
package route
