// Package reqctx implements the per-request key/value store shared by every
// stage of one dispatch.
//
// A Store is created when a request enters the engine and is carried on the
// context.Context. Typed slots are declared once with NewVar and read or
// written through the Var methods:
//
//	var userID = reqctx.NewVar("user_id", reqctx.Spec[string]{})
//
//	userID.Set(store, "42")
//	id, err := userID.Get(store)
//
// A slot may declare a default value, a default factory, or a lazy factory that
// computes the value from other slots on first read. Cached factories store
// their result; static slots accept only the first write.
//
// A Store belongs to exactly one request and must not be shared between requests.
package reqctx
