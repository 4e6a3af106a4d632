// Package binder binds request data to Go structs for typed operations and hooks.
//
// Each Binder reads one part of a message.Request:
//
//   - Path binds parameters extracted by route resolution (`path` tags)
//   - Query binds query string values (`query` tags)
//   - Header binds header values (`header` tags)
//   - JSON binds an application/json body with strict parsing and a size limit
//   - Form binds URL-encoded and multipart bodies (`form` and `file` tags)
//   - Body chooses JSON or Form from the content type
//
// Bind applies a chain of binders and reports failures as
// *message.ValidationError, which the engine answers with 400:
//
//	type GetArticle struct {
//		ID     int    `path:"id"`
//		Expand bool   `query:"expand"`
//		Locale string `header:"Accept-Language"`
//	}
//
//	var in GetArticle
//	if err := binder.Bind(ctx, req, &in); err != nil {
//		return nil, err
//	}
//
// Path parameter names declared with explicit tags are reported by PathFields,
// which lets route compilation reject placeholders that no field accepts.
//
// String values are sanitized: NUL bytes, CR/LF and control characters are
// removed. Uploaded file names are reduced to their base name.
package binder
