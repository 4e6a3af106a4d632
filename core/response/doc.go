// Package response turns unhandled dispatch errors into responses.
//
// FromError renders an error as a JSON HTTPError body:
//
//	{"code":"not_found","message":"route not found: /x"}
//
// The status comes from the error itself when it implements
// StatusCode() int, otherwise from a StatusTable, otherwise 500:
//
//	statuses := response.NewStatusTable().
//		RegisterIs(sql.ErrNoRows, http.StatusNotFound)
//	response.RegisterType[*json.SyntaxError](statuses, http.StatusBadRequest)
//
//	resp := response.FromError(err, req, response.Options{Statuses: statuses})
//
// Server error messages are replaced with the generic status text. With
// Options.Debug set, details carry the cause chain and, for recovered panics,
// the stack. Redirect signals produce a Location response instead of a body.
package response
