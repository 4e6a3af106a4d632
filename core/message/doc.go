// Package message defines the backend-neutral request and response values that
// flow through the dispatch engine, the Error wrapper handed to error hooks and
// plugins, and the error taxonomy with its status codes.
//
// Backend adaptors translate their native objects into Request and Response
// values (see FromHTTP, WriteHTTP and ResponseFromHTTP for net/http). Handler
// results are converted with FromResult: a *Response is used as is, strings
// and byte slices become plain bodies and everything else is encoded as JSON.
//
// Errors carry their own status through the StatusCoder interface:
//
//	return nil, &message.NotFoundError{Path: "/users/42"}  // 404
//	return nil, &message.ValidationError{Field: "email"}   // 400
//
// Sentinel values (ErrRouteNotFound, ErrMethodNotAllowed, ...) match the typed
// errors with errors.Is.
package message
