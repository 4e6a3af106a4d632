package response

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmitrymomot/relay/core/message"
)

// Options controls how FromError renders a response.
type Options struct {
	// Statuses resolves errors without a status of their own.
	Statuses *StatusTable
	// Debug adds the cause chain and any recorded stack to the body details.
	Debug bool
}

// Stacker is implemented by errors that captured a stack trace.
type Stacker interface {
	Stack() string
}

// FromError builds a response for an unhandled error. Redirect signals
// become Location responses; everything else becomes an HTTPError JSON body.
func FromError(err error, req *message.Request, opts Options) *message.Response {
	if err == nil {
		return message.NoContent()
	}

	var redirect *message.RedirectError
	if errors.As(err, &redirect) {
		resp := message.Redirect(redirect.StatusCode(), redirect.Location)
		resp.Request = req
		return resp
	}

	var mErr *message.Error
	if errors.As(err, &mErr) && mErr.Result != nil {
		if resp, rerr := message.FromResult(req, mErr.Result); rerr == nil {
			if resp.Status == http.StatusOK && mErr.Status > 0 {
				resp.Status = mErr.Status
			}
			return resp
		}
	}

	status := opts.Statuses.Status(err)
	body := httpErrorFor(err, status)
	if opts.Debug {
		body = body.WithDetails(debugDetails(err))
	}

	resp, encErr := message.JSON(status, body)
	if encErr != nil {
		resp = message.Text(status, body.Message)
	}
	for k, vs := range message.HeadersOf(err) {
		for _, v := range vs {
			resp.Header.Add(k, v)
		}
	}
	resp.Request = req
	return resp
}

// httpErrorFor keeps an HTTPError from the chain as is, else derives the body
// from the status. Client errors keep the error text as the message; server
// errors never leak it.
func httpErrorFor(err error, status int) HTTPError {
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.Status == 0 {
			httpErr.Status = status
		}
		return httpErr
	}
	base := ForStatus(status)
	if status < http.StatusInternalServerError {
		base.Message = err.Error()
	}
	if errors.Is(err, context.DeadlineExceeded) && status >= http.StatusInternalServerError {
		base.Message = "request timed out"
	}
	return base
}

func debugDetails(err error) map[string]any {
	chain := make([]string, 0, 4)
	for e := err; e != nil; e = errors.Unwrap(e) {
		chain = append(chain, e.Error())
	}
	details := map[string]any{"cause": chain}

	var st Stacker
	if errors.As(err, &st) {
		details["stack"] = st.Stack()
	}
	return details
}
