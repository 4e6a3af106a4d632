// Package client issues outbound calls through the same plugin machinery
// that serves inbound requests.
//
// A Client owns a Backend and client-wide plugins. Endpoints declare one
// method and path template each; every call expands the template, builds a
// message.Request and runs it through a chain that folds the endpoint's and
// the client's plugins around the backend. A plugin answering with a redo
// restarts the exchange, bounded by Preferences.ClientMaxRetryLoops and
// Preferences.MaxRetryTime.
//
//	backend, err := client.NewHTTPBackend("https://api.example.com/v1")
//	if err != nil {
//		return err
//	}
//	api := client.New(backend, client.WithPlugins(plugins.NewRetry(plugins.RetryConfig{MaxRetries: 3})))
//	getUser := api.MustEndpoint(http.MethodGet, "users/{id:int}")
//
//	user, err := client.CallJSON[User](ctx, getUser, client.Args{
//		Path: map[string]string{"id": "42"},
//	})
//
// Call runs on the calling goroutine; CallAsync runs the identical loop as
// one task and prefers the cooperative variants of plugin callbacks.
package client
