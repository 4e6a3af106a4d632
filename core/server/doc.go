// Package server puts dispatch trees on net/http.
//
// NewHandler turns every *http.Request into a message.Request, hands it to a
// Dispatcher (normally a *dispatch.Group) and writes the message.Response
// back. Bodies are buffered up to DefaultMaxBodyBytes, adjustable through
// WithMaxBodyBytes; larger ones get 413 without reaching the dispatcher.
//
// Server owns the listener. Its Run method fits errgroup.Group.Go and stops
// the server gracefully once the context ends:
//
//	var cfg server.Config
//	config.MustLoad(&cfg)
//
//	srv, err := server.NewFromConfig(cfg, server.WithLogger(log))
//	if err != nil {
//		return err
//	}
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(srv.Run(ctx, server.NewHandler(api)))
//	return g.Wait()
//
// Serve does the same for a single dispatcher in one call.
package server
