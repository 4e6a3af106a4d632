// Package websocket serves dispatch groups over WebSocket connections and
// sends outbound client calls over them.
//
// Every text frame on a connection carries one JSON-encoded Frame. Request
// frames name a method, a path, headers and a body; the handler serves them
// in order and answers each with a response frame echoing the request id.
// Frames that cannot be decoded are answered with status 400 and the
// connection stays open.
//
//	mux.Handle("/ws", websocket.Handler(api, websocket.WithAllowAnyOrigin()))
//
// Backend is the other side: it implements client.Backend, multiplexing
// concurrent calls over one connection by frame id.
//
//	b, err := websocket.Dial(ctx, "ws://localhost:8080/ws", nil)
//	api := client.New(b)
package websocket
