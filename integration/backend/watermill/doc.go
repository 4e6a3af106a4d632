// Package watermill serves dispatch groups from Watermill subscriptions and
// sends outbound client calls as Watermill messages.
//
// A Consumer subscribes to topics and turns every message into a request:
// the payload becomes the body, relay_method and relay_path metadata pick the
// route (falling back to the defaults of the subscription), and any other
// metadata becomes request headers. When a message names a reply topic in
// relay_reply_to and the consumer has a publisher, the response is published
// there with the original message id in relay_correlation_id.
//
// Messages answered with a 5xx status are nacked so the broker redelivers
// them; every other outcome acks.
//
//	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewSlogLogger(log))
//	consumer := relaywm.NewConsumer(pubSub, api, relaywm.WithPublisher(pubSub))
//	consumer.Handle("orders", http.MethodPost, "/orders")
//	err := consumer.Run(ctx)
//
// Backend implements client.Backend by publishing the request to a topic.
package watermill
