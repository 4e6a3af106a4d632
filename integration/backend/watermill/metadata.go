package watermill

import (
	"net/http"
	"strconv"
	"strings"

	wm "github.com/ThreeDotsLabs/watermill/message"
	"github.com/oklog/ulid/v2"

	"github.com/dmitrymomot/relay/core/message"
)

// Metadata keys understood by the adaptor.
const (
	MetadataMethod        = "relay_method"
	MetadataPath          = "relay_path"
	MetadataReplyTo       = "relay_reply_to"
	MetadataStatus        = "relay_status"
	MetadataCorrelationID = "relay_correlation_id"
)

// reserved reports whether a metadata key belongs to the adaptor or to
// Watermill itself rather than to the request headers.
func reserved(key string) bool {
	return strings.HasPrefix(key, "relay_") || strings.HasPrefix(key, "_watermill")
}

// RequestFromMessage translates msg. Metadata overrides method and path.
func RequestFromMessage(msg *wm.Message, method, path string) (*message.Request, error) {
	if m := msg.Metadata.Get(MetadataMethod); m != "" {
		method = m
	}
	if p := msg.Metadata.Get(MetadataPath); p != "" {
		path = p
	}

	req, err := message.NewRequest(method, path, []byte(msg.Payload))
	if err != nil {
		return nil, err
	}
	for k, v := range msg.Metadata {
		if reserved(k) {
			continue
		}
		req.Header.Set(k, v)
	}
	req.Native = msg
	return req, nil
}

// MessageFromRequest translates an outbound request.
func MessageFromRequest(req *message.Request) *wm.Message {
	msg := wm.NewMessage(newID(), wm.Payload(req.Body))
	for k := range req.Header {
		msg.Metadata.Set(k, req.Header.Get(k))
	}
	msg.Metadata.Set(MetadataMethod, req.Method)
	target := req.Path()
	if req.URL != nil && req.URL.RawQuery != "" {
		target += "?" + req.URL.RawQuery
	}
	msg.Metadata.Set(MetadataPath, target)
	return msg
}

// ReplyMessage translates resp into a reply to the message with id correlationID.
func ReplyMessage(resp *message.Response, correlationID string) *wm.Message {
	msg := wm.NewMessage(newID(), wm.Payload(resp.Body))
	for k := range resp.Header {
		msg.Metadata.Set(k, resp.Header.Get(k))
	}
	msg.Metadata.Set(MetadataStatus, strconv.Itoa(resp.Status))
	msg.Metadata.Set(MetadataCorrelationID, correlationID)
	return msg
}

// ResponseFromReply translates a reply published by a Consumer.
func ResponseFromReply(msg *wm.Message) *message.Response {
	status, err := strconv.Atoi(msg.Metadata.Get(MetadataStatus))
	if err != nil || status <= 0 {
		status = http.StatusOK
	}
	resp := message.NewResponse(status, []byte(msg.Payload))
	for k, v := range msg.Metadata {
		if reserved(k) {
			continue
		}
		resp.Header.Set(k, v)
	}
	return resp
}

func newID() string {
	return ulid.Make().String()
}
