package websocket

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/dmitrymomot/relay/core/message"
	"github.com/dmitrymomot/relay/pkg/jsoncodec"
)

// ErrClosed is returned by calls on a closed Backend.
var ErrClosed = errors.New("websocket: connection closed")

// Backend sends outbound requests as frames over one WebSocket connection.
// Calls may run concurrently; replies are matched by frame id.
type Backend struct {
	conn *websocket.Conn

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string]chan Frame
	err     error
	done    chan struct{}
}

// Dial connects to a Handler at url.
func Dial(ctx context.Context, url string, header http.Header) (*Backend, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("websocket: dial %s: %w", url, err)
	}
	return NewBackend(conn), nil
}

// NewBackend takes over conn and starts reading replies from it.
func NewBackend(conn *websocket.Conn) *Backend {
	b := &Backend{
		conn:    conn,
		pending: make(map[string]chan Frame),
		done:    make(chan struct{}),
	}
	go b.readLoop()
	return b
}

// Do implements client.Backend.
func (b *Backend) Do(ctx context.Context, req *message.Request) (*message.Response, error) {
	id := uuid.NewString()
	replies := make(chan Frame, 1)

	b.mu.Lock()
	if b.err != nil {
		err := b.err
		b.mu.Unlock()
		return nil, err
	}
	b.pending[id] = replies
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		delete(b.pending, id)
		b.mu.Unlock()
	}()

	out, err := jsoncodec.Marshal(RequestFrame(id, req))
	if err != nil {
		return nil, fmt.Errorf("websocket: encode frame: %w", err)
	}
	b.writeMu.Lock()
	err = b.conn.WriteMessage(websocket.TextMessage, out)
	b.writeMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("websocket: write frame: %w", err)
	}

	select {
	case f := <-replies:
		resp := f.Response()
		resp.Request = req
		return resp, nil
	case <-b.done:
		return nil, b.closeErr()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close closes the connection. Calls in flight fail with ErrClosed.
func (b *Backend) Close() error {
	b.writeMu.Lock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = b.conn.WriteMessage(websocket.CloseMessage, msg)
	b.writeMu.Unlock()
	b.fail(ErrClosed)
	return b.conn.Close()
}

func (b *Backend) readLoop() {
	for {
		_, data, err := b.conn.ReadMessage()
		if err != nil {
			b.fail(fmt.Errorf("%w: %w", ErrClosed, err))
			return
		}
		var f Frame
		if err := jsoncodec.Unmarshal(data, &f); err != nil {
			continue
		}
		b.mu.Lock()
		replies, ok := b.pending[f.ID]
		b.mu.Unlock()
		if !ok {
			continue
		}
		select {
		case replies <- f:
		default:
		}
	}
}

func (b *Backend) fail(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return
	}
	b.err = err
	close(b.done)
}

func (b *Backend) closeErr() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}
