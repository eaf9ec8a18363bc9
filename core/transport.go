package rt

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Transport is the connection a session runs over. The production
// implementation is a websocket; tests substitute channel-backed fakes via
// WithTransport.
type Transport interface {
	Connect(ctx context.Context, headers http.Header) error
	Send(data []byte, binary bool) error
	Receive() ([]byte, error)
	Close() error
}

type websocketTransport struct {
	url string

	mu   sync.Mutex
	conn *websocket.Conn
}

func newWebsocketTransport(rawURL, apiKey string) (*websocketTransport, error) {
	endpoint, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server url %q: %w", rawURL, err)
	}

	queryParams := endpoint.Query()
	if apiKey != "" {
		queryParams.Set("api_key", apiKey)
	}
	endpoint.RawQuery = queryParams.Encode()

	return &websocketTransport{url: endpoint.String()}, nil
}

func (t *websocketTransport) Connect(ctx context.Context, headers http.Header) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, t.url, headers)
	if err != nil {
		return fmt.Errorf("failed to open websocket: %w", err)
	}

	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()

	return nil
}

func (t *websocketTransport) Send(data []byte, binary bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return fmt.Errorf("websocket not connected")
	}

	messageType := websocket.TextMessage
	if binary {
		messageType = websocket.BinaryMessage
	}
	if err := t.conn.WriteMessage(messageType, data); err != nil {
		return fmt.Errorf("failed to write websocket message: %w", err)
	}
	return nil
}

func (t *websocketTransport) Receive() ([]byte, error) {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()

	if conn == nil {
		return nil, fmt.Errorf("websocket not connected")
	}

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		// The server never sends binary frames with meaning; skip anything
		// that is not text rather than feeding it to the codec.
		if messageType == websocket.TextMessage {
			return data, nil
		}
	}
}

func (t *websocketTransport) Close() error {
	t.mu.Lock()
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()

	if conn == nil {
		return nil
	}

	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))

	return conn.Close()
}
