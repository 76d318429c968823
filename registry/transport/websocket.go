// Package transport implements reference external event transports over
// real wire protocols: a WebSocket-backed event pair and an MQTT-backed
// event pair, so a conformance test can exercise an implementation over
// the same protocol it runs in production rather than only in-process.
package transport

import (
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/stl-run/stl/program"
	"github.com/stl-run/stl/registry"
	"github.com/stl-run/stl/value"
)

// WebSocketLink is a single open connection an external event fires
// messages over and waits for messages on. SendEvent encodes per the
// message's declared MessageDecl encoding via codecs; WaitEvent decodes
// every received frame as JSON, whatever encoding decl declares.
type WebSocketLink struct {
	Conn    *websocket.Conn
	Codecs  value.Codecs
	Timeout time.Duration
}

// Dial opens a WebSocketLink to url.
func Dial(url string, codecs value.Codecs) (*WebSocketLink, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", url, err)
	}
	return &WebSocketLink{Conn: conn, Codecs: codecs, Timeout: 10 * time.Second}, nil
}

// Close closes the underlying WebSocket connection, mirroring MQTTLink's
// Close so a caller managing several transport links can treat them alike.
func (l *WebSocketLink) Close() error { return l.Conn.Close() }

// SendEvent encodes args[0] (expected to be the sole message argument of
// an external event) and writes it as a single binary WebSocket frame.
// source and target identify the transition event's two roles; this link
// is dedicated to one connection so it does not route on them, but a
// multi-connection link could dial/select a connection keyed off
// target.QualifiedName().
func (l *WebSocketLink) SendEvent(args []value.Value, refs []*value.Value, source, target registry.RoleContext) (bool, error) {
	if len(args) != 1 || args[0].Kind != value.KMessage {
		return false, fmt.Errorf("transport: websocket event expects a single message argument")
	}
	enc, err := value.Encode(l.Codecs, args[0].Message)
	if err != nil {
		return false, err
	}
	if err := l.Conn.WriteMessage(websocket.BinaryMessage, enc); err != nil {
		return false, fmt.Errorf("transport: write: %w", err)
	}
	return true, nil
}

// WaitEvent blocks for one binary frame, decodes it as JSON against decl, and
// writes the decoded message back into refs[0], if the event declared a
// by-reference out-parameter for the received message.
func (l *WebSocketLink) WaitEvent(decl *program.MessageDecl) registry.EventFunc {
	return func(args []value.Value, refs []*value.Value, source, target registry.RoleContext) (bool, error) {
		if l.Timeout > 0 {
			_ = l.Conn.SetReadDeadline(time.Now().Add(l.Timeout))
		}
		_, raw, err := l.Conn.ReadMessage()
		if err != nil {
			return false, fmt.Errorf("transport: read: %w", err)
		}
		m, err := value.DecodeJSON(decl, raw)
		if err != nil {
			return false, err
		}
		if len(refs) > 0 {
			*refs[0] = value.MessageVal(m)
		}
		return true, nil
	}
}
