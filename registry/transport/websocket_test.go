package transport

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stl-run/stl/program"
	"github.com/stl-run/stl/value"
)

func pingDecl() *program.MessageDecl {
	return &program.MessageDecl{
		QualifiedName: "conn::Ping",
		Encoding:      program.EncodeJSON,
		Fields: []program.Field{
			{Name: "text", Type: program.Type{Kind: program.TString}, Multiplicity: program.Required},
		},
	}
}

func TestWebSocketLink_SendEventWritesEncodedFrame(t *testing.T) {
	decl := pingDecl()
	received := make(chan []byte, 1)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err)
		received <- raw
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	link, err := Dial(url, value.Codecs{})
	require.NoError(t, err)
	defer link.Conn.Close()

	msg := value.NewMessage(decl)
	require.NoError(t, msg.Set("text", value.String("ping")))

	ok, err := link.SendEvent([]value.Value{value.MessageVal(msg)}, nil, nil, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	raw := <-received
	assert.Contains(t, string(raw), `"text":"ping"`)
}

func TestWebSocketLink_WaitEventDecodesFrameAndWritesRef(t *testing.T) {
	decl := pingDecl()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte(`{"text":"pong"}`)))
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	link, err := Dial(url, value.Codecs{})
	require.NoError(t, err)
	defer link.Conn.Close()

	wait := link.WaitEvent(decl)
	var out value.Value
	ok, err := wait(nil, []*value.Value{&out}, nil, nil)
	require.NoError(t, err)
	assert.True(t, ok)
	require.Equal(t, value.KMessage, out.Kind)
	got, found := out.Message.Get("text")
	require.True(t, found)
	assert.Equal(t, "pong", got.Str)
}

func TestWebSocketLink_SendEventRejectsNonMessageArg(t *testing.T) {
	link := &WebSocketLink{}
	_, err := link.SendEvent([]value.Value{value.Int(1)}, nil, nil, nil)
	assert.Error(t, err)
}
