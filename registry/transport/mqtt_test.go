package transport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stl-run/stl/value"
)

func TestMQTTLink_WaitEventDecodesBufferedPayload(t *testing.T) {
	l := &MQTTLink{topic: "conn/ping", timeout: time.Second, inbox: make(chan []byte, 1)}
	l.inbox <- []byte(`{"text":"pong"}`)

	wait := l.WaitEvent(pingDecl())
	var out value.Value
	ok, err := wait(nil, []*value.Value{&out}, nil, nil)
	require.NoError(t, err)
	assert.True(t, ok)
	got, found := out.Message.Get("text")
	require.True(t, found)
	assert.Equal(t, "pong", got.Str)
}

func TestMQTTLink_WaitEventTimesOutWhenNothingBuffered(t *testing.T) {
	l := &MQTTLink{topic: "conn/ping", timeout: 10 * time.Millisecond, inbox: make(chan []byte, 1)}

	_, err := l.WaitEvent(pingDecl())(nil, nil, nil, nil)
	assert.Error(t, err)
}

func TestMQTTLink_SendEventRejectsNonMessageArg(t *testing.T) {
	l := &MQTTLink{topic: "conn/ping"}
	_, err := l.SendEvent([]value.Value{value.Int(1)}, nil, nil, nil)
	assert.Error(t, err)
}
