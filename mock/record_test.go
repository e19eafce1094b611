package mock

import (
	"context"
	"testing"

	"github.com/bradleyjkemp/cupaloy/v2"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
)

func TestFormatTranscript(t *testing.T) {
	messages := []Message{
		{ConnectionID: "conn-1", Kind: "text", Payload: []byte("hello")},
		{ConnectionID: "conn-2", Kind: "http", Payload: []byte(`{"n":1}`)},
	}
	assert.Equal(t,
		"1 text hello\n2 http {\"n\":1}\n",
		FormatTranscript(messages))
	assert.Equal(t, "", FormatTranscript(nil))
}

func TestReceivedGroupsByConnection(t *testing.T) {
	server := NewServer().Responses(
		map[string]interface{}{"n": 1},
		map[string]interface{}{"n": 2},
	)
	host, port, err := server.Start(context.Background())
	assert.NoError(t, err)
	defer server.Close()

	conn := dial(t, host, port)
	assert.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("one")))
	readJSON(t, conn)
	assert.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("two")))
	readJSON(t, conn)
	closeConn(t, conn)

	received := server.Received()
	assert.Len(t, received, 2)
	assert.Equal(t, "one", string(received[0].Payload))
	assert.Equal(t, "two", string(received[1].Payload))
	assert.Equal(t, received[0].ConnectionID, received[1].ConnectionID)
	assert.NotEmpty(t, received[0].ConnectionID)
}

func TestTranscriptSnapshot(t *testing.T) {
	server := NewServer().Responses(
		map[string]interface{}{"n": 1},
		map[string]interface{}{"n": 2},
	)
	host, port, err := server.Start(context.Background())
	assert.NoError(t, err)
	defer server.Close()

	conn := dial(t, host, port)
	assert.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("first")))
	readJSON(t, conn)
	assert.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("second")))
	readJSON(t, conn)
	closeConn(t, conn)

	cupaloy.SnapshotT(t, FormatTranscript(server.Received()))
}
