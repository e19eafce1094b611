package mock

import (
	"fmt"
	"strings"
	"sync"
)

// Message is one entry in the server's transcript: something a client
// sent.
type Message struct {
	// ConnectionID groups messages that arrived over the same
	// connection. Each connection gets a fresh random ID.
	ConnectionID string
	// Kind is "text" (WebSocket), "http" (request body), or
	// "subscribe" (graphql-ws payload).
	Kind string
	// Payload is the raw bytes the client sent.
	Payload []byte
}

// transcript records everything clients send, in arrival order.
type transcript struct {
	mu       sync.Mutex
	messages []Message
}

func (tr *transcript) add(connectionID, kind string, payload []byte) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.messages = append(tr.messages, Message{
		ConnectionID: connectionID,
		Kind:         kind,
		Payload:      payload,
	})
}

func (tr *transcript) all() []Message {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	messages := make([]Message, len(tr.messages))
	copy(messages, tr.messages)
	return messages
}

// FormatTranscript renders messages one per line, numbered in arrival
// order. Connection IDs are omitted so the output is stable across
// runs; it's meant for test failure output and golden files.
func FormatTranscript(messages []Message) string {
	var sb strings.Builder
	for i, message := range messages {
		fmt.Fprintf(&sb, "%v %v %s\n", i+1, message.Kind, message.Payload)
	}
	return sb.String()
}
