package mock

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/parser"
	"go.uber.org/zap"
)

// Message types defined by the graphql-transport-ws protocol.
const (
	graphqlWSTypeConnInit  = "connection_init"
	graphqlWSTypeConnAck   = "connection_ack"
	graphqlWSTypeSubscribe = "subscribe"
	graphqlWSTypeNext      = "next"
	graphqlWSTypeError     = "error"
	graphqlWSTypeComplete  = "complete"
)

type graphqlWSMessage struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type subscribePayload struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

var graphqlWSUpgrader = websocket.Upgrader{
	Subprotocols: []string{"graphql-transport-ws"},
	CheckOrigin:  func(*http.Request) bool { return true },
}

// serveGraphQLWS mocks a GraphQL subscription endpoint: it acks
// connection_init, and answers each subscribe with the next queued
// response as a single next message followed by complete. The payload
// query must parse as GraphQL, but is never executed against anything.
func (s *Server) serveGraphQLWS(w http.ResponseWriter, r *http.Request) {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	conn, err := graphqlWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	if !s.track(conn) {
		return
	}
	defer s.untrack(conn)

	connectionID := uuid.NewString()
	logger := s.logger.With(zap.String("conn", connectionID))
	logger.Info("client connected",
		zap.String("remote", conn.RemoteAddr().String()))

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived) {
				logger.Info("client closed connection")
			} else {
				logger.Warn("read failed", zap.Error(err))
			}
			return
		}

		var wsMessage graphqlWSMessage
		err = json.Unmarshal(message, &wsMessage)
		if err != nil {
			logger.Warn("unparseable message", zap.Error(err))
			closeMessage := websocket.FormatCloseMessage(
				websocket.CloseProtocolError, "expected a graphql-transport-ws message")
			_ = conn.WriteMessage(websocket.CloseMessage, closeMessage)
			return
		}

		switch wsMessage.Type {
		case graphqlWSTypeConnInit:
			err = writeGraphQLWS(conn, graphqlWSMessage{Type: graphqlWSTypeConnAck})
		case graphqlWSTypeSubscribe:
			s.record.add(connectionID, "subscribe", wsMessage.Payload)
			err = s.answerSubscribe(conn, logger, wsMessage)
		case graphqlWSTypeComplete:
			// The client is done with a subscription; nothing to clean
			// up on a replay server.
		default:
			logger.Info("ignoring message", zap.String("type", wsMessage.Type))
		}
		if err != nil {
			logger.Warn("write failed", zap.Error(err))
			return
		}
	}
}

func (s *Server) answerSubscribe(conn *websocket.Conn, logger *zap.Logger, wsMessage graphqlWSMessage) error {
	var payload subscribePayload
	err := json.Unmarshal(wsMessage.Payload, &payload)
	if err != nil {
		return writeGraphQLWSError(conn, wsMessage.ID,
			gqlerror.Errorf("invalid subscribe payload: %v", err))
	}

	_, graphqlError := parser.ParseQuery(&ast.Source{Input: payload.Query})
	if graphqlError != nil {
		logger.Info("rejecting unparseable query", zap.Error(graphqlError))
		return writeGraphQLWSError(conn, wsMessage.ID, graphqlError)
	}

	response, err := s.queue.pop()
	if err != nil {
		logger.Warn("subscribe with empty queue", zap.Error(err))
		return writeGraphQLWSError(conn, wsMessage.ID,
			gqlerror.Errorf("%v", err))
	}

	data, err := json.Marshal(map[string]interface{}{"data": response})
	if err != nil {
		return err
	}
	err = writeGraphQLWS(conn, graphqlWSMessage{
		ID:      wsMessage.ID,
		Type:    graphqlWSTypeNext,
		Payload: data,
	})
	if err != nil {
		return err
	}
	logger.Info("replayed response",
		zap.String("id", wsMessage.ID),
		zap.Int("remaining", s.queue.remaining()))
	return writeGraphQLWS(conn, graphqlWSMessage{
		ID:   wsMessage.ID,
		Type: graphqlWSTypeComplete,
	})
}

func writeGraphQLWSError(conn *websocket.Conn, id string, graphqlError *gqlerror.Error) error {
	payload, err := json.Marshal(gqlerror.List{graphqlError})
	if err != nil {
		return err
	}
	return writeGraphQLWS(conn, graphqlWSMessage{
		ID:      id,
		Type:    graphqlWSTypeError,
		Payload: payload,
	})
}

func writeGraphQLWS(conn *websocket.Conn, message graphqlWSMessage) error {
	jsonBytes, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, jsonBytes)
}
