package mock

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	// Test clients dial from whatever origin their library fakes up.
	CheckOrigin: func(*http.Request) bool { return true },
}

func (s *Server) serveWebSocket(w http.ResponseWriter, r *http.Request) {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	conn, err := upgrader.Upgrade(w, r, nil)
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
		messageType, message, err := conn.ReadMessage()
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
		// Binary, ping and pong frames never consume a response.
		if messageType != websocket.TextMessage {
			continue
		}
		s.record.add(connectionID, "text", message)

		response, err := s.queue.pop()
		if err != nil {
			logger.Warn("closing connection", zap.Error(err))
			closeMessage := websocket.FormatCloseMessage(
				websocket.CloseInternalServerErr, err.Error())
			_ = conn.WriteMessage(websocket.CloseMessage, closeMessage)
			return
		}
		err = writeJSONMessage(conn, response)
		if err != nil {
			logger.Warn("write failed", zap.Error(err))
			return
		}
		logger.Info("replayed response",
			zap.Int("remaining", s.queue.remaining()))
	}
}

func writeJSONMessage(conn *websocket.Conn, object interface{}) error {
	jsonBytes, err := json.Marshal(object)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, jsonBytes)
}
