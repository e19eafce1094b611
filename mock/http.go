package mock

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (s *Server) serveHTTP(w http.ResponseWriter, r *http.Request) {
	connectionID := uuid.NewString()
	logger := s.logger.With(zap.String("conn", connectionID))

	body, err := io.ReadAll(r.Body)
	if err != nil {
		logger.Warn("unreadable request body", zap.Error(err))
		http.Error(w, "unreadable request body", http.StatusBadRequest)
		return
	}
	s.record.add(connectionID, "http", body)

	response, err := s.queue.pop()
	if err != nil {
		logger.Warn("request with empty queue", zap.Error(err))
		http.Error(w, err.Error(), http.StatusGone)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	err = json.NewEncoder(w).Encode(response)
	if err != nil {
		logger.Warn("write failed", zap.Error(err))
		return
	}
	logger.Info("replayed response",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("remaining", s.queue.remaining()))
}
