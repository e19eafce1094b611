package mock

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func httpEndpoint(host string, port int, path string) string {
	return fmt.Sprintf("http://%v:%v%v", host, port, path)
}

func TestHTTPReplaysResponsesInOrder(t *testing.T) {
	server := NewServer().Mode(HTTP).Responses(
		map[string]interface{}{"hello": "world"},
		map[string]interface{}{"hello": "france"},
	)
	host, port, err := server.Start(context.Background())
	assert.NoError(t, err)
	defer server.Close()

	client := &http.Client{}
	defer client.CloseIdleConnections()

	resp, err := client.Post(
		httpEndpoint(host, port, "/query"),
		"application/json",
		strings.NewReader(`{"ask":"first"}`))
	assert.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"hello":"world"}`, string(body))

	// Method and path are irrelevant; only arrival order matters.
	resp, err = client.Get(httpEndpoint(host, port, "/a/completely/different/path"))
	assert.NoError(t, err)
	body, err = io.ReadAll(resp.Body)
	assert.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"hello":"france"}`, string(body))
}

func TestHTTPGoneWhenExhausted(t *testing.T) {
	server := NewServer().Mode(HTTP).Responses(map[string]interface{}{"only": "one"})
	host, port, err := server.Start(context.Background())
	assert.NoError(t, err)
	defer server.Close()

	client := &http.Client{}
	defer client.CloseIdleConnections()

	resp, err := client.Get(httpEndpoint(host, port, "/"))
	assert.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = client.Get(httpEndpoint(host, port, "/"))
	assert.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusGone, resp.StatusCode)
	assert.Contains(t, string(body), "no mocked responses left")
	assert.Contains(t, string(body), "1 served")
}

func TestHTTPRecordsRequestBodies(t *testing.T) {
	server := NewServer().Mode(HTTP).Responses(
		map[string]interface{}{"ok": true},
		map[string]interface{}{"ok": true},
	)
	host, port, err := server.Start(context.Background())
	assert.NoError(t, err)
	defer server.Close()

	client := &http.Client{}
	defer client.CloseIdleConnections()

	for _, payload := range []string{`{"n":1}`, `{"n":2}`} {
		resp, err := client.Post(
			httpEndpoint(host, port, "/"),
			"application/json",
			strings.NewReader(payload))
		assert.NoError(t, err)
		resp.Body.Close()
	}

	received := server.Received()
	assert.Len(t, received, 2)
	assert.Equal(t, "http", received[0].Kind)
	assert.Equal(t, `{"n":1}`, string(received[0].Payload))
	assert.Equal(t, `{"n":2}`, string(received[1].Payload))
	// Each HTTP request counts as its own connection.
	assert.NotEqual(t, received[0].ConnectionID, received[1].ConnectionID)
}
