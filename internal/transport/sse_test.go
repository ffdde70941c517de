package transport

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type sseEvent struct {
	name string
	data string
}

// readEvent consumes one server-sent event frame from the stream.
func readEvent(t *testing.T, r *bufio.Reader) sseEvent {
	t.Helper()
	var ev sseEvent
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			if ev.name != "" || ev.data != "" {
				return ev
			}
		case strings.HasPrefix(line, "event: "):
			ev.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			ev.data = strings.TrimPrefix(line, "data: ")
		}
	}
}

// openStream connects to /sse and returns the stream reader plus the message
// endpoint the server announced.
func openStream(t *testing.T, baseURL string) (*bufio.Reader, string) {
	t.Helper()
	resp, err := http.Get(baseURL + SSEPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	r := bufio.NewReader(resp.Body)
	ev := readEvent(t, r)
	require.Equal(t, "endpoint", ev.name)
	require.True(t, strings.HasPrefix(ev.data, MessagesPath+"?session_id="), "endpoint %q", ev.data)
	return r, baseURL + ev.data
}

func postMessage(t *testing.T, endpoint string, msg map[string]any) *http.Response {
	t.Helper()
	body, err := json.Marshal(msg)
	require.NoError(t, err)
	resp, err := http.Post(endpoint, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	_ = resp.Body.Close()
	return resp
}

func TestSSERequestResponseRoundTrip(t *testing.T) {
	ts := httptest.NewServer(NewSSEServer("ignored", newTestRouter()).Handler())
	t.Cleanup(ts.Close)

	stream, endpoint := openStream(t, ts.URL)

	resp := postMessage(t, endpoint, map[string]any{
		"jsonrpc": "2.0", "id": 1, "method": "initialize",
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	ev := readEvent(t, stream)
	require.Equal(t, "message", ev.name)

	var reply Message
	require.NoError(t, json.Unmarshal([]byte(ev.data), &reply))
	require.Equal(t, "2.0", reply.JSONRPC)
	require.Equal(t, "1", string(reply.ID))
	require.Nil(t, reply.Error)

	var init struct {
		ProtocolVersion string `json:"protocolVersion"`
	}
	require.NoError(t, json.Unmarshal(reply.Result, &init))
	require.Equal(t, ProtocolVersion, init.ProtocolVersion)
}

func TestSSEToolCallDeliveredOnStream(t *testing.T) {
	ts := httptest.NewServer(NewSSEServer("ignored", newTestRouter()).Handler())
	t.Cleanup(ts.Close)

	stream, endpoint := openStream(t, ts.URL)

	postMessage(t, endpoint, map[string]any{
		"jsonrpc": "2.0", "id": 7, "method": "tools/call",
		"params": map[string]any{"name": "get_uxplay_status", "arguments": map[string]any{}},
	})

	ev := readEvent(t, stream)
	var reply Message
	require.NoError(t, json.Unmarshal([]byte(ev.data), &reply))
	require.Equal(t, "7", string(reply.ID))

	var res struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	require.NoError(t, json.Unmarshal(reply.Result, &res))
	require.Equal(t, "UxPlay server status: Running (PID: 99)", res.Content[0].Text)
}

func TestSSENotificationProducesNoEvent(t *testing.T) {
	ts := httptest.NewServer(NewSSEServer("ignored", newTestRouter()).Handler())
	t.Cleanup(ts.Close)

	stream, endpoint := openStream(t, ts.URL)

	resp := postMessage(t, endpoint, map[string]any{
		"jsonrpc": "2.0", "method": "notifications/initialized",
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	// The next event on the stream must belong to the ping, not the
	// notification.
	postMessage(t, endpoint, map[string]any{"jsonrpc": "2.0", "id": 2, "method": "ping"})
	ev := readEvent(t, stream)
	var reply Message
	require.NoError(t, json.Unmarshal([]byte(ev.data), &reply))
	require.Equal(t, "2", string(reply.ID))
}

func TestSSEUnknownSession(t *testing.T) {
	ts := httptest.NewServer(NewSSEServer("ignored", newTestRouter()).Handler())
	t.Cleanup(ts.Close)

	resp := postMessage(t, ts.URL+MessagesPath+"?session_id=bogus", map[string]any{
		"jsonrpc": "2.0", "id": 1, "method": "ping",
	})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSSEInvalidBody(t *testing.T) {
	ts := httptest.NewServer(NewSSEServer("ignored", newTestRouter()).Handler())
	t.Cleanup(ts.Close)

	_, endpoint := openStream(t, ts.URL)
	u, err := url.Parse(endpoint)
	require.NoError(t, err)

	resp, err := http.Post(u.String(), "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSSEErrorResponseForUnknownMethod(t *testing.T) {
	ts := httptest.NewServer(NewSSEServer("ignored", newTestRouter()).Handler())
	t.Cleanup(ts.Close)

	stream, endpoint := openStream(t, ts.URL)
	postMessage(t, endpoint, map[string]any{
		"jsonrpc": "2.0", "id": 3, "method": "resources/list",
	})

	ev := readEvent(t, stream)
	var reply Message
	require.NoError(t, json.Unmarshal([]byte(ev.data), &reply))
	require.NotNil(t, reply.Error)
	require.Equal(t, CodeMethodNotFound, reply.Error.Code)
	require.Empty(t, reply.Result)
}

func TestSSEServerStartStop(t *testing.T) {
	s := NewSSEServer("127.0.0.1:0", newTestRouter())
	require.False(t, s.Running())

	s.Start()
	require.True(t, s.Running())
	s.Start() // second start is a no-op

	s.Stop(500 * time.Millisecond)
	require.False(t, s.Running())
	s.Stop(500 * time.Millisecond) // stop when stopped is a no-op
}

func TestSSEMetricsEndpoint(t *testing.T) {
	ts := httptest.NewServer(NewSSEServer("ignored", newTestRouter()).Handler())
	t.Cleanup(ts.Close)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
