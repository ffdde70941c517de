package transport

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pksorensen/uxplay-windows-mcp/internal/capture"
	"github.com/pksorensen/uxplay-windows-mcp/internal/supervisor"
	"github.com/pksorensen/uxplay-windows-mcp/internal/tool"
)

type stubSupervisor struct {
	running bool
	pid     int
}

func (s *stubSupervisor) Start() error { s.running = true; return nil }
func (s *stubSupervisor) Stop() error  { s.running = false; return nil }
func (s *stubSupervisor) Status() supervisor.Status {
	return supervisor.Status{Running: s.running, PID: s.pid}
}

type stubCapturer struct{}

func (stubCapturer) CaptureFrame() (*capture.Artifact, error) {
	return &capture.Artifact{Width: 2, Height: 2, PNG: []byte{0x89, 'P', 'N', 'G'}}, nil
}

func newTestRouter() *Router {
	disp := tool.NewDispatcher(&stubSupervisor{running: true, pid: 99}, stubCapturer{},
		tool.WithConfirmDelay(time.Millisecond))
	return NewRouter(disp, "uxplay-mcp-server", "1.0.0")
}

func TestHandleInitialize(t *testing.T) {
	r := newTestRouter()
	result, errObj := r.Handle(context.Background(), "initialize", nil)
	require.Nil(t, errObj)

	init, ok := result.(initializeResult)
	require.True(t, ok, "unexpected result type %T", result)
	require.Equal(t, ProtocolVersion, init.ProtocolVersion)
	require.Equal(t, "uxplay-mcp-server", init.ServerInfo.Name)
	require.Contains(t, init.Capabilities, "tools")
}

func TestHandleNotificationsProduceNoResponse(t *testing.T) {
	r := newTestRouter()
	for _, method := range []string{"notifications/initialized", "exit"} {
		result, errObj := r.Handle(context.Background(), method, nil)
		require.Nil(t, errObj, method)
		require.Nil(t, result, method)
	}
}

func TestHandlePing(t *testing.T) {
	r := newTestRouter()
	result, errObj := r.Handle(context.Background(), "ping", nil)
	require.Nil(t, errObj)
	require.NotNil(t, result)
}

func TestHandleToolsList(t *testing.T) {
	r := newTestRouter()
	result, errObj := r.Handle(context.Background(), "tools/list", nil)
	require.Nil(t, errObj)

	m, ok := result.(map[string]any)
	require.True(t, ok)
	descs, ok := m["tools"].([]tool.Descriptor)
	require.True(t, ok)
	require.Len(t, descs, 4)
}

func TestHandleToolsCall(t *testing.T) {
	r := newTestRouter()
	params, _ := json.Marshal(map[string]any{"name": tool.NameStatus, "arguments": map[string]any{}})
	result, errObj := r.Handle(context.Background(), "tools/call", params)
	require.Nil(t, errObj)

	res, ok := result.(*tool.Result)
	require.True(t, ok)
	require.False(t, res.IsError)
	require.Equal(t, "UxPlay server status: Running (PID: 99)", res.Content[0].Text)
}

func TestHandleToolsCallUnknownTool(t *testing.T) {
	r := newTestRouter()
	params, _ := json.Marshal(map[string]any{"name": "no_such_tool"})
	result, errObj := r.Handle(context.Background(), "tools/call", params)
	require.Nil(t, result)
	require.NotNil(t, errObj)
	require.Equal(t, CodeMethodNotFound, errObj.Code)
}

func TestHandleToolsCallBadParams(t *testing.T) {
	r := newTestRouter()
	result, errObj := r.Handle(context.Background(), "tools/call", json.RawMessage(`"not an object"`))
	require.Nil(t, result)
	require.NotNil(t, errObj)
	require.Equal(t, CodeInvalidParams, errObj.Code)
}

func TestHandleUnknownMethod(t *testing.T) {
	r := newTestRouter()
	result, errObj := r.Handle(context.Background(), "resources/list", nil)
	require.Nil(t, result)
	require.NotNil(t, errObj)
	require.Equal(t, CodeMethodNotFound, errObj.Code)
}
