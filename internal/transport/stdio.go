package transport

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"

	"github.com/sourcegraph/jsonrpc2"
)

// ServeStdio runs one MCP session over the given byte channel using
// newline-delimited JSON-RPC framing. Requests are handled strictly in
// order; the call blocks until the peer disconnects or ctx is cancelled.
func ServeStdio(ctx context.Context, router *Router, rwc io.ReadWriteCloser) error {
	handler := jsonrpc2.HandlerWithError(func(ctx context.Context, _ *jsonrpc2.Conn, req *jsonrpc2.Request) (interface{}, error) {
		var params json.RawMessage
		if req.Params != nil {
			params = *req.Params
		}
		result, errObj := router.Handle(ctx, req.Method, params)
		if errObj != nil {
			return nil, &jsonrpc2.Error{Code: int64(errObj.Code), Message: errObj.Message}
		}
		if result == nil && req.Notif {
			return nil, nil
		}
		if result == nil {
			// A request (not a notification) for a fire-and-forget method
			// still gets an empty result so the peer's call completes.
			return map[string]any{}, nil
		}
		return result, nil
	})

	stream := jsonrpc2.NewBufferedStream(rwc, jsonrpc2.PlainObjectCodec{})
	conn := jsonrpc2.NewConn(ctx, stream, handler)
	slog.Info("stdio transport ready")

	select {
	case <-conn.DisconnectNotify():
		slog.Info("stdio transport closed by peer")
	case <-ctx.Done():
		_ = conn.Close()
	}
	return nil
}

// Stdio returns the process stdin/stdout pair as one channel. Closing it
// closes stdout only; stdin belongs to the OS.
func Stdio() io.ReadWriteCloser {
	return stdioPipe{Reader: os.Stdin, Writer: os.Stdout}
}

type stdioPipe struct {
	io.Reader
	io.Writer
}

func (stdioPipe) Close() error { return os.Stdout.Close() }
