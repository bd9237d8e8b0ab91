package ai

import (
	"context"
	"io"
)

// Transport opens a streamable response body for a request. The body must
// already have been validated as a successful, readable stream; the caller
// owns it and closes it.
//
// OllamaTransport is the HTTP implementation. Tests and other backends can
// supply their own.
type Transport interface {
	Open(ctx context.Context, req Request) (io.ReadCloser, error)
}

// ModelLister is implemented by transports that can enumerate models and
// report the server version.
type ModelLister interface {
	Models(ctx context.Context) ([]Model, error)
	Version(ctx context.Context) (string, error)
}
