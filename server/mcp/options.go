package mcp

import (
	"context"
	"io"

	"github.com/w-h-a/reasoningbank/server"
)

const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
)

type transportKey struct{}

// WithTransport selects stdio (default) or sse.
func WithTransport(transport string) server.Option {
	return func(o *server.Options) {
		o.Context = context.WithValue(o.Context, transportKey{}, transport)
	}
}

func TransportFrom(ctx context.Context) (string, bool) {
	transport, ok := ctx.Value(transportKey{}).(string)
	return transport, ok
}

type stdioKey struct{}

type stdio struct {
	in  io.Reader
	out io.Writer
}

// WithStdio replaces os.Stdin and os.Stdout for the stdio transport.
func WithStdio(in io.Reader, out io.Writer) server.Option {
	return func(o *server.Options) {
		o.Context = context.WithValue(o.Context, stdioKey{}, stdio{in: in, out: out})
	}
}

func StdioFrom(ctx context.Context) (io.Reader, io.Writer, bool) {
	s, ok := ctx.Value(stdioKey{}).(stdio)
	return s.in, s.out, ok
}
