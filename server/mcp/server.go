package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/w-h-a/reasoningbank/memory"
	"github.com/w-h-a/reasoningbank/server"
	toolhandler "github.com/w-h-a/reasoningbank/tool_handler"
)

type mcpServer struct {
	options   server.Options
	server    *mcpserver.MCPServer
	transport string
	in        io.Reader
	out       io.Writer
}

func (s *mcpServer) Run(ctx context.Context) error {
	switch s.transport {
	case TransportSSE:
		return s.runSSE(ctx)
	default:
		return s.runStdio(ctx)
	}
}

func (s *mcpServer) runStdio(ctx context.Context) error {
	stdio := mcpserver.NewStdioServer(s.server)

	slog.InfoContext(ctx, "mcp server listening on stdio")

	if err := stdio.Listen(ctx, s.in, s.out); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}

func (s *mcpServer) runSSE(ctx context.Context) error {
	sse := mcpserver.NewSSEServer(s.server)

	errCh := make(chan error, 1)

	go func() {
		slog.InfoContext(ctx, "mcp server listening on sse", "address", s.options.Address)
		if err := sse.Start(s.options.Address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.options.ShutdownTimeout)
	defer cancel()

	if err := sse.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(ctx, "failed to shut down mcp sse server", "error", err)
		return err
	}

	return nil
}

func (s *mcpServer) addTool(th toolhandler.ToolHandler) error {
	spec := th.Spec()

	schema, err := json.Marshal(spec.InputSchema)
	if err != nil {
		return fmt.Errorf("encode input schema of %s: %w", spec.Name, err)
	}

	tool := mcpgo.NewToolWithRawSchema(spec.Name, spec.Description, schema)

	s.server.AddTool(tool, func(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
		args := req.GetArguments()
		if args == nil {
			args = map[string]any{}
		}

		rsp, err := th.Invoke(ctx, toolhandler.ToolRequest{Arguments: args})
		if err != nil {
			if !errors.Is(err, memory.ErrInvalidRequest) {
				slog.ErrorContext(ctx, "tool call failed", "tool", spec.Name, "error", err)
			}
			if len(rsp.Content) == 0 {
				return mcpgo.NewToolResultError(err.Error()), nil
			}
			return mcpgo.NewToolResultError(rsp.Content), nil
		}

		return mcpgo.NewToolResultText(rsp.Content), nil
	})

	return nil
}

func NewServer(opts ...server.Option) (server.Server, error) {
	options := server.NewOptions(opts...)

	s := &mcpServer{
		options: options,
		server: mcpserver.NewMCPServer(
			options.Name,
			options.Version,
			mcpserver.WithToolCapabilities(false),
			mcpserver.WithRecovery(),
		),
		transport: TransportStdio,
		in:        os.Stdin,
		out:       os.Stdout,
	}

	if transport, ok := TransportFrom(options.Context); ok {
		if transport != TransportStdio && transport != TransportSSE {
			return nil, fmt.Errorf("%w: unknown mcp transport %q", memory.ErrConfiguration, transport)
		}
		s.transport = transport
	}

	if in, out, ok := StdioFrom(options.Context); ok {
		s.in = in
		s.out = out
	}

	for _, th := range options.ToolHandlers {
		if err := s.addTool(th); err != nil {
			return nil, err
		}
	}

	return s, nil
}
