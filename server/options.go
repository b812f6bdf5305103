package server

import (
	"context"
	"time"

	toolhandler "github.com/w-h-a/reasoningbank/tool_handler"
)

type Option func(*Options)

type Options struct {
	Name            string
	Version         string
	Address         string
	ToolHandlers    []toolhandler.ToolHandler
	ShutdownTimeout time.Duration
	Context         context.Context
}

func WithName(name string) Option {
	return func(o *Options) {
		o.Name = name
	}
}

func WithVersion(version string) Option {
	return func(o *Options) {
		o.Version = version
	}
}

func WithAddress(addr string) Option {
	return func(o *Options) {
		o.Address = addr
	}
}

func WithToolHandlers(handlers ...toolhandler.ToolHandler) Option {
	return func(o *Options) {
		o.ToolHandlers = append(o.ToolHandlers, handlers...)
	}
}

func WithShutdownTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.ShutdownTimeout = timeout
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		Name:            "reasoningbank",
		Version:         "dev",
		Address:         ":8080",
		ShutdownTimeout: 10 * time.Second,
		Context:         context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
