package memorytools

import (
	"context"

	toolhandler "github.com/w-h-a/reasoningbank/tool_handler"
)

type engineKey struct{}

func WithEngine(e Engine) toolhandler.Option {
	return func(o *toolhandler.Options) {
		o.Context = context.WithValue(o.Context, engineKey{}, e)
	}
}

func EngineFrom(ctx context.Context) (Engine, bool) {
	e, ok := ctx.Value(engineKey{}).(Engine)
	return e, ok
}
