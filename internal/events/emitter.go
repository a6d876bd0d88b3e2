package events

import (
	"context"

	"github.com/wailsapp/wails/v2/pkg/runtime"
)

// Emit pushes a payload to the frontend. It is a no-op until
// EnableRuntimeEmitter runs inside a Wails context.
var Emit = func(ctx context.Context, name string, payload any) {}

func EnableRuntimeEmitter() {
	Emit = func(ctx context.Context, name string, payload any) {
		runtime.EventsEmit(ctx, name, payload)
		if n, ok := payload.(Notice); ok {
			logRuntimeEvent(ctx, n)
		}
	}
}

func SetCustomEmitter(f func(ctx context.Context, name string, payload any)) {
	if f == nil {
		Emit = func(context.Context, string, any) {}
		return
	}
	Emit = f
}
