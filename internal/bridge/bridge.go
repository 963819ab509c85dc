package bridge

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/five82/stylefix/internal/fixes"
	"github.com/five82/stylefix/internal/injector"
)

// Namespace is the name hosts use to find the engine.
const Namespace = "forgeExperienceDesign"

// ErrAlreadyRegistered is returned when a second handle is registered.
var ErrAlreadyRegistered = errors.New("bridge: handle already registered")

// Handle is the host-facing control surface of one injector.
type Handle struct {
	Injector *injector.Injector
}

// New wraps inj in a Handle.
func New(inj *injector.Injector) *Handle {
	return &Handle{Injector: inj}
}

// Start begins polling. It reports false when the loop was already running.
func (h *Handle) Start(ctx context.Context) bool { return h.Injector.Start(ctx) }

// Stop halts polling.
func (h *Handle) Stop() { h.Injector.Stop() }

// ApplyFix applies fix outside the poll loop.
func (h *Handle) ApplyFix(ctx context.Context, fix *fixes.Fix) bool {
	return h.Injector.ApplyFix(ctx, fix)
}

// RollbackFix reverts one applied fix.
func (h *Handle) RollbackFix(ctx context.Context, id string) bool {
	return h.Injector.RollbackFix(ctx, id)
}

// ClearAll reverts every applied fix.
func (h *Handle) ClearAll(ctx context.Context) { h.Injector.ClearAll(ctx) }

var global atomic.Pointer[Handle]

// Register publishes h as the process-wide handle. Only the first call wins.
func Register(h *Handle) error {
	if h == nil {
		return errors.New("bridge: nil handle")
	}
	if !global.CompareAndSwap(nil, h) {
		return ErrAlreadyRegistered
	}
	return nil
}

// Global returns the registered handle, if any.
func Global() (*Handle, bool) {
	h := global.Load()
	return h, h != nil
}
