/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package funnel

import (
	"context"
	"sync"
)

type ctxKey int

const (
	ctxKeyRequest ctxKey = iota
	ctxKeySlot
)

// executionSlot is the concurrency slot held by an admitted request while it runs.
type executionSlot struct {
	funnel *Funnel

	mu       sync.Mutex
	released int
}

// release gives the slot back to the Funnel. Nested calls release it once.
func (s *executionSlot) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released++; s.released == 1 {
		s.funnel.releaseSlot()
	}
}

// reacquire takes the slot again when the last nested release is undone.
func (s *executionSlot) reacquire() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released--; s.released == 0 {
		s.funnel.reacquireSlot()
	}
}

func getSlotFromContext(ctx context.Context, f *Funnel) *executionSlot {
	if slot, ok := ctx.Value(ctxKeySlot).(*executionSlot); ok && slot.funnel == f {
		return slot
	}
	return nil
}

// NewContextWithRequest creates a new context with the request being executed.
func NewContextWithRequest(ctx context.Context, req *Request) context.Context {
	return context.WithValue(ctx, ctxKeyRequest, req)
}

// GetRequestFromContext extracts the request being executed from the context.
// It returns nil if the context does not belong to an admitted request.
func GetRequestFromContext(ctx context.Context) *Request {
	value := ctx.Value(ctxKeyRequest)
	if value == nil {
		return nil
	}
	return value.(*Request)
}
