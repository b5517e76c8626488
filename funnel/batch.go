/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package funnel

import (
	"context"
	"fmt"
	"net/http"
	"sync"
)

// BatchItemAction is the action of sub-requests issued by BatchRunner.
const BatchItemAction = "batchItem"

// BatchOperation processes a single item of a batch.
type BatchOperation func(ctx context.Context, id string) error

// BatchResult is the aggregated outcome of a batch operation.
type BatchResult struct {
	// Successes contains ids of successfully processed items in the input order.
	Successes []string

	// PartialError is non-nil if at least one item failed.
	PartialError *PartialError
}

// Status returns http.StatusOK if every item succeeded and http.StatusPartialContent otherwise.
func (r *BatchResult) Status() int {
	if r.PartialError != nil {
		return http.StatusPartialContent
	}
	return http.StatusOK
}

// Err returns the partial error as an error value, or nil if every item succeeded.
func (r *BatchResult) Err() error {
	if r.PartialError == nil {
		return nil
	}
	return r.PartialError
}

// BatchRunner runs operations over many ids, admitting each item through the Funnel.
// Items compete for the same concurrency slots and pending queue as top-level requests.
type BatchRunner struct {
	funnel *Funnel
}

// NewBatchRunner creates a new BatchRunner.
func NewBatchRunner(f *Funnel) *BatchRunner {
	return &BatchRunner{funnel: f}
}

// Run applies op to every id and waits until all items are completed.
//
// A batch larger than the configured batch size is rejected with ErrBatchSizeExceeded before any item is tried.
// Every item is admitted independently: an item that cannot be queued because the buffer is full fails
// with ErrOverloaded, and one failure never aborts the others. Failed items are reported in
// BatchResult.PartialError, successful ones in BatchResult.Successes.
//
// Items inherit the connection and principal of the request carried by ctx, if any.
// They skip liveness, rate limiting and rights checks since the parent request has already passed them.
// When Run is called from a request admitted by the same Funnel, the parent gives its slot back while the items run
// and takes it again (ahead of queued requests) before Run returns, so items of nested batches always make progress.
func (br *BatchRunner) Run(ctx context.Context, kind string, ids []string, op BatchOperation) (*BatchResult, error) {
	if kind == "" {
		return nil, newMissingArgumentError("kind")
	}
	if op == nil {
		return nil, newMissingArgumentError("operation")
	}
	if limit := br.funnel.cfg.BatchSize; len(ids) > limit {
		return nil, NewError(ErrBatchSizeExceeded,
			fmt.Sprintf("Batch size limit exceeded: %d items given, at most %d allowed.", len(ids), limit)).
			AddContext("limit", limit).AddContext("size", len(ids))
	}

	var parentCtx *RequestContext
	if parent := GetRequestFromContext(ctx); parent != nil {
		parentCtx = &parent.Context
	}

	if slot := getSlotFromContext(ctx, br.funnel); slot != nil {
		slot.release()
		defer slot.reacquire()
	}

	itemErrs := make([]error, len(ids))
	var wg sync.WaitGroup
	wg.Add(len(ids))
	for i, id := range ids {
		i, id := i, id
		req := NewRequest(kind, BatchItemAction)
		req.Input.ID = id
		if parentCtx != nil {
			req.Context = *parentCtx
		}
		br.funnel.admit(&pendingItem{
			kind: pendingKindBatchItem,
			ctx:  ctx,
			req:  req,
			run: func(ctx context.Context, _ *Request) (interface{}, error) {
				return nil, op(ctx, id)
			},
			callback: newOnceCallback(func(err error, _ *Request) {
				itemErrs[i] = err
				wg.Done()
			}),
		})
	}

	doneCh := make(chan struct{})
	go func() {
		wg.Wait()
		close(doneCh)
	}()
	select {
	case <-doneCh:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	result := &BatchResult{Successes: make([]string, 0, len(ids))}
	var failed []ItemError
	for i, id := range ids {
		if itemErrs[i] != nil {
			failed = append(failed, ItemError{ID: id, Err: itemErrs[i]})
			continue
		}
		result.Successes = append(result.Successes, id)
	}
	if len(failed) != 0 {
		result.PartialError = &PartialError{
			Message: fmt.Sprintf("%d of %d items of %q batch failed", len(failed), len(ids), kind),
			Errors:  failed,
		}
	}
	return result, nil
}
