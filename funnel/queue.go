/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package funnel

import (
	"container/list"
	"context"
	"time"
)

type pendingKind int

const (
	pendingKindExecute pendingKind = iota
	pendingKindBatchItem
)

// pendingItem is a request deferred while the Funnel is overloaded.
type pendingItem struct {
	kind       pendingKind
	ctx        context.Context
	req        *Request
	run        func(ctx context.Context, req *Request) (interface{}, error)
	callback   Callback
	enqueuedAt time.Time
}

// pendingQueue keeps ids in arrival order and items by id.
// Its length always equals the number of stored items.
type pendingQueue struct {
	order *list.List
	byID  map[string]*pendingItem
}

func newPendingQueue() *pendingQueue {
	return &pendingQueue{order: list.New(), byID: make(map[string]*pendingItem)}
}

func (q *pendingQueue) len() int {
	return q.order.Len()
}

func (q *pendingQueue) has(id string) bool {
	_, ok := q.byID[id]
	return ok
}

// push appends the item. It returns false if an item with the same id is already queued.
func (q *pendingQueue) push(item *pendingItem) bool {
	if q.has(item.req.InternalID) {
		return false
	}
	q.order.PushBack(item.req.InternalID)
	q.byID[item.req.InternalID] = item
	return true
}

// pop removes and returns the head item, or nil if the queue is empty.
func (q *pendingQueue) pop() *pendingItem {
	front := q.order.Front()
	if front == nil {
		return nil
	}
	id := q.order.Remove(front).(string)
	item := q.byID[id]
	delete(q.byID, id)
	return item
}
