/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/acronis/go-funnel/funnel"
	"github.com/acronis/go-funnel/log"
)

const (
	controllerDocument = "document"

	actionGet     = "get"
	actionMDelete = "mDelete"
	actionPurge   = "purge"
)

var errDocumentLocked = errors.New("document is locked")

// demoApp is a funnel.Executor simulating a document storage.
type demoApp struct {
	cfg         *DemoConfig
	logger      log.FieldLogger
	batchRunner *funnel.BatchRunner
}

func newDemoApp(cfg *DemoConfig, logger log.FieldLogger) *demoApp {
	return &demoApp{cfg: cfg, logger: logger}
}

func (a *demoApp) Run(ctx context.Context, req *funnel.Request) (interface{}, error) {
	switch req.Input.Action {
	case actionGet:
		a.simulateWork(ctx)
		return map[string]string{"id": req.Input.ID}, nil
	case actionMDelete:
		ids, _ := req.Input.Args["ids"].([]string)
		res, err := a.batchRunner.Run(ctx, "delete", ids, a.deleteDocument)
		if err != nil {
			return nil, err
		}
		if res.PartialError != nil {
			a.logger.Info("documents are deleted partially",
				log.Int("deleted", len(res.Successes)), log.Int("failed", len(res.PartialError.Errors)))
		}
		return res, res.Err()
	case actionPurge:
		a.simulateWork(ctx)
		return nil, nil
	}
	return nil, &funnel.Error{
		Status: http.StatusNotFound, Code: "unknownAction", Message: fmt.Sprintf("Unknown action %q.", req.Input.Action)}
}

func (a *demoApp) deleteDocument(ctx context.Context, id string) error {
	a.simulateWork(ctx)
	if rand.Float64() < a.cfg.LockedItemRate { //nolint:gosec // load simulation
		return errDocumentLocked
	}
	return nil
}

func (a *demoApp) simulateWork(ctx context.Context) {
	if a.cfg.ExecutionTime <= 0 {
		return
	}
	jitter := time.Duration(rand.Int63n(int64(a.cfg.ExecutionTime))) //nolint:gosec // load simulation
	t := time.NewTimer(a.cfg.ExecutionTime/2 + jitter)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// checkRights allows purging only for users with the "admin" profile.
func checkRights(_ context.Context, req *funnel.Request) error {
	if req.Input.Action != actionPurge {
		return nil
	}
	if u := req.Context.User; u != nil {
		for _, p := range u.Profiles {
			if p == "admin" {
				return nil
			}
		}
	}
	return &funnel.Error{Status: http.StatusForbidden, Code: "forbidden", Message: "Not enough rights to purge documents."}
}

// connectionRegistry tracks connections of simulated clients.
type connectionRegistry struct {
	mu    sync.RWMutex
	alive map[string]struct{}
}

func newConnectionRegistry() *connectionRegistry {
	return &connectionRegistry{alive: make(map[string]struct{})}
}

func (r *connectionRegistry) open(id string) {
	r.mu.Lock()
	r.alive[id] = struct{}{}
	r.mu.Unlock()
}

func (r *connectionRegistry) close(id string) {
	r.mu.Lock()
	delete(r.alive, id)
	r.mu.Unlock()
}

func (r *connectionRegistry) IsConnectionAlive(connectionID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.alive[connectionID]
	return ok
}
