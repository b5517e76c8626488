/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package main

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/acronis/go-funnel/funnel"
	"github.com/acronis/go-funnel/log"
	"github.com/acronis/go-funnel/retry"
	"github.com/acronis/go-funnel/service"
)

// loadGenerator is a service.Worker running simulated clients.
type loadGenerator struct {
	cfg         *DemoConfig
	funnel      *funnel.Funnel
	connections *connectionRegistry
	logger      log.FieldLogger
	retryPolicy retry.Policy
}

var _ service.Worker = (*loadGenerator)(nil)

func newLoadGenerator(
	cfg *DemoConfig, f *funnel.Funnel, connections *connectionRegistry, logger log.FieldLogger,
) *loadGenerator {
	return &loadGenerator{
		cfg:         cfg,
		funnel:      f,
		connections: connections,
		logger:      logger,
		retryPolicy: retry.NewExponentialBackoffPolicy(cfg.RequestInterval, cfg.RetryAttempts),
	}
}

// Run runs simulated clients until ctx is canceled. Requests already admitted are left to the Funnel drain.
func (g *loadGenerator) Run(ctx context.Context) error {
	g.logger.Info("load generator is started", log.Int("clients", g.cfg.Clients))
	var wg sync.WaitGroup
	for i := 0; i < g.cfg.Clients; i++ {
		wg.Add(1)
		go func(clientNum int) {
			defer wg.Done()
			g.runClient(ctx, clientNum)
		}(i)
	}
	wg.Wait()
	g.logger.Info("load generator is stopped")
	return nil
}

func (g *loadGenerator) runClient(ctx context.Context, clientNum int) {
	user := &funnel.User{ID: "user-" + strconv.Itoa(clientNum)}
	if clientNum == 0 {
		user.Profiles = []string{"admin"}
	}
	var connNum int
	connID := g.reconnect(user.ID, connNum, "")

	ticker := time.NewTicker(g.cfg.RequestInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			g.connections.close(connID)
			return
		case <-ticker.C:
		}

		if rand.Float64() < g.cfg.ConnectionDropRate { //nolint:gosec // load simulation
			connNum++
			connID = g.reconnect(user.ID, connNum, connID)
		}

		reqCtx := funnel.RequestContext{ConnectionID: connID, Protocol: "demo", User: user}
		req, err := retry.Process(ctx, g.funnel, g.retryPolicy, func(err error, delay time.Duration) {
			g.logger.Debug("request is rejected, retrying",
				log.String("user_id", user.ID), log.Duration("delay", delay), log.Error(err))
		}, func() *funnel.Request {
			return g.newRandomRequest(reqCtx)
		})
		switch {
		case err != nil:
			if !errors.Is(err, context.Canceled) {
				g.logger.Warn("request is not admitted", log.String("user_id", user.ID), log.Error(err))
			}
		case req.Error != nil:
			g.logger.Debug("request failed", log.String("request_id", req.InternalID),
				log.String("action", req.Input.Action), log.Int("status", req.Status), log.Error(req.Error))
		default:
			g.logger.Debug("request is completed", log.String("request_id", req.InternalID),
				log.String("action", req.Input.Action), log.Int("status", req.Status))
		}
	}
}

func (g *loadGenerator) reconnect(userID string, connNum int, prevConnID string) string {
	if prevConnID != "" {
		g.connections.close(prevConnID)
	}
	connID := userID + "-conn-" + strconv.Itoa(connNum)
	g.connections.open(connID)
	return connID
}

func (g *loadGenerator) newRandomRequest(reqCtx funnel.RequestContext) *funnel.Request {
	var req *funnel.Request
	switch n := rand.Intn(10); { //nolint:gosec // load simulation
	case n == 0:
		req = funnel.NewRequest(controllerDocument, actionPurge)
	case n < 3:
		req = funnel.NewRequest(controllerDocument, actionMDelete)
		ids := make([]string, g.cfg.BatchSize)
		for i := range ids {
			ids[i] = "doc-" + strconv.Itoa(rand.Intn(1000)) //nolint:gosec // load simulation
		}
		req.Input.Args = map[string]interface{}{"ids": ids}
	default:
		req = funnel.NewRequest(controllerDocument, actionGet)
		req.Input.ID = "doc-" + strconv.Itoa(rand.Intn(1000)) //nolint:gosec // load simulation
	}
	req.Context = reqCtx
	return req
}
