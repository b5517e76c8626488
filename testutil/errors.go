/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

// Package testutil contains helpers for tests: channel and error chain assertions,
// Prometheus metric assertions and network helpers for servers started in tests.
package testutil

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stretchr/testify/require"
)

type tHelper interface {
	Helper()
}

// RequireNoErrorInChannel asserts that there is no error in buffered channel.
func RequireNoErrorInChannel(t require.TestingT, c <-chan error, msgAndArgs ...interface{}) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	var err error
	select {
	case err = <-c:
	default:
	}
	require.NoError(t, err, msgAndArgs...)
}

// RequireReceive waits for a value from the channel and fails the test if nothing is received within the timeout.
func RequireReceive[T any](t require.TestingT, c <-chan T, timeout time.Duration, msgAndArgs ...interface{}) T {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	select {
	case v := <-c:
		return v
	case <-time.After(timeout):
		require.FailNow(t, fmt.Sprintf("Nothing received from channel in %s", timeout), msgAndArgs...)
	}
	var zero T
	return zero
}

// RequireNoReceive fails the test if a value is received from the channel within the given duration.
func RequireNoReceive[T any](t require.TestingT, c <-chan T, d time.Duration, msgAndArgs ...interface{}) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	select {
	case v := <-c:
		require.FailNow(t, fmt.Sprintf("Unexpected value received from channel: %v", v), msgAndArgs...)
	case <-time.After(d):
	}
}

// RequireErrorIsAny asserts that at least one of the errors in err's chain matches at least one target.
// This is a wrapper for errors.Is.
func RequireErrorIsAny(t require.TestingT, err error, targets []error, msgAndArgs ...interface{}) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	for _, targetErr := range targets {
		if errors.Is(err, targetErr) {
			return
		}
	}
	var expectedErrTexts []string
	for _, targetErr := range targets {
		expectedErrTexts = append(expectedErrTexts, fmt.Sprintf("%q", targetErr.Error()))
	}
	require.FailNow(t, fmt.Sprintf("At least one target error should be in err chain:\n"+
		"expected: [%s]\n"+
		"in chain: %s", strings.Join(expectedErrTexts, "; "), buildErrorChainString(err),
	), msgAndArgs...)
}

func buildErrorChainString(err error) string {
	if err == nil {
		return ""
	}

	e := errors.Unwrap(err)
	chain := fmt.Sprintf("%q", err.Error())
	for e != nil {
		chain += fmt.Sprintf("\n\t%q", e.Error())
		e = errors.Unwrap(e)
	}
	return chain
}
