/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

// Package logtest provides a recording log.FieldLogger implementation for asserting log output in tests.
package logtest
