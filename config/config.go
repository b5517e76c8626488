/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

// Package config provides loading of typed configuration structures from files (YAML, JSON)
// and environment variables. Every configuration structure implements the Config interface
// and may be bound to a key prefix via KeyPrefixProvider.
package config

// Config is a common interface for configuration objects that may be used by Loader.
type Config interface {
	SetProviderDefaults(dp DataProvider)
	Set(dp DataProvider) error
}

// KeyPrefixProvider is an interface for providing key prefix that will be used for configuration parameters.
type KeyPrefixProvider interface {
	KeyPrefix() string
}

// Validator is implemented by configuration objects that check their values after loading.
type Validator interface {
	Validate() error
}
