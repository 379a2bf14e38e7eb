// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Jasper Recall Contributors

// Package secrets stores embedding provider credentials outside of config
// files, backed by the OS keyring.
package secrets

// Store is the secret storage abstraction used by the secret command and by
// keyring:// config resolution.
type Store interface {
	// Store saves a secret value under the given service and key.
	Store(service, key, value string) error

	// Retrieve fetches the secret value for the given service and key.
	// Missing keys yield CodeSecretNotFound.
	Retrieve(service, key string) (string, error)

	// Delete removes the secret for the given service and key.
	// Missing keys yield CodeSecretNotFound.
	Delete(service, key string) error

	// List returns the key names stored under the given service.
	List(service string) ([]string, error)
}
