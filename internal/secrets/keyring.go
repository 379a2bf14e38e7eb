// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Jasper Recall Contributors

package secrets

import (
	"encoding/json"
	"errors"
	"log/slog"

	recallerr "github.com/E-x-O-Entertainment-Studios-Inc/jasper-recall/pkg/errors"
	"github.com/zalando/go-keyring"
)

// indexSuffix names the keyring entry that holds the JSON list of key names
// stored for a service. go-keyring cannot enumerate keys on its own, so List
// is served from this side index.
const indexSuffix = "::keys-index"

// KeyringStore implements Store on top of the OS keyring: Keychain on macOS,
// secret-service over D-Bus on Linux, Credential Manager on Windows.
type KeyringStore struct{}

// NewKeyringStore returns a KeyringStore.
func NewKeyringStore() *KeyringStore {
	return &KeyringStore{}
}

func (s *KeyringStore) Store(service, key, value string) error {
	if err := checkArgs("store", service, key); err != nil {
		return err
	}

	if err := keyring.Set(service, key, value); err != nil {
		return recallerr.Wrapf(err, recallerr.CodeSecretStoreFailure, "storing secret %s/%s", service, key)
	}

	return s.indexAdd(service, key)
}

func (s *KeyringStore) Retrieve(service, key string) (string, error) {
	if err := checkArgs("retrieve", service, key); err != nil {
		return "", err
	}

	val, err := keyring.Get(service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", recallerr.Errorf(recallerr.CodeSecretNotFound, "secret %s/%s not found", service, key)
		}
		return "", recallerr.Wrapf(err, recallerr.CodeSecretStoreFailure, "retrieving secret %s/%s", service, key)
	}
	return val, nil
}

func (s *KeyringStore) Delete(service, key string) error {
	if err := checkArgs("delete", service, key); err != nil {
		return err
	}

	if err := keyring.Delete(service, key); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return recallerr.Errorf(recallerr.CodeSecretNotFound, "secret %s/%s not found", service, key)
		}
		return recallerr.Wrapf(err, recallerr.CodeSecretDeleteFailure, "deleting secret %s/%s", service, key)
	}

	return s.indexRemove(service, key)
}

func (s *KeyringStore) List(service string) ([]string, error) {
	return s.indexLoad(service)
}

func checkArgs(op, service, key string) error {
	if service == "" {
		return recallerr.Errorf(recallerr.CodeSecretInvalidInput, "secret %s: service must not be empty", op)
	}
	if key == "" {
		return recallerr.Errorf(recallerr.CodeSecretInvalidInput, "secret %s: key must not be empty", op)
	}
	return nil
}

func (s *KeyringStore) indexLoad(service string) ([]string, error) {
	raw, err := keyring.Get(service, service+indexSuffix)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, nil
		}
		return nil, recallerr.Wrapf(err, recallerr.CodeSecretListFailure, "loading key index for service %s", service)
	}

	var keys []string
	if err := json.Unmarshal([]byte(raw), &keys); err != nil {
		return nil, recallerr.Wrapf(err, recallerr.CodeSecretListFailure, "decoding key index for service %s", service)
	}
	return keys, nil
}

func (s *KeyringStore) indexSave(service string, keys []string) error {
	indexKey := service + indexSuffix

	// An empty index is represented by no entry at all.
	if len(keys) == 0 {
		if err := keyring.Delete(service, indexKey); err != nil {
			slog.Debug("failed to remove empty key index", "service", service, "error", err)
		}
		return nil
	}

	data, err := json.Marshal(keys)
	if err != nil {
		return recallerr.Wrapf(err, recallerr.CodeSecretListFailure, "encoding key index for service %s", service)
	}
	if err := keyring.Set(service, indexKey, string(data)); err != nil {
		return recallerr.Wrapf(err, recallerr.CodeSecretListFailure, "saving key index for service %s", service)
	}
	return nil
}

func (s *KeyringStore) indexAdd(service, key string) error {
	keys, err := s.indexLoad(service)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if k == key {
			return nil
		}
	}
	return s.indexSave(service, append(keys, key))
}

func (s *KeyringStore) indexRemove(service, key string) error {
	keys, err := s.indexLoad(service)
	if err != nil {
		return err
	}
	kept := keys[:0]
	for _, k := range keys {
		if k != key {
			kept = append(kept, k)
		}
	}
	return s.indexSave(service, kept)
}
