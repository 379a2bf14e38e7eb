// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Jasper Recall Contributors

package secrets_test

import (
	"testing"

	"github.com/E-x-O-Entertainment-Studios-Inc/jasper-recall/internal/secrets"
	recallerr "github.com/E-x-O-Entertainment-Studios-Inc/jasper-recall/pkg/errors"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsKeyringURI(t *testing.T) {
	assert.True(t, secrets.IsKeyringURI("keyring://jasper-recall/openai-api-key"))
	assert.False(t, secrets.IsKeyringURI("sk-plain-value"))
	assert.False(t, secrets.IsKeyringURI(""))
	assert.False(t, secrets.IsKeyringURI("keyring:/missing-slash"))
}

func TestParseKeyringURI(t *testing.T) {
	tests := []struct {
		name    string
		uri     string
		service string
		key     string
		wantErr bool
	}{
		{name: "valid", uri: "keyring://jasper-recall/openai-api-key", service: "jasper-recall", key: "openai-api-key"},
		{name: "key with slashes", uri: "keyring://svc/path/to/key", service: "svc", key: "path/to/key"},
		{name: "not a uri", uri: "plain", wantErr: true},
		{name: "missing key", uri: "keyring://svc", wantErr: true},
		{name: "empty service", uri: "keyring:///key", wantErr: true},
		{name: "empty key", uri: "keyring://svc/", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, key, err := secrets.ParseKeyringURI(tt.uri)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, recallerr.HasCode(err, recallerr.CodeSecretInvalidInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.service, service)
			assert.Equal(t, tt.key, key)
		})
	}
}

func TestResolveKeyringURI(t *testing.T) {
	ks := secrets.NewKeyringStore()
	require.NoError(t, ks.Store("resolve-test", "api-key", "sk-resolved"))

	val, err := secrets.ResolveKeyringURI(ks, "keyring://resolve-test/api-key")
	require.NoError(t, err)
	assert.Equal(t, "sk-resolved", val)

	// Non-URI values pass through untouched.
	val, err = secrets.ResolveKeyringURI(ks, "sk-literal")
	require.NoError(t, err)
	assert.Equal(t, "sk-literal", val)

	_, err = secrets.ResolveKeyringURI(ks, "keyring://resolve-test/absent")
	require.Error(t, err)
	assert.True(t, recallerr.HasCode(err, recallerr.CodeSecretResolveFailure))
}

func TestResolveViperSecrets(t *testing.T) {
	ks := secrets.NewKeyringStore()
	require.NoError(t, ks.Store("viper-test", "openai-api-key", "sk-from-keyring"))

	v := viper.New()
	v.Set("embedding.api_key", "keyring://viper-test/openai-api-key")
	v.Set("embedding.model", "text-embedding-3-small")

	secrets.ResolveViperSecrets(v, ks)

	assert.Equal(t, "sk-from-keyring", v.GetString("embedding.api_key"))
	assert.Equal(t, "text-embedding-3-small", v.GetString("embedding.model"))
}

func TestResolveViperSecretsMissingSecretKeepsURI(t *testing.T) {
	ks := secrets.NewKeyringStore()

	v := viper.New()
	v.Set("embedding.api_key", "keyring://viper-test/does-not-exist")

	secrets.ResolveViperSecrets(v, ks)

	// The unresolvable URI stays so the failure surfaces at point of use.
	assert.Equal(t, "keyring://viper-test/does-not-exist", v.GetString("embedding.api_key"))
}
