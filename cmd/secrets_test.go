package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/sells-group/leadwatch/internal/secrets"
)

func TestSecretsSetAndDelete(t *testing.T) {
	keyring.MockInit()

	cmd, buf := outputCmd()
	require.NoError(t, secretsSetCmd.RunE(cmd, []string{secrets.OpenRouterAPIKey, "sk-or-123"}))
	assert.Contains(t, buf.String(), "stored openrouter_api_key")

	v, err := secrets.Get(secrets.OpenRouterAPIKey)
	require.NoError(t, err)
	assert.Equal(t, "sk-or-123", v)

	require.NoError(t, secretsDeleteCmd.RunE(cmd, []string{secrets.OpenRouterAPIKey}))
	_, err = secrets.Get(secrets.OpenRouterAPIKey)
	assert.ErrorIs(t, err, secrets.ErrNotFound)
}

func TestSecretsSet_FromStdin(t *testing.T) {
	keyring.MockInit()

	cmd, _ := outputCmd()
	cmd.SetIn(strings.NewReader("postgres://localhost/leads\n"))
	require.NoError(t, secretsSetCmd.RunE(cmd, []string{secrets.DatabaseURL}))

	v, err := secrets.Get(secrets.DatabaseURL)
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/leads", v)
}

func TestSecrets_UnknownName(t *testing.T) {
	keyring.MockInit()

	cmd, _ := outputCmd()
	err := secretsSetCmd.RunE(cmd, []string{"github_token", "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown secret")

	err = secretsDeleteCmd.RunE(cmd, []string{"github_token"})
	require.Error(t, err)
}
