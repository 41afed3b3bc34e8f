// Package secrets reads and writes credentials in the OS keychain.
package secrets

import (
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/zalando/go-keyring"
)

// KeyringService groups leadwatch's entries in the OS keychain.
const KeyringService = "leadwatch"

// Well-known credential names.
const (
	OpenRouterAPIKey = "openrouter_api_key"
	AnthropicAPIKey  = "anthropic_api_key"
	DatabaseURL      = "database_url"
)

// Names lists the credentials leadwatch knows how to look up.
var Names = []string{OpenRouterAPIKey, AnthropicAPIKey, DatabaseURL}

// ErrNotFound is returned when no keychain entry exists for a name.
var ErrNotFound = eris.New("secrets: not found in keychain")

// Get returns the stored value for name.
func Get(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", eris.New("secrets: name is empty")
	}
	v, err := keyring.Get(KeyringService, name)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", eris.Wrapf(err, "secrets: get %s", name)
	}
	if strings.TrimSpace(v) == "" {
		return "", ErrNotFound
	}
	return v, nil
}

// Set stores value under name.
func Set(name, value string) error {
	if strings.TrimSpace(name) == "" {
		return eris.New("secrets: name is empty")
	}
	if strings.TrimSpace(value) == "" {
		return eris.New("secrets: value is empty")
	}
	return eris.Wrapf(keyring.Set(KeyringService, name, value), "secrets: set %s", name)
}

// Delete removes the entry for name.
func Delete(name string) error {
	if strings.TrimSpace(name) == "" {
		return eris.New("secrets: name is empty")
	}
	err := keyring.Delete(KeyringService, name)
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrNotFound
	}
	return eris.Wrapf(err, "secrets: delete %s", name)
}

// Known reports whether name is one of Names.
func Known(name string) bool {
	for _, n := range Names {
		if n == name {
			return true
		}
	}
	return false
}
