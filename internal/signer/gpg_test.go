package signer

import (
	"strings"
	"testing"

	"github.com/rpmtool/rpm-tool/internal/config"
)

func TestNewGPGSignerFromConfigFallsBackToConfiguredKeyPath(t *testing.T) {
	sc := config.SignConfig{KeyPath: "/nonexistent/signing.key"}

	_, err := NewGPGSignerFromConfig(sc, "", "")
	if err == nil {
		t.Fatalf("expected an error opening a nonexistent key file")
	}
	if !strings.Contains(err.Error(), sc.KeyPath) {
		t.Fatalf("expected error to reference the config-provided key path %q, got: %v", sc.KeyPath, err)
	}
}

func TestNewGPGSignerFromConfigFlagKeyPathWins(t *testing.T) {
	sc := config.SignConfig{KeyPath: "/from/config.key"}

	_, err := NewGPGSignerFromConfig(sc, "/from/flag.key", "")
	if err == nil {
		t.Fatalf("expected an error opening a nonexistent key file")
	}
	if !strings.Contains(err.Error(), "/from/flag.key") {
		t.Fatalf("expected the flag-supplied key path to take precedence, got: %v", err)
	}
}

func TestNewGPGSignerFromConfigReadsPassphraseFromEnv(t *testing.T) {
	const envVar = "RPM_TOOL_TEST_GPG_PASSPHRASE"
	t.Setenv(envVar, "hunter2")

	sc := config.SignConfig{KeyPath: "/nonexistent/signing.key", PassphraseEnv: envVar}

	// The key file doesn't exist, so this still fails before the passphrase
	// is ever used; this only exercises that NewGPGSignerFromConfig reads
	// the env var without panicking on an empty flag-supplied passphrase.
	if _, err := NewGPGSignerFromConfig(sc, "", ""); err == nil {
		t.Fatalf("expected an error opening a nonexistent key file")
	}
}
